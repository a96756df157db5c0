package sessionstore

import (
	"context"

	"github.com/golang/snappy"
	jsoniter "github.com/json-iterator/go"

	"github.com/prepstage/prepstage/internal/common/uuid"
	"github.com/prepstage/prepstage/internal/interviewsrv/entity"
	"github.com/prepstage/prepstage/internal/interviewsrv/kvstore"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// kvStore persists sessions as snappy-compressed JSON blobs in any KV.
// Sessions carry full transcripts, so blobs compress well.
type kvStore struct {
	kv kvstore.KV
}

// NewKV creates a session store layered over a key-value store.
func NewKV(kv kvstore.KV) Store {
	return &kvStore{kv: kv}
}

func sessionKey(id uuid.UUID) string {
	return "session:" + id.String()
}

func (s *kvStore) Load(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	blob, err := s.kv.Get(ctx, sessionKey(id))
	if err != nil {
		return nil, ErrStore.MsgErr("unable to load session", err)
	}
	if blob == nil {
		return nil, nil
	}
	raw, err := snappy.Decode(nil, blob)
	if err != nil {
		return nil, ErrStore.MsgErr("unable to decompress session", err)
	}
	var session entity.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, ErrStore.MsgErr("unable to decode session", err)
	}
	return &session, nil
}

func (s *kvStore) Save(ctx context.Context, session *entity.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return ErrStore.MsgErr("unable to encode session", err)
	}
	if err := s.kv.Put(ctx, sessionKey(session.ID), snappy.Encode(nil, raw)); err != nil {
		return ErrStore.MsgErr("unable to save session", err)
	}
	return nil
}
