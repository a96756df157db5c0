package sessionstore

import (
	"context"
	"sync"

	"github.com/prepstage/prepstage/internal/common/uuid"
	"github.com/prepstage/prepstage/internal/interviewsrv/entity"
)

// memoryStore keeps sessions in a process-local map. Used in tests and
// single-node development; records do not survive a restart.
type memoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]entity.Session
}

// NewMemory creates an empty in-memory session store.
func NewMemory() Store {
	return &memoryStore{sessions: make(map[uuid.UUID]entity.Session)}
}

func (m *memoryStore) Load(_ context.Context, id uuid.UUID) (*entity.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memoryStore) Save(_ context.Context, s *entity.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}
