package sessionstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgconn"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/prepstage/prepstage/internal/common/uuid"
	"github.com/prepstage/prepstage/internal/interviewsrv/entity"
)

// postgresStore persists sessions as JSONB rows. The record column holds the
// full session JSON; id and status are lifted out for operational queries.
type postgresStore struct {
	db *sql.DB
}

// NewPostgres opens a connection pool against the given DSN and ensures the
// sessions table exists.
func NewPostgres(dsn string) (Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database connection")
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	if _, err := db.Exec(sessionsSchema); err != nil {
		return nil, errors.Wrap(err, "failed to ensure sessions table")
	}

	return &postgresStore{db: db}, nil
}

const sessionsSchema = `
CREATE TABLE IF NOT EXISTS interview_sessions (
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL,
	status TEXT NOT NULL,
	record JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func (p *postgresStore) Load(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	var record []byte
	query := `SELECT record FROM interview_sessions WHERE id = $1`
	err := p.db.QueryRowContext(ctx, query, id).Scan(&record)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to load session record")
		return nil, ErrStore.MsgErr("unable to load session", err)
	}
	var session entity.Session
	if err := json.Unmarshal(record, &session); err != nil {
		return nil, ErrStore.MsgErr("unable to decode session record", err)
	}
	return &session, nil
}

func (p *postgresStore) Save(ctx context.Context, session *entity.Session) error {
	record, err := json.Marshal(session)
	if err != nil {
		return ErrStore.MsgErr("unable to encode session record", err)
	}

	query := `
		INSERT INTO interview_sessions (id, user_id, status, record, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status, record = EXCLUDED.record, updated_at = now()
	`
	if _, err := p.db.ExecContext(ctx, query, session.ID, session.UserID, string(session.Status), record); err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok {
			log.Ctx(ctx).Error().Str("pg_code", pgErr.Code).Err(err).Msg("failed to upsert session record")
		} else {
			log.Ctx(ctx).Error().Err(err).Msg("failed to upsert session record")
		}
		return ErrStore.MsgErr("unable to save session", err)
	}
	return nil
}
