package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresBackend stores slots in the session_slots table.
type PostgresBackend struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{db: db, now: time.Now}
}

func (b *PostgresBackend) Get(ctx context.Context, id string) ([]byte, error) {
	var envelope string
	err := b.db.QueryRowContext(ctx, `
		SELECT envelope
		FROM session_slots
		WHERE id = $1 AND expires_at > $2
	`, id, b.now().UTC()).Scan(&envelope)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("query session slot: %w", err)
	}

	return []byte(envelope), nil
}

func (b *PostgresBackend) Set(ctx context.Context, id string, data []byte, ttl time.Duration) error {
	now := b.now().UTC()
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO session_slots (id, envelope, expires_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id)
		DO UPDATE SET
			envelope = EXCLUDED.envelope,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
	`, id, string(data), now.Add(ttl), now)
	if err != nil {
		return fmt.Errorf("upsert session slot: %w", err)
	}

	return nil
}

func (b *PostgresBackend) Delete(ctx context.Context, id string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM session_slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session slot: %w", err)
	}

	return nil
}

// CleanupExpired deletes up to batchSize slots that expired more than
// retention ago.
func (b *PostgresBackend) CleanupExpired(ctx context.Context, retention time.Duration, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	if retention < 0 {
		retention = 0
	}

	cutoff := b.now().UTC().Add(-retention)
	res, err := b.db.ExecContext(ctx, `
		WITH stale AS (
			SELECT id
			FROM session_slots
			WHERE expires_at < $1
			ORDER BY expires_at ASC
			LIMIT $2
		)
		DELETE FROM session_slots s
		USING stale
		WHERE s.id = stale.id
	`, cutoff, batchSize)
	if err != nil {
		return 0, fmt.Errorf("delete stale session slots: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("stale session slots rows affected: %w", err)
	}

	return affected, nil
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *PostgresBackend) Close() error {
	return b.db.Close()
}
