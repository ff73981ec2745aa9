package session

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hr-onboarding/internal/db"
)

// openTestPostgres connects to TEST_DATABASE_URL and applies the migrations.
// Tests are skipped when it is unset.
func openTestPostgres(t *testing.T) *PostgresBackend {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	database, err := sql.Open("pgx", dsn)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, database.PingContext(ctx))
	_, err = db.RunMigrations(ctx, database)
	require.NoError(t, err)

	backend := NewPostgresBackend(database)
	t.Cleanup(func() { _ = backend.Close() })
	return backend
}

func TestServerProviderWithPostgresBackend(t *testing.T) {
	exerciseServerProvider(t, openTestPostgres(t))
}

func TestPostgresBackendGetSetDelete(t *testing.T) {
	backend := openTestPostgres(t)
	ctx := context.Background()
	id := uuid.NewString()

	_, err := backend.Get(ctx, id)
	assert.ErrorIs(t, err, ErrSlotNotFound)

	require.NoError(t, backend.Set(ctx, id, []byte(`{"version":1,"savedAt":1}`), time.Hour))
	data, err := backend.Get(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"savedAt":1}`, string(data))

	require.NoError(t, backend.Set(ctx, id, []byte(`{"version":1,"savedAt":2}`), time.Hour))
	data, err = backend.Get(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"savedAt":2}`, string(data))

	require.NoError(t, backend.Delete(ctx, id))
	_, err = backend.Get(ctx, id)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestPostgresBackendExpiryAndCleanup(t *testing.T) {
	backend := openTestPostgres(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second)
	backend.now = func() time.Time { return base }

	stale := uuid.NewString()
	recent := uuid.NewString()
	require.NoError(t, backend.Set(ctx, stale, []byte(`{"version":1}`), time.Minute))
	require.NoError(t, backend.Set(ctx, recent, []byte(`{"version":1}`), 47*time.Hour))

	backend.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err := backend.Get(ctx, stale)
	assert.ErrorIs(t, err, ErrSlotNotFound)

	backend.now = func() time.Time { return base.Add(48 * time.Hour) }
	_, err = backend.CleanupExpired(ctx, 24*time.Hour, 500)
	require.NoError(t, err)

	var remaining int
	require.NoError(t, backend.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM session_slots WHERE id = ANY(ARRAY[$1, $2]::uuid[])`, stale, recent).Scan(&remaining))
	assert.Equal(t, 1, remaining)

	require.NoError(t, backend.Delete(ctx, recent))
}
