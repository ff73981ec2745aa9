package session

import (
	"context"
	"net/http"
	"time"
)

// DefaultKey is the name of the single storage slot.
const DefaultKey = "AO-001_LOGIN_V1"

// Slot is one storage cell holding a raw envelope. Get returns nil, nil
// when the slot is empty.
type Slot interface {
	Get(ctx context.Context) ([]byte, error)
	Set(ctx context.Context, data []byte) error
	Remove(ctx context.Context) error
}

// Provider opens the slot that belongs to the browser behind a request.
type Provider interface {
	Open(w http.ResponseWriter, r *http.Request) Slot
}

// Backend keeps envelopes on the server, keyed by an opaque slot id.
type Backend interface {
	Get(ctx context.Context, id string) ([]byte, error)
	Set(ctx context.Context, id string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Driver identifiers accepted by SLOT_DRIVER.
const (
	DriverCookie   = "cookie"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)
