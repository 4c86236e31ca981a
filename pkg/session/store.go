package session

import (
	"context"
	"errors"
	"time"
)

// ErrStoreClosed is returned by every operation on a closed store.
var ErrStoreClosed = errors.New("session: store is closed")

// Store persists session snapshots between connections.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save writes data under id, replacing any previous value. The entry is
	// gone after expiresAt.
	Save(ctx context.Context, id string, data []byte, expiresAt time.Time) error

	// Load returns (nil, nil) when id is unknown or expired.
	Load(ctx context.Context, id string) ([]byte, error)

	// Delete removes id. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// Touch moves the expiry of id without rewriting it. Unknown ids are
	// ignored.
	Touch(ctx context.Context, id string, expiresAt time.Time) error

	// SaveAll writes several entries, atomically where the backend can.
	SaveAll(ctx context.Context, entries map[string]Entry) error

	Close() error
}

// Entry is one snapshot passed to SaveAll.
type Entry struct {
	Data      []byte
	ExpiresAt time.Time
}
