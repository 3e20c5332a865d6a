// Package sessionstore holds server-side authentication session state behind
// a small keyed-store interface. The HTTP layer carries only a signed opaque
// session id in a cookie; everything else lives here.
package sessionstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no live session exists for an id.
var ErrNotFound = errors.New("auth session not found")

// Data is the per-session state. ViewAsUserID is non-zero while an admin is
// impersonating another user.
type Data struct {
	UserID       int64
	ViewAsUserID int64
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// Store is a keyed session store. Implementations must treat expired entries
// as absent.
type Store interface {
	Get(ctx context.Context, id string) (*Data, error)
	Put(ctx context.Context, id string, data *Data) error
	Destroy(ctx context.Context, id string) error
}
