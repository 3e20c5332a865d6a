package sessionstore

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Manager issues, resolves and destroys sessions. Cookie values have the form
// "<id>.<signature>" where the signature is an HMAC-SHA256 over the id keyed
// by the configured secret, so a stolen store id alone cannot be replayed.
type Manager struct {
	store       Store
	secret      []byte
	ttl         time.Duration
	maxLifetime time.Duration
}

// NewManager creates a Manager. ttl is the sliding window extended on each
// authenticated request; maxLifetime caps the total session age.
func NewManager(store Store, secret string, ttl, maxLifetime time.Duration) *Manager {
	return &Manager{
		store:       store,
		secret:      []byte(secret),
		ttl:         ttl,
		maxLifetime: maxLifetime,
	}
}

// Start creates a fresh session for userID and returns the signed cookie
// value.
func (m *Manager) Start(ctx context.Context, userID int64) (string, error) {
	id := uuid.NewString()
	now := time.Now()
	data := &Data{
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Put(ctx, id, data); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}
	return m.sign(id), nil
}

// Resolve verifies a cookie value, loads the session and slides its expiry
// forward. Returns the store id alongside the data so callers can update the
// session in place (impersonation start/stop).
func (m *Manager) Resolve(ctx context.Context, cookieValue string) (string, *Data, error) {
	id, ok := m.verify(cookieValue)
	if !ok {
		return "", nil, ErrNotFound
	}
	data, err := m.store.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}

	// Sliding expiry, capped at the absolute lifetime.
	deadline := time.Now().Add(m.ttl)
	if cap := data.CreatedAt.Add(m.maxLifetime); deadline.After(cap) {
		deadline = cap
	}
	data.ExpiresAt = deadline
	if err := m.store.Put(ctx, id, data); err != nil {
		return "", nil, fmt.Errorf("refreshing session: %w", err)
	}
	return id, data, nil
}

// Update replaces the stored data for an already-resolved session id.
func (m *Manager) Update(ctx context.Context, id string, data *Data) error {
	return m.store.Put(ctx, id, data)
}

// Destroy removes the session referenced by a cookie value. Invalid values
// are ignored.
func (m *Manager) Destroy(ctx context.Context, cookieValue string) error {
	id, ok := m.verify(cookieValue)
	if !ok {
		return nil
	}
	return m.store.Destroy(ctx, id)
}

func (m *Manager) sign(id string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	return id + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (m *Manager) verify(cookieValue string) (string, bool) {
	id, sig, found := strings.Cut(cookieValue, ".")
	if !found || id == "" {
		return "", false
	}
	want, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", false
	}
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(id))
	if !hmac.Equal(mac.Sum(nil), want) {
		return "", false
	}
	return id, true
}
