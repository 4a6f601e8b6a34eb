package feedsdk

import (
	"context"
	"sync"
)

// TokenStore is the durable side of the Credential Store: two values, the
// access token and the refresh token, written together and cleared together.
// Implementations must be safe for concurrent use.
type TokenStore interface {
	// Load returns the persisted pair, or ErrNoTokens.
	Load(ctx context.Context) (Tokens, error)

	// Save persists both tokens, replacing whatever was there. It does not
	// validate token shape.
	Save(ctx context.Context, t Tokens) error

	// Clear removes both tokens. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// MemoryTokenStore keeps tokens for the life of the process.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens Tokens
	saves  int
}

// NewMemoryTokenStore returns an empty store, optionally seeded.
func NewMemoryTokenStore(seed ...Tokens) *MemoryTokenStore {
	m := &MemoryTokenStore{}
	if len(seed) > 0 {
		m.tokens = seed[0]
	}
	return m
}

func (m *MemoryTokenStore) Load(_ context.Context) (Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tokens.IsZero() && m.tokens.RefreshToken == "" {
		return Tokens{}, ErrNoTokens
	}
	return m.tokens, nil
}

func (m *MemoryTokenStore) Save(_ context.Context, t Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens = t
	m.saves++
	return nil
}

func (m *MemoryTokenStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens = Tokens{}
	return nil
}

// Saves counts Save calls. Tests use it to assert write paths.
func (m *MemoryTokenStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
