// Package memory is a process-local credential store, used for --ephemeral
// runs and tests.
package memory

import (
	"context"

	"github.com/aussiebroadwan/postboard/internal/postboard/store"
	"github.com/aussiebroadwan/postboard/pkg/feedsdk"
)

type Store struct {
	*feedsdk.MemoryTokenStore
}

var _ store.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{MemoryTokenStore: feedsdk.NewMemoryTokenStore()}
}

func (s *Store) ApplyMigrations() error         { return nil }
func (s *Store) Close() error                   { return nil }
func (s *Store) Ping(ctx context.Context) error { return nil }
