package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/postboard/pkg/feedsdk"
)

var (
	// ErrUnknownDriver is returned for an unrecognised driver name.
	ErrUnknownDriver = errors.New("store: unknown driver")

	// ErrCorrupt means persisted credentials exist but cannot be read back
	// (bad JSON, wrong passphrase, tampered ciphertext).
	ErrCorrupt = errors.New("store: credentials unreadable")
)

// Store is the durable credential store. Concrete drivers (file, sqlite,
// memory) implement this. Load/Save/Clear come from feedsdk.TokenStore; the
// two values are always written and removed together.
type Store interface {
	feedsdk.TokenStore

	// ApplyMigrations prepares the backing storage. Drivers without a schema
	// treat it as a no-op.
	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error
}
