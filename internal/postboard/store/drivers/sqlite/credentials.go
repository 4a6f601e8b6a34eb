package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aussiebroadwan/postboard/pkg/feedsdk"
)

// Row keys, matching the names the browser client used in local storage.
const (
	keyAccessToken  = "token"
	keyRefreshToken = "refresh_token"
)

const upsertCredential = `
INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

func (s *Store) Load(ctx context.Context) (feedsdk.Tokens, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM credentials WHERE key IN (?, ?)`,
		keyAccessToken, keyRefreshToken,
	)
	if err != nil {
		return feedsdk.Tokens{}, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer rows.Close()

	var t feedsdk.Tokens
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return feedsdk.Tokens{}, fmt.Errorf("failed to scan credential: %w", err)
		}
		switch key {
		case keyAccessToken:
			t.AccessToken = value
		case keyRefreshToken:
			t.RefreshToken = value
		}
	}
	if err := rows.Err(); err != nil {
		return feedsdk.Tokens{}, fmt.Errorf("failed to read credentials: %w", err)
	}

	if t.AccessToken == "" && t.RefreshToken == "" {
		return feedsdk.Tokens{}, feedsdk.ErrNoTokens
	}
	return t, nil
}

// Save writes both keys in one transaction.
func (s *Store) Save(ctx context.Context, t feedsdk.Tokens) error {
	now := time.Now().UTC()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, upsertCredential, keyAccessToken, t.AccessToken, now); err != nil {
			return fmt.Errorf("failed to save access token: %w", err)
		}
		if _, err := tx.ExecContext(ctx, upsertCredential, keyRefreshToken, t.RefreshToken, now); err != nil {
			return fmt.Errorf("failed to save refresh token: %w", err)
		}
		return nil
	})
}

// Clear removes both keys in one statement.
func (s *Store) Clear(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM credentials WHERE key IN (?, ?)`,
			keyAccessToken, keyRefreshToken,
		); err != nil {
			return fmt.Errorf("failed to clear credentials: %w", err)
		}
		return nil
	})
}
