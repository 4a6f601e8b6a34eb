package file

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/postboard/internal/postboard/store"
	"github.com/aussiebroadwan/postboard/pkg/feedsdk"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, passphrase string) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	st, err := NewStore(path, passphrase)
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	require.NoError(t, st.Ping(t.Context()))
	return st, path
}

func TestPlaintextRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	st, path := newTestStore(t, "")

	_, err := st.Load(ctx)
	require.ErrorIs(t, err, feedsdk.ErrNoTokens)

	require.NoError(t, st.Save(ctx, feedsdk.Tokens{AccessToken: "a", RefreshToken: "r"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `{"token":"a","refresh_token":"r"}`, string(raw))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(fileMode), info.Mode().Perm())

	got, err := st.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, feedsdk.Tokens{AccessToken: "a", RefreshToken: "r"}, got)

	require.NoError(t, st.Clear(ctx))
	require.NoError(t, st.Clear(ctx))
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestSealedRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	st, path := newTestStore(t, "hunter2")

	require.NoError(t, st.Save(ctx, feedsdk.Tokens{AccessToken: "secret-access", RefreshToken: "secret-refresh"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "secret-access")

	var sealed sealedDocument
	require.NoError(t, json.Unmarshal(raw, &sealed))
	require.Equal(t, 1, sealed.Version)

	got, err := st.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "secret-access", got.AccessToken)

	t.Run("wrong passphrase", func(t *testing.T) {
		other, err := NewStore(path, "wrong")
		require.NoError(t, err)

		_, err = other.Load(ctx)
		require.ErrorIs(t, err, store.ErrCorrupt)
	})
}

func TestCorruptDocument(t *testing.T) {
	t.Parallel()

	st, path := newTestStore(t, "")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := st.Load(t.Context())
	require.ErrorIs(t, err, store.ErrCorrupt)
}

func TestNewStoreNeedsPath(t *testing.T) {
	t.Parallel()

	_, err := NewStore("", "")
	require.Error(t, err)
}
