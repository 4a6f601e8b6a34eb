package app

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/postboard/internal/fakeapi"
	"github.com/aussiebroadwan/postboard/internal/postboard/store"
	"github.com/aussiebroadwan/postboard/pkg/feedsdk"
	"github.com/aussiebroadwan/postboard/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"POSTBOARD_API_URL", "POSTBOARD_STORE", "POSTBOARD_STORE_PATH", "POSTBOARD_STORE_PASSPHRASE",
		"POSTBOARD_HTTP_TIMEOUT", "POSTBOARD_REFRESH_LEEWAY", "ENV", "LOG_LEVEL", "LOG_FORMAT",
		"RATELIMIT_CLIENT_REQUESTS", "RATELIMIT_CLIENT_WINDOW_SEC", "RATELIMIT_CLIENT_BURST",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	require.Equal(t, "http://localhost:8000/api", cfg.APIURL)
	require.Equal(t, StoreFile, cfg.Store)
	require.Equal(t, "credentials.json", filepath.Base(cfg.StorePath))
	require.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	require.Equal(t, feedsdk.DefaultRefreshLeeway, cfg.RefreshLeeway)
	require.Equal(t, httpx.ClientLimit, cfg.ClientLimit)
	require.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("POSTBOARD_API_URL", "https://feed.example.com/api")
	t.Setenv("POSTBOARD_STORE", "sqlite")
	t.Setenv("POSTBOARD_STORE_PATH", "")
	t.Setenv("POSTBOARD_HTTP_TIMEOUT", "3")
	t.Setenv("POSTBOARD_REFRESH_LEEWAY", "1m")
	t.Setenv("RATELIMIT_CLIENT_BURST", "7")

	cfg := LoadConfig()
	require.Equal(t, "https://feed.example.com/api", cfg.APIURL)
	require.Equal(t, StoreSQLite, cfg.Store)
	require.Equal(t, "credentials.db", filepath.Base(cfg.StorePath))
	require.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	require.Equal(t, time.Minute, cfg.RefreshLeeway)
	require.Equal(t, 7, cfg.ClientLimit.Burst)
}

func testConfig(t *testing.T, apiURL, driver string) Config {
	t.Helper()

	name := "credentials.json"
	if driver == StoreSQLite {
		name = "credentials.db"
	}

	return Config{
		APIURL:      apiURL,
		Store:       driver,
		StorePath:   filepath.Join(t.TempDir(), "state", name),
		HTTPTimeout: 5 * time.Second,
		Env:         "test",
		LogLevel:    "debug",
		LogFormat:   "json",
	}
}

func TestNewUnknownStore(t *testing.T) {
	_, err := New(Config{Store: "redis"}, WithLogWriter(&bytes.Buffer{}))
	require.ErrorIs(t, err, store.ErrUnknownDriver)
}

func TestSessionPersistsAcrossApplications(t *testing.T) {
	api := fakeapi.New(fakeapi.Config{})
	api.SeedUser("Ada", "ada@example.com", "correct-horse")
	srv := httptest.NewServer(api)
	defer srv.Close()

	for _, driver := range []string{StoreFile, StoreSQLite} {
		t.Run(driver, func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig(t, srv.URL, driver)

			var logs bytes.Buffer
			first, err := New(cfg, WithLogWriter(&logs))
			require.NoError(t, err)
			first.Bootstrap(ctx)
			require.Equal(t, feedsdk.StateAnonymous, first.Session().State())

			_, err = first.Session().Login(ctx, feedsdk.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
			require.NoError(t, err)
			require.NoError(t, first.Close())

			// Outbound requests are logged with their request id.
			require.Contains(t, logs.String(), `"msg":"http_request"`)
			require.Contains(t, logs.String(), `"req_id"`)

			second, err := New(cfg, WithLogWriter(&bytes.Buffer{}))
			require.NoError(t, err)
			defer second.Close()

			second.Bootstrap(ctx)
			require.True(t, second.Session().IsAuthenticated())
			require.Equal(t, "Ada", second.Session().User().Name)
		})
	}
}

func TestBootstrapFailureIsLoggedNotFatal(t *testing.T) {
	api := fakeapi.New(fakeapi.Config{})
	srv := httptest.NewServer(api)
	defer srv.Close()

	cfg := testConfig(t, srv.URL, StoreMemory)

	var logs bytes.Buffer
	a, err := New(cfg, WithLogWriter(&logs))
	require.NoError(t, err)
	defer a.Close()

	// Tokens for a user the server has never heard of.
	require.NoError(t, a.Store().Save(context.Background(), feedsdk.Tokens{AccessToken: "stale", RefreshToken: "stale"}))

	require.Error(t, a.Bootstrap(context.Background()))
	require.Equal(t, feedsdk.StateAnonymous, a.Session().State())
	require.Contains(t, logs.String(), "could not restore session")

	_, err = a.Store().Load(context.Background())
	require.ErrorIs(t, err, feedsdk.ErrNoTokens)
}
