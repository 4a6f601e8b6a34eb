package feedsdk

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRefreshLeeway is how close to expiry a JWT access token may get
// before the gateway refreshes it ahead of sending.
const DefaultRefreshLeeway = 30 * time.Second

// SDKClient is a client for the feed API.
// It provides access to unauthenticated operations and creates Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// Limiter, when set, is waited on before every outbound request,
	// including refreshes and replays.
	Limiter *rate.Limiter

	// Logger receives SDK events. Nil means the context logger.
	Logger *slog.Logger

	// ProactiveRefresh refreshes JWT access tokens that expire within
	// RefreshLeeway before sending, instead of waiting for the 401.
	// Opaque tokens are unaffected. Default: true
	ProactiveRefresh bool
	RefreshLeeway    time.Duration
}

// NewSDKClient creates a new feed API client. baseURL includes the API
// prefix, e.g. "https://feed.example.com/api".
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		ProactiveRefresh: true,
		RefreshLeeway:    DefaultRefreshLeeway,
	}
}

// NewSession creates an Uninitialized session persisting into store. Call
// Bootstrap before anything else.
func (c *SDKClient) NewSession(store TokenStore) *Session {
	if store == nil {
		store = NewMemoryTokenStore()
	}
	return &Session{
		client: c,
		store:  store,
		state:  StateUninitialized,
	}
}
