// Package fakeapi is an in-process stand-in for the Postboard feed API. It
// speaks the same JSON shapes as the real server and adds switches to force
// the failure modes the client must survive: expired access tokens, revoked
// refresh tokens and an unreachable server.
package fakeapi

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/aussiebroadwan/postboard/pkg/httpx"
	"github.com/aussiebroadwan/postboard/pkg/idx"
	"github.com/aussiebroadwan/postboard/pkg/jwtx"
	"github.com/aussiebroadwan/postboard/pkg/slogx"
)

// Config controls token lifetimes and throttling.
type Config struct {
	// Secret signs access tokens. A random secret is used when empty.
	Secret []byte
	Issuer string

	// AccessTTL is the access token lifetime. Default: jwtx.DefaultAccessTokenTTL
	AccessTTL time.Duration

	// LoginLimit throttles login and register per IP. The zero value
	// disables throttling.
	LoginLimit httpx.RateLimitConfig

	Logger *slog.Logger
}

// Call is one request as the server saw it.
type Call struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
}

// Endpoint returns "METHOD /path".
func (c Call) Endpoint() string { return c.Method + " " + c.Path }

type user struct {
	ID       string
	Name     string
	Email    string
	Password string
}

type post struct {
	ID        string
	Title     string
	Content   string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
	Comments  []comment
}

type comment struct {
	ID        string
	Content   string
	UserID    string
	CreatedAt time.Time
}

// API is the fake server. Use it as an http.Handler, typically behind
// httptest.NewServer.
type API struct {
	mux    *http.ServeMux
	signer jwtx.HS256
	ttl    time.Duration
	logger *slog.Logger

	mu            sync.Mutex
	usersByEmail  map[string]*user
	usersByID     map[string]*user
	posts         []*post
	accessTokens  map[string]bool   // jti -> still valid
	refreshTokens map[string]string // token -> user id
	calls         []Call
	offline       bool
	refreshDelay  time.Duration
	failRefresh   int
}

// New creates an empty fake API.
func New(cfg Config) *API {
	secret := cfg.Secret
	if len(secret) == 0 {
		secret = []byte(jwtx.NewJTI())
	}
	ttl := cfg.AccessTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slogx.Discard()
	}

	a := &API{
		mux:           http.NewServeMux(),
		signer:        jwtx.HS256{Secret: secret, Issuer: cfg.Issuer},
		ttl:           ttl,
		logger:        logger,
		usersByEmail:  make(map[string]*user),
		usersByID:     make(map[string]*user),
		accessTokens:  make(map[string]bool),
		refreshTokens: make(map[string]string),
	}
	a.routes(cfg.LoginLimit)
	return a
}

func (a *API) routes(loginLimit httpx.RateLimitConfig) {
	throttled := func(h http.HandlerFunc) http.Handler {
		if loginLimit.RequestsPerWindow <= 0 {
			return h
		}
		return httpx.Chain(h, httpx.Throttle(loginLimit, httpx.RemoteIP))
	}
	authed := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, a.authn)
	}

	a.mux.Handle("POST /auth/login", throttled(a.handleLogin))
	a.mux.Handle("POST /auth/register", throttled(a.handleRegister))
	a.mux.Handle("POST /auth/refresh", http.HandlerFunc(a.handleRefresh))
	a.mux.Handle("POST /auth/logout", authed(a.handleLogout))
	a.mux.Handle("GET /auth/user-profile", authed(a.handleProfile))
	a.mux.Handle("POST /forgot-password", http.HandlerFunc(a.handleForgotPassword))

	a.mux.Handle("GET /posts", authed(a.handleListPosts))
	a.mux.Handle("POST /posts", authed(a.handleCreatePost))
	a.mux.Handle("GET /posts/{id}", authed(a.handleGetPost))
	a.mux.Handle("PUT /posts/{id}", authed(a.handleUpdatePost))
	a.mux.Handle("DELETE /posts/{id}", authed(a.handleDeletePost))
	a.mux.Handle("POST /posts/{id}/comments", authed(a.handleAddComment))
}

// ServeHTTP records the call, then either drops the connection (offline) or
// routes it.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.calls = append(a.calls, Call{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		RequestID:     r.Header.Get("X-Request-ID"),
	})
	offline := a.offline
	a.mu.Unlock()

	if offline {
		dropConnection(w)
		return
	}

	ctx := slogx.WithContext(r.Context(), a.logger.With("req_id", r.Header.Get("X-Request-ID")))
	a.mux.ServeHTTP(w, r.WithContext(ctx))
}

// dropConnection closes the socket without answering, which the client sees
// as a transport failure.
func dropConnection(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetLinger(0)
	}
	_ = conn.Close()
}

// ============================================================================
// Test controls
// ============================================================================

// SeedUser registers an account directly and returns its id.
func (a *API) SeedUser(name, email, password string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addUserLocked(name, email, password).ID
}

func (a *API) addUserLocked(name, email, password string) *user {
	u := &user{ID: idx.New().String(), Name: name, Email: email, Password: password}
	a.usersByEmail[email] = u
	a.usersByID[u.ID] = u
	return u
}

// IssueTokens mints a token pair for an existing user, bypassing login.
func (a *API) IssueTokens(userID string) (access, refresh string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	u, ok := a.usersByID[userID]
	if !ok {
		return "", "", errUnknownUser
	}
	return a.issueLocked(u)
}

// IssueAccessToken mints an access token with a custom lifetime, which may be
// negative. No refresh token is created.
func (a *API) IssueAccessToken(userID string, ttl time.Duration) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	u, ok := a.usersByID[userID]
	if !ok {
		return "", errUnknownUser
	}
	return a.signLocked(u, ttl)
}

// ExpireAccessTokens invalidates every access token issued so far.
func (a *API) ExpireAccessTokens() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for jti := range a.accessTokens {
		a.accessTokens[jti] = false
	}
}

// RevokeRefreshTokens invalidates every refresh token issued so far.
func (a *API) RevokeRefreshTokens() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.refreshTokens)
}

// SetOffline makes the server drop every connection until turned back on.
func (a *API) SetOffline(offline bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.offline = offline
}

// SetRefreshDelay stalls each refresh call, widening the window in which
// concurrent requests pile up behind one refresh.
func (a *API) SetRefreshDelay(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.refreshDelay = d
}

// FailNextRefreshes makes the next n refresh calls answer 500.
func (a *API) FailNextRefreshes(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failRefresh = n
}

// Calls returns every recorded call, optionally filtered to one endpoint
// ("GET /posts").
func (a *API) Calls(endpoint ...string) []Call {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Call, 0, len(a.calls))
	for _, c := range a.calls {
		if len(endpoint) == 0 || c.Endpoint() == endpoint[0] {
			out = append(out, c)
		}
	}
	return out
}

// CallCount is len(Calls(endpoint)).
func (a *API) CallCount(endpoint string) int {
	return len(a.Calls(endpoint))
}

// ResetCalls forgets recorded calls.
func (a *API) ResetCalls() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = nil
}
