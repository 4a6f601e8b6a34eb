package feedsdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"
)

// State is the session lifecycle state.
//
//	Uninitialized -> Initializing -> {Authenticated, Anonymous}
//	Authenticated -> Anonymous      (logout, failed refresh)
//	Anonymous     -> Authenticated  (login, register)
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session is the Credential Store: the only writer of the token pair and user
// snapshot. Every request it sends goes through the refresh protocol in
// gateway.go. A Session is safe for concurrent use.
type Session struct {
	client *SDKClient
	store  TokenStore

	mu     sync.RWMutex
	state  State
	tokens Tokens
	user   *User

	// refreshes coalesces concurrent refreshes into one call.
	refreshes singleflight.Group
}

// ============================================================================
// Lifecycle
// ============================================================================

// Load reads persisted tokens without touching the network or the session
// state. Returns ErrNoTokens when nothing is stored.
func (s *Session) Load(ctx context.Context) (Tokens, error) {
	return s.store.Load(ctx)
}

// Bootstrap restores a persisted session. With no stored access token the
// session becomes Anonymous. Otherwise the user profile is fetched; on
// success the session is Authenticated, on any failure it is cleared,
// becomes Anonymous and the cause is returned. Either way the session never
// rests with tokens but no user.
func (s *Session) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return fmt.Errorf("%w: bootstrap from %s", ErrInvalidTransition, s.state)
	}
	s.state = StateInitializing
	s.mu.Unlock()

	log := s.client.logger(ctx)

	tokens, err := s.store.Load(ctx)
	if err != nil && !errors.Is(err, ErrNoTokens) {
		_ = s.Clear(ctx)
		return fmt.Errorf("failed to load tokens: %w", err)
	}
	if tokens.AccessToken == "" {
		// A lone refresh token is partial state; drop it.
		if tokens.RefreshToken != "" {
			_ = s.Clear(ctx)
		} else {
			s.setState(StateAnonymous)
		}
		log.Debug("session_bootstrapped", "state", StateAnonymous.String())
		return nil
	}

	s.mu.Lock()
	s.tokens = tokens
	s.mu.Unlock()

	user, err := s.GetUserProfile(ctx)
	if err != nil {
		if clearErr := s.Clear(ctx); clearErr != nil {
			log.Error("failed to clear session", "error", clearErr)
		}
		log.Warn("bootstrap_failed", "error", err)
		return fmt.Errorf("failed to restore session: %w", err)
	}

	s.mu.Lock()
	// A failed refresh during the profile fetch already tore the session down.
	if s.tokens.IsZero() {
		s.mu.Unlock()
		return fmt.Errorf("failed to restore session: %w", ErrSessionExpired)
	}
	s.user = user
	s.state = StateAuthenticated
	s.mu.Unlock()

	log.Debug("session_bootstrapped", "state", StateAuthenticated.String(), "user_id", user.ID.String())
	return nil
}

// Login exchanges credentials for a session. Validation failures return a
// *ValidationError without contacting the server. Allowed from Anonymous and
// Authenticated; the latter replaces the current identity.
func (s *Session) Login(ctx context.Context, req LoginRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.canAuthenticate(); err != nil {
		return nil, err
	}

	payload, err := s.client.login(ctx, req)
	if err != nil {
		return nil, err
	}

	return s.establish(ctx, payload)
}

// Register creates an account and signs in as it. Same state rules as Login.
func (s *Session) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.canAuthenticate(); err != nil {
		return nil, err
	}

	payload, err := s.client.register(ctx, req)
	if err != nil {
		return nil, err
	}

	return s.establish(ctx, payload)
}

// Logout tells the server (best effort, never retried) and always clears
// local state. Only a local clear failure is returned.
func (s *Session) Logout(ctx context.Context) error {
	token := s.AccessToken()
	if token != "" {
		if err := s.client.logout(ctx, token); err != nil {
			s.client.logger(ctx).Warn("logout_failed", "error", err)
		}
	}
	return s.Clear(ctx)
}

// Clear wipes tokens and user from memory and from the store. Calling it
// repeatedly is harmless. An Uninitialized session stays Uninitialized.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.tokens = Tokens{}
	s.user = nil
	if s.state != StateUninitialized {
		s.state = StateAnonymous
	}
	s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear token store: %w", err)
	}
	return nil
}

// ============================================================================
// Accessors
// ============================================================================

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns a copy of the user snapshot, or nil when not authenticated.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// AccessToken returns the current access token without checking expiry.
// For most use cases, prefer the Session methods which refresh as needed.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.AccessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.RefreshToken
}

// IsAuthenticated reports whether the session is Authenticated.
func (s *Session) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

// RequireAuthenticated is the route guard for protected views.
func (s *Session) RequireAuthenticated() error {
	if !s.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	return nil
}

// ============================================================================
// Internal
// ============================================================================

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) canAuthenticate() error {
	st := s.State()
	if st != StateAnonymous && st != StateAuthenticated {
		return fmt.Errorf("%w: authenticate from %s", ErrInvalidTransition, st)
	}
	return nil
}

// establish persists a fresh token pair and moves to Authenticated. When the
// payload carries no user the profile is fetched with the new token; if that
// fails nothing is kept.
func (s *Session) establish(ctx context.Context, payload *authPayload) (*User, error) {
	tokens := payload.tokens()

	user := payload.User
	if user == nil {
		pr, err := newPendingRequest(http.MethodGet, pathUserProfile, nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.client.do(ctx, pr, tokens.AccessToken)
		if err != nil {
			return nil, err
		}
		var u User
		if err := decodeData(resp, pr.endpoint(), &u); err != nil {
			return nil, err
		}
		if err := u.validate(); err != nil {
			return nil, &DecodeError{Endpoint: pr.endpoint(), Err: err}
		}
		user = &u
	}

	if err := s.store.Save(ctx, tokens); err != nil {
		return nil, fmt.Errorf("failed to persist tokens: %w", err)
	}

	s.mu.Lock()
	s.tokens = tokens
	u := *user
	s.user = &u
	s.state = StateAuthenticated
	s.mu.Unlock()

	s.client.logger(ctx).Info("session_established", slog.String("user_id", user.ID.String()))

	out := *user
	return &out, nil
}
