package feedsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aussiebroadwan/postboard/pkg/cryptox"
	"github.com/aussiebroadwan/postboard/pkg/jwtx"
)

// refreshKey is the single singleflight key: one refresh per session at a time.
const refreshKey = "refresh"

// send issues pr with the current access token and owns the 401 protocol:
//
//   - any non-401 answer is returned unchanged;
//   - the first 401 marks pr retried, refreshes once and replays pr once;
//   - a 401 on an already-retried request is returned to the caller as is;
//   - a failed refresh tears the session down and yields *SessionExpiredError.
//
// A request sent without a token is never refreshed: there is no session to
// recover.
func (s *Session) send(ctx context.Context, pr *PendingRequest) (*http.Response, error) {
	token, err := s.currentToken(ctx, pr)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.do(ctx, pr, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || pr.retried || token == "" {
		return resp, nil
	}
	drain(resp)

	pr.retried = true
	token, err = s.refresh(ctx, token)
	if err != nil {
		return nil, err
	}

	s.client.logger(ctx).Debug("request_replayed",
		"req_id", pr.ID.String(),
		"endpoint", pr.endpoint(),
	)
	return s.client.do(ctx, pr, token)
}

// currentToken returns the token to attach to pr. A JWT access token that is
// about to expire is refreshed first; that refresh uses up pr's one retry.
func (s *Session) currentToken(ctx context.Context, pr *PendingRequest) (string, error) {
	token := s.AccessToken()
	if token == "" || pr.retried || !s.client.ProactiveRefresh {
		return token, nil
	}

	leeway := s.client.RefreshLeeway
	if leeway <= 0 {
		leeway = DefaultRefreshLeeway
	}
	if !jwtx.ExpiresWithin(token, leeway, time.Now()) {
		return token, nil
	}

	pr.retried = true
	return s.refresh(ctx, token)
}

// refresh returns a token newer than stale, running at most one refresh
// request for all concurrent callers. Each caller waits on its own ctx; the
// shared refresh itself is not cancelled by any one caller going away.
func (s *Session) refresh(ctx context.Context, stale string) (string, error) {
	if current := s.AccessToken(); current != "" && current != stale {
		return current, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := s.refreshes.DoChan(refreshKey, func() (any, error) {
		return s.doRefresh(detached, stale)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// doRefresh performs the refresh grant. It rechecks for a newer token first:
// a flight that started after another completed must not spend the rotated
// refresh token a second time.
func (s *Session) doRefresh(ctx context.Context, stale string) (string, error) {
	s.mu.RLock()
	tokens := s.tokens
	s.mu.RUnlock()

	if tokens.AccessToken != "" && tokens.AccessToken != stale {
		return tokens.AccessToken, nil
	}
	if tokens.RefreshToken == "" {
		return "", s.expire(ctx, ErrNoRefreshToken)
	}

	log := s.client.logger(ctx)

	fresh, err := s.client.RefreshGrant(ctx, tokens.RefreshToken)
	if err != nil {
		return "", s.expire(ctx, err)
	}

	s.mu.Lock()
	if s.tokens.RefreshToken != tokens.RefreshToken {
		// Logged out or re-authenticated while the grant was in flight.
		current := s.tokens.AccessToken
		s.mu.Unlock()
		if current == "" {
			return "", &SessionExpiredError{Err: errors.New("session cleared during refresh")}
		}
		return current, nil
	}
	if err := s.store.Save(ctx, fresh); err != nil {
		s.mu.Unlock()
		return "", s.expire(ctx, fmt.Errorf("failed to persist refreshed tokens: %w", err))
	}
	s.tokens = fresh
	s.mu.Unlock()

	log.Info("session_refreshed", "refresh_token", cryptox.LogFingerprint(fresh.RefreshToken))
	return fresh.AccessToken, nil
}

// expire tears the session down and wraps cause as a terminal error.
func (s *Session) expire(ctx context.Context, cause error) error {
	log := s.client.logger(ctx)
	if err := s.Clear(ctx); err != nil {
		log.Error("failed to clear session", "error", err)
	}
	log.Warn("session_expired", "error", cause)
	return &SessionExpiredError{Err: cause}
}
