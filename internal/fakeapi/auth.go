package fakeapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/postboard/pkg/cryptox"
	"github.com/aussiebroadwan/postboard/pkg/httpx"
	"github.com/aussiebroadwan/postboard/pkg/jwtx"
	"github.com/aussiebroadwan/postboard/pkg/slogx"
)

var errUnknownUser = errors.New("fakeapi: unknown user")

type ctxKey int

const ctxKeyUserID ctxKey = iota

type userJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *user) json() userJSON {
	return userJSON{ID: u.ID, Name: u.Name, Email: u.Email}
}

type envelope struct {
	Data any `json:"data"`
}

// authn rejects requests without a valid, unexpired, unrevoked access token
// and puts the subject into the request context.
func (a *API) authn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := slogx.FromContext(r.Context())

		raw, ok := httpx.BearerToken(r)
		if !ok {
			httpx.WriteMessage(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}

		claims, err := a.signer.Verify(raw)
		if err != nil {
			log.Debug("access token rejected", "err", err)
			httpx.WriteMessage(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}

		a.mu.Lock()
		valid := a.accessTokens[claims.ID]
		_, known := a.usersByID[claims.Subject]
		a.mu.Unlock()
		if !valid || !known {
			httpx.WriteMessage(w, http.StatusUnauthorized, "Unauthenticated.")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(ctxKeyUserID).(string)
	return id
}

func (a *API) signLocked(u *user, ttl time.Duration) (string, error) {
	claims := jwtx.NewAccessClaims(u.ID, u.Email, a.signer.Issuer, ttl, time.Now())
	token, err := a.signer.Sign(claims)
	if err != nil {
		return "", err
	}
	a.accessTokens[claims.ID] = true
	return token, nil
}

func (a *API) issueLocked(u *user) (access, refresh string, err error) {
	access, err = a.signLocked(u, a.ttl)
	if err != nil {
		return "", "", err
	}
	refresh, err = cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", "", err
	}
	a.refreshTokens[refresh] = u.ID
	return access, refresh, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "Malformed JSON body.")
		return false
	}
	return true
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	u, ok := a.usersByEmail[strings.TrimSpace(req.Email)]
	if !ok || subtle.ConstantTimeCompare([]byte(u.Password), []byte(req.Password)) != 1 {
		httpx.WriteMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	access, refresh, err := a.issueLocked(u)
	if err != nil {
		httpx.WriteMessage(w, http.StatusInternalServerError, "Could not issue tokens")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, envelope{Data: map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"user":          u.json(),
	}})
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                 string `json:"name"`
		Email                string `json:"email"`
		Password             string `json:"password"`
		PasswordConfirmation string `json:"password_confirmation"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	fields := map[string][]string{}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = []string{"The name field is required."}
	}
	if !strings.Contains(req.Email, "@") {
		fields["email"] = []string{"The email must be a valid email address."}
	}
	if len(req.Password) < 8 || req.Password != req.PasswordConfirmation {
		fields["password"] = []string{"The password confirmation does not match."}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, taken := a.usersByEmail[req.Email]; taken {
		fields["email"] = []string{"The email has already been taken."}
	}
	if len(fields) > 0 {
		httpx.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": "The given data was invalid.",
			"errors":  fields,
		})
		return
	}

	u := a.addUserLocked(req.Name, req.Email, req.Password)
	access, refresh, err := a.issueLocked(u)
	if err != nil {
		httpx.WriteMessage(w, http.StatusInternalServerError, "Could not issue tokens")
		return
	}

	// Registration answers with "token", not "access_token".
	httpx.WriteJSON(w, http.StatusCreated, envelope{Data: map[string]any{
		"token":         access,
		"refresh_token": refresh,
		"user":          u.json(),
	}})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	a.mu.Lock()
	delay := a.refreshDelay
	fail := a.failRefresh > 0
	if fail {
		a.failRefresh--
	}
	a.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if fail {
		httpx.WriteMessage(w, http.StatusInternalServerError, "Refresh unavailable")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	userID, ok := a.refreshTokens[req.RefreshToken]
	if !ok {
		httpx.WriteMessage(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	// Rotation: the presented token is spent.
	delete(a.refreshTokens, req.RefreshToken)

	access, refresh, err := a.issueLocked(a.usersByID[userID])
	if err != nil {
		httpx.WriteMessage(w, http.StatusInternalServerError, "Could not issue tokens")
		return
	}

	slogx.FromContext(r.Context()).Debug("refresh token rotated",
		"old", cryptox.LogFingerprint(req.RefreshToken),
		"new", cryptox.LogFingerprint(refresh),
	)

	httpx.WriteJSON(w, http.StatusOK, envelope{Data: map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
	}})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	a.mu.Lock()
	for token, owner := range a.refreshTokens {
		if owner == userID {
			delete(a.refreshTokens, token)
		}
	}
	a.mu.Unlock()

	httpx.WriteMessage(w, http.StatusOK, "Successfully logged out")
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	u := a.usersByID[userIDFrom(r)]
	a.mu.Unlock()

	httpx.WriteJSON(w, http.StatusOK, envelope{Data: u.json()})
}

func (a *API) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	a.mu.Lock()
	_, ok := a.usersByEmail[req.Email]
	a.mu.Unlock()

	if !ok {
		httpx.WriteMessage(w, http.StatusNotFound, "We can't find a user with that email address.")
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "We have emailed your password reset link.")
}
