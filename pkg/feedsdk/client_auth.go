package feedsdk

import (
	"context"
	"net/http"
)

// API paths, relative to SDKClient.BaseURL.
const (
	pathLogin          = "/auth/login"
	pathRegister       = "/auth/register"
	pathLogout         = "/auth/logout"
	pathRefresh        = "/auth/refresh"
	pathUserProfile    = "/auth/user-profile"
	pathForgotPassword = "/forgot-password"
	pathPosts          = "/posts"
)

// The calls below bypass the refresh protocol: they either need no token or,
// for logout, must not trigger a refresh.

func (c *SDKClient) login(ctx context.Context, req LoginRequest) (*authPayload, error) {
	return c.authenticate(ctx, pathLogin, req, true)
}

func (c *SDKClient) register(ctx context.Context, req RegisterRequest) (*authPayload, error) {
	// Registration may omit the user; the session fetches it.
	return c.authenticate(ctx, pathRegister, req, false)
}

func (c *SDKClient) authenticate(ctx context.Context, path string, body any, needUser bool) (*authPayload, error) {
	pr, err := newPendingRequest(http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, pr, "")
	if err != nil {
		return nil, err
	}

	var payload authPayload
	if err := decodeData(resp, pr.endpoint(), &payload); err != nil {
		return nil, err
	}
	if err := payload.validate(needUser); err != nil {
		return nil, &DecodeError{Endpoint: pr.endpoint(), Err: err}
	}

	return &payload, nil
}

// RefreshGrant exchanges a refresh token for a new token pair. The server
// rotates refresh tokens, so the one passed in is spent either way.
func (c *SDKClient) RefreshGrant(ctx context.Context, refreshToken string) (Tokens, error) {
	pr, err := newPendingRequest(http.MethodPost, pathRefresh, refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return Tokens{}, err
	}

	resp, err := c.do(ctx, pr, "")
	if err != nil {
		return Tokens{}, err
	}

	var payload authPayload
	if err := decodeData(resp, pr.endpoint(), &payload); err != nil {
		return Tokens{}, err
	}
	if err := payload.validate(false); err != nil {
		return Tokens{}, &DecodeError{Endpoint: pr.endpoint(), Err: err}
	}

	return payload.tokens(), nil
}

// ForgotPassword asks the server to email a reset link. The returned message
// is the server's confirmation text and may be empty.
func (c *SDKClient) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*MessageResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pr, err := newPendingRequest(http.MethodPost, pathForgotPassword, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, pr, "")
	if err != nil {
		return nil, err
	}

	var msg MessageResponse
	if _, err := decodeOptional(resp, pr.endpoint(), &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// logout revokes the server-side session for token. Not retried.
func (c *SDKClient) logout(ctx context.Context, token string) error {
	pr, err := newPendingRequest(http.MethodPost, pathLogout, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, pr, token)
	if err != nil {
		return err
	}
	return checkStatus(resp, pr.endpoint())
}
