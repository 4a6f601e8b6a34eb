package feedsdk

import (
	"context"
	"net/http"
)

// GetUserProfile fetches the authenticated user. It does not update the
// session's snapshot, which is fixed for the life of a session.
func (s *Session) GetUserProfile(ctx context.Context) (*User, error) {
	pr, err := newPendingRequest(http.MethodGet, pathUserProfile, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.send(ctx, pr)
	if err != nil {
		return nil, err
	}

	var user User
	if err := decodeData(resp, pr.endpoint(), &user); err != nil {
		return nil, err
	}
	if err := user.validate(); err != nil {
		return nil, &DecodeError{Endpoint: pr.endpoint(), Err: err}
	}

	return &user, nil
}
