package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// HS256 signs and verifies tokens with a shared secret. Only the in-repo fake
// API uses it; the real server's keys are never available to the client.
type HS256 struct {
	Secret []byte
	Issuer string
}

func (h HS256) Sign(c Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	s, err := tok.SignedString(h.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return s, nil
}

// Verify checks signature, issuer and expiry.
func (h HS256) Verify(token string) (Claims, error) {
	var c Claims
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if h.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(h.Issuer))
	}

	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return h.Secret, nil
	}, opts...)
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return Claims{}, ErrInvalidSig
	default:
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
