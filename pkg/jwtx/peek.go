package jwtx

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Peek decodes a JWT's claims WITHOUT verifying the signature. The client
// never holds the server's key; it only uses the result to decide whether a
// token is worth sending. Never make authorization decisions from it.
func Peek(token string) (Claims, error) {
	var c Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return c, nil
}

// ExpiresWithin reports whether token is a JWT whose exp falls before
// now+leeway. Opaque tokens and JWTs without exp report false: only the server
// can tell whether those are still good.
func ExpiresWithin(token string, leeway time.Duration, now time.Time) bool {
	c, err := Peek(token)
	if err != nil || c.ExpiresAt == nil {
		return false
	}
	return !now.Add(leeway).Before(c.ExpiresAt.Time)
}
