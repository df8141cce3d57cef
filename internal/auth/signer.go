// Package auth mints the short-lived bearer tokens required by the
// vendor analytics cloud. Tokens are valid for five minutes, so a
// fresh one is generated for every outbound call instead of caching.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenTTL is the validity window the vendor grants a minted token.
const tokenTTL = 5 * time.Minute

// Signer mints HS256-signed tokens for the source API.
type Signer struct {
	consumerID string
	secret     []byte
	now        func() time.Time
}

// Option applies a configuration option to the Signer.
type Option func(*Signer)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSigner creates a Signer for the given consumer id and shared
// secret. Credential presence is validated at config load, not here.
func NewSigner(consumerID, sharedSecret string, opts ...Option) *Signer {
	s := &Signer{
		consumerID: consumerID,
		secret:     []byte(sharedSecret),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns a compact signed token carrying {iss, iat, exp}.
func (s *Signer) Token() (string, error) {
	now := s.now().Unix()
	claims := jwt.MapClaims{
		"iss": s.consumerID,
		"iat": now,
		"exp": now + int64(tokenTTL.Seconds()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", ErrSigningFailed
	}
	return token, nil
}
