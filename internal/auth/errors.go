package auth

import "errors"

// Sentinel kinds for token minting errors.
var (
	ErrSigningFailed = errors.New("token signing failed")
)
