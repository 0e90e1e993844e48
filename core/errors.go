package core

import "errors"

var (
	// ErrMissingChallenge is returned when no outstanding challenge
	// exists for the address, or the stored one already expired.
	ErrMissingChallenge = errors.New("no outstanding challenge")

	// ErrInvalidSignature is returned when wallet signature
	// verification fails.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrTokenExpired is returned when a token's integrity checks out
	// but its validity window has passed.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenMalformed is returned when a token is structurally
	// invalid or signed with an unexpected method.
	ErrTokenMalformed = errors.New("malformed token")

	// ErrTokenRevoked is returned when a token's id appears on the
	// revocation list.
	ErrTokenRevoked = errors.New("token has been revoked")

	// ErrBackendUnavailable signals that the identity backend could
	// not be reached. It triggers degraded-mode issuance and is logged
	// as a warning, never surfaced as a login failure.
	ErrBackendUnavailable = errors.New("identity backend unavailable")
)
