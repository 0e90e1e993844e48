package ports

import "github.com/DCMX-Protocol/walletgate/core"

// Tokenizer converts between sessions and wire tokens. It is a pure
// codec: it guarantees structural validity and signature integrity but
// leaves expiry policy to the caller, so that refresh can read tokens
// whose validity window has already passed.
type Tokenizer interface {
	// SessionToToken encodes and signs a session.
	SessionToToken(session *core.Session) (string, error)

	// TokenToSession decodes a token, verifying its signature and
	// structure. Returns core.ErrTokenMalformed or
	// core.ErrInvalidSignature on failure. Expiry is not checked.
	TokenToSession(token string) (*core.Session, error)
}
