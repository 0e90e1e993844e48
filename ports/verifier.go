package ports

// WalletVerifier checks that a signature over a message was produced
// by the holder of the key behind the given address. Implementations
// must be deterministic and side-effect free; the service only
// consumes the pass/fail outcome.
type WalletVerifier interface {
	// Verify returns nil when the signature is valid for the address,
	// core.ErrInvalidSignature otherwise.
	Verify(address, message, signature string) error
}
