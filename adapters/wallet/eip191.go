package wallet

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/DCMX-Protocol/walletgate/core"
	"github.com/DCMX-Protocol/walletgate/ports"
)

// PersonalSignVerifier verifies EIP-191 personal_sign signatures, the
// scheme browser wallets use for plain-text login prompts. The signer
// address is recovered from the signature and compared to the claimed
// one.
type PersonalSignVerifier struct{}

// NewPersonalSignVerifier creates an EIP-191 verifier.
func NewPersonalSignVerifier() ports.WalletVerifier {
	return PersonalSignVerifier{}
}

// Verify recovers the signing address from the signature over the
// personal-sign hash of message and checks it matches address.
func (PersonalSignVerifier) Verify(address, message, signature string) error {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", core.ErrInvalidSignature)
	}
	if len(sig) != crypto.SignatureLength {
		return fmt.Errorf("signature must be %d bytes: %w", crypto.SignatureLength, core.ErrInvalidSignature)
	}

	// Wallets emit V as 27/28; go-ethereum expects 0/1.
	recovery := make([]byte, len(sig))
	copy(recovery, sig)
	if recovery[crypto.RecoveryIDOffset] >= 27 {
		recovery[crypto.RecoveryIDOffset] -= 27
	}

	hash := accounts.TextHash([]byte(message))

	pubKey, err := crypto.SigToPub(hash, recovery)
	if err != nil {
		return fmt.Errorf("failed to recover public key: %w", core.ErrInvalidSignature)
	}

	recovered := crypto.PubkeyToAddress(*pubKey)
	if recovered != common.HexToAddress(address) {
		return core.ErrInvalidSignature
	}
	return nil
}
