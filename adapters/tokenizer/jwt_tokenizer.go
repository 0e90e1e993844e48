package tokenizer

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"github.com/DCMX-Protocol/walletgate/core"
	"github.com/DCMX-Protocol/walletgate/ports"
)

// AudienceSession marks tokens minted by this service.
const AudienceSession = "walletgate:session"

// JWTTokenizer implements the Tokenizer port with HS256 JWTs signed by
// a service-held secret. It is a pure codec: signature and structure
// are enforced here, expiry policy is enforced by the token service so
// refresh can still read expired tokens.
type JWTTokenizer struct {
	secret []byte
}

// NewJWTTokenizer creates a tokenizer signing with the given secret.
func NewJWTTokenizer(secret []byte) ports.Tokenizer {
	return &JWTTokenizer{secret: secret}
}

// SessionToToken encodes and signs a session.
func (j *JWTTokenizer) SessionToToken(session *core.Session) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.Address,
			ID:        session.TokenID,
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			Audience:  jwt.ClaimStrings{AudienceSession},
		},
		PrincipalID: session.PrincipalID,
		Mode:        string(session.Mode),
		Username:    session.Profile.Username,
		KYCLevel:    session.Profile.KYCLevel,
		Balance:     session.Profile.Balance.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// TokenToSession decodes a token, verifying signature and structure
// but not expiry.
func (j *JWTTokenizer) TokenToSession(tokenStr string) (*core.Session, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, mapParseError(err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, core.ErrTokenMalformed
	}
	if len(claims.Audience) == 0 || claims.Audience[0] != AudienceSession {
		return nil, core.ErrTokenMalformed
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, core.ErrTokenMalformed
	}

	balance := decimal.Zero
	if claims.Balance != "" {
		balance, err = decimal.NewFromString(claims.Balance)
		if err != nil {
			return nil, core.ErrTokenMalformed
		}
	}

	return &core.Session{
		TokenID:     claims.ID,
		Address:     claims.Subject,
		PrincipalID: claims.PrincipalID,
		Mode:        core.AuthMode(claims.Mode),
		IssuedAt:    claims.IssuedAt.Time,
		ExpiresAt:   claims.ExpiresAt.Time,
		Profile: core.ProfileProjection{
			Username: claims.Username,
			KYCLevel: claims.KYCLevel,
			Balance:  balance,
		},
	}, nil
}

// mapParseError folds jwt-go errors into the service error taxonomy.
// Signature failures keep their own kind; everything else is reported
// as malformed.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return core.ErrInvalidSignature
	default:
		return core.ErrTokenMalformed
	}
}
