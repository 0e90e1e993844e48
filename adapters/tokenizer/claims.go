package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims combines registered JWT claims with the session
// payload: principal id, issuance mode, and the cached profile
// projection.
type SessionClaims struct {
	jwt.RegisteredClaims
	PrincipalID string `json:"pid"`
	Mode        string `json:"mode"`
	Username    string `json:"username,omitempty"`
	KYCLevel    int    `json:"kyc,omitempty"`
	Balance     string `json:"bal,omitempty"`
}
