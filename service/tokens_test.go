package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DCMX-Protocol/walletgate/adapters/tokenizer"
	"github.com/DCMX-Protocol/walletgate/core"
)

const testSecret = "test-signing-secret"

func newTestTokenService() *TokenService {
	return NewTokenService(tokenizer.NewJWTTokenizer([]byte(testSecret)), 0, 0)
}

func testProjection() core.ProfileProjection {
	return core.ProfileProjection{
		Username: "alice",
		KYCLevel: 2,
		Balance:  decimal.RequireFromString("42.5"),
	}
}

func TestTokenServiceMintAndVerify(t *testing.T) {
	svc := newTestTokenService()

	session, token, err := svc.Mint("0xabc", "user-1", core.ModeFull, testProjection())
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.NotEmpty(t, session.TokenID)
	assert.Equal(t, session.IssuedAt.Add(DefaultSessionTTL), session.ExpiresAt)

	got, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", got.Address)
	assert.Equal(t, "user-1", got.PrincipalID)
	assert.Equal(t, core.ModeFull, got.Mode)
	assert.Equal(t, "alice", got.Profile.Username)
	assert.Equal(t, 2, got.Profile.KYCLevel)
	assert.True(t, got.Profile.Balance.Equal(decimal.RequireFromString("42.5")))
}

func TestTokenServiceVerifyExpired(t *testing.T) {
	svc := newTestTokenService()

	session, token, err := svc.Mint("0xabc", "user-1", core.ModeFull, core.ProfileProjection{})
	require.NoError(t, err)

	svc.now = func() time.Time { return session.ExpiresAt.Add(time.Second) }

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestTokenServiceRefreshExpiredToken(t *testing.T) {
	svc := newTestTokenService()

	session, token, err := svc.Mint("0xabc", "user-1", core.ModeDegraded, core.ProfileProjection{})
	require.NoError(t, err)

	// One day past expiry: Verify rejects the token, Refresh accepts it.
	svc.now = func() time.Time { return session.ExpiresAt.Add(24 * time.Hour) }

	_, err = svc.Verify(token)
	require.ErrorIs(t, err, core.ErrTokenExpired)

	newSession, newToken, err := svc.Refresh(token)
	require.NoError(t, err)
	require.NotEqual(t, token, newToken)
	assert.Equal(t, session.Address, newSession.Address)
	assert.Equal(t, session.PrincipalID, newSession.PrincipalID)
	assert.Equal(t, core.ModeDegraded, newSession.Mode)
	assert.NotEqual(t, session.TokenID, newSession.TokenID)
	assert.True(t, newSession.ExpiresAt.After(session.ExpiresAt), "refresh must extend expiry")

	_, err = svc.Verify(newToken)
	assert.NoError(t, err)
}

func TestTokenServiceRefreshBeyondHorizon(t *testing.T) {
	svc := newTestTokenService()

	session, token, err := svc.Mint("0xabc", "user-1", core.ModeFull, core.ProfileProjection{})
	require.NoError(t, err)

	svc.now = func() time.Time { return session.ExpiresAt.Add(DefaultRefreshHorizon + time.Minute) }

	_, _, err = svc.Refresh(token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestTokenServiceRefreshRejectsForgedToken(t *testing.T) {
	svc := newTestTokenService()

	forger := NewTokenService(tokenizer.NewJWTTokenizer([]byte("other-secret")), 0, 0)
	_, forged, err := forger.Mint("0xabc", "user-1", core.ModeFull, core.ProfileProjection{})
	require.NoError(t, err)

	_, _, err = svc.Refresh(forged)
	assert.ErrorIs(t, err, core.ErrInvalidSignature)
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	svc := newTestTokenService()

	_, err := svc.Verify("not-a-token")
	assert.ErrorIs(t, err, core.ErrTokenMalformed)

	_, _, err = svc.Refresh("still.not.atoken")
	assert.ErrorIs(t, err, core.ErrTokenMalformed)
}
