package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DCMX-Protocol/walletgate/adapters/store"
	"github.com/DCMX-Protocol/walletgate/adapters/tokenizer"
	"github.com/DCMX-Protocol/walletgate/core"
)

type staticVerifier struct {
	err error
}

func (v staticVerifier) Verify(address, message, signature string) error {
	return v.err
}

type fakeBackend struct {
	mu      sync.Mutex
	profile *core.IdentityProfile
	err     error
	block   bool
	calls   int
}

func (b *fakeBackend) CreateOrFetch(ctx context.Context, address string) (*core.IdentityProfile, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()

	if b.block {
		<-ctx.Done()
		return nil, core.ErrBackendUnavailable
	}
	if b.err != nil {
		return nil, b.err
	}
	return b.profile, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) PublishLogout(ctx context.Context, address, tokenID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, tokenID)
	return nil
}

type authFixture struct {
	svc      *AuthService
	registry *NonceRegistry
	backend  *fakeBackend
	events   *recordingPublisher
}

func newAuthFixture(verifier staticVerifier, backend *fakeBackend) *authFixture {
	registry := NewNonceRegistry(store.NewMemoryChallengeStore(), 0)
	tokens := NewTokenService(tokenizer.NewJWTTokenizer([]byte(testSecret)), 0, 0)
	events := &recordingPublisher{}

	svc := NewAuthService(
		registry,
		tokens,
		verifier,
		backend,
		store.NewMemoryRevocationList(),
		events,
		zap.NewNop(),
		50*time.Millisecond,
	)
	return &authFixture{svc: svc, registry: registry, backend: backend, events: events}
}

func fullBackend() *fakeBackend {
	return &fakeBackend{profile: &core.IdentityProfile{
		ID:       "user-1",
		Address:  "0xabc",
		Username: "alice",
		KYCLevel: 2,
		Balance:  decimal.RequireFromString("10"),
	}}
}

func TestLoginFullMode(t *testing.T) {
	ctx := context.Background()
	fx := newAuthFixture(staticVerifier{}, fullBackend())

	_, err := fx.svc.RequestChallenge(ctx, "0xabc")
	require.NoError(t, err)

	session, token, err := fx.svc.Login(ctx, "0xabc", "0xsig")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, core.ModeFull, session.Mode)
	assert.Equal(t, "user-1", session.PrincipalID)
	assert.Equal(t, "alice", session.Profile.Username)
	assert.False(t, session.Degraded())
}

func TestLoginWithoutChallenge(t *testing.T) {
	fx := newAuthFixture(staticVerifier{}, fullBackend())

	_, _, err := fx.svc.Login(context.Background(), "0xabc", "0xsig")
	assert.ErrorIs(t, err, core.ErrMissingChallenge)
}

func TestLoginInvalidSignatureBurnsNonce(t *testing.T) {
	ctx := context.Background()
	fx := newAuthFixture(staticVerifier{err: core.ErrInvalidSignature}, fullBackend())

	_, err := fx.svc.RequestChallenge(ctx, "0xabc")
	require.NoError(t, err)

	_, _, err = fx.svc.Login(ctx, "0xabc", "0xbad")
	require.ErrorIs(t, err, core.ErrInvalidSignature)

	// The failed attempt consumed the nonce: a retry gets
	// MissingChallenge even though the signature check would now pass.
	fx.svc.verifier = staticVerifier{}
	_, _, err = fx.svc.Login(ctx, "0xabc", "0xgood")
	assert.ErrorIs(t, err, core.ErrMissingChallenge)
}

func TestLoginDegradedOnBackendError(t *testing.T) {
	ctx := context.Background()
	fx := newAuthFixture(staticVerifier{}, &fakeBackend{err: core.ErrBackendUnavailable})

	_, err := fx.svc.RequestChallenge(ctx, "0xabc")
	require.NoError(t, err)

	session, token, err := fx.svc.Login(ctx, "0xabc", "0xsig")
	require.NoError(t, err, "backend unavailability must not fail login")
	require.NotEmpty(t, token)
	assert.True(t, session.Degraded())
	assert.Equal(t, "0xabc", session.PrincipalID, "degraded claims use the address as principal")
	assert.Empty(t, session.Profile.Username)
}

func TestLoginDegradedOnBackendTimeout(t *testing.T) {
	ctx := context.Background()
	fx := newAuthFixture(staticVerifier{}, &fakeBackend{block: true})

	_, err := fx.svc.RequestChallenge(ctx, "0xabc")
	require.NoError(t, err)

	start := time.Now()
	session, _, err := fx.svc.Login(ctx, "0xabc", "0xsig")
	require.NoError(t, err)
	assert.True(t, session.Degraded())
	assert.Less(t, time.Since(start), time.Second, "stalled backend must not block login")
}

func TestConcurrentLoginSingleWinner(t *testing.T) {
	ctx := context.Background()
	fx := newAuthFixture(staticVerifier{}, fullBackend())

	_, err := fx.svc.RequestChallenge(ctx, "0xabc")
	require.NoError(t, err)

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := fx.svc.Login(ctx, "0xabc", "0xsig")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, core.ErrMissingChallenge)
		}
	}
	assert.Equal(t, 1, successes)
}

func TestAuthenticateAndLogout(t *testing.T) {
	ctx := context.Background()
	fx := newAuthFixture(staticVerifier{}, fullBackend())

	_, err := fx.svc.RequestChallenge(ctx, "0xabc")
	require.NoError(t, err)
	session, token, err := fx.svc.Login(ctx, "0xabc", "0xsig")
	require.NoError(t, err)

	got, err := fx.svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, session.TokenID, got.TokenID)

	fx.svc.Logout(ctx, token)

	_, err = fx.svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	require.Len(t, fx.events.events, 1)
	assert.Equal(t, session.TokenID, fx.events.events[0])
}

func TestLogoutWithGarbageTokenIsAcknowledged(t *testing.T) {
	fx := newAuthFixture(staticVerifier{}, fullBackend())

	// Must not panic or publish anything.
	fx.svc.Logout(context.Background(), "garbage")
	assert.Empty(t, fx.events.events)
}

func TestRefreshRejectsRevokedToken(t *testing.T) {
	ctx := context.Background()
	fx := newAuthFixture(staticVerifier{}, fullBackend())

	_, err := fx.svc.RequestChallenge(ctx, "0xabc")
	require.NoError(t, err)
	_, token, err := fx.svc.Login(ctx, "0xabc", "0xsig")
	require.NoError(t, err)

	fx.svc.Logout(ctx, token)

	_, _, err = fx.svc.Refresh(ctx, token)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)
}

func TestRefreshDoesNotTouchBackendOrRegistry(t *testing.T) {
	ctx := context.Background()
	backend := fullBackend()
	fx := newAuthFixture(staticVerifier{}, backend)

	_, err := fx.svc.RequestChallenge(ctx, "0xabc")
	require.NoError(t, err)
	_, token, err := fx.svc.Login(ctx, "0xabc", "0xsig")
	require.NoError(t, err)
	callsAfterLogin := backend.calls

	session, newToken, err := fx.svc.Refresh(ctx, token)
	require.NoError(t, err)
	assert.NotEqual(t, token, newToken)
	assert.Equal(t, "user-1", session.PrincipalID)
	assert.Equal(t, callsAfterLogin, backend.calls, "refresh never re-proves identity")
}

func TestProfileFallsBackToProjection(t *testing.T) {
	ctx := context.Background()
	backend := fullBackend()
	fx := newAuthFixture(staticVerifier{}, backend)

	_, err := fx.svc.RequestChallenge(ctx, "0xabc")
	require.NoError(t, err)
	session, _, err := fx.svc.Login(ctx, "0xabc", "0xsig")
	require.NoError(t, err)

	profile, live := fx.svc.Profile(ctx, session)
	require.True(t, live)
	assert.Equal(t, "alice", profile.Username)

	backend.err = core.ErrBackendUnavailable
	profile, live = fx.svc.Profile(ctx, session)
	require.False(t, live)
	assert.Equal(t, "alice", profile.Username, "projection survives backend loss")
	assert.Equal(t, "user-1", profile.ID)
}
