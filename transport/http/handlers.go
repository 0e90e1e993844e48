package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/DCMX-Protocol/walletgate/core"
	"github.com/DCMX-Protocol/walletgate/service"
)

// AuthHandlers contains the HTTP handlers for the auth endpoints.
type AuthHandlers struct {
	authService *service.AuthService
	log         *zap.Logger
}

// NewAuthHandlers creates the handler set.
func NewAuthHandlers(authService *service.AuthService, log *zap.Logger) *AuthHandlers {
	return &AuthHandlers{authService: authService, log: log}
}

type nonceRequest struct {
	Address string `json:"address" binding:"required"`
}

type loginRequest struct {
	Address   string `json:"address" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// claimsResponse is the session projection returned to clients.
type claimsResponse struct {
	Address     string    `json:"address"`
	PrincipalID string    `json:"principal_id"`
	Mode        string    `json:"mode"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Username    string    `json:"username,omitempty"`
	KYCLevel    int       `json:"kyc_level"`
	Balance     string    `json:"balance"`
}

func toClaimsResponse(s *core.Session) claimsResponse {
	return claimsResponse{
		Address:     s.Address,
		PrincipalID: s.PrincipalID,
		Mode:        string(s.Mode),
		IssuedAt:    s.IssuedAt,
		ExpiresAt:   s.ExpiresAt,
		Username:    s.Profile.Username,
		KYCLevel:    s.Profile.KYCLevel,
		Balance:     s.Profile.Balance.String(),
	}
}

// Nonce issues a challenge for the address. No authentication
// required.
func (h *AuthHandlers) Nonce(c *gin.Context) {
	var req nonceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	challenge, err := h.authService.RequestChallenge(c.Request.Context(), req.Address)
	if err != nil {
		h.log.Error("failed to issue challenge", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nonce":  challenge.Nonce,
		"prompt": challenge.Prompt,
	})
}

// Login exchanges a signed challenge for a session token.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session, token, err := h.authService.Login(c.Request.Context(), req.Address, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrMissingChallenge):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no outstanding challenge"})
		case errors.Is(err, core.ErrInvalidSignature):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		default:
			h.log.Error("login failed", zap.String("address", req.Address), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"claims":   toClaimsResponse(session),
		"degraded": session.Degraded(),
	})
}

// Refresh re-mints a session from a bearer token that may already be
// expired.
func (h *AuthHandlers) Refresh(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	session, newToken, err := h.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		h.log.Debug("refresh rejected", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":  newToken,
		"claims": toClaimsResponse(session),
	})
}

// Profile returns the caller's profile: live from the identity backend
// when reachable, else the projection embedded in the token.
func (h *AuthHandlers) Profile(c *gin.Context) {
	session, ok := SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	profile, live := h.authService.Profile(c.Request.Context(), session)

	c.JSON(http.StatusOK, gin.H{
		"profile": profile,
		"live":    live,
		"claims":  toClaimsResponse(session),
	})
}

// Logout acknowledges a logout, recording the token on the revocation
// list when it still parses. No bearer token is required; logout is
// client-side discard first.
func (h *AuthHandlers) Logout(c *gin.Context) {
	if token, ok := bearerToken(c); ok {
		h.authService.Logout(c.Request.Context(), token)
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the identity context injected by the auth middleware.
func (h *AuthHandlers) Me(c *gin.Context) {
	identity, ok := IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":      identity.Address,
		"principal_id": identity.PrincipalID,
		"mode":         string(identity.Mode),
	})
}
