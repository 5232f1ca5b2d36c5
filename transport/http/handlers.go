package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kakao/partnersso/core"
)

// AccountProvider is the part of the SSO provider the handlers use
type AccountProvider interface {
	IsAvailable(ctx context.Context) bool
	ListAccounts(ctx context.Context) ([]core.AccountSummary, error)
	SelectForLogin(ctx context.Context, target core.LoginTarget) (string, error)
	ReportInvalid(ctx context.Context, refreshToken string) error
}

// Authenticator logs in with an SSO account
type Authenticator interface {
	Login(ctx context.Context, target core.LoginTarget) (*core.TokenPair, error)
}

// SSOHandlers contains HTTP handlers for SSO endpoints
type SSOHandlers struct {
	provider AccountProvider
	login    Authenticator
}

// NewSSOHandlers creates new SSO handlers
func NewSSOHandlers(provider AccountProvider, login Authenticator) *SSOHandlers {
	return &SSOHandlers{
		provider: provider,
		login:    login,
	}
}

type targetRequest struct {
	Type      string `json:"type"`
	AccountID string `json:"account_id"`
}

func (r targetRequest) target() (core.LoginTarget, error) {
	if r.AccountID != "" {
		return core.TargetAccount(r.AccountID), nil
	}
	if r.Type == "" {
		return core.TargetPolicy(core.LoginTypeActive), nil
	}
	loginType, err := core.ParseLoginType(r.Type)
	if err != nil {
		return core.LoginTarget{}, err
	}
	return core.TargetPolicy(loginType), nil
}

// Available reports whether SSO accounts can be read
func (h *SSOHandlers) Available(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"available": h.provider.IsAvailable(c.Request.Context())})
}

// Accounts lists the linked Kakao Talk accounts
func (h *SSOHandlers) Accounts(c *gin.Context) {
	accounts, err := h.provider.ListAccounts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// Select returns the refresh token of the requested account
func (h *SSOHandlers) Select(c *gin.Context) {
	var req targetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	target, err := req.target()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid login type"})
		return
	}

	refreshToken, err := h.provider.SelectForLogin(c.Request.Context(), target)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"refresh_token": refreshToken})
}

// Invalid records a refresh token rejected by the backend
func (h *SSOHandlers) Invalid(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.provider.ReportInvalid(c.Request.Context(), req.RefreshToken); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// Login exchanges the requested account's refresh token for app tokens
func (h *SSOHandlers) Login(c *gin.Context) {
	var req targetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	target, err := req.target()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid login type"})
		return
	}

	pair, err := h.login.Login(c.Request.Context(), target)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

// writeError maps domain errors to status codes
func writeError(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	errorMsg := "Internal error"

	switch {
	case errors.Is(err, core.ErrNotPrepared), errors.Is(err, core.ErrStoreUnavailable):
		statusCode = http.StatusServiceUnavailable
		errorMsg = "SSO store unavailable"
	case errors.Is(err, core.ErrDecode):
		statusCode = http.StatusBadGateway
		errorMsg = "SSO records unreadable"
	case errors.Is(err, core.ErrNoAccounts):
		statusCode = http.StatusNotFound
		errorMsg = "No SSO accounts"
	case errors.Is(err, core.ErrNoMatchingAccount):
		statusCode = http.StatusNotFound
		errorMsg = "No matching account"
	case errors.Is(err, core.ErrTokenInvalidated):
		statusCode = http.StatusConflict
		errorMsg = "Refresh token has been invalidated"
	case errors.Is(err, core.ErrTokenRejected):
		statusCode = http.StatusUnauthorized
		errorMsg = "Refresh token rejected"
	}

	c.JSON(statusCode, gin.H{"error": errorMsg})
}
