// Package kauth exchanges group refresh tokens at the Kakao authorization
// server.
package kauth

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/imroc/req/v3"
	"github.com/kakao/partnersso/core"
	"github.com/kakao/partnersso/ports"
)

const tokenPath = "/oauth/token"

var hosts = map[core.Phase]string{
	core.PhaseDev:     "alpha-kauth.kakao.com",
	core.PhaseSandbox: "sandbox-kauth.kakao.com",
	core.PhaseCbt:     "beta-kauth.kakao.com",
}

// TokenURL returns the token endpoint of the phase's authorization server
func TokenURL(phase core.Phase) string {
	host, ok := hosts[phase]
	if !ok {
		host = "kauth.kakao.com"
	}
	return "https://" + host + tokenPath
}

type tokenResponse struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	TokenType             string `json:"token_type"`
	Scope                 string `json:"scope"`
	ExpiresIn             int64  `json:"expires_in"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
}

// Exchanger implements the TokenExchanger interface against kauth
type Exchanger struct {
	client   *req.Client
	tokenURL string
	clientID string
	bundleID string
}

var _ ports.TokenExchanger = (*Exchanger)(nil)

// NewExchanger creates an exchanger for the given app key and bundle id
func NewExchanger(tokenURL, clientID, bundleID string) *Exchanger {
	return &Exchanger{
		client:   req.C().SetTimeout(30 * time.Second),
		tokenURL: tokenURL,
		clientID: clientID,
		bundleID: bundleID,
	}
}

// Exchange issues app tokens for a group refresh token. Refusals of the
// grant itself wrap core.ErrTokenRejected.
func (e *Exchanger) Exchange(ctx context.Context, groupRefreshToken string) (*core.TokenPair, error) {
	form := url.Values{}
	form.Set("grant_type", "group_refresh_token")
	form.Set("client_id", e.clientID)
	form.Set("group_refresh_token", groupRefreshToken)
	if e.bundleID != "" {
		form.Set("ios_bundle_id", e.bundleID)
	}

	var tokenResp tokenResponse
	var errResp errorResponse

	resp, err := e.client.R().
		SetContext(ctx).
		SetFormDataFromValues(form).
		SetSuccessResult(&tokenResp).
		SetErrorResult(&errResp).
		Post(e.tokenURL)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}

	if !resp.IsSuccessState() {
		if errResp.Error == "invalid_grant" {
			return nil, fmt.Errorf("%w: %s (%s)", core.ErrTokenRejected, errResp.ErrorDescription, errResp.ErrorCode)
		}
		return nil, fmt.Errorf("token exchange failed: status %d, body: %s", resp.StatusCode, resp.String())
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("token exchange returned no access token")
	}

	return &core.TokenPair{
		AccessToken:           tokenResp.AccessToken,
		RefreshToken:          tokenResp.RefreshToken,
		TokenType:             tokenResp.TokenType,
		Scope:                 tokenResp.Scope,
		ExpiresIn:             tokenResp.ExpiresIn,
		RefreshTokenExpiresIn: tokenResp.RefreshTokenExpiresIn,
	}, nil
}
