package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/kakao/partnersso/core"
	"github.com/kakao/partnersso/ports"
	"github.com/rs/zerolog"
)

// LoginService logs in with a Kakao Talk account shared through SSO by
// exchanging its group refresh token for a token pair of this app.
type LoginService struct {
	provider  *SSOProvider
	exchanger ports.TokenExchanger
	logger    zerolog.Logger
}

func NewLoginService(provider *SSOProvider, exchanger ports.TokenExchanger, logger zerolog.Logger) *LoginService {
	return &LoginService{
		provider:  provider,
		exchanger: exchanger,
		logger:    logger,
	}
}

// Login resolves the target account and exchanges its refresh token.
// Tokens already known to be rejected are not sent again; a rejection by the
// backend is recorded before the error is returned.
func (s *LoginService) Login(ctx context.Context, target core.LoginTarget) (*core.TokenPair, error) {
	account, err := s.provider.ResolveTarget(ctx, target)
	if err != nil {
		return nil, err
	}

	if !s.provider.IsValid(account.AccountID) {
		return nil, fmt.Errorf("%w: account %s", core.ErrTokenInvalidated, account.AccountID)
	}

	pair, err := s.exchanger.Exchange(ctx, account.RefreshToken)
	if err != nil {
		if errors.Is(err, core.ErrTokenRejected) {
			s.logger.Info().Str("account_id", account.AccountID).Msg("group refresh token rejected")
			if reportErr := s.provider.ReportInvalid(ctx, account.RefreshToken); reportErr != nil {
				s.logger.Warn().Err(reportErr).Msg("failed to record rejected refresh token")
			}
		}
		return nil, fmt.Errorf("failed to exchange group refresh token: %w", err)
	}

	s.logger.Debug().Str("account_id", account.AccountID).Str("target", target.String()).Msg("sso login succeeded")
	return pair, nil
}
