package ports

import (
	"context"

	"github.com/kakao/partnersso/core"
)

// TokenExchanger trades a group refresh token for a fresh token pair.
// A backend refusal of the refresh token is reported as core.ErrTokenRejected.
type TokenExchanger interface {
	Exchange(ctx context.Context, groupRefreshToken string) (*core.TokenPair, error)
}
