package tokenizer

import "github.com/golang-jwt/jwt/v5"

// ClientClaims are the claims of a local API client token
type ClientClaims struct {
	jwt.RegisteredClaims
}
