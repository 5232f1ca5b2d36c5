package tokenizer

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/kakao/partnersso/core"
	"github.com/kakao/partnersso/ports"
)

const AudienceClient = "partnersso:client"

// JWTTokenizer implements the Tokenizer interface using HS256 JWTs
type JWTTokenizer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTTokenizer creates a new JWT tokenizer. A zero ttl issues tokens
// without expiry.
func NewJWTTokenizer(secret []byte, ttl time.Duration) ports.Tokenizer {
	return &JWTTokenizer{secret: secret, ttl: ttl, now: time.Now}
}

// IssueClientToken signs a token for the named client
func (j *JWTTokenizer) IssueClientToken(subject string) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("subject is required")
	}

	now := j.now()
	claims := ClientClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
			Audience: jwt.ClaimStrings{AudienceClient},
		},
	}
	if j.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(j.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyClientToken validates a client token and returns its subject
func (j *JWTTokenizer) VerifyClientToken(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &ClientClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithAudience(AudienceClient), jwt.WithTimeFunc(j.now))
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrInvalidClientToken, err)
	}

	claims, ok := token.Claims.(*ClientClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", core.ErrInvalidClientToken
	}
	return claims.Subject, nil
}
