package tokenizer

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kakao/partnersso/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTTokenizer_IssueVerify(t *testing.T) {
	tk := NewJWTTokenizer([]byte("test-secret"), time.Hour)

	token, err := tk.IssueClientToken("talk-picker")
	require.NoError(t, err)

	subject, err := tk.VerifyClientToken(token)
	require.NoError(t, err)
	assert.Equal(t, "talk-picker", subject)

	_, err = tk.IssueClientToken("")
	assert.Error(t, err)
}

func TestJWTTokenizer_Rejects(t *testing.T) {
	tk := NewJWTTokenizer([]byte("test-secret"), time.Hour)

	other, err := NewJWTTokenizer([]byte("other-secret"), time.Hour).IssueClientToken("x")
	require.NoError(t, err)
	_, err = tk.VerifyClientToken(other)
	assert.ErrorIs(t, err, core.ErrInvalidClientToken)

	_, err = tk.VerifyClientToken("not.a.token")
	assert.ErrorIs(t, err, core.ErrInvalidClientToken)

	wrongAudience, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:  "x",
		Audience: jwt.ClaimStrings{"someone-else"},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = tk.VerifyClientToken(wrongAudience)
	assert.ErrorIs(t, err, core.ErrInvalidClientToken)
}

func TestJWTTokenizer_Expiry(t *testing.T) {
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tk := &JWTTokenizer{secret: []byte("s"), ttl: time.Minute, now: func() time.Time { return issued }}

	token, err := tk.IssueClientToken("x")
	require.NoError(t, err)

	tk.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = tk.VerifyClientToken(token)
	assert.ErrorIs(t, err, core.ErrInvalidClientToken)
}
