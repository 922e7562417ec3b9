package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

func TestTokenService_GenerateAndValidate(t *testing.T) {
	svc := NewTokenService(testSigningKey, time.Hour, "notice-server", nil)

	token, err := svc.Generate(42, "student@inu.ac.kr")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, int64(42), claims.UserID())
	assert.Equal(t, "student@inu.ac.kr", claims.Email())
	assert.Equal(t, TokenKindLocal, claims.Kind)
	assert.Equal(t, "notice-server", claims.Issuer)
}

func TestTokenService_Validate_Expired(t *testing.T) {
	svc := NewTokenService(testSigningKey, time.Hour, "", nil)

	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "student@inu.ac.kr",
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
		UID:  42,
		Kind: TokenKindLocal,
	}
	token, err := svc.SignClaims(claims)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.True(t, IsTokenExpiredError(err))
}

func TestTokenService_Validate_WrongKey(t *testing.T) {
	svc := NewTokenService(testSigningKey, time.Hour, "", nil)
	other := NewTokenService([]byte("ffffffffffffffffffffffffffffffff"), time.Hour, "", nil)

	token, err := other.Generate(7, "student@inu.ac.kr")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestTokenService_Validate_Garbage(t *testing.T) {
	svc := NewTokenService(testSigningKey, time.Hour, "", nil)

	for _, tokenString := range []string{"", "not-a-token", "aaa.bbb.ccc"} {
		_, err := svc.Validate(tokenString)
		assert.ErrorIs(t, err, ErrTokenMalformed, "token %q", tokenString)
	}
}

func TestTokenService_Validate_RejectsForeignKind(t *testing.T) {
	svc := NewTokenService(testSigningKey, time.Hour, "", nil)

	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "student@inu.ac.kr",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UID: 42,
	}
	token, err := svc.SignClaims(claims)
	require.NoError(t, err)

	// Signed with our key but missing the local marker. Must not pass.
	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestTokenService_Validate_WrongIssuer(t *testing.T) {
	issuing := NewTokenService(testSigningKey, time.Hour, "someone-else", nil)
	validating := NewTokenService(testSigningKey, time.Hour, "notice-server", nil)

	token, err := issuing.Generate(42, "student@inu.ac.kr")
	require.NoError(t, err)

	_, err = validating.Validate(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestTokenService_ShortKeyIsPadded(t *testing.T) {
	svc := NewTokenService([]byte("short"), time.Hour, "", nil)

	token, err := svc.Generate(1, "student@inu.ac.kr")
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID())

	// Tokens minted with the padded key and with the explicit zero-padded
	// form are interchangeable.
	padded := make([]byte, MinSigningKeyLen)
	copy(padded, "short")
	same := NewTokenService(padded, time.Hour, "", nil)
	_, err = same.Validate(token)
	assert.NoError(t, err)
}

func TestTokenService_DefaultExpiration(t *testing.T) {
	svc := NewTokenService(testSigningKey, 0, "", nil)
	assert.Equal(t, 24*time.Hour, svc.Expiration())
}
