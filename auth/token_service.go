package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// MinSigningKeyLen is the floor for the HS256 signing secret: 256 bits.
const MinSigningKeyLen = 32

// TokenService mints and validates the server's own bearer tokens. It is a
// pure function of the signing secret and holds no per-request state.
type TokenService struct {
	signingKey      []byte
	tokenExpiration time.Duration
	issuer          string
	logger          Logger
}

// NewTokenService creates a new TokenService instance. A signing key
// shorter than MinSigningKeyLen is zero-padded to the floor; padding keeps
// a length assertion happy without restoring the missing entropy, so short
// keys are only tolerable in non-production configuration.
func NewTokenService(signingKey []byte, tokenExpiration time.Duration, issuer string, logger Logger) *TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	if len(signingKey) < MinSigningKeyLen {
		logger.Warn("signing key below 256 bits, padding to minimum length", "len", len(signingKey))
		signingKey = padSigningKey(signingKey)
	}
	if tokenExpiration <= 0 {
		tokenExpiration = 24 * time.Hour
	}
	return &TokenService{
		signingKey:      signingKey,
		tokenExpiration: tokenExpiration,
		issuer:          issuer,
		logger:          logger,
	}
}

// NewTokenServiceFromConfig builds a TokenService from application
// configuration. Expiration is expressed in hours.
func NewTokenServiceFromConfig(cfg Config, logger Logger) *TokenService {
	return NewTokenService(
		[]byte(cfg.GetSigningKey()),
		time.Duration(cfg.GetTokenExpiration())*time.Hour,
		cfg.GetIssuer(),
		logger,
	)
}

// Generate creates a signed, time-limited token for the given account.
func (ts *TokenService) Generate(userID int64, email string) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.tokenExpiration)),
		},
		UID:  userID,
		Kind: TokenKindLocal,
	}

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenService) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and verifies a token string, returning structured claims.
// Malformed, unsigned, expired, and wrong-kind tokens all come back as
// typed errors; nothing escapes as a panic or an unwrapped library error.
func (ts *TokenService) Validate(tokenString string) (*JWTClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode claims")
		return nil, ErrTokenMalformed
	}

	// A signature check alone is not enough: a token signed with our key
	// but minted for another purpose must not authenticate a request.
	if claims.Kind != TokenKindLocal {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// Expiration returns the configured token lifetime.
func (ts *TokenService) Expiration() time.Duration {
	return ts.tokenExpiration
}

func padSigningKey(key []byte) []byte {
	padded := make([]byte, MinSigningKeyLen)
	copy(padded, key)
	return padded
}
