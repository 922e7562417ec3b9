package firebase

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/inu-notice/notice-server/auth"
)

// TokenValidator validates Firebase-issued ID tokens using JWKS.
type TokenValidator struct {
	config  Config
	keyFunc jwt.Keyfunc
	jwks    *keyfunc.JWKS
	logger  auth.Logger
}

var _ auth.FederatedValidator = (*TokenValidator)(nil)

// NewTokenValidator creates a new Firebase token validator. Unless the
// config injects a KeyFunc, this fetches the Google key set once up front
// and keeps it refreshed in the background.
func NewTokenValidator(cfg Config, logger auth.Logger) (*TokenValidator, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firebase: project id is required")
	}

	v := &TokenValidator{
		config: cfg,
		logger: logger,
	}

	if cfg.KeyFunc != nil {
		v.keyFunc = cfg.KeyFunc
		return v, nil
	}

	jwks, err := keyfunc.Get(cfg.jwkSetURL(), keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			if v.logger != nil {
				v.logger.Warn("failed background refresh of Firebase key set", "error", err)
			}
		},
		RefreshInterval:   cfg.refreshInterval(),
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    cfg.refreshTimeout(),
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("firebase: failed to fetch key set: %w", err)
	}

	v.jwks = jwks
	v.keyFunc = jwks.Keyfunc
	return v, nil
}

// Close stops the background key refresh.
func (v *TokenValidator) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// Validate implements auth.FederatedValidator. It checks signature,
// expiry, issuer, and audience, and only then maps the payload into
// FederatedClaims.
func (v *TokenValidator) Validate(tokenString string) (*auth.FederatedClaims, error) {
	claims := &idTokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyFunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.config.issuer()),
		jwt.WithAudience(v.config.ProjectID),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, normalizeValidationError(err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, auth.ErrTokenMalformed
	}

	return &auth.FederatedClaims{
		SubjectID:     claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
	}, nil
}

// idTokenClaims is the raw Firebase ID token payload. The subject claim
// carries the Firebase UID.
type idTokenClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Name          string `json:"name,omitempty"`
}

func normalizeValidationError(err error) error {
	if err == nil {
		return nil
	}

	if stderrors.Is(err, jwt.ErrTokenExpired) {
		return auth.ErrTokenExpired
	}

	return auth.ErrTokenMalformed
}
