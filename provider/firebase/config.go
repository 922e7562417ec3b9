package firebase

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultJWKSetURL serves the securetoken signing keys used for Firebase
// ID tokens.
const DefaultJWKSetURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

const issuerPrefix = "https://securetoken.google.com/"

// Config holds Firebase validator options.
type Config struct {
	// ProjectID is the Firebase project. It doubles as the expected token
	// audience, and the expected issuer is derived from it.
	ProjectID string

	// JWKSetURL overrides the key set endpoint. Empty uses DefaultJWKSetURL.
	JWKSetURL string

	// RefreshInterval controls background key refresh. Zero uses one hour.
	RefreshInterval time.Duration

	// RefreshTimeout bounds a single key set fetch. Zero uses ten seconds.
	RefreshTimeout time.Duration

	// KeyFunc overrides JWKS resolution entirely. Intended for tests that
	// sign tokens with a locally generated key.
	KeyFunc jwt.Keyfunc
}

func (c Config) issuer() string {
	return issuerPrefix + c.ProjectID
}

func (c Config) jwkSetURL() string {
	if c.JWKSetURL != "" {
		return c.JWKSetURL
	}
	return DefaultJWKSetURL
}

func (c Config) refreshInterval() time.Duration {
	if c.RefreshInterval > 0 {
		return c.RefreshInterval
	}
	return time.Hour
}

func (c Config) refreshTimeout() time.Duration {
	if c.RefreshTimeout > 0 {
		return c.RefreshTimeout
	}
	return 10 * time.Second
}
