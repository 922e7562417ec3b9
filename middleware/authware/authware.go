// Package authware is the per-request authentication gate. It extracts the
// bearer token, tries the server's own token service first, falls back to
// the federated verifier, and installs the resolved identity into the
// request context. The middleware itself never rejects a request: handlers
// that need an identity enforce it through RequireAuth or RequireRole.
package authware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/inu-notice/notice-server/auth"
)

const bearerScheme = "Bearer"

// DefaultPublicPrefixes lists path prefixes that never require a token.
// Public requests skip token processing entirely, even when a token is
// present.
var DefaultPublicPrefixes = []string{
	"/api/auth/",
	"/api/notices",
	"/api/categories",
	"/health",
	"/docs",
}

type Config struct {
	// TokenService verifies server-issued tokens. Tried first: it is a
	// pure in-process check, while federated verification may hit the
	// network. The order must not be reversed.
	TokenService *auth.TokenService

	// Federated verifies externally issued tokens on local failure.
	Federated auth.FederatedValidator

	// Resolver maps verified claims to a local account, provisioning on
	// first federated sight.
	Resolver *auth.IdentityResolver

	// PublicPrefixes overrides DefaultPublicPrefixes when non-nil.
	PublicPrefixes []string

	// ContextKey stores the identity in fiber locals. Defaults to "identity".
	ContextKey string

	Logger auth.Logger
}

func configDefaults(cfg Config) Config {
	if cfg.PublicPrefixes == nil {
		cfg.PublicPrefixes = DefaultPublicPrefixes
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = "identity"
	}
	if cfg.Logger == nil {
		cfg.Logger = auth.DefaultLogger()
	}
	return cfg
}

// New builds the authentication middleware.
func New(config Config) fiber.Handler {
	cfg := configDefaults(config)

	return func(c *fiber.Ctx) error {
		if isPublicPath(c.Path(), cfg.PublicPrefixes) {
			return c.Next()
		}

		raw := tokenFromHeader(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return c.Next()
		}

		if claims, err := cfg.TokenService.Validate(raw); err == nil {
			user, err := cfg.Resolver.ResolveLocalClaims(c.UserContext(), claims)
			if err != nil {
				cfg.Logger.Debug("server token resolved no usable account", "error", err)
				return c.Next()
			}
			install(c, cfg.ContextKey, user)
			return c.Next()
		}

		if cfg.Federated == nil {
			return c.Next()
		}

		fedClaims, err := cfg.Federated.Validate(raw)
		if err != nil {
			// Fail closed and silent: the context stays empty and
			// downstream authorization rejects protected access.
			cfg.Logger.Debug("failed to verify federated token", "error", err)
			return c.Next()
		}

		user, err := cfg.Resolver.ResolveFederated(c.UserContext(), *fedClaims)
		if err != nil {
			cfg.Logger.Debug("failed to resolve federated identity", "error", err)
			return c.Next()
		}

		install(c, cfg.ContextKey, user)
		return c.Next()
	}
}

// RequireAuth rejects requests that carry no authenticated identity.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := auth.IdentityFrom(c.UserContext()); !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		return c.Next()
	}
}

// RequireRole rejects authenticated requests whose role does not match.
func RequireRole(role auth.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := auth.IdentityFrom(c.UserContext())
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		if identity.Role != role {
			return fiber.NewError(fiber.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

// IdentityFrom reads the authenticated identity off a fiber request.
func IdentityFrom(c *fiber.Ctx) (auth.RequestIdentity, bool) {
	return auth.IdentityFrom(c.UserContext())
}

func install(c *fiber.Ctx, key string, user *auth.User) {
	identity := auth.RequestIdentity{
		UserID: user.ID,
		Role:   user.Role,
	}
	c.Locals(key, identity)
	c.SetUserContext(auth.WithIdentity(c.UserContext(), identity))
}

func isPublicPath(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// tokenFromHeader extracts the raw token from "Bearer <token>". Missing
// header or any other scheme yields the empty string.
func tokenFromHeader(header string) string {
	l := len(bearerScheme)
	if len(header) > l+1 && strings.EqualFold(header[:l], bearerScheme) {
		return strings.TrimSpace(header[l:])
	}
	return ""
}
