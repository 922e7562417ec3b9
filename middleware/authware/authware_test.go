package authware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/inu-notice/notice-server/auth"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

// stubFederated counts calls and returns canned claims.
type stubFederated struct {
	calls  atomic.Int64
	claims *auth.FederatedClaims
	err    error
}

func (s *stubFederated) Validate(string) (*auth.FederatedClaims, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

type testEnv struct {
	app       *fiber.App
	repo      auth.RepositoryManager
	tokens    *auth.TokenService
	federated *stubFederated
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, model := range []any{(*auth.User)(nil), (*auth.SingleUseToken)(nil)} {
		_, err = db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}

	env := &testEnv{
		repo:      auth.NewRepositoryManager(db),
		tokens:    auth.NewTokenService(testSigningKey, time.Hour, "", nil),
		federated: &stubFederated{err: auth.ErrTokenMalformed},
	}

	app := fiber.New()
	app.Use(New(Config{
		TokenService: env.tokens,
		Federated:    env.federated,
		Resolver:     auth.NewIdentityResolver(env.repo),
	}))
	app.Get("/api/notices", func(c *fiber.Ctx) error {
		return c.SendString("public")
	})
	app.Get("/api/users/me", RequireAuth(), func(c *fiber.Ctx) error {
		identity, _ := IdentityFrom(c)
		return c.JSON(identity)
	})
	app.Get("/api/admin", RequireAuth(), RequireRole(auth.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("admin")
	})

	env.app = app
	return env
}

func (env *testEnv) createUser(t *testing.T, email string) *auth.User {
	t.Helper()

	hash, err := auth.HashPassword("correct-horse-battery")
	require.NoError(t, err)

	user := &auth.User{
		Email:        email,
		PasswordHash: hash,
		Role:         auth.RoleUser,
		IsActive:     true,
	}
	_, err = env.repo.Users().Create(context.Background(), user)
	require.NoError(t, err)
	return user
}

func (env *testEnv) request(t *testing.T, path, token string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestMiddleware_PublicPathSkipsTokenProcessing(t *testing.T) {
	env := setupEnv(t)

	resp := env.request(t, "/api/notices", "completely-invalid-token")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Zero(t, env.federated.calls.Load())
}

func TestMiddleware_NoTokenIsRejectedByRequireAuth(t *testing.T) {
	env := setupEnv(t)

	resp := env.request(t, "/api/users/me", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMiddleware_LocalToken(t *testing.T) {
	env := setupEnv(t)
	user := env.createUser(t, "student@inu.ac.kr")

	token, err := env.tokens.Generate(user.ID, user.Email)
	require.NoError(t, err)

	resp := env.request(t, "/api/users/me", token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Local verification succeeded, so the federated path was never tried.
	assert.Zero(t, env.federated.calls.Load())
}

func TestMiddleware_InvalidTokenFallsBackThenFailsClosed(t *testing.T) {
	env := setupEnv(t)

	resp := env.request(t, "/api/users/me", "not-a-valid-token")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Local failure triggered exactly one federated attempt.
	assert.Equal(t, int64(1), env.federated.calls.Load())
}

func TestMiddleware_FederatedTokenProvisions(t *testing.T) {
	env := setupEnv(t)
	env.federated.err = nil
	env.federated.claims = &auth.FederatedClaims{
		SubjectID:     "fed-123",
		Email:         "new@inu.ac.kr",
		EmailVerified: true,
	}

	resp := env.request(t, "/api/users/me", "some-firebase-token")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	user, err := env.repo.Users().ByFirebaseUID(context.Background(), "fed-123")
	require.NoError(t, err)
	assert.Equal(t, "new@inu.ac.kr", user.Email)
}

func TestMiddleware_NonBearerSchemeIsIgnored(t *testing.T) {
	env := setupEnv(t)

	req := httptest.NewRequest(fiber.MethodGet, "/api/users/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Basic dXNlcjpwYXNz")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, env.federated.calls.Load())
}

func TestMiddleware_DeactivatedAccountIsNotInstalled(t *testing.T) {
	env := setupEnv(t)
	user := env.createUser(t, "student@inu.ac.kr")

	token, err := env.tokens.Generate(user.ID, user.Email)
	require.NoError(t, err)
	require.NoError(t, env.repo.Users().Deactivate(context.Background(), user.ID))

	resp := env.request(t, "/api/users/me", token)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRole(t *testing.T) {
	env := setupEnv(t)
	user := env.createUser(t, "student@inu.ac.kr")

	token, err := env.tokens.Generate(user.ID, user.Email)
	require.NoError(t, err)

	resp := env.request(t, "/api/admin", token)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = env.request(t, "/api/admin", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", tokenFromHeader("Bearer abc"))
	assert.Equal(t, "abc", tokenFromHeader("bearer abc"))
	assert.Equal(t, "", tokenFromHeader(""))
	assert.Equal(t, "", tokenFromHeader("Bearer"))
	assert.Equal(t, "", tokenFromHeader("Basic abc"))
}
