package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// HTTPController exposes the auth flows over JSON endpoints.
type HTTPController struct {
	repo      RepositoryManager
	tokens    *TokenService
	resolver  *IdentityResolver
	federated FederatedValidator
	mailer    Mailer
	logger    Logger
}

func NewHTTPController(
	repo RepositoryManager,
	tokens *TokenService,
	resolver *IdentityResolver,
	federated FederatedValidator,
	mailer Mailer,
	logger Logger,
) *HTTPController {
	if logger == nil {
		logger = defLogger{}
	}
	if mailer == nil {
		mailer = NewLogMailer(logger)
	}
	return &HTTPController{
		repo:      repo,
		tokens:    tokens,
		resolver:  resolver,
		federated: federated,
		mailer:    mailer,
		logger:    logger,
	}
}

// RegisterRoutes mounts the auth and account endpoints. The /api/auth
// prefix is on the middleware allow-list; the /api/users endpoints rely on
// the request authenticator having installed an identity.
func (ctl *HTTPController) RegisterRoutes(app fiber.Router, requireAuth fiber.Handler) {
	grp := app.Group("/api/auth")
	grp.Post("/signup", ctl.Signup)
	grp.Post("/login", ctl.Login)
	grp.Post("/firebase", ctl.FirebaseLogin)
	grp.Post("/verify-email", ctl.VerifyEmail)
	grp.Post("/resend-verification", ctl.ResendVerification)
	grp.Post("/password-reset", ctl.PasswordResetInit)
	grp.Post("/password-reset/confirm", ctl.PasswordResetConfirm)

	users := app.Group("/api/users", requireAuth)
	users.Get("/me", ctl.Me)
	users.Put("/me/fcm-token", ctl.UpdateFCMToken)
	users.Delete("/me", ctl.DeactivateMe)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	User        *User  `json:"user"`
}

func (ctl *HTTPController) Signup(c *fiber.Ctx) error {
	var req RegisterUserMessage
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var created *User
	req.OnResponse = func(user *User) { created = user }

	handler := NewRegisterUserHandler(ctl.repo, ctl.mailer, ctl.logger)
	if err := handler.Execute(c.UserContext(), req); err != nil {
		return ctl.renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (ctl *HTTPController) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	user, err := ctl.resolver.VerifyLocal(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return ctl.renderError(c, err)
	}

	token, err := ctl.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return ctl.renderError(c, err)
	}

	return c.JSON(loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ctl.tokens.Expiration() / time.Second),
		User:        user,
	})
}

type firebaseLoginRequest struct {
	IDToken  string `json:"id_token"`
	FCMToken string `json:"fcm_token"`
}

// FirebaseLogin verifies a Firebase ID token and syncs the account,
// provisioning it on first sight. The client keeps using the Firebase
// token as its bearer credential, so it is echoed back.
func (ctl *HTTPController) FirebaseLogin(c *fiber.Ctx) error {
	var req firebaseLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.IDToken == "" {
		return fiber.NewError(fiber.StatusBadRequest, "id_token is required")
	}
	if ctl.federated == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "federated login is not configured")
	}

	claims, err := ctl.federated.Validate(req.IDToken)
	if err != nil {
		return ctl.renderError(c, err)
	}

	user, err := ctl.resolver.ResolveFederated(c.UserContext(), *claims)
	if err != nil {
		return ctl.renderError(c, err)
	}

	if req.FCMToken != "" {
		if err := ctl.repo.Users().UpdateFCMToken(c.UserContext(), user.ID, req.FCMToken); err != nil {
			ctl.logger.Warn("failed to update fcm token at login", "user_id", user.ID, "error", err)
		}
	}

	return c.JSON(loginResponse{
		AccessToken: req.IDToken,
		TokenType:   "Bearer",
		ExpiresIn:   3600,
		User:        user,
	})
}

func (ctl *HTTPController) VerifyEmail(c *fiber.Ctx) error {
	var req VerifyEmailMessage
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	handler := NewVerifyEmailHandler(ctl.repo, ctl.logger)
	if err := handler.Execute(c.UserContext(), req); err != nil {
		return ctl.renderError(c, err)
	}

	return c.JSON(fiber.Map{"verified": true})
}

func (ctl *HTTPController) ResendVerification(c *fiber.Ctx) error {
	var req ResendVerificationMessage
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	handler := NewResendVerificationHandler(ctl.repo, ctl.mailer, ctl.logger)
	if err := handler.Execute(c.UserContext(), req); err != nil {
		return ctl.renderError(c, err)
	}

	return c.JSON(fiber.Map{"sent": true})
}

func (ctl *HTTPController) PasswordResetInit(c *fiber.Ctx) error {
	var req InitializePasswordResetMessage
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	handler := NewInitializePasswordResetHandler(ctl.repo, ctl.mailer, ctl.logger)
	if err := handler.Execute(c.UserContext(), req); err != nil {
		return ctl.renderError(c, err)
	}

	return c.JSON(fiber.Map{"sent": true})
}

func (ctl *HTTPController) PasswordResetConfirm(c *fiber.Ctx) error {
	var req FinalizePasswordResetMessage
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	handler := NewFinalizePasswordResetHandler(ctl.repo, ctl.logger)
	if err := handler.Execute(c.UserContext(), req); err != nil {
		return ctl.renderError(c, err)
	}

	return c.JSON(fiber.Map{"reset": true})
}

func (ctl *HTTPController) Me(c *fiber.Ctx) error {
	identity, ok := IdentityFrom(c.UserContext())
	if !ok {
		return fiber.ErrUnauthorized
	}

	user, err := ctl.repo.Users().ByID(c.UserContext(), identity.UserID)
	if err != nil {
		return ctl.renderError(c, err)
	}

	return c.JSON(user)
}

type fcmTokenRequest struct {
	FCMToken string `json:"fcm_token"`
}

func (ctl *HTTPController) UpdateFCMToken(c *fiber.Ctx) error {
	identity, ok := IdentityFrom(c.UserContext())
	if !ok {
		return fiber.ErrUnauthorized
	}

	var req fcmTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	handler := NewUpdateFCMTokenHandler(ctl.repo)
	if err := handler.Execute(c.UserContext(), UpdateFCMTokenMessage{
		UserID:   identity.UserID,
		FCMToken: req.FCMToken,
	}); err != nil {
		return ctl.renderError(c, err)
	}

	return c.JSON(fiber.Map{"updated": true})
}

func (ctl *HTTPController) DeactivateMe(c *fiber.Ctx) error {
	identity, ok := IdentityFrom(c.UserContext())
	if !ok {
		return fiber.ErrUnauthorized
	}

	handler := NewDeactivateUserHandler(ctl.repo, ctl.logger)
	if err := handler.Execute(c.UserContext(), DeactivateUserMessage{UserID: identity.UserID}); err != nil {
		return ctl.renderError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// renderError maps the internal error taxonomy onto the small stable set
// of outward responses. No stack or wrap detail crosses this boundary.
func (ctl *HTTPController) renderError(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		ctl.logger.Error("unhandled error", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}

	status := fiber.StatusInternalServerError
	switch richErr.Category {
	case goerrors.CategoryAuth:
		status = fiber.StatusUnauthorized
	case goerrors.CategoryConflict:
		status = fiber.StatusConflict
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		status = fiber.StatusBadRequest
	case goerrors.CategoryNotFound:
		status = fiber.StatusNotFound
	}

	if status == fiber.StatusInternalServerError {
		ctl.logger.Error("request failed", "error", err)
		return fiber.NewError(status, "internal error")
	}

	return c.Status(status).JSON(fiber.Map{
		"error": richErr.Message,
		"code":  richErr.TextCode,
	})
}
