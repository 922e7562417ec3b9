package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (e InitializePasswordResetMessage) Type() string { return "user.password_reset" }

type InitializePasswordResetResponse struct {
	Success bool
}

type InitializePasswordResetHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

func NewInitializePasswordResetHandler(repo RepositoryManager, mailer Mailer, logger Logger) *InitializePasswordResetHandler {
	if logger == nil {
		logger = defLogger{}
	}
	if mailer == nil {
		mailer = NewLogMailer(logger)
	}
	return &InitializePasswordResetHandler{repo: repo, mailer: mailer, logger: logger}
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	resp := &InitializePasswordResetResponse{Success: true}

	user, err := h.repo.Users().ByEmail(ctx, event.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			// Report success for unknown addresses too, so the endpoint
			// cannot be used to probe which emails are registered.
			h.logger.Debug("password reset requested for unknown email", "email", event.Email)
			if event.OnResponse != nil {
				event.OnResponse(resp)
			}
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	token, err := h.repo.SingleUseTokens().Issue(ctx, user.ID, PurposePasswordReset, PasswordResetTTL)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create password reset token")
	}

	if err := h.mailer.Send(ctx, user.Email, MailPasswordReset, map[string]string{
		"token": token.Token,
		"name":  user.Name,
	}); err != nil {
		// The token stays issued; the user can retry the request.
		h.logger.Error("failed to send password reset mail", "email", user.Email, "error", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
