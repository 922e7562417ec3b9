package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type VerifyEmailMessage struct {
	Token      string `json:"token"`
	OnResponse func(user *User)
}

func (e VerifyEmailMessage) Type() string { return "user.verify_email" }

type VerifyEmailHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewVerifyEmailHandler(repo RepositoryManager, logger Logger) *VerifyEmailHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &VerifyEmailHandler{repo: repo, logger: logger}
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during email verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.SingleUseTokens().Consume(ctx, event.Token, PurposeEmailVerify)
	if err != nil {
		return err
	}

	if err := h.repo.Users().SetEmailVerified(ctx, user.ID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark email verified")
	}
	user.IsEmailVerified = true

	h.logger.Info("email verified", "user_id", user.ID, "email", user.Email)

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}

type ResendVerificationMessage struct {
	Email string `json:"email"`
}

func (e ResendVerificationMessage) Type() string { return "user.resend_verification" }

type ResendVerificationHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

func NewResendVerificationHandler(repo RepositoryManager, mailer Mailer, logger Logger) *ResendVerificationHandler {
	if logger == nil {
		logger = defLogger{}
	}
	if mailer == nil {
		mailer = NewLogMailer(logger)
	}
	return &ResendVerificationHandler{repo: repo, mailer: mailer, logger: logger}
}

func (h *ResendVerificationHandler) Execute(ctx context.Context, event ResendVerificationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during verification resend")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendVerificationHandler) execute(ctx context.Context, event ResendVerificationMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().ByEmail(ctx, event.Email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			// Report success for unknown addresses, same as the password
			// reset initializer, so the endpoint cannot be used to probe
			// which emails are registered.
			h.logger.Debug("verification resend requested for unknown email", "email", event.Email)
			return nil
		}
		return err
	}

	if user.IsEmailVerified {
		return ErrEmailAlreadyVerified
	}

	if err := issueVerificationMail(ctx, h.repo, h.mailer, user); err != nil {
		h.logger.Error("failed to resend verification mail", "email", user.Email, "error", err)
	}

	return nil
}
