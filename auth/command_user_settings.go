package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type UpdateFCMTokenMessage struct {
	UserID   int64  `json:"user_id"`
	FCMToken string `json:"fcm_token"`
}

func (e UpdateFCMTokenMessage) Type() string { return "user.update_fcm_token" }

type UpdateFCMTokenHandler struct {
	repo RepositoryManager
}

func NewUpdateFCMTokenHandler(repo RepositoryManager) *UpdateFCMTokenHandler {
	return &UpdateFCMTokenHandler{repo: repo}
}

func (h *UpdateFCMTokenHandler) Execute(ctx context.Context, event UpdateFCMTokenMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during fcm token update")
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	return h.repo.Users().UpdateFCMToken(ctx, event.UserID, event.FCMToken)
}

type DeactivateUserMessage struct {
	UserID int64 `json:"user_id"`
}

func (e DeactivateUserMessage) Type() string { return "user.deactivate" }

type DeactivateUserHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewDeactivateUserHandler(repo RepositoryManager, logger Logger) *DeactivateUserHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &DeactivateUserHandler{repo: repo, logger: logger}
}

// Execute deactivates the account. The row is never deleted; federated
// subject links, bookmarks, and preferences stay in place in case the
// account is reinstated.
func (h *DeactivateUserHandler) Execute(ctx context.Context, event DeactivateUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during deactivation")
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := h.repo.Users().Deactivate(ctx, event.UserID); err != nil {
		return err
	}

	h.logger.Info("account deactivated", "user_id", event.UserID)
	return nil
}
