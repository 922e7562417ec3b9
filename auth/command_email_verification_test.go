package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyEmail_InvalidToken(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()

	handler := NewVerifyEmailHandler(repo, nil)
	err := handler.Execute(context.Background(), VerifyEmailMessage{Token: "no-such-token"})
	assert.ErrorIs(t, err, ErrSingleUseNotFound)
}

func TestResendVerification(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	user := createTestUser(t, repo, "student@inu.ac.kr")
	mailer := &recordingMailer{}

	handler := NewResendVerificationHandler(repo, mailer, nil)
	require.NoError(t, handler.Execute(ctx, ResendVerificationMessage{Email: user.Email}))

	mail := mailer.last(t)
	assert.Equal(t, MailEmailVerification, mail.Kind)
	assert.NotEmpty(t, mail.Payload["token"])

	verify := NewVerifyEmailHandler(repo, nil)
	require.NoError(t, verify.Execute(ctx, VerifyEmailMessage{Token: mail.Payload["token"]}))

	// A second resend on a verified account is rejected.
	err := handler.Execute(ctx, ResendVerificationMessage{Email: user.Email})
	assert.ErrorIs(t, err, ErrEmailAlreadyVerified)
}

func TestResendVerification_UnknownEmailReportsSuccess(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()

	mailer := &recordingMailer{}
	handler := NewResendVerificationHandler(repo, mailer, nil)

	err := handler.Execute(context.Background(), ResendVerificationMessage{Email: "nobody@inu.ac.kr"})
	require.NoError(t, err)
	assert.Empty(t, mailer.sends)
}

func TestResendVerification_SupersedesOldToken(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	user := createTestUser(t, repo, "student@inu.ac.kr")
	mailer := &recordingMailer{}
	handler := NewResendVerificationHandler(repo, mailer, nil)

	require.NoError(t, handler.Execute(ctx, ResendVerificationMessage{Email: user.Email}))
	first := mailer.last(t).Payload["token"]
	require.NoError(t, handler.Execute(ctx, ResendVerificationMessage{Email: user.Email}))
	second := mailer.last(t).Payload["token"]
	require.NotEqual(t, first, second)

	verify := NewVerifyEmailHandler(repo, nil)
	assert.ErrorIs(t, verify.Execute(ctx, VerifyEmailMessage{Token: first}), ErrSingleUseNotFound)
	assert.NoError(t, verify.Execute(ctx, VerifyEmailMessage{Token: second}))
}

func TestUpdateFCMToken(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	user := createTestUser(t, repo, "student@inu.ac.kr")

	handler := NewUpdateFCMTokenHandler(repo)
	require.NoError(t, handler.Execute(ctx, UpdateFCMTokenMessage{UserID: user.ID, FCMToken: "fcm-abc"}))

	stored, err := repo.Users().ByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "fcm-abc", stored.FCMToken)
}

func TestDeactivateUser(t *testing.T) {
	repo, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	user := createTestUser(t, repo, "student@inu.ac.kr")

	handler := NewDeactivateUserHandler(repo, nil)
	require.NoError(t, handler.Execute(ctx, DeactivateUserMessage{UserID: user.ID}))

	stored, err := repo.Users().ByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	resolver := NewIdentityResolver(repo)
	_, err = resolver.VerifyLocal(ctx, user.Email, "correct-horse-battery")
	assert.ErrorIs(t, err, ErrAccountInactive)
}
