package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// UniversityMailDomain is the only domain accepted for signup.
const UniversityMailDomain = "@inu.ac.kr"

type RegisterUserMessage struct {
	StudentID  string `json:"student_id"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	OnResponse func(user *User)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email, validation.By(universityEmail)),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&e.StudentID, validation.Required, validation.Length(1, 20)),
		validation.Field(&e.Name, validation.Length(0, 50)),
	)
}

type RegisterUserHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

func NewRegisterUserHandler(repo RepositoryManager, mailer Mailer, logger Logger) *RegisterUserHandler {
	if logger == nil {
		logger = defLogger{}
	}
	if mailer == nil {
		mailer = NewLogMailer(logger)
	}
	return &RegisterUserHandler{repo: repo, mailer: mailer, logger: logger}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	// The existence checks produce the precise conflict error; the unique
	// constraints below remain the backstop for concurrent signups.
	if taken, err := h.repo.Users().ExistsByEmail(ctx, event.Email); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email uniqueness")
	} else if taken {
		return ErrDuplicateEmail
	}

	if taken, err := h.repo.Users().ExistsByStudentID(ctx, event.StudentID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check student id uniqueness")
	} else if taken {
		return ErrDuplicateStudentID
	}

	hash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	studentID := event.StudentID
	user := &User{
		StudentID:    &studentID,
		Email:        event.Email,
		PasswordHash: hash,
		Name:         getDisplayName(event.Name, event.Email),
		Role:         RoleUser,
		IsActive:     true,
	}

	if user, err = h.repo.Users().Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return duplicateConflict(err)
		}
		return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
	}

	// Verification mail is best effort: a delivery failure is logged and
	// the account stays created, the user can request a resend.
	if err := issueVerificationMail(ctx, h.repo, h.mailer, user); err != nil {
		h.logger.Error("failed to send verification mail", "email", user.Email, "error", err)
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}

func issueVerificationMail(ctx context.Context, repo RepositoryManager, mailer Mailer, user *User) error {
	token, err := repo.SingleUseTokens().Issue(ctx, user.ID, PurposeEmailVerify, EmailVerifyTTL)
	if err != nil {
		return err
	}

	return mailer.Send(ctx, user.Email, MailEmailVerification, map[string]string{
		"token": token.Token,
		"name":  user.Name,
	})
}

func universityEmail(value any) error {
	email, _ := value.(string)
	if !strings.HasSuffix(email, UniversityMailDomain) {
		return errors.New("only " + UniversityMailDomain + " addresses may register")
	}
	return nil
}

func getDisplayName(name, email string) string {
	if name != "" {
		return name
	}

	if strings.Contains(email, "@") {
		name = strings.Split(email, "@")[0]
	}

	return name
}
