package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrInvalidCredentials is returned for every local credential failure:
// unknown email and wrong password are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS")

// ErrAccountInactive is returned when a deactivated account authenticates.
var ErrAccountInactive = errors.New("account is deactivated", errors.CategoryAuth).
	WithTextCode("ACCOUNT_INACTIVE")

// ErrTokenExpired is returned for expired bearer tokens.
var ErrTokenExpired = errors.New("authentication token is expired", errors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED")

// ErrTokenMalformed is returned for unparseable, unsigned, or otherwise
// invalid bearer tokens.
var ErrTokenMalformed = errors.New("authentication token is malformed", errors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED")

// ErrDuplicateEmail signals a signup against an email already registered.
var ErrDuplicateEmail = errors.New("email is already registered", errors.CategoryConflict).
	WithTextCode("DUPLICATE_EMAIL")

// ErrDuplicateStudentID signals a signup against a student id already registered.
var ErrDuplicateStudentID = errors.New("student id is already registered", errors.CategoryConflict).
	WithTextCode("DUPLICATE_STUDENT_ID")

// ErrEmailAlreadyVerified signals a verification request for a verified account.
var ErrEmailAlreadyVerified = errors.New("email is already verified", errors.CategoryConflict).
	WithTextCode("EMAIL_ALREADY_VERIFIED")

// Single-use token state errors. These surface the specific reason: the
// token was delivered out-of-band to its rightful owner, so precision here
// helps legitimate users without aiding attackers.
var (
	ErrSingleUseNotFound = errors.New("token not found", errors.CategoryNotFound).
				WithTextCode("TOKEN_NOT_FOUND")
	ErrSingleUseExpired = errors.New("token is expired", errors.CategoryBadInput).
				WithTextCode("TOKEN_STATE_EXPIRED")
	ErrSingleUseConsumed = errors.New("token was already used", errors.CategoryBadInput).
				WithTextCode("TOKEN_STATE_USED")
)

// ErrNoEmptyString rejects empty password input before hashing.
var ErrNoEmptyString = errors.New("value must not be an empty string", errors.CategoryBadInput).
	WithTextCode("EMPTY_STRING")

// ErrMismatchedHashAndPassword wraps bcrypt's mismatch error.
var ErrMismatchedHashAndPassword = errors.New("hashed password does not match", errors.CategoryAuth).
	WithTextCode("PASSWORD_MISMATCH")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenExpired) ||
		strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTokenMalformed) ||
		strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// isUniqueViolation reports whether err is a storage-level uniqueness
// conflict. The database constraint, not application locking, is the source
// of truth for first-sight provisioning; callers treat a violation as an
// expected control-flow branch.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "duplicate key value") || // postgres
		strings.Contains(msg, "SQLSTATE 23505")
}

// duplicateConflict picks the specific signup conflict from a uniqueness
// violation. Both sqlite and postgres name the violated column or
// constraint in the message.
func duplicateConflict(err error) error {
	if strings.Contains(err.Error(), "student_id") {
		return ErrDuplicateStudentID
	}
	return ErrDuplicateEmail
}
