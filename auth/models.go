package auth

import (
	"time"

	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is a regular account
	RoleUser UserRole = "user"
	// RoleAdmin can manage crawl sources and categories
	RoleAdmin UserRole = "admin"
)

// ParseRole safely parses a string into a UserRole
func ParseRole(roleStr string) (UserRole, bool) {
	switch UserRole(roleStr) {
	case RoleUser, RoleAdmin:
		return UserRole(roleStr), true
	default:
		return "", false
	}
}

// User is the principal record. Accounts are created either by explicit
// signup or lazily on first federated login; they are deactivated rather
// than deleted.
type User struct {
	bun.BaseModel   `bun:"table:users,alias:usr"`
	ID              int64     `bun:"id,pk,autoincrement" json:"id,omitempty"`
	StudentID       *string   `bun:"student_id,unique,nullzero" json:"student_id,omitempty"`
	Email           string    `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash    string    `bun:"password_hash,notnull" json:"-"`
	Name            string    `bun:"name" json:"name,omitempty"`
	FirebaseUID     *string   `bun:"firebase_uid,unique,nullzero" json:"-"`
	FCMToken        string    `bun:"fcm_token" json:"-"`
	Role            UserRole  `bun:"role,notnull" json:"role,omitempty"`
	IsActive        bool      `bun:"is_active,notnull" json:"is_active"`
	IsEmailVerified bool      `bun:"is_email_verified,notnull" json:"is_email_verified"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at,omitempty"`
}

// TokenPurpose discriminates single-use token flows. A token issued for one
// purpose never validates for another.
type TokenPurpose = string

const (
	// PurposeEmailVerify is the signup email verification flow (24h tokens)
	PurposeEmailVerify TokenPurpose = "email_verify"
	// PurposePasswordReset is the forgot-password flow (1h tokens)
	PurposePasswordReset TokenPurpose = "password_reset"
)

// Default validity windows per purpose.
const (
	EmailVerifyTTL   = 24 * time.Hour
	PasswordResetTTL = time.Hour
)

// SingleUseToken is an in-flight verification or reset flow: an opaque
// random string valid until its expiry, consumable exactly once.
type SingleUseToken struct {
	bun.BaseModel `bun:"table:single_use_tokens,alias:sut"`
	ID            int64        `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Token         string       `bun:"token,notnull,unique" json:"token,omitempty"`
	UserID        int64        `bun:"user_id,notnull" json:"user_id,omitempty"`
	User          *User        `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Purpose       TokenPurpose `bun:"purpose,notnull" json:"purpose,omitempty"`
	ExpiresAt     time.Time    `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	Used          bool         `bun:"used,notnull" json:"used"`
	UsedAt        *time.Time   `bun:"used_at,nullzero" json:"used_at,omitempty"`
	CreatedAt     time.Time    `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at,omitempty"`
}

// IsExpired checks whether the validity window has elapsed.
func (t *SingleUseToken) IsExpired() bool {
	return !time.Now().Before(t.ExpiresAt)
}

// IsValid checks the token is neither expired nor consumed.
func (t *SingleUseToken) IsValid() bool {
	return !t.IsExpired() && !t.Used
}
