package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Users is the user-record store consumed by the identity core.
type Users interface {
	ByID(ctx context.Context, id int64) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	ByFirebaseUID(ctx context.Context, uid string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByStudentID(ctx context.Context, studentID string) (bool, error)

	Create(ctx context.Context, user *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)

	LinkFirebaseUID(ctx context.Context, id int64, uid string) error
	SetEmailVerified(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateFCMToken(ctx context.Context, id int64, token string) error
	Deactivate(ctx context.Context, id int64) error
}

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)

// NewUsersRepository builds the bun-backed Users store.
func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

func (a *users) ByID(ctx context.Context, id int64) (*User, error) {
	return a.byColumn(ctx, "id", id)
}

func (a *users) ByEmail(ctx context.Context, email string) (*User, error) {
	return a.byColumn(ctx, "email", email)
}

func (a *users) ByFirebaseUID(ctx context.Context, uid string) (*User, error) {
	return a.byColumn(ctx, "firebase_uid", uid)
}

func (a *users) byColumn(ctx context.Context, column string, value any) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("user not found", errors.CategoryNotFound).
				WithTextCode("USER_NOT_FOUND").
				WithMetadata(map[string]any{column: value})
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to query user")
	}

	return record, nil
}

func (a *users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return a.exists(ctx, "email", email)
}

func (a *users) ExistsByStudentID(ctx context.Context, studentID string) (bool, error) {
	return a.exists(ctx, "student_id", studentID)
}

func (a *users) exists(ctx context.Context, column string, value any) (bool, error) {
	exists, err := a.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias."+column+" = ?", value).
		Exists(ctx)
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to check user existence")
	}
	return exists, nil
}

func (a *users) Create(ctx context.Context, user *User) (*User, error) {
	return a.CreateTx(ctx, a.db, user)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)

	if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
		// The unique constraints on email, student_id, and firebase_uid are
		// the concurrency control here; the caller decides whether a
		// violation means "conflict" or "lost a provisioning race".
		return nil, err
	}

	return user, nil
}

func (a *users) LinkFirebaseUID(ctx context.Context, id int64, uid string) error {
	return a.updateColumns(ctx, id, map[string]any{"firebase_uid": uid})
}

func (a *users) SetEmailVerified(ctx context.Context, id int64) error {
	return a.updateColumns(ctx, id, map[string]any{"is_email_verified": true})
}

func (a *users) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return a.updateColumns(ctx, id, map[string]any{"password_hash": passwordHash})
}

func (a *users) UpdateFCMToken(ctx context.Context, id int64, token string) error {
	return a.updateColumns(ctx, id, map[string]any{"fcm_token": token})
}

// Deactivate performs the soft delete behind "delete account". The row is
// kept so bookmarks and preferences stay attributable.
func (a *users) Deactivate(ctx context.Context, id int64) error {
	return a.updateColumns(ctx, id, map[string]any{"is_active": false})
}

func (a *users) updateColumns(ctx context.Context, id int64, values map[string]any) error {
	q := a.db.NewUpdate().
		Model((*User)(nil)).
		Where("?TableAlias.id = ?", id).
		Set("updated_at = ?", time.Now())

	for column, value := range values {
		q = q.Set(column+" = ?", value)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to update user")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to read update result")
	}
	if affected == 0 {
		return errors.New("user not found", errors.CategoryNotFound).
			WithTextCode("USER_NOT_FOUND").
			WithMetadata(map[string]any{"id": id})
	}

	return nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleUser
	}
}
