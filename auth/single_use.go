package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SingleUseTokens issues and consumes opaque, time-boxed, one-shot tokens.
// Email verification and password reset share the mechanism; the purpose
// tag keeps the two flows from cross-validating.
type SingleUseTokens interface {
	// Issue replaces any live token for (user, purpose) with a fresh one.
	Issue(ctx context.Context, userID int64, purpose TokenPurpose, ttl time.Duration) (*SingleUseToken, error)
	// Consume atomically marks the token used and returns its owner.
	Consume(ctx context.Context, token string, purpose TokenPurpose) (*User, error)
	// PurgeExpired deletes dead rows. Housekeeping only, never on the hot path.
	PurgeExpired(ctx context.Context) (int64, error)
}

type singleUseTokens struct {
	db *bun.DB
}

var _ SingleUseTokens = (*singleUseTokens)(nil)

// NewSingleUseTokens builds the bun-backed token store.
func NewSingleUseTokens(db *bun.DB) SingleUseTokens {
	return &singleUseTokens{db: db}
}

func (s *singleUseTokens) Issue(ctx context.Context, userID int64, purpose TokenPurpose, ttl time.Duration) (*SingleUseToken, error) {
	record := &SingleUseToken{
		// uuid v4 carries 122 random bits, enough to make guessing
		// infeasible within any practical validity window.
		Token:     uuid.NewString(),
		UserID:    userID,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(ttl),
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// At most one live token per user and purpose: re-issuing
		// supersedes anything still outstanding.
		if _, err := tx.NewDelete().
			Model((*SingleUseToken)(nil)).
			Where("?TableAlias.user_id = ?", userID).
			Where("?TableAlias.purpose = ?", purpose).
			Where("?TableAlias.used = ?", false).
			Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to supersede prior tokens")
		}

		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to persist single-use token")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

func (s *singleUseTokens) Consume(ctx context.Context, token string, purpose TokenPurpose) (*User, error) {
	record := &SingleUseToken{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Where("?TableAlias.purpose = ?", purpose).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// A matching token with the wrong purpose also lands here.
			return nil, ErrSingleUseNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up single-use token")
	}

	if record.Used {
		return nil, ErrSingleUseConsumed
	}
	if record.IsExpired() {
		return nil, ErrSingleUseExpired
	}

	// Single conditional update: under a double-submit race exactly one
	// request flips used=false to true, the other sees zero rows.
	now := time.Now()
	res, err := s.db.NewUpdate().
		Model((*SingleUseToken)(nil)).
		Set("used = ?", true).
		Set("used_at = ?", now).
		Where("?TableAlias.token = ?", token).
		Where("?TableAlias.purpose = ?", purpose).
		Where("?TableAlias.used = ?", false).
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to consume single-use token")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to read consume result")
	}
	if affected == 0 {
		return nil, ErrSingleUseConsumed
	}

	user := &User{}
	if err := s.db.NewSelect().
		Model(user).
		Where("?TableAlias.id = ?", record.UserID).
		Scan(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load token owner")
	}

	return user, nil
}

func (s *singleUseTokens) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*SingleUseToken)(nil)).
		WhereOr("?TableAlias.used = ?", true).
		WhereOr("?TableAlias.expires_at < ?", time.Now()).
		Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.CategoryInternal, "failed to purge tokens")
	}

	return res.RowsAffected()
}
