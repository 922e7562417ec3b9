package notice

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Store reads notices and manages per-user bookmarks. Notice rows come
// from the crawler; nothing here writes them.
type Store interface {
	List(ctx context.Context, category string, limit, offset int) ([]*Notice, error)
	ByID(ctx context.Context, id int64) (*Notice, error)
	Categories(ctx context.Context) ([]string, error)

	AddBookmark(ctx context.Context, userID, noticeID int64) error
	RemoveBookmark(ctx context.Context, userID, noticeID int64) error
	BookmarksByUser(ctx context.Context, userID int64) ([]*Bookmark, error)
}

type store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) Store {
	return &store{db: db}
}

func (s *store) List(ctx context.Context, category string, limit, offset int) ([]*Notice, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var notices []*Notice
	q := s.db.NewSelect().
		Model(&notices).
		Order("posted_at DESC").
		Limit(limit).
		Offset(offset)
	if category != "" {
		q = q.Where("category = ?", category)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list notices")
	}
	return notices, nil
}

func (s *store) ByID(ctx context.Context, id int64) (*Notice, error) {
	ntc := new(Notice)
	err := s.db.NewSelect().Model(ntc).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerrors.New("notice not found", goerrors.CategoryNotFound).
				WithTextCode("NOTICE_NOT_FOUND")
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to get notice")
	}
	return ntc, nil
}

func (s *store) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := s.db.NewSelect().
		Model((*Notice)(nil)).
		ColumnExpr("DISTINCT category").
		Order("category ASC").
		Scan(ctx, &categories)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list categories")
	}
	return categories, nil
}

// AddBookmark is idempotent. A duplicate save hits the unique pair index
// and is treated as success.
func (s *store) AddBookmark(ctx context.Context, userID, noticeID int64) error {
	if _, err := s.ByID(ctx, noticeID); err != nil {
		return err
	}

	bmk := &Bookmark{UserID: userID, NoticeID: noticeID}
	if _, err := s.db.NewInsert().Model(bmk).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to save bookmark")
	}
	return nil
}

func (s *store) RemoveBookmark(ctx context.Context, userID, noticeID int64) error {
	_, err := s.db.NewDelete().
		Model((*Bookmark)(nil)).
		Where("user_id = ? AND notice_id = ?", userID, noticeID).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove bookmark")
	}
	return nil
}

func (s *store) BookmarksByUser(ctx context.Context, userID int64) ([]*Bookmark, error) {
	var bookmarks []*Bookmark
	err := s.db.NewSelect().
		Model(&bookmarks).
		Relation("Notice").
		Where("bmk.user_id = ?", userID).
		Order("bmk.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list bookmarks")
	}
	return bookmarks, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
