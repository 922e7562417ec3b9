package notice

import (
	"time"

	"github.com/uptrace/bun"
)

// Notice is a crawled university announcement. Rows are written by the
// ingest job; the API surface here is read-only.
type Notice struct {
	bun.BaseModel `bun:"table:notices,alias:ntc"`

	ID       int64     `bun:"id,pk,autoincrement" json:"id"`
	Category string    `bun:"category,notnull" json:"category"`
	Title    string    `bun:"title,notnull" json:"title"`
	Link     string    `bun:"link,notnull" json:"link"`
	PostedAt time.Time `bun:"posted_at,notnull" json:"posted_at"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// Bookmark marks a notice saved by a user. The (user_id, notice_id) pair
// is unique so repeated saves collapse into one row.
type Bookmark struct {
	bun.BaseModel `bun:"table:bookmarks,alias:bmk"`

	ID       int64 `bun:"id,pk,autoincrement" json:"id"`
	UserID   int64 `bun:"user_id,notnull,unique:bookmarks_user_notice" json:"user_id"`
	NoticeID int64 `bun:"notice_id,notnull,unique:bookmarks_user_notice" json:"notice_id"`

	Notice *Notice `bun:"rel:belongs-to,join:notice_id=id" json:"notice,omitempty"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
