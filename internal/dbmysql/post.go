package dbmysql

import (
	"time"
)

// Post is the single content unit. A reply is a post with ParentID set; a
// repost is a post with QuotedPostID set and empty content; a quote-repost
// additionally carries content or media of its own.
type Post struct {
	PostID       int64     `gorm:"primaryKey;autoIncrement;column:post_id"`
	UserID       string    `gorm:"column:user_id;type:varchar(36);not null;index"`
	Content      string    `gorm:"column:content;type:text"`
	MediaURL     *string   `gorm:"column:media_url"`
	ParentID     *int64    `gorm:"column:parent_id;index"`
	QuotedPostID *int64    `gorm:"column:quoted_post_id;index"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Author Profile `gorm:"foreignKey:UserID;references:UserID"`
}

// EditGraceWindow absorbs insert-then-immediate-update races from upload
// flows: a row touched within this window of creation does not count as
// edited.
const EditGraceWindow = 10 * time.Second

// Edited reports whether the post was modified after creation, beyond the
// grace window.
func (p *Post) Edited() bool {
	return p.UpdatedAt.Sub(p.CreatedAt) > EditGraceWindow
}

// IsPureRepost reports whether this post only forwards another post.
func (p *Post) IsPureRepost() bool {
	return p.QuotedPostID != nil && p.Content == "" && p.MediaURL == nil
}
