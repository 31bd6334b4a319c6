package dbmysql

import "time"

// Like existence is the signal; there is no payload. The (user_id, post_id)
// pair is unique so a double insert fails instead of double counting.
type Like struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	UserID    string    `gorm:"column:user_id;type:varchar(36);not null;uniqueIndex:idx_user_post"`
	PostID    int64     `gorm:"column:post_id;not null;uniqueIndex:idx_user_post"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
