package dbmysql

import "time"

// Follow is a unique ordered pair. Self-follows are rejected at the handler
// layer, not here.
type Follow struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id"`
	FollowerID  string    `gorm:"column:follower_id;type:varchar(36);not null;uniqueIndex:idx_follower_following"`
	FollowingID string    `gorm:"column:following_id;type:varchar(36);not null;uniqueIndex:idx_follower_following"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}
