package dbmysql

import (
	"time"
)

// Profile is 1:1 with an authenticated principal. Display fields are all
// optional; callers substitute fallbacks for missing values.
type Profile struct {
	UserID       string    `gorm:"primaryKey;column:user_id;type:varchar(36)"`
	Handle       string    `gorm:"column:handle;uniqueIndex;size:50;not null"`
	Email        string    `gorm:"column:email;size:255"`
	PasswordHash string    `gorm:"column:password_hash;size:255;not null" json:"-"`
	DisplayName  *string   `gorm:"column:display_name;size:50"`
	AvatarURL    *string   `gorm:"column:avatar_url"`
	Bio          *string   `gorm:"column:bio;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
