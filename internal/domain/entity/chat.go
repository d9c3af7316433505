package entity

import "time"

// Chat is a group chat the bot broadcasts to. Deactivated chats are skipped
// until the bot is re-added.
type Chat struct {
	ID        int64 `gorm:"primaryKey"` // telegram chat id
	CreatedAt time.Time
	UpdatedAt time.Time
	Type      string `gorm:"not null"` // group or supergroup
	Title     string
	Active    bool `gorm:"not null;default:true"`
}
