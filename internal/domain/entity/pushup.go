package entity

import "time"

// PushUp is a single daily submission: a proof video and the number of
// push-ups it is worth. Immutable once created.
type PushUp struct {
	ID        string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    int64  `gorm:"not null;index"`
	FileID    string `gorm:"not null"` // telegram file id of the proof video
	VideoNote bool   `gorm:"not null;default:false"`
	Count     int    `gorm:"not null"`
}
