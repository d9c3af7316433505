package entity

import (
	"slices"
	"time"

	"github.com/lib/pq"
)

type User struct {
	ID        int64 `gorm:"primaryKey"` // telegram user id
	CreatedAt time.Time
	UpdatedAt time.Time
	Username  string `gorm:"not null"`
	FirstName string
	Verified  bool           `gorm:"not null;default:false"`
	Banned    bool           `gorm:"not null;default:false"`
	Roles     pq.StringArray `gorm:"type:text[]"`
}

const RoleAdmin = "admin"

func (u *User) IsAdmin() bool {
	return slices.Contains(u.Roles, RoleAdmin)
}
