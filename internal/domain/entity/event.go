package entity

import (
	"time"

	"github.com/dkhrunov/btc-challenge-bot/internal/domain/utils/location"
)

type Event struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CreatorID   int64     `gorm:"not null"`
	Title       string    `gorm:"not null"`
	Description string    `gorm:"not null"`
	StartAt     time.Time `gorm:"not null"`
	CompletedAt *time.Time
	ReminderSent bool `gorm:"not null;default:false"`
	StartSent    bool `gorm:"not null;default:false"`

	// ParticipantIDs is loaded together with the event, ordered by join time.
	ParticipantIDs []int64 `gorm:"-"`
}

// IsStarted reports whether the event has crossed its start time and the start
// announcement has been dispatched.
func (e *Event) IsStarted(now time.Time) bool {
	return e.StartSent && !now.Before(e.StartAt)
}

// IsActive reports whether the event is started and not yet completed.
func (e *Event) IsActive(now time.Time) bool {
	return e.IsStarted(now) && e.CompletedAt == nil
}

// DayNumber returns the 1-indexed event day the instant ref falls on.
func (e *Event) DayNumber(ref time.Time) int {
	return location.DayNumber(e.StartAt, ref)
}

// LocalStartAt returns the start instant in the challenge time zone, for
// display.
func (e *Event) LocalStartAt() time.Time {
	return e.StartAt.In(location.Location())
}

// HasParticipant reports whether the user already joined the event.
func (e *Event) HasParticipant(userID int64) bool {
	for _, id := range e.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// EventParticipant is the event roster join record.
type EventParticipant struct {
	EventID  string    `gorm:"primaryKey;type:uuid"`
	UserID   int64     `gorm:"primaryKey"`
	JoinedAt time.Time `gorm:"not null"`
}
