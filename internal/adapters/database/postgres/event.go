package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dkhrunov/btc-challenge-bot/internal/domain/common/errorz"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/entity"
)

type EventStorage struct {
	db *gorm.DB
}

func NewEventStorage(db *gorm.DB) *EventStorage {
	return &EventStorage{
		db: db,
	}
}

// CreateExclusive force-completes every uncompleted event and inserts the new
// one in a single transaction, so at most one event is left active even with
// concurrent creators.
func (s *EventStorage) CreateExclusive(ctx context.Context, event *entity.Event, now time.Time) (*entity.Event, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errComplete := tx.Model(&entity.Event{}).
			Where("completed_at IS NULL").
			Update("completed_at", now).Error; errComplete != nil {
			return errComplete
		}
		return tx.Create(event).Error
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// Get is a function that gets an event from the database by id, with its
// participant ids loaded in join order.
func (s *EventStorage) Get(ctx context.Context, id string) (*entity.Event, error) {
	var event entity.Event
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorz.NotFound
		}
		return nil, err
	}
	if err = s.loadParticipants(ctx, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// Save is a function that updates an event in the database.
func (s *EventStorage) Save(ctx context.Context, event *entity.Event) (*entity.Event, error) {
	err := s.db.WithContext(ctx).Save(event).Error
	return event, err
}

// MarkReminderSent sets the reminder flag for one event. The update touches
// only the flag column, so racing schedulers cannot lose other fields.
func (s *EventStorage) MarkReminderSent(ctx context.Context, eventID string) error {
	return s.db.WithContext(ctx).Model(&entity.Event{}).
		Where("id = ?", eventID).
		Update("reminder_sent", true).Error
}

// MarkStartSent sets the start flag for one event.
func (s *EventStorage) MarkStartSent(ctx context.Context, eventID string) error {
	return s.db.WithContext(ctx).Model(&entity.Event{}).
		Where("id = ?", eventID).
		Update("start_sent", true).Error
}

func (s *EventStorage) AddParticipant(ctx context.Context, eventID string, userID int64, joinedAt time.Time) error {
	err := s.db.WithContext(ctx).Create(&entity.EventParticipant{
		EventID:  eventID,
		UserID:   userID,
		JoinedAt: joinedAt,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errorz.AlreadyJoined
	}
	return err
}

// GetEventsStartingSoon returns unreminded, uncompleted events with start_at
// inside [windowStart, windowEnd], ascending by start time. The completion
// filter keeps events force-completed by a superseding creation from inviting
// anyone.
func (s *EventStorage) GetEventsStartingSoon(ctx context.Context, windowStart, windowEnd time.Time) ([]entity.Event, error) {
	var events []entity.Event
	err := s.db.WithContext(ctx).
		Where("start_at >= ? AND start_at <= ? AND reminder_sent = false AND completed_at IS NULL", windowStart, windowEnd).
		Order("start_at").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, s.loadAllParticipants(ctx, events)
}

// GetEventsStartingNow returns unannounced events whose start time has
// passed. Using <= now instead of a tolerance window means a poll that lands
// late still picks the event up on its next cycle.
func (s *EventStorage) GetEventsStartingNow(ctx context.Context, now time.Time) ([]entity.Event, error) {
	var events []entity.Event
	err := s.db.WithContext(ctx).
		Where("start_at <= ? AND start_sent = false AND completed_at IS NULL", now).
		Order("start_at").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, s.loadAllParticipants(ctx, events)
}

func (s *EventStorage) GetActiveEvents(ctx context.Context, now time.Time) ([]entity.Event, error) {
	var events []entity.Event
	err := s.db.WithContext(ctx).
		Where("start_at <= ? AND start_sent = true AND completed_at IS NULL", now).
		Order("start_at").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, s.loadAllParticipants(ctx, events)
}

func (s *EventStorage) GetActiveEventsByParticipant(ctx context.Context, userID int64, now time.Time) ([]entity.Event, error) {
	var events []entity.Event
	err := s.db.WithContext(ctx).
		Joins("JOIN event_participants ON event_participants.event_id = events.id").
		Where("event_participants.user_id = ?", userID).
		Where("start_at <= ? AND start_sent = true AND completed_at IS NULL", now).
		Order("start_at").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, s.loadAllParticipants(ctx, events)
}

// GetCurrentActiveEvent returns the single uncompleted started event, or
// errorz.NotFound.
func (s *EventStorage) GetCurrentActiveEvent(ctx context.Context) (*entity.Event, error) {
	var event entity.Event
	err := s.db.WithContext(ctx).
		Where("start_sent = true AND completed_at IS NULL").
		Order("start_at").
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorz.NotFound
		}
		return nil, err
	}
	if err = s.loadParticipants(ctx, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *EventStorage) GetUncompletedEvents(ctx context.Context) ([]entity.Event, error) {
	var events []entity.Event
	err := s.db.WithContext(ctx).
		Where("completed_at IS NULL").
		Order("start_at").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, s.loadAllParticipants(ctx, events)
}

func (s *EventStorage) loadParticipants(ctx context.Context, event *entity.Event) error {
	return s.db.WithContext(ctx).Model(&entity.EventParticipant{}).
		Where("event_id = ?", event.ID).
		Order("joined_at").
		Pluck("user_id", &event.ParticipantIDs).Error
}

func (s *EventStorage) loadAllParticipants(ctx context.Context, events []entity.Event) error {
	for i := range events {
		if err := s.loadParticipants(ctx, &events[i]); err != nil {
			return err
		}
	}
	return nil
}
