package service

import (
	"context"
	"strings"
	"time"

	"github.com/dkhrunov/btc-challenge-bot/internal/domain/common/errorz"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/entity"
	"github.com/dkhrunov/btc-challenge-bot/pkg/clock"
)

// MinStartLead is the minimum delay between creating an event and its start.
const MinStartLead = 2 * time.Minute

type EventStorage interface {
	// CreateExclusive force-completes every uncompleted event (setting its
	// CompletedAt to now) and inserts the new one, all in one transaction.
	CreateExclusive(ctx context.Context, event *entity.Event, now time.Time) (*entity.Event, error)
	Get(ctx context.Context, id string) (*entity.Event, error)
	Save(ctx context.Context, event *entity.Event) (*entity.Event, error)
	AddParticipant(ctx context.Context, eventID string, userID int64, joinedAt time.Time) error
	GetActiveEvents(ctx context.Context, now time.Time) ([]entity.Event, error)
	GetActiveEventsByParticipant(ctx context.Context, userID int64, now time.Time) ([]entity.Event, error)
	GetCurrentActiveEvent(ctx context.Context) (*entity.Event, error)
	GetUncompletedEvents(ctx context.Context) ([]entity.Event, error)
}

type EventService struct {
	eventStorage EventStorage
	clock        clock.Clock
}

func NewEventService(storage EventStorage, clk clock.Clock) *EventService {
	return &EventService{
		eventStorage: storage,
		clock:        clk,
	}
}

// Create validates and stores a new event. Any still-uncompleted event is
// force-completed as a side effect, so at most one event is ever active.
func (s *EventService) Create(ctx context.Context, creatorID int64, title, description string, startAt time.Time) (*entity.Event, error) {
	if strings.TrimSpace(title) == "" {
		return nil, errorz.EmptyTitle
	}
	if strings.TrimSpace(description) == "" {
		return nil, errorz.EmptyDescription
	}
	now := s.clock.Now()
	if startAt.Before(now.Add(MinStartLead)) {
		return nil, errorz.StartTooSoon
	}

	return s.eventStorage.CreateExclusive(ctx, &entity.Event{
		CreatorID:   creatorID,
		Title:       title,
		Description: description,
		StartAt:     startAt,
	}, now)
}

func (s *EventService) Get(ctx context.Context, id string) (*entity.Event, error) {
	return s.eventStorage.Get(ctx, id)
}

// Join adds a user to the roster. Joining is only possible before the event
// starts and only once per user.
func (s *EventService) Join(ctx context.Context, eventID string, userID int64) error {
	event, err := s.eventStorage.Get(ctx, eventID)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	if !now.Before(event.StartAt) {
		return errorz.EventAlreadyStarted
	}
	if event.HasParticipant(userID) {
		return errorz.AlreadyJoined
	}

	return s.eventStorage.AddParticipant(ctx, eventID, userID, now)
}

// Complete closes a started event. Completion is terminal.
func (s *EventService) Complete(ctx context.Context, eventID string) (*entity.Event, error) {
	event, err := s.eventStorage.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if event.CompletedAt != nil {
		return nil, errorz.AlreadyCompleted
	}
	if !event.IsStarted(now) {
		return nil, errorz.NotStarted
	}

	event.CompletedAt = &now
	return s.eventStorage.Save(ctx, event)
}

// MarkReminderSent persists the reminder flag. The flag is monotonic: once
// true the call is a no-op. Callers still check it before dispatching.
func (s *EventService) MarkReminderSent(ctx context.Context, event *entity.Event) error {
	if event.ReminderSent {
		return nil
	}
	event.ReminderSent = true
	_, err := s.eventStorage.Save(ctx, event)
	return err
}

// MarkStartSent persists the start flag, no-op if already set.
func (s *EventService) MarkStartSent(ctx context.Context, event *entity.Event) error {
	if event.StartSent {
		return nil
	}
	event.StartSent = true
	_, err := s.eventStorage.Save(ctx, event)
	return err
}

func (s *EventService) GetActiveEvents(ctx context.Context) ([]entity.Event, error) {
	return s.eventStorage.GetActiveEvents(ctx, s.clock.Now())
}

func (s *EventService) GetCurrentActiveEvent(ctx context.Context) (*entity.Event, error) {
	return s.eventStorage.GetCurrentActiveEvent(ctx)
}

func (s *EventService) GetUncompletedEvents(ctx context.Context) ([]entity.Event, error) {
	return s.eventStorage.GetUncompletedEvents(ctx)
}
