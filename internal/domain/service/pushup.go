package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dkhrunov/btc-challenge-bot/internal/domain/common/errorz"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/entity"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/utils/location"
	"github.com/dkhrunov/btc-challenge-bot/pkg/clock"
)

type PushUpStorage interface {
	Create(ctx context.Context, pushUp *entity.PushUp) (*entity.PushUp, error)
	GetByUserAndDateRange(ctx context.Context, userID int64, begin, end time.Time) ([]entity.PushUp, error)
	GetByUsersAndDateRange(ctx context.Context, userIDs []int64, begin, end time.Time) ([]entity.PushUp, error)
}

type pushUpEventStorage interface {
	GetActiveEventsByParticipant(ctx context.Context, userID int64, now time.Time) ([]entity.Event, error)
}

// MissedDay is a zone-local event day the user skipped, with the penalty count
// owed for it.
type MissedDay struct {
	Date    time.Time // zone-local midnight of the missed day
	Penalty int
}

// DailyCheck is the submission window tracker verdict for one user and day.
//
// Required is the count the user must submit now: the current day number when
// nothing was missed, the sum of missed-day penalties when catching up, and 0
// when the day is already closed. TodayCount mirrors the day's own requirement
// and is zero whenever missed days exist, which matches the catch-up design:
// the penalty total absorbs today's requirement instead of adding to it.
type DailyCheck struct {
	Event          *entity.Event
	Required       int
	TodayCount     int
	MissedDays     []MissedDay
	SubmittedToday bool
}

// Closed reports whether no further submission is expected today.
func (c *DailyCheck) Closed() bool {
	return c.SubmittedToday && len(c.MissedDays) == 0
}

// PenaltyTotal is the sum of all missed-day penalties.
func (c *DailyCheck) PenaltyTotal() int {
	var total int
	for _, day := range c.MissedDays {
		total += day.Penalty
	}
	return total
}

type PushUpService struct {
	pushUpStorage PushUpStorage
	eventStorage  pushUpEventStorage
	clock         clock.Clock
}

func NewPushUpService(pushUpStorage PushUpStorage, eventStorage pushUpEventStorage, clk clock.Clock) *PushUpService {
	return &PushUpService{
		pushUpStorage: pushUpStorage,
		eventStorage:  eventStorage,
		clock:         clk,
	}
}

// CheckDaily runs the submission window tracker against the user's active
// event. Returns errorz.NoActiveEvent if the user participates in none.
func (s *PushUpService) CheckDaily(ctx context.Context, userID int64) (*DailyCheck, error) {
	now := s.clock.Now()
	events, err := s.eventStorage.GetActiveEventsByParticipant(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, errorz.NoActiveEvent
	}
	return s.CheckFor(ctx, userID, &events[0], now)
}

// CheckFor evaluates the tracker for a known event at a given instant.
func (s *PushUpService) CheckFor(ctx context.Context, userID int64, event *entity.Event, now time.Time) (*DailyCheck, error) {
	missedDays, err := s.missedDays(ctx, userID, event, now)
	if err != nil {
		return nil, err
	}

	begin, end := location.DayRange(now)
	todays, err := s.pushUpStorage.GetByUserAndDateRange(ctx, userID, begin, end)
	if err != nil {
		return nil, err
	}

	check := &DailyCheck{
		Event:          event,
		MissedDays:     missedDays,
		SubmittedToday: len(todays) > 0,
	}
	switch {
	case check.SubmittedToday && len(missedDays) == 0:
		// Day is closed, nothing to do.
	case len(missedDays) == 0:
		day := event.DayNumber(now)
		check.Required = day
		check.TodayCount = day
	default:
		// Catch-up: the penalty total replaces today's own requirement.
		check.Required = check.PenaltyTotal()
	}
	return check, nil
}

// missedDays enumerates every zone-local day from the event's start day up to,
// but excluding, today, and keeps the ones without a submission.
func (s *PushUpService) missedDays(ctx context.Context, userID int64, event *entity.Event, now time.Time) ([]MissedDay, error) {
	start := location.StartOfDay(event.StartAt)
	today := location.StartOfDay(now)

	var days []time.Time
	for day := start; day.Before(today); day = day.AddDate(0, 0, 1) {
		days = append(days, day)
	}
	if len(days) == 0 {
		return nil, nil
	}

	// The range opens at the day boundary, not the start instant: catch-up
	// rows are backdated to midnight of the day they cover.
	pushUps, err := s.pushUpStorage.GetByUserAndDateRange(ctx, userID, start, now)
	if err != nil {
		return nil, err
	}
	covered := make(map[time.Time]bool, len(pushUps))
	for _, pushUp := range pushUps {
		covered[location.StartOfDay(pushUp.CreatedAt)] = true
	}

	var missed []MissedDay
	for _, day := range days {
		if covered[day] {
			continue
		}
		missed = append(missed, MissedDay{
			Date:    day,
			Penalty: Penalty(event.DayNumber(day)),
		})
	}
	return missed, nil
}

// Create records a submission made now.
func (s *PushUpService) Create(ctx context.Context, userID int64, fileID string, videoNote bool, count int) (*entity.PushUp, error) {
	if count <= 0 {
		return nil, fmt.Errorf("push-up count must be positive, got %d", count)
	}
	if strings.TrimSpace(fileID) == "" {
		return nil, fmt.Errorf("file id cannot be empty")
	}
	return s.pushUpStorage.Create(ctx, &entity.PushUp{
		UserID:    userID,
		FileID:    fileID,
		VideoNote: videoNote,
		Count:     count,
	})
}

// CreatePenalty records a backdated catch-up submission so the missed day
// counts as covered.
func (s *PushUpService) CreatePenalty(ctx context.Context, userID int64, fileID string, videoNote bool, count int, createdAt time.Time) (*entity.PushUp, error) {
	if count <= 0 {
		return nil, fmt.Errorf("push-up count must be positive, got %d", count)
	}
	if strings.TrimSpace(fileID) == "" {
		return nil, fmt.Errorf("file id cannot be empty")
	}
	return s.pushUpStorage.Create(ctx, &entity.PushUp{
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		UserID:    userID,
		FileID:    fileID,
		VideoNote: videoNote,
		Count:     count,
	})
}

// Submit stores the proof video according to a prior tracker verdict: a single
// row for a regular day, or one backdated penalty row per missed day when
// catching up.
func (s *PushUpService) Submit(ctx context.Context, userID int64, fileID string, videoNote bool, check *DailyCheck) error {
	if check.Closed() || check.Required <= 0 {
		return errorz.AlreadySubmittedToday
	}
	if len(check.MissedDays) == 0 {
		_, err := s.Create(ctx, userID, fileID, videoNote, check.Required)
		return err
	}
	for _, missed := range check.MissedDays {
		if _, err := s.CreatePenalty(ctx, userID, fileID, videoNote, missed.Penalty, missed.Date); err != nil {
			return err
		}
	}
	return nil
}

func (s *PushUpService) GetByUserAndDateRange(ctx context.Context, userID int64, begin, end time.Time) ([]entity.PushUp, error) {
	return s.pushUpStorage.GetByUserAndDateRange(ctx, userID, begin, end)
}
