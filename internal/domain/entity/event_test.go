package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dkhrunov/btc-challenge-bot/internal/domain/entity"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/utils/location"
)

func TestEventIsStarted(t *testing.T) {
	startAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	event := &entity.Event{StartAt: startAt}
	assert.False(t, event.IsStarted(startAt), "start time passed but announcement not sent")

	event.StartSent = true
	assert.False(t, event.IsStarted(startAt.Add(-time.Minute)))
	assert.True(t, event.IsStarted(startAt))
	assert.True(t, event.IsStarted(startAt.Add(time.Hour)))
}

func TestEventIsActive(t *testing.T) {
	startAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	now := startAt.Add(time.Hour)

	event := &entity.Event{StartAt: startAt, StartSent: true}
	assert.True(t, event.IsActive(now))

	completedAt := now
	event.CompletedAt = &completedAt
	assert.False(t, event.IsActive(now))
}

func TestEventDayNumber(t *testing.T) {
	loc := location.Location()
	event := &entity.Event{StartAt: time.Date(2026, 3, 2, 9, 0, 0, 0, loc)}

	assert.Equal(t, 1, event.DayNumber(event.StartAt))
	assert.Equal(t, 2, event.DayNumber(event.StartAt.AddDate(0, 0, 1)))
	assert.Equal(t, 10, event.DayNumber(event.StartAt.AddDate(0, 0, 9)))
}

func TestEventHasParticipant(t *testing.T) {
	event := &entity.Event{ParticipantIDs: []int64{1, 2, 3}}

	assert.True(t, event.HasParticipant(2))
	assert.False(t, event.HasParticipant(4))
	assert.False(t, (&entity.Event{}).HasParticipant(1))
}

func TestEventLocalStartAt(t *testing.T) {
	event := &entity.Event{StartAt: time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)}

	local := event.LocalStartAt()
	assert.Equal(t, 9, local.Hour())
	assert.True(t, local.Equal(event.StartAt))
}
