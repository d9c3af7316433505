package validator_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dkhrunov/btc-challenge-bot/internal/domain/utils/validator"
)

func TestEventTitle(t *testing.T) {
	assert.True(t, validator.EventTitle("Отжимания до лета"))
	assert.True(t, validator.EventTitle("  100 дней  "))
	assert.False(t, validator.EventTitle("ab"))
	assert.False(t, validator.EventTitle(""))
	assert.False(t, validator.EventTitle(strings.Repeat("a", 101)))
}

func TestEventDescription(t *testing.T) {
	assert.True(t, validator.EventDescription("Каждый день плюс одно отжимание."))
	assert.False(t, validator.EventDescription("   "))
	assert.False(t, validator.EventDescription(strings.Repeat("о", 401)))
}

func TestEventStartTime(t *testing.T) {
	assert.True(t, validator.EventStartTime("02.03.2026 09:00"))
	assert.True(t, validator.EventStartTime(" 02.03.2026 09:00 "))
	assert.False(t, validator.EventStartTime("2026-03-02 09:00"))
	assert.False(t, validator.EventStartTime("02.03.2026"))
	assert.False(t, validator.EventStartTime("tomorrow"))
}

func TestStatsDate(t *testing.T) {
	assert.True(t, validator.StatsDate("02.03.2026"))
	assert.False(t, validator.StatsDate("02.03.2026 09:00"))
	assert.False(t, validator.StatsDate("вчера"))
}
