package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dkhrunov/btc-challenge-bot/internal/domain/service"
)

func TestPenalty(t *testing.T) {
	tests := []struct {
		name     string
		distance int
		want     int
	}{
		{name: "first day doubles", distance: 1, want: 2},
		{name: "second day", distance: 2, want: 4},
		{name: "tenth day", distance: 10, want: 19},
		{name: "fiftieth day", distance: 50, want: 80},
		{name: "day before floor", distance: 99, want: 120},
		{name: "floor day", distance: 100, want: 120},
		{name: "beyond floor keeps min coefficient", distance: 150, want: 180},
		{name: "zero distance", distance: 0, want: 0},
		{name: "negative distance", distance: -3, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.Penalty(tt.distance))
		})
	}
}

func TestPenaltyIsMonotonic(t *testing.T) {
	prev := service.Penalty(1)
	for d := 2; d <= 200; d++ {
		got := service.Penalty(d)
		assert.GreaterOrEqual(t, got, prev, "penalty must not decrease at day %d", d)
		prev = got
	}
}
