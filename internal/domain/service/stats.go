package service

import (
	"bytes"
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dkhrunov/btc-challenge-bot/internal/domain/entity"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/utils/location"
	"github.com/dkhrunov/btc-challenge-bot/pkg/clock"
)

// UserStats aggregates one user's submissions over a date range.
type UserStats struct {
	UserID     int64
	Username   string
	TotalCount int
	PushUps    int
}

// DailyStats is one user's own view of today.
type DailyStats struct {
	TotalCount int
	Videos     []entity.PushUp
}

type StatsService struct {
	pushUpStorage PushUpStorage
	userStorage   UserStorage
	clock         clock.Clock
}

func NewStatsService(pushUpStorage PushUpStorage, userStorage UserStorage, clk clock.Clock) *StatsService {
	return &StatsService{
		pushUpStorage: pushUpStorage,
		userStorage:   userStorage,
		clock:         clk,
	}
}

// Daily returns the user's submissions for the current zone-local day.
func (s *StatsService) Daily(ctx context.Context, userID int64) (*DailyStats, error) {
	begin, end := location.DayRange(s.clock.Now())
	pushUps, err := s.pushUpStorage.GetByUserAndDateRange(ctx, userID, begin, end)
	if err != nil {
		return nil, err
	}

	stats := &DailyStats{Videos: pushUps}
	for _, pushUp := range pushUps {
		stats.TotalCount += pushUp.Count
	}
	return stats, nil
}

// AllUsers aggregates every user's submissions in [begin, end]. Users without
// submissions are omitted; the result is sorted by total, descending.
func (s *StatsService) AllUsers(ctx context.Context, begin, end time.Time) ([]UserStats, error) {
	users, err := s.userStorage.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(users))
	for _, user := range users {
		ids = append(ids, user.ID)
	}
	pushUps, err := s.pushUpStorage.GetByUsersAndDateRange(ctx, ids, begin, end)
	if err != nil {
		return nil, err
	}

	byUser := make(map[int64]*UserStats)
	for _, user := range users {
		user := user
		byUser[user.ID] = &UserStats{UserID: user.ID, Username: user.Username}
	}
	for _, pushUp := range pushUps {
		stat, ok := byUser[pushUp.UserID]
		if !ok {
			continue
		}
		stat.TotalCount += pushUp.Count
		stat.PushUps++
	}

	stats := make([]UserStats, 0, len(byUser))
	for _, stat := range byUser {
		if stat.PushUps == 0 {
			continue
		}
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].TotalCount > stats[j].TotalCount })
	return stats, nil
}

// AllUsersByDate aggregates submissions for the zone-local day containing date.
func (s *StatsService) AllUsersByDate(ctx context.Context, date time.Time) ([]UserStats, error) {
	begin, end := location.DayRange(date)
	return s.AllUsers(ctx, begin, end)
}

// ExportXLSX builds a workbook with per-user totals for the range.
func (s *StatsService) ExportXLSX(ctx context.Context, begin, end time.Time) (*bytes.Buffer, error) {
	stats, err := s.AllUsers(ctx, begin, end)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Sheet1"
	_ = f.SetCellValue(sheet, "A1", "Username")
	_ = f.SetCellValue(sheet, "B1", "Push-ups")
	_ = f.SetCellValue(sheet, "C1", "Submissions")
	for i, stat := range stats {
		row := strconv.Itoa(i + 2)
		_ = f.SetCellValue(sheet, "A"+row, stat.Username)
		_ = f.SetCellValue(sheet, "B"+row, stat.TotalCount)
		_ = f.SetCellValue(sheet, "C"+row, stat.PushUps)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return &buf, nil
}
