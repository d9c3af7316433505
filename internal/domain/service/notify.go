package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	tele "gopkg.in/telebot.v3"

	"github.com/dkhrunov/btc-challenge-bot/internal/domain/entity"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/utils"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/utils/location"
	"github.com/dkhrunov/btc-challenge-bot/pkg/clock"
	"github.com/dkhrunov/btc-challenge-bot/pkg/logger/types"
	"github.com/dkhrunov/btc-challenge-bot/pkg/qrcode"
)

const pollInterval = time.Minute

// reminderLead is how long before the start the pre-start reminder fires;
// reminderWindow widens the query so a late poll does not miss the instant.
const (
	reminderLead   = time.Hour
	reminderWindow = 2 * time.Minute
)

// Notifier delivers a message to a telegram chat or user. Implemented by the
// bot in production and by a recorder in tests.
type Notifier interface {
	Send(chatID int64, what interface{}, opts ...interface{}) error
}

type layouter interface {
	TextLocale(locale, key string, args ...interface{}) string
	MarkupLocale(locale, key string, args ...interface{}) *tele.ReplyMarkup
}

type notifyEventStorage interface {
	GetEventsStartingSoon(ctx context.Context, windowStart, windowEnd time.Time) ([]entity.Event, error)
	GetEventsStartingNow(ctx context.Context, now time.Time) ([]entity.Event, error)
	GetActiveEvents(ctx context.Context, now time.Time) ([]entity.Event, error)
	MarkReminderSent(ctx context.Context, eventID string) error
	MarkStartSent(ctx context.Context, eventID string) error
}

type notifyUserStorage interface {
	GetMany(ctx context.Context, ids []int64) ([]entity.User, error)
	GetVerified(ctx context.Context) ([]entity.User, error)
}

type notifyChatService interface {
	GetActive(ctx context.Context) ([]entity.Chat, error)
	Deactivate(ctx context.Context, chatID int64) error
}

type notifyPushUpService interface {
	CheckFor(ctx context.Context, userID int64, event *entity.Event, now time.Time) (*DailyCheck, error)
}

type notifyStatsService interface {
	AllUsers(ctx context.Context, begin, end time.Time) ([]UserStats, error)
}

// NotifyService owns every scheduled notification: the minute poll for
// pre-start reminders and start announcements, and the daily morning cadence,
// compliance reminder and summary jobs.
type NotifyService struct {
	notifier      Notifier
	layout        layouter
	logger        *types.Logger
	clock         clock.Clock
	eventStorage  notifyEventStorage
	userStorage   notifyUserStorage
	chatService   notifyChatService
	pushUpService notifyPushUpService
	statsService  notifyStatsService

	botName string
}

func NewNotifyService(
	notifier Notifier,
	lt layouter,
	logger *types.Logger,
	clk clock.Clock,
	eventStorage notifyEventStorage,
	userStorage notifyUserStorage,
	chatService notifyChatService,
	pushUpService notifyPushUpService,
	statsService notifyStatsService,
	botName string,
) *NotifyService {
	return &NotifyService{
		notifier:      notifier,
		layout:        lt,
		logger:        logger,
		clock:         clk,
		eventStorage:  eventStorage,
		userStorage:   userStorage,
		chatService:   chatService,
		pushUpService: pushUpService,
		statsService:  statsService,
		botName:       botName,
	}
}

// LogHook returns a log hook forwarding entries of at least level to the
// specified channel.
func (s *NotifyService) LogHook(channelID int64, locale string, level zapcore.Level) types.LogHook {
	return func(log types.Log) {
		if log.Level >= level {
			err := s.notifier.Send(channelID, s.layout.TextLocale(locale, "log", log))
			if err != nil && !strings.Contains(log.Message, "failed to send log to channel") {
				s.logger.Errorf("failed to send log to channel %d: %v", channelID, err)
			}
		}
	}
}

// Start launches the scheduler goroutines. They run until ctx is cancelled;
// a failed or panicking cycle is logged and the loop continues.
func (s *NotifyService) Start(ctx context.Context) {
	s.logger.Info("Starting notification schedulers")
	go s.pollLoop(ctx)
	go s.dailyLoop(ctx, "morning cadence", viper.GetInt("settings.schedule.morning-hour"), location.Location(), s.SendMorningCadence)
	go s.dailyLoop(ctx, "push-up reminder", viper.GetInt("settings.schedule.reminder-hour-utc"), time.UTC, s.SendComplianceReminders)
	go s.dailyLoop(ctx, "daily summary", viper.GetInt("settings.schedule.summary-hour"), location.Location(), s.SendDailySummary)
}

func (s *NotifyService) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx, "event poll", s.CheckEvents)
		}
	}
}

func (s *NotifyService) dailyLoop(ctx context.Context, name string, hour int, loc *time.Location, cycle func(context.Context) error) {
	for {
		now := s.clock.Now().In(loc)
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, loc)
		if !now.Before(next) {
			next = next.AddDate(0, 0, 1)
		}

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		s.runCycle(ctx, name, cycle)
	}
}

func (s *NotifyService) runCycle(ctx context.Context, name string, cycle func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("%s: panic in cycle: %v", name, r)
		}
	}()
	if err := cycle(ctx); err != nil {
		s.logger.Errorf("%s: cycle failed: %v", name, err)
	}
}

// CheckEvents is one poll cycle: pre-start reminders for events entering the
// one-hour window, then start announcements for events past their start time.
// Both queries return events in ascending start order with their flag unset;
// the flag is re-checked here before dispatch.
func (s *NotifyService) CheckEvents(ctx context.Context) error {
	now := s.clock.Now()

	windowStart := now.Add(reminderLead)
	windowEnd := windowStart.Add(reminderWindow)
	soon, err := s.eventStorage.GetEventsStartingSoon(ctx, windowStart, windowEnd)
	if err != nil {
		return fmt.Errorf("failed to get events starting soon: %w", err)
	}
	for i := range soon {
		if soon[i].ReminderSent {
			continue
		}
		s.sendPreStartReminder(ctx, &soon[i])
	}

	starting, err := s.eventStorage.GetEventsStartingNow(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to get starting events: %w", err)
	}
	for i := range starting {
		if starting[i].StartSent {
			continue
		}
		s.sendStartNotification(ctx, &starting[i], now)
	}
	return nil
}

// sendPreStartReminder invites every verified non-participant (and the group
// chats, with a join QR) one hour before the start, then persists the flag.
// A send failure to one recipient never aborts the batch; a crash between
// send and persist means one duplicate batch next cycle, accepted.
func (s *NotifyService) sendPreStartReminder(ctx context.Context, event *entity.Event) {
	s.logger.Infof("Sending pre-start reminder for event (event_id=%s)", event.ID)

	users, err := s.userStorage.GetVerified(ctx)
	if err != nil {
		s.logger.Errorf("failed to get users for event reminder: %v", err)
		return
	}

	text := s.layout.TextLocale("ru", "event_reminder", event)
	markup := s.layout.MarkupLocale("ru", "event:join", event)
	for _, user := range users {
		if event.HasParticipant(user.ID) {
			continue
		}
		if errSend := s.notifier.Send(user.ID, text, markup); errSend != nil {
			s.logger.Errorf("failed to send event reminder to user %d: %v", user.ID, errSend)
		}
	}

	var payload interface{} = text
	if photo, errQR := qrcode.JoinEventPhoto(s.botName, event.ID, text); errQR == nil {
		payload = photo
	} else {
		s.logger.Errorf("failed to generate join qr for event %s: %v", event.ID, errQR)
	}
	s.sendToChats(ctx, payload, markup)

	if err = s.eventStorage.MarkReminderSent(ctx, event.ID); err != nil {
		s.logger.Errorf("failed to mark reminder sent for event %s: %v", event.ID, err)
		return
	}
	event.ReminderSent = true
}

// sendStartNotification announces the start with the roster, persists the
// flag and immediately sends the day-1 cadence message.
func (s *NotifyService) sendStartNotification(ctx context.Context, event *entity.Event, now time.Time) {
	s.logger.Infof("Sending start notification for event (event_id=%s)", event.ID)

	participants, err := s.userStorage.GetMany(ctx, event.ParticipantIDs)
	if err != nil {
		s.logger.Errorf("failed to get participants for event %s: %v", event.ID, err)
		return
	}

	text := s.layout.TextLocale("ru", "event_start", map[string]interface{}{
		"Event":        event,
		"Participants": participants,
	})
	for _, participant := range participants {
		if errSend := s.notifier.Send(participant.ID, text); errSend != nil {
			s.logger.Errorf("failed to send start notification to user %d: %v", participant.ID, errSend)
		}
	}
	s.sendToChats(ctx, text)

	if err = s.eventStorage.MarkStartSent(ctx, event.ID); err != nil {
		s.logger.Errorf("failed to mark start sent for event %s: %v", event.ID, err)
		return
	}
	event.StartSent = true

	s.sendCadenceForEvent(ctx, event, now)
}

// SendMorningCadence tells every active event's participants and the group
// chats the day's required count.
func (s *NotifyService) SendMorningCadence(ctx context.Context) error {
	now := s.clock.Now()
	events, err := s.eventStorage.GetActiveEvents(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to get active events: %w", err)
	}

	for i := range events {
		if len(events[i].ParticipantIDs) == 0 {
			continue
		}
		s.sendCadenceForEvent(ctx, &events[i], now)
	}
	return nil
}

func (s *NotifyService) sendCadenceForEvent(ctx context.Context, event *entity.Event, now time.Time) {
	day := event.DayNumber(now)
	text := s.layout.TextLocale("ru", "event_daily", map[string]interface{}{
		"Event":   event,
		"Day":     day,
		"Count":   day,
		"PushUps": utils.PluralizePushUps(day),
	})

	participants, err := s.userStorage.GetMany(ctx, event.ParticipantIDs)
	if err != nil {
		s.logger.Errorf("failed to get participants for event %s: %v", event.ID, err)
		return
	}
	for _, participant := range participants {
		if errSend := s.notifier.Send(participant.ID, text); errSend != nil {
			s.logger.Errorf("failed to send daily cadence to user %d: %v", participant.ID, errSend)
		}
	}
	s.sendToChats(ctx, text)
}

// SendComplianceReminders nudges every participant who has not met today's
// requirement yet, per the submission window tracker.
func (s *NotifyService) SendComplianceReminders(ctx context.Context) error {
	now := s.clock.Now()
	events, err := s.eventStorage.GetActiveEvents(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to get active events: %w", err)
	}

	for i := range events {
		event := &events[i]
		for _, userID := range event.ParticipantIDs {
			check, errCheck := s.pushUpService.CheckFor(ctx, userID, event, now)
			if errCheck != nil {
				s.logger.Errorf("failed to check push-ups for user %d: %v", userID, errCheck)
				continue
			}
			if check.Required == 0 {
				continue
			}

			text := s.layout.TextLocale("ru", "pushup_reminder", map[string]interface{}{
				"Event":   event,
				"Count":   check.Required,
				"PushUps": utils.PluralizePushUps(check.Required),
			})
			if errSend := s.notifier.Send(userID, text); errSend != nil {
				s.logger.Errorf("failed to send push-up reminder to user %d: %v", userID, errSend)
			}
		}
	}
	return nil
}

// SendDailySummary broadcasts the day's totals to every verified user and
// active chat. A chat that fails to receive it is deactivated, no retry.
func (s *NotifyService) SendDailySummary(ctx context.Context) error {
	now := s.clock.Now()
	begin, end := location.DayRange(now)

	stats, err := s.statsService.AllUsers(ctx, begin, end)
	if err != nil {
		return fmt.Errorf("failed to get daily stats: %w", err)
	}
	users, err := s.userStorage.GetVerified(ctx)
	if err != nil {
		return fmt.Errorf("failed to get users: %w", err)
	}

	submitted := make(map[int64]bool, len(stats))
	var total int
	for _, stat := range stats {
		submitted[stat.UserID] = true
		total += stat.TotalCount
	}
	var missing []entity.User
	for _, user := range users {
		if !submitted[user.ID] {
			missing = append(missing, user)
		}
	}

	text := s.layout.TextLocale("ru", "daily_summary", map[string]interface{}{
		"Stats":   stats,
		"Total":   total,
		"Missing": missing,
	})
	for _, user := range users {
		if errSend := s.notifier.Send(user.ID, text); errSend != nil {
			s.logger.Errorf("failed to send daily summary to user %d: %v", user.ID, errSend)
		}
	}

	s.sendToChats(ctx, text)
	return nil
}

// sendToChats broadcasts to every active group chat. A chat that fails to
// receive the message is deactivated, no retry; re-adding the bot activates
// it again.
func (s *NotifyService) sendToChats(ctx context.Context, what interface{}, opts ...interface{}) {
	chats, err := s.chatService.GetActive(ctx)
	if err != nil {
		s.logger.Errorf("failed to get active chats: %v", err)
		return
	}
	for _, chat := range chats {
		if errSend := s.notifier.Send(chat.ID, what, opts...); errSend != nil {
			s.logger.Errorf("failed to send notification to chat %d, deactivating: %v", chat.ID, errSend)
			if errDeactivate := s.chatService.Deactivate(ctx, chat.ID); errDeactivate != nil {
				s.logger.Errorf("failed to deactivate chat %d: %v", chat.ID, errDeactivate)
			}
		}
	}
}
