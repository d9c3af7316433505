package user

import (
	"context"
	"errors"

	"github.com/nlypage/intele"
	"github.com/nlypage/intele/collector"
	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/layout"

	"github.com/dkhrunov/btc-challenge-bot/cmd/bot"
	"github.com/dkhrunov/btc-challenge-bot/internal/adapters/database/postgres"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/common/errorz"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/entity"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/service"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/utils"
	"github.com/dkhrunov/btc-challenge-bot/pkg/clock"
	"github.com/dkhrunov/btc-challenge-bot/pkg/logger/types"
)

type pushUpService interface {
	CheckDaily(ctx context.Context, userID int64) (*service.DailyCheck, error)
	Submit(ctx context.Context, userID int64, fileID string, videoNote bool, check *service.DailyCheck) error
}

type statsService interface {
	Daily(ctx context.Context, userID int64) (*service.DailyStats, error)
}

type eventService interface {
	Get(ctx context.Context, id string) (*entity.Event, error)
	Join(ctx context.Context, eventID string, userID int64) error
	GetCurrentActiveEvent(ctx context.Context) (*entity.Event, error)
	GetUncompletedEvents(ctx context.Context) ([]entity.Event, error)
}

type Handler struct {
	layout *layout.Layout
	logger *types.Logger
	input  *intele.InputManager
	clock  clock.Clock

	pushUpService pushUpService
	statsService  statsService
	eventService  eventService
}

func New(b *bot.Bot) *Handler {
	eventStorage := postgres.NewEventStorage(b.DB)
	pushUpStorage := postgres.NewPushUpStorage(b.DB)
	userStorage := postgres.NewUserStorage(b.DB)
	clk := clock.System()

	return &Handler{
		layout:        b.Layout,
		logger:        b.Logger,
		input:         b.Input,
		clock:         clk,
		pushUpService: service.NewPushUpService(pushUpStorage, eventStorage, clk),
		statsService:  service.NewStatsService(pushUpStorage, userStorage, clk),
		eventService:  service.NewEventService(eventStorage, clk),
	}
}

func (h Handler) Hide(c tele.Context) error {
	return c.Delete()
}

// submitPushUps runs the proof submission dialog: tracker verdict first, then
// one video, regular or catch-up.
func (h Handler) submitPushUps(c tele.Context) error {
	h.logger.Infof("(user: %d) submit push-ups request", c.Sender().ID)

	check, err := h.pushUpService.CheckDaily(context.Background(), c.Sender().ID)
	if err != nil {
		if errors.Is(err, errorz.NoActiveEvent) {
			return c.Send(
				h.layout.Text(c, "no_active_event"),
				h.layout.Markup(c, "core:hide"),
			)
		}
		h.logger.Errorf("(user: %d) error while checking push-ups: %v", c.Sender().ID, err)
		return c.Send(
			h.layout.Text(c, "technical_issues", err.Error()),
			h.layout.Markup(c, "core:hide"),
		)
	}

	if check.Closed() {
		return c.Send(
			h.layout.Text(c, "already_submitted"),
			h.layout.Markup(c, "core:hide"),
		)
	}

	promptKey := "send_video"
	if len(check.MissedDays) > 0 {
		promptKey = "send_video_catchup"
	}
	prompt := h.layout.Text(c, promptKey, map[string]interface{}{
		"Count":   check.Required,
		"PushUps": utils.PluralizePushUps(check.Required),
		"Missed":  len(check.MissedDays),
	})

	inputCollector := collector.New()
	_ = c.Send(prompt, h.layout.Markup(c, "user:backToMenu"))

	var (
		fileID    string
		videoNote bool
		done      bool
	)
	for {
		message, canceled, errGet := h.input.Get(context.Background(), c.Sender().ID, 0)
		if message != nil {
			inputCollector.Collect(message)
		}
		switch {
		case canceled:
			_ = inputCollector.Clear(c, collector.ClearOptions{IgnoreErrors: true, ExcludeLast: true})
			return nil
		case errGet != nil:
			h.logger.Errorf("(user: %d) error while input proof video: %v", c.Sender().ID, errGet)
			_ = inputCollector.Send(c,
				h.layout.Text(c, "input_error", prompt),
				h.layout.Markup(c, "user:backToMenu"),
			)
		default:
			var ok bool
			fileID, videoNote, ok = utils.VideoFileID(message)
			if !ok {
				_ = inputCollector.Send(c,
					h.layout.Text(c, "video_required"),
					h.layout.Markup(c, "user:backToMenu"),
				)
				continue
			}
			_ = inputCollector.Clear(c, collector.ClearOptions{IgnoreErrors: true})
			done = true
		}
		if done {
			break
		}
	}

	if err = h.pushUpService.Submit(context.Background(), c.Sender().ID, fileID, videoNote, check); err != nil {
		if errors.Is(err, errorz.AlreadySubmittedToday) {
			return c.Send(
				h.layout.Text(c, "already_submitted"),
				h.layout.Markup(c, "core:hide"),
			)
		}
		h.logger.Errorf("(user: %d) error while storing push-ups: %v", c.Sender().ID, err)
		return c.Send(
			h.layout.Text(c, "technical_issues", err.Error()),
			h.layout.Markup(c, "core:hide"),
		)
	}

	h.logger.Infof("(user: %d) push-ups accepted (count=%d)", c.Sender().ID, check.Required)
	return c.Send(
		h.layout.Text(c, "pushups_accepted", map[string]interface{}{
			"Count":   check.Required,
			"PushUps": utils.PluralizePushUps(check.Required),
		}),
		h.layout.Markup(c, "core:hide"),
	)
}

func (h Handler) myStats(c tele.Context) error {
	h.logger.Infof("(user: %d) request daily stats", c.Sender().ID)

	stats, err := h.statsService.Daily(context.Background(), c.Sender().ID)
	if err != nil {
		h.logger.Errorf("(user: %d) error while getting stats: %v", c.Sender().ID, err)
		return c.Send(
			h.layout.Text(c, "technical_issues", err.Error()),
			h.layout.Markup(c, "core:hide"),
		)
	}

	return c.Send(
		h.layout.Text(c, "my_stats", map[string]interface{}{
			"Total":  stats.TotalCount,
			"Videos": len(stats.Videos),
		}),
		h.layout.Markup(c, "core:hide"),
	)
}

// currentEvent shows the running event, or the next upcoming one with a join
// button.
func (h Handler) currentEvent(c tele.Context) error {
	h.logger.Infof("(user: %d) request current event", c.Sender().ID)

	event, err := h.eventService.GetCurrentActiveEvent(context.Background())
	if err != nil && !errors.Is(err, errorz.NotFound) {
		return err
	}
	if event != nil {
		return c.Send(
			h.layout.Text(c, "event_info", map[string]interface{}{
				"Event": event,
				"Day":   event.DayNumber(h.clock.Now()),
			}),
			h.layout.Markup(c, "core:hide"),
		)
	}

	upcoming, err := h.eventService.GetUncompletedEvents(context.Background())
	if err != nil {
		return err
	}
	if len(upcoming) == 0 {
		return c.Send(
			h.layout.Text(c, "no_active_event"),
			h.layout.Markup(c, "core:hide"),
		)
	}

	next := &upcoming[0]
	if next.HasParticipant(c.Sender().ID) {
		return c.Send(
			h.layout.Text(c, "event_upcoming_joined", next),
			h.layout.Markup(c, "core:hide"),
		)
	}
	return c.Send(
		h.layout.Text(c, "event_upcoming", next),
		h.layout.Markup(c, "event:join", next),
	)
}

// joinEvent handles the join button on reminders and event cards.
func (h Handler) joinEvent(c tele.Context) error {
	eventID := c.Callback().Data
	if eventID == "" {
		return errorz.InvalidCallbackData
	}
	h.logger.Infof("(user: %d) join event (event_id=%s)", c.Sender().ID, eventID)

	err := h.eventService.Join(context.Background(), eventID, c.Sender().ID)
	switch {
	case errors.Is(err, errorz.NotFound):
		return c.Send(
			h.layout.Text(c, "event_not_found"),
			h.layout.Markup(c, "core:hide"),
		)
	case errors.Is(err, errorz.EventAlreadyStarted):
		return c.Send(
			h.layout.Text(c, "event_already_started"),
			h.layout.Markup(c, "core:hide"),
		)
	case errors.Is(err, errorz.AlreadyJoined):
		return c.Send(
			h.layout.Text(c, "event_already_joined"),
			h.layout.Markup(c, "core:hide"),
		)
	case err != nil:
		h.logger.Errorf("(user: %d) error while joining event: %v", c.Sender().ID, err)
		return c.Send(
			h.layout.Text(c, "technical_issues", err.Error()),
			h.layout.Markup(c, "core:hide"),
		)
	}

	event, err := h.eventService.Get(context.Background(), eventID)
	if err != nil {
		return err
	}
	return c.Send(
		h.layout.Text(c, "event_joined", event),
		h.layout.Markup(c, "core:hide"),
	)
}

func (h Handler) UserSetup(group *tele.Group) {
	group.Handle("/pushups", h.submitPushUps)
	group.Handle(h.layout.Callback("mainMenu:pushups"), h.submitPushUps)
	group.Handle(h.layout.Callback("mainMenu:stats"), h.myStats)
	group.Handle(h.layout.Callback("mainMenu:event"), h.currentEvent)
	group.Handle(h.layout.Callback("event:join"), h.joinEvent)
	group.Handle(h.layout.Callback("core:hide"), h.Hide)
}
