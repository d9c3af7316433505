package admin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nlypage/intele"
	"github.com/nlypage/intele/collector"
	"github.com/spf13/viper"
	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/layout"

	"github.com/dkhrunov/btc-challenge-bot/cmd/bot"
	"github.com/dkhrunov/btc-challenge-bot/internal/adapters/database/postgres"
	"github.com/dkhrunov/btc-challenge-bot/internal/adapters/database/redis/drafts"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/common/errorz"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/entity"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/service"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/utils"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/utils/location"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/utils/validator"
	"github.com/dkhrunov/btc-challenge-bot/pkg/clock"
	"github.com/dkhrunov/btc-challenge-bot/pkg/logger/types"
	"github.com/dkhrunov/btc-challenge-bot/pkg/smtp"
)

const draftTTL = time.Hour

type adminUserService interface {
	Get(ctx context.Context, userID int64) (*entity.User, error)
	Verify(ctx context.Context, userID int64) (*entity.User, error)
	Ban(ctx context.Context, userID int64) (*entity.User, error)
	GetMany(ctx context.Context, ids []int64) ([]entity.User, error)
}

type eventService interface {
	Create(ctx context.Context, creatorID int64, title, description string, startAt time.Time) (*entity.Event, error)
	Complete(ctx context.Context, eventID string) (*entity.Event, error)
	GetCurrentActiveEvent(ctx context.Context) (*entity.Event, error)
}

type statsService interface {
	AllUsersByDate(ctx context.Context, date time.Time) ([]service.UserStats, error)
	ExportXLSX(ctx context.Context, begin, end time.Time) (*bytes.Buffer, error)
}

type Handler struct {
	layout *layout.Layout
	logger *types.Logger
	bot    *tele.Bot
	input  *intele.InputManager
	clock  clock.Clock

	drafts     *drafts.Storage
	smtpClient *smtp.Client

	userService  adminUserService
	eventService eventService
	statsService statsService
}

func New(b *bot.Bot) *Handler {
	userStorage := postgres.NewUserStorage(b.DB)
	eventStorage := postgres.NewEventStorage(b.DB)
	pushUpStorage := postgres.NewPushUpStorage(b.DB)
	clk := clock.System()

	return &Handler{
		layout:       b.Layout,
		logger:       b.Logger,
		bot:          b.Bot,
		input:        b.Input,
		clock:        clk,
		drafts:       b.Redis.Drafts,
		smtpClient:   smtp.NewClient(b.SMTPDialer),
		userService:  service.NewUserService(userStorage),
		eventService: service.NewEventService(eventStorage, clk),
		statsService: service.NewStatsService(pushUpStorage, userStorage, clk),
	}
}

func (h Handler) adminMenu(c tele.Context) error {
	h.logger.Infof("(user: %d) open admin menu", c.Sender().ID)
	return c.Edit(
		h.layout.Text(c, "admin_menu_text", c.Sender().Username),
		h.layout.Markup(c, "admin:menu"),
	)
}

func (h Handler) verifyApprove(c tele.Context) error {
	userID, err := strconv.ParseInt(c.Callback().Data, 10, 64)
	if err != nil {
		return errorz.InvalidCallbackData
	}
	h.logger.Infof("(admin: %d) approve user %d", c.Sender().ID, userID)

	user, err := h.userService.Verify(context.Background(), userID)
	if err != nil {
		h.logger.Errorf("(admin: %d) error while verifying user %d: %v", c.Sender().ID, userID, err)
		return c.Edit(h.layout.Text(c, "technical_issues", err.Error()))
	}

	if _, errSend := h.bot.Send(
		tele.ChatID(user.ID),
		h.layout.TextLocale("ru", "verified"),
	); errSend != nil {
		h.logger.Errorf("failed to notify user %d about verification: %v", user.ID, errSend)
	}

	return c.Edit(h.layout.Text(c, "user_approved", user))
}

func (h Handler) verifyReject(c tele.Context) error {
	userID, err := strconv.ParseInt(c.Callback().Data, 10, 64)
	if err != nil {
		return errorz.InvalidCallbackData
	}
	h.logger.Infof("(admin: %d) reject user %d", c.Sender().ID, userID)

	user, err := h.userService.Ban(context.Background(), userID)
	if err != nil {
		h.logger.Errorf("(admin: %d) error while banning user %d: %v", c.Sender().ID, userID, err)
		return c.Edit(h.layout.Text(c, "technical_issues", err.Error()))
	}

	return c.Edit(h.layout.Text(c, "user_rejected", user))
}

// createEvent runs the three-step creation dialog. The draft survives bot
// restarts in redis until the final step commits it.
func (h Handler) createEvent(c tele.Context) error {
	h.logger.Infof("(admin: %d) create new event request", c.Sender().ID)

	draft, err := h.drafts.Get(c.Sender().ID)
	if err != nil {
		h.logger.Errorf("(admin: %d) error while reading event draft: %v", c.Sender().ID, err)
		draft = entity.Event{}
	}
	draft.CreatorID = c.Sender().ID

	inputCollector := collector.New()
	inputCollector.Collect(c.Message())

	title, ok := h.inputStep(c, inputCollector, "input_event_title", func(text string) (string, bool) {
		if !validator.EventTitle(text) {
			return "", false
		}
		return strings.TrimSpace(text), true
	})
	if !ok {
		return nil
	}
	draft.Title = title
	h.drafts.Set(c.Sender().ID, draft, draftTTL)

	description, ok := h.inputStep(c, inputCollector, "input_event_description", func(text string) (string, bool) {
		if !validator.EventDescription(text) {
			return "", false
		}
		return strings.TrimSpace(text), true
	})
	if !ok {
		return nil
	}
	draft.Description = description
	h.drafts.Set(c.Sender().ID, draft, draftTTL)

	startText, ok := h.inputStep(c, inputCollector, "input_event_start", func(text string) (string, bool) {
		if !validator.EventStartTime(text) {
			return "", false
		}
		return strings.TrimSpace(text), true
	})
	if !ok {
		return nil
	}
	startAt, _ := time.ParseInLocation(validator.StartTimeLayout, startText, location.Location())

	event, err := h.eventService.Create(context.Background(), draft.CreatorID, draft.Title, draft.Description, startAt)
	if err != nil {
		if errors.Is(err, errorz.StartTooSoon) {
			return c.Send(
				h.layout.Text(c, "event_start_too_soon", service.MinStartLead),
				h.layout.Markup(c, "admin:backToMenu"),
			)
		}
		h.logger.Errorf("(admin: %d) error while creating event: %v", c.Sender().ID, err)
		return c.Send(
			h.layout.Text(c, "technical_issues", err.Error()),
			h.layout.Markup(c, "admin:backToMenu"),
		)
	}
	h.drafts.Clear(c.Sender().ID)

	h.logger.Infof("(admin: %d) new event created: %s (%s)", c.Sender().ID, event.Title, event.ID)
	return c.Send(
		h.layout.Text(c, "event_created", event),
		h.layout.Markup(c, "admin:backToMenu"),
	)
}

// inputStep prompts, then loops until validate accepts the reply or the
// dialog is canceled.
func (h Handler) inputStep(c tele.Context, inputCollector *collector.MessageCollector, promptKey string, validate func(string) (string, bool)) (string, bool) {
	prompt := h.layout.Text(c, promptKey)
	_ = inputCollector.Send(c, prompt, h.layout.Markup(c, "admin:backToMenu"))

	for {
		message, canceled, errGet := h.input.Get(context.Background(), c.Sender().ID, 0)
		if message != nil {
			inputCollector.Collect(message)
		}
		switch {
		case canceled:
			_ = inputCollector.Clear(c, collector.ClearOptions{IgnoreErrors: true, ExcludeLast: true})
			return "", false
		case errGet != nil:
			h.logger.Errorf("(admin: %d) error while input %s: %v", c.Sender().ID, promptKey, errGet)
			_ = inputCollector.Send(c,
				h.layout.Text(c, "input_error", prompt),
				h.layout.Markup(c, "admin:backToMenu"),
			)
		default:
			value, ok := validate(utils.GetMessageText(message))
			if !ok {
				_ = inputCollector.Send(c,
					h.layout.Text(c, "invalid_input", prompt),
					h.layout.Markup(c, "admin:backToMenu"),
				)
				continue
			}
			return value, true
		}
	}
}

// completeEvent closes the running event and tells the roster.
func (h Handler) completeEvent(c tele.Context) error {
	h.logger.Infof("(admin: %d) complete event request", c.Sender().ID)

	event, err := h.eventService.GetCurrentActiveEvent(context.Background())
	if err != nil {
		if errors.Is(err, errorz.NotFound) {
			return c.Send(
				h.layout.Text(c, "no_active_event"),
				h.layout.Markup(c, "admin:backToMenu"),
			)
		}
		return err
	}

	completed, err := h.eventService.Complete(context.Background(), event.ID)
	if err != nil {
		h.logger.Errorf("(admin: %d) error while completing event %s: %v", c.Sender().ID, event.ID, err)
		return c.Send(
			h.layout.Text(c, "technical_issues", err.Error()),
			h.layout.Markup(c, "admin:backToMenu"),
		)
	}

	participants, err := h.userService.GetMany(context.Background(), completed.ParticipantIDs)
	if err != nil {
		h.logger.Errorf("failed to get participants of event %s: %v", completed.ID, err)
	}
	for _, participant := range participants {
		if _, errSend := h.bot.Send(
			tele.ChatID(participant.ID),
			h.layout.TextLocale("ru", "event_completed", completed),
		); errSend != nil {
			h.logger.Errorf("failed to notify user %d about completion: %v", participant.ID, errSend)
		}
	}

	h.logger.Infof("(admin: %d) event completed: %s", c.Sender().ID, completed.ID)
	return c.Send(
		h.layout.Text(c, "event_completed_admin", completed),
		h.layout.Markup(c, "admin:backToMenu"),
	)
}

// statsByDate asks for a date and replies with that day's per-user totals.
func (h Handler) statsByDate(c tele.Context) error {
	h.logger.Infof("(admin: %d) stats by date request", c.Sender().ID)

	inputCollector := collector.New()
	inputCollector.Collect(c.Message())

	dateText, ok := h.inputStep(c, inputCollector, "input_stats_date", func(text string) (string, bool) {
		if !validator.StatsDate(text) {
			return "", false
		}
		return strings.TrimSpace(text), true
	})
	if !ok {
		return nil
	}
	date, _ := time.ParseInLocation(validator.DateLayout, dateText, location.Location())

	stats, err := h.statsService.AllUsersByDate(context.Background(), date)
	if err != nil {
		h.logger.Errorf("(admin: %d) error while getting stats: %v", c.Sender().ID, err)
		return c.Send(
			h.layout.Text(c, "technical_issues", err.Error()),
			h.layout.Markup(c, "admin:backToMenu"),
		)
	}

	return c.Send(
		h.layout.Text(c, "stats_by_date", map[string]interface{}{
			"Date":  dateText,
			"Stats": stats,
		}),
		h.layout.Markup(c, "admin:backToMenu"),
	)
}

// exportStats builds the spreadsheet for the running event and mails it,
// with a copy dropped into the chat.
func (h Handler) exportStats(c tele.Context) error {
	h.logger.Infof("(admin: %d) export stats request", c.Sender().ID)

	event, err := h.eventService.GetCurrentActiveEvent(context.Background())
	if err != nil {
		if errors.Is(err, errorz.NotFound) {
			return c.Send(
				h.layout.Text(c, "no_active_event"),
				h.layout.Markup(c, "admin:backToMenu"),
			)
		}
		return err
	}

	buf, err := h.statsService.ExportXLSX(context.Background(), event.StartAt, h.clock.Now())
	if err != nil {
		h.logger.Errorf("(admin: %d) error while building export: %v", c.Sender().ID, err)
		return c.Send(
			h.layout.Text(c, "technical_issues", err.Error()),
			h.layout.Markup(c, "admin:backToMenu"),
		)
	}

	filename := fmt.Sprintf("pushups-%s.xlsx", h.clock.Now().In(location.Location()).Format("2006-01-02"))
	if recipient := viper.GetString("service.smtp.stats-recipient"); recipient != "" {
		if errMail := h.smtpClient.SendStatsReport(
			recipient,
			h.layout.TextLocale("ru", "stats_report_subject", event),
			h.layout.TextLocale("ru", "stats_report_body", event),
			filename,
			buf,
		); errMail != nil {
			h.logger.Errorf("failed to mail stats report: %v", errMail)
		}
	}

	document := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(buf.Bytes())),
		FileName: filename,
	}
	return c.Send(document)
}

func (h Handler) AdminSetup(group *tele.Group) {
	group.Handle(h.layout.Callback("mainMenu:admin_menu"), h.adminMenu)
	group.Handle(h.layout.Callback("admin:back_to_menu"), h.adminMenu)
	group.Handle(h.layout.Callback("admin:verify:approve"), h.verifyApprove)
	group.Handle(h.layout.Callback("admin:verify:reject"), h.verifyReject)
	group.Handle(h.layout.Callback("admin:create_event"), h.createEvent)
	group.Handle(h.layout.Callback("admin:complete_event"), h.completeEvent)
	group.Handle(h.layout.Callback("admin:stats"), h.statsByDate)
	group.Handle(h.layout.Callback("admin:export"), h.exportStats)
	group.Handle("/complete", h.completeEvent)
}
