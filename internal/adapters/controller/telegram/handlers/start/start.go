package start

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/viper"
	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/layout"

	"github.com/dkhrunov/btc-challenge-bot/cmd/bot"
	"github.com/dkhrunov/btc-challenge-bot/internal/adapters/controller/telegram/handlers/menu"
	"github.com/dkhrunov/btc-challenge-bot/internal/adapters/database/postgres"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/common/errorz"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/entity"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/service"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/utils"
	"github.com/dkhrunov/btc-challenge-bot/pkg/clock"
	"github.com/dkhrunov/btc-challenge-bot/pkg/logger/types"
)

type userService interface {
	Create(ctx context.Context, user entity.User) (*entity.User, error)
	Get(ctx context.Context, userID int64) (*entity.User, error)
}

type eventService interface {
	Get(ctx context.Context, id string) (*entity.Event, error)
	Join(ctx context.Context, eventID string, userID int64) error
}

type chatService interface {
	Register(ctx context.Context, chatID int64, chatType, title string) (*entity.Chat, error)
	Deactivate(ctx context.Context, chatID int64) error
}

type Handler struct {
	userService  userService
	eventService eventService
	chatService  chatService

	menuHandler *menu.Handler

	bot    *tele.Bot
	layout *layout.Layout
	logger *types.Logger
}

func New(b *bot.Bot) *Handler {
	userStorage := postgres.NewUserStorage(b.DB)
	eventStorage := postgres.NewEventStorage(b.DB)
	chatStorage := postgres.NewChatStorage(b.DB)

	return &Handler{
		userService:  service.NewUserService(userStorage),
		eventService: service.NewEventService(eventStorage, clock.System()),
		chatService:  service.NewChatService(chatStorage),
		menuHandler:  menu.New(b),
		bot:          b.Bot,
		layout:       b.Layout,
		logger:       b.Logger,
	}
}

func (h *Handler) Start(c tele.Context) error {
	if c.Chat().Type != tele.ChatPrivate {
		return nil
	}
	h.logger.Infof("(user: %d) press start button", c.Sender().ID)

	_ = c.Delete()

	user, err := h.userService.Get(context.Background(), c.Sender().ID)
	if err != nil && !errors.Is(err, errorz.NotFound) {
		h.logger.Errorf("(user: %d) error while getting user from db: %v", c.Sender().ID, err)
		return c.Send(
			h.layout.Text(c, "technical_issues", err.Error()),
			h.layout.Markup(c, "core:hide"),
		)
	}

	if errors.Is(err, errorz.NotFound) {
		return h.register(c)
	}

	if user.Banned {
		return c.Send(
			h.layout.Text(c, "banned"),
			h.layout.Markup(c, "core:hide"),
		)
	}
	if !user.Verified {
		return c.Send(
			h.layout.Text(c, "verification_pending"),
			h.layout.Markup(c, "core:hide"),
		)
	}

	payload := strings.SplitN(c.Message().Payload, "_", 2)
	if len(payload) == 2 && payload[0] == "join" {
		return h.joinEvent(c, payload[1])
	}

	return h.menuHandler.SendMenu(c)
}

// register stores a new user and asks the admins to approve them. Admins are
// trusted and verified on the spot.
func (h *Handler) register(c tele.Context) error {
	user, err := h.userService.Create(context.Background(), entity.User{
		ID:        c.Sender().ID,
		Username:  c.Sender().Username,
		FirstName: c.Sender().FirstName,
		Verified:  utils.IsAdmin(c.Sender().ID),
	})
	if err != nil {
		h.logger.Errorf("(user: %d) error while creating user: %v", c.Sender().ID, err)
		return c.Send(
			h.layout.Text(c, "technical_issues", err.Error()),
			h.layout.Markup(c, "core:hide"),
		)
	}

	if user.Verified {
		return h.menuHandler.SendMenu(c)
	}

	h.logger.Infof("(user: %d) new user requests verification", user.ID)
	for _, adminID := range viper.GetIntSlice("bot.admin-ids") {
		_, errSend := h.bot.Send(
			tele.ChatID(adminID),
			h.layout.TextLocale("ru", "verification_request", user),
			h.layout.MarkupLocale("ru", "admin:verify", user),
		)
		if errSend != nil {
			h.logger.Errorf("failed to send verification request to admin %d: %v", adminID, errSend)
		}
	}

	return c.Send(
		h.layout.Text(c, "verification_requested"),
		h.layout.Markup(c, "core:hide"),
	)
}

// joinEvent handles the join_<eventID> deep link from the reminder QR code.
func (h *Handler) joinEvent(c tele.Context, eventID string) error {
	h.logger.Infof("(user: %d) join event via deep link (event_id=%s)", c.Sender().ID, eventID)

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

// AddedToGroup registers the group for broadcasts when the bot joins it.
func (h *Handler) AddedToGroup(c tele.Context) error {
	chat := c.Chat()
	h.logger.Infof("bot added to group %d (%s)", chat.ID, chat.Title)

	_, err := h.chatService.Register(context.Background(), chat.ID, string(chat.Type), chat.Title)
	if err != nil {
		h.logger.Errorf("failed to register chat %d: %v", chat.ID, err)
		return err
	}
	return c.Send(h.layout.TextLocale("ru", "group_registered"))
}
