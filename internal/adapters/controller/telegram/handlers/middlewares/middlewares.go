package middlewares

import (
	"context"
	"errors"
	"strings"

	"github.com/nlypage/intele"
	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/layout"

	"github.com/dkhrunov/btc-challenge-bot/cmd/bot"
	"github.com/dkhrunov/btc-challenge-bot/internal/adapters/database/postgres"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/common/errorz"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/entity"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/service"
	"github.com/dkhrunov/btc-challenge-bot/pkg/logger/types"
)

type userService interface {
	Get(ctx context.Context, userID int64) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) (*entity.User, error)
}

type Handler struct {
	bot         *tele.Bot
	layout      *layout.Layout
	logger      *types.Logger
	userService userService
	input       *intele.InputManager
}

func New(b *bot.Bot) *Handler {
	userStorage := postgres.NewUserStorage(b.DB)

	return &Handler{
		bot:         b.Bot,
		layout:      b.Layout,
		logger:      b.Logger,
		userService: service.NewUserService(userStorage),
		input:       b.Input,
	}
}

// Authorized lets only registered, verified and not banned users through.
// Group updates pass untouched, the group flow has its own handlers.
func (h Handler) Authorized(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Chat() != nil && c.Chat().Type != tele.ChatPrivate {
			return next(c)
		}

		user, err := h.userService.Get(context.Background(), c.Sender().ID)
		if err != nil {
			if !errors.Is(err, errorz.NotFound) {
				h.logger.Errorf("(user: %d) error while getting user from db: %v", c.Sender().ID, err)
				return c.Send(
					h.layout.Text(c, "technical_issues", err.Error()),
					h.layout.Markup(c, "core:hide"),
				)
			}
			return c.Send(
				h.layout.Text(c, "auth_required"),
				h.layout.Markup(c, "core:hide"),
			)
		}

		if c.Sender().Username != user.Username {
			h.logger.Infof("(user: %d) update username", c.Sender().ID)
			user.Username = c.Sender().Username
			_, err = h.userService.Update(context.Background(), user)
			if err != nil {
				return c.Send(
					h.layout.Text(c, "technical_issues", err.Error()),
					h.layout.Markup(c, "core:hide"),
				)
			}
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

		return next(c)
	}
}

// ResetInputOnBack middleware clears the input state when the back button is
// pressed or a command interrupts the dialog.
func (h Handler) ResetInputOnBack(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Callback() != nil {
			if strings.Contains(c.Callback().Data, "back") || strings.Contains(c.Callback().Unique, "back") {
				h.input.Cancel(c.Sender().ID)
			}
		}
		if c.Message() != nil {
			if strings.HasPrefix(c.Message().Text, "/") {
				h.input.Cancel(c.Sender().ID)
			}
		}

		return next(c)
	}
}
