package menu

import (
	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/layout"

	"github.com/dkhrunov/btc-challenge-bot/cmd/bot"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/utils"
	"github.com/dkhrunov/btc-challenge-bot/pkg/logger/types"
)

type Handler struct {
	layout *layout.Layout
	logger *types.Logger
}

func New(b *bot.Bot) *Handler {
	return &Handler{
		layout: b.Layout,
		logger: b.Logger,
	}
}

func (h Handler) SendMenu(c tele.Context) error {
	h.logger.Infof("(user: %d) open main menu", c.Sender().ID)
	return c.Send(
		h.layout.Text(c, "main_menu_text", c.Sender().Username),
		h.menuMarkup(c),
	)
}

func (h Handler) EditMenu(c tele.Context) error {
	h.logger.Infof("(user: %d) edit main menu", c.Sender().ID)
	return c.Edit(
		h.layout.Text(c, "main_menu_text", c.Sender().Username),
		h.menuMarkup(c),
	)
}

func (h Handler) menuMarkup(c tele.Context) *tele.ReplyMarkup {
	if utils.IsAdmin(c.Sender().ID) {
		return h.layout.Markup(c, "mainMenu:adminMenu")
	}
	return h.layout.Markup(c, "mainMenu:menu")
}
