package setup

import (
	"github.com/spf13/viper"
	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/middleware"

	"github.com/dkhrunov/btc-challenge-bot/cmd/bot"
	"github.com/dkhrunov/btc-challenge-bot/internal/adapters/controller/telegram/handlers/admin"
	"github.com/dkhrunov/btc-challenge-bot/internal/adapters/controller/telegram/handlers/menu"
	"github.com/dkhrunov/btc-challenge-bot/internal/adapters/controller/telegram/handlers/middlewares"
	"github.com/dkhrunov/btc-challenge-bot/internal/adapters/controller/telegram/handlers/start"
	"github.com/dkhrunov/btc-challenge-bot/internal/adapters/controller/telegram/handlers/user"
)

func Setup(b *bot.Bot) {
	// Pre-setup and global middlewares
	middle := middlewares.New(b)
	startHandler := start.New(b)
	userHandler := user.New(b)
	menuHandler := menu.New(b)
	adminHandler := admin.New(b)

	if viper.GetBool("settings.debug") {
		b.Use(middleware.Logger())
	}
	b.Use(b.Layout.Middleware("ru"))
	b.Use(middleware.AutoRespond())
	b.Handle(tele.OnText, b.Input.Handler())
	b.Handle(tele.OnMedia, b.Input.Handler())
	b.Use(middle.ResetInputOnBack)

	// Registration and group tracking run before the verification gate.
	b.Handle("/start", startHandler.Start)
	b.Handle(tele.OnAddedToGroup, startHandler.AddedToGroup)

	// User:
	b.Use(middle.Authorized)
	b.Handle("/menu", menuHandler.SendMenu)
	b.Handle(b.Layout.Callback("mainMenu:back"), menuHandler.EditMenu)
	userHandler.UserSetup(b.Group())

	// Admin:
	admins := viper.GetIntSlice("bot.admin-ids")
	adminsInt64 := make([]int64, len(admins))
	for i, v := range admins {
		adminsInt64[i] = int64(v)
	}
	b.Use(middleware.Whitelist(adminsInt64...))
	adminHandler.AdminSetup(b.Group())
}
