package bot

import (
	"context"
	"sync"

	"github.com/nlypage/intele"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/gomail.v2"
	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/layout"
	"gorm.io/gorm"

	"github.com/dkhrunov/btc-challenge-bot/internal/adapters/config"
	"github.com/dkhrunov/btc-challenge-bot/internal/adapters/database/postgres"
	"github.com/dkhrunov/btc-challenge-bot/internal/adapters/database/redis"
	"github.com/dkhrunov/btc-challenge-bot/internal/domain/service"
	"github.com/dkhrunov/btc-challenge-bot/pkg/clock"
	"github.com/dkhrunov/btc-challenge-bot/pkg/logger"
	"github.com/dkhrunov/btc-challenge-bot/pkg/logger/types"
)

type Bot struct {
	*tele.Bot
	Layout     *layout.Layout
	DB         *gorm.DB
	Redis      *redis.Client
	SMTPDialer *gomail.Dialer
	Logger     *types.Logger
	Input      *intele.InputManager
}

func New(config *config.Config) (*Bot, error) {
	lt, err := layout.New("telegram.yml")
	if err != nil {
		return nil, err
	}

	settings := lt.Settings()
	botLogger, err := logger.Named("bot")
	if err != nil {
		return nil, err
	}
	settings.OnError = func(err error, ctx tele.Context) {
		if ctx.Callback() == nil {
			botLogger.Errorf("(user: %d) | Error: %v", ctx.Sender().ID, err)
		} else {
			botLogger.Errorf("(user: %d) | unique: %s | Error: %v", ctx.Sender().ID, ctx.Callback().Unique, err)
		}
	}

	b, err := tele.NewBot(settings)
	if err != nil {
		return nil, err
	}

	if cmds := lt.Commands(); cmds != nil {
		if err = b.SetCommands(cmds); err != nil {
			return nil, err
		}
	}

	bot := &Bot{
		Bot:    b,
		Layout: lt,
		DB:     config.Database,
		Input: intele.NewInputManager(intele.InputOptions{
			Storage: config.Redis.States,
		}),
		SMTPDialer: config.SMTPDialer,
		Logger:     botLogger,
		Redis:      config.Redis,
	}

	return bot, nil
}

// Notifier adapts the bot to the notification sender used by the schedulers.
type Notifier struct {
	bot *tele.Bot
}

func (n Notifier) Send(chatID int64, what interface{}, opts ...interface{}) error {
	_, err := n.bot.Send(tele.ChatID(chatID), what, opts...)
	return err
}

func (b *Bot) Start() {
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		logger.Log.Info("Bot starting")

		notifyLogger, err := logger.Named("notify")
		if err != nil {
			logger.Log.Errorf("Failed to create notify logger: %v", err)
			b.Bot.Start()
			return
		}

		clk := clock.System()
		eventStorage := postgres.NewEventStorage(b.DB)
		userStorage := postgres.NewUserStorage(b.DB)
		pushUpStorage := postgres.NewPushUpStorage(b.DB)
		chatStorage := postgres.NewChatStorage(b.DB)

		notifyService := service.NewNotifyService(
			Notifier{bot: b.Bot},
			b.Layout,
			notifyLogger,
			clk,
			eventStorage,
			userStorage,
			service.NewChatService(chatStorage),
			service.NewPushUpService(pushUpStorage, eventStorage, clk),
			service.NewStatsService(pushUpStorage, userStorage, clk),
			b.Me.Username,
		)

		if viper.GetBool("settings.logging.log-to-channel") {
			logHook := notifyService.LogHook(
				viper.GetInt64("settings.logging.channel-id"),
				viper.GetString("settings.logging.locale"),
				zapcore.Level(viper.GetInt("settings.logging.channel-log-level")),
			)
			logger.SetLogHook(logHook)
		}

		notifyService.Start(context.Background())
		b.Bot.Start()
	}()

	wg.Wait()
}
