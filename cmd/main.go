package main

import (
	"log"

	_ "time/tzdata"

	"github.com/dkhrunov/btc-challenge-bot/cmd/bot"
	"github.com/dkhrunov/btc-challenge-bot/internal/adapters/config"
	setupBot "github.com/dkhrunov/btc-challenge-bot/internal/adapters/controller/telegram/setup"
)

func main() {
	cfg := config.Get()
	b, err := bot.New(cfg)
	if err != nil {
		log.Panic(err)
	}

	setupBot.Setup(b)

	b.Start()
}
