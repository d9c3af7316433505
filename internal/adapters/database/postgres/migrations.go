package postgres

import "github.com/dkhrunov/btc-challenge-bot/internal/domain/entity"

// Migrations is a list of all gorm migrations for the database.
var Migrations = []interface{}{
	&entity.User{},
	&entity.Event{},
	&entity.EventParticipant{},
	&entity.PushUp{},
	&entity.Chat{},
}
