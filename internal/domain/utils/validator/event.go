package validator

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dkhrunov/btc-challenge-bot/internal/domain/utils/location"
)

const (
	StartTimeLayout = "02.01.2006 15:04"
	DateLayout      = "02.01.2006"
)

func EventTitle(title string) bool {
	title = strings.TrimSpace(title)
	return utf8.RuneCountInString(title) >= 3 && utf8.RuneCountInString(title) <= 100
}

func EventDescription(description string) bool {
	description = strings.TrimSpace(description)
	return utf8.RuneCountInString(description) >= 1 && utf8.RuneCountInString(description) <= 400
}

// EventStartTime checks the format only. Whether the instant is far enough in
// the future is the service's call.
func EventStartTime(start string) bool {
	_, err := time.ParseInLocation(StartTimeLayout, strings.TrimSpace(start), location.Location())
	return err == nil
}

func StatsDate(date string) bool {
	_, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), location.Location())
	return err == nil
}
