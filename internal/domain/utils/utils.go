package utils

import (
	"slices"

	"github.com/spf13/viper"
	tele "gopkg.in/telebot.v3"
)

func IsAdmin(userID int64) bool {
	return slices.Contains(viper.GetIntSlice("bot.admin-ids"), int(userID))
}

// PluralizePushUps returns the russian plural form of "отжимание" for count.
func PluralizePushUps(count int) string {
	if rem := count % 100; rem >= 11 && rem <= 19 {
		return "отжиманий"
	}
	switch count % 10 {
	case 1:
		return "отжимание"
	case 2, 3, 4:
		return "отжимания"
	default:
		return "отжиманий"
	}
}

func GetMessageText(msg *tele.Message) string {
	switch {
	case msg.Text != "":
		return msg.Text
	case msg.Caption != "":
		return msg.Caption
	default:
		return ""
	}
}

// VideoFileID extracts the proof video file id from a message, if any.
func VideoFileID(msg *tele.Message) (fileID string, videoNote bool, ok bool) {
	switch {
	case msg.Video != nil:
		return msg.Video.FileID, false, true
	case msg.VideoNote != nil:
		return msg.VideoNote.FileID, true, true
	default:
		return "", false, false
	}
}
