package qrcode

import (
	"bytes"
	"fmt"

	"github.com/skip2/go-qrcode"
	tele "gopkg.in/telebot.v3"
)

const imageSize = 512

// JoinLink builds the deep link that opens the bot with a join_<eventID>
// payload.
func JoinLink(botName, eventID string) string {
	return fmt.Sprintf("https://t.me/%s?start=join_%s", botName, eventID)
}

// JoinEventPhoto renders the join deep link as a QR code photo with the given
// caption, ready to be sent to a chat.
func JoinEventPhoto(botName, eventID, caption string) (*tele.Photo, error) {
	png, err := qrcode.Encode(JoinLink(botName, eventID), qrcode.Medium, imageSize)
	if err != nil {
		return nil, err
	}
	return &tele.Photo{
		File:    tele.FromReader(bytes.NewReader(png)),
		Caption: caption,
	}, nil
}
