package smtp

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
)

// Client представляет почтовый клиент.
type Client struct {
	dialer *gomail.Dialer
}

// NewClient инициализирует Client.
func NewClient(dialer *gomail.Dialer) *Client {
	return &Client{dialer: dialer}
}

// SendStatsReport отправляет выгрузку статистики с вложением.
func (c *Client) SendStatsReport(to, subject, body, filename string, attachment *bytes.Buffer) error {
	msg := gomail.NewMessage()

	domain := viper.GetString("service.smtp.domain")
	msg.SetHeader("Message-ID", generateMessageID(domain))
	msg.SetHeader("Date", time.Now().Format(time.RFC1123Z))
	msg.SetHeader("From", viper.GetString("service.smtp.email"))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	msg.Attach(filename, gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(attachment.Bytes())
		return err
	}))

	return c.dialer.DialAndSend(msg)
}

func generateMessageID(domain string) string {
	uniqueID := uuid.New().String()
	return fmt.Sprintf("<%s@%s>", uniqueID, domain)
}
