// Package email — postbox.go: транспорт через SMTP-шлюз Yandex Cloud Postbox.
package email

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
)

// PostboxSender отправляет письма по SMTP с аутентификацией по ключам доступа.
type PostboxSender struct {
	host     string
	port     string
	username string // ACCESS_KEY_ID
	password string // SECRET_ACCESS_KEY
	from     string
}

func NewPostboxSender(host, port, username, password, from string) *PostboxSender {
	return &PostboxSender{host: host, port: port, username: username, password: password, from: from}
}

// Send собирает multipart/alternative письмо (plain-text и HTML)
// и отправляет его по SMTP.
func (p *PostboxSender) Send(ctx context.Context, recipient, subject, textBody, htmlBody string) error {
	if p.username == "" || p.password == "" {
		return fmt.Errorf("учётные данные Postbox не настроены")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	boundary := "part-" + uuid.NewString()

	var sb strings.Builder
	sb.WriteString("From: " + p.from + "\r\n")
	sb.WriteString("To: " + recipient + "\r\n")
	sb.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: multipart/alternative; boundary=\"" + boundary + "\"\r\n\r\n")

	sb.WriteString("--" + boundary + "\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	sb.WriteString(textBody + "\r\n\r\n")

	sb.WriteString("--" + boundary + "\r\n")
	sb.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	sb.WriteString(htmlBody + "\r\n\r\n")

	sb.WriteString("--" + boundary + "--\r\n")

	auth := smtp.PlainAuth("", p.username, p.password, p.host)
	if err := smtp.SendMail(p.host+":"+p.port, auth, p.from, []string{recipient},
		[]byte(sb.String())); err != nil {
		return fmt.Errorf("ошибка отправки через Postbox: %w", err)
	}
	return nil
}
