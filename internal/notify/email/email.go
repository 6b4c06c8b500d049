// Package email — отправка служебных писем. Два взаимозаменяемых
// транспорта: AWS SES v2 и SMTP-шлюз Postbox. Тексты писем собираются
// в messages.go, транспорт выбирается конфигурацией.
package email

import "context"

// Sender — транспорт доставки одного письма.
type Sender interface {
	Send(ctx context.Context, recipient, subject, textBody, htmlBody string) error
}

// Mailer собирает письма и отдаёт их транспорту.
type Mailer struct {
	sender   Sender
	loginURL string
}

func NewMailer(sender Sender, loginURL string) *Mailer {
	return &Mailer{sender: sender, loginURL: loginURL}
}

// SendCredentials отправляет письмо с учётными данными после одобрения
// регистрации. Вызывается ровно один раз на пользователя.
func (m *Mailer) SendCredentials(ctx context.Context, recipient, firstName, login, password string) error {
	subject, text, html := credentialsMessage(firstName, login, password, m.loginURL)
	return m.sender.Send(ctx, recipient, subject, text, html)
}

// SendRegistrationReceived подтверждает приём заявки на регистрацию.
func (m *Mailer) SendRegistrationReceived(ctx context.Context, recipient, firstName string) error {
	subject, text, html := registrationReceivedMessage(firstName)
	return m.sender.Send(ctx, recipient, subject, text, html)
}
