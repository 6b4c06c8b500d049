// Package email — messages.go: тексты писем в двух форматах.
// Каждый билдер возвращает тему, plain-text и HTML-версию.
package email

import "fmt"

func credentialsMessage(firstName, login, password, loginURL string) (subject, text, html string) {
	subject = "Доступ к платформе «Спасибо»"

	text = fmt.Sprintf(`Здравствуйте, %s!

Ваша регистрация одобрена. Данные для входа:

Логин: %s
Пароль: %s

Войти: %s

Рекомендуем сменить пароль после первого входа.`,
		firstName, login, password, loginURL)

	html = fmt.Sprintf(`<html><body style="font-family:Arial,sans-serif">
<p>Здравствуйте, %s!</p>
<p>Ваша регистрация одобрена. Данные для входа:</p>
<p><b>Логин:</b> %s<br><b>Пароль:</b> %s</p>
<p><a href="%s">Войти на платформу</a></p>
<p>Рекомендуем сменить пароль после первого входа.</p>
</body></html>`,
		firstName, login, password, loginURL)

	return subject, text, html
}

func registrationReceivedMessage(firstName string) (subject, text, html string) {
	subject = "Заявка на регистрацию принята"

	text = fmt.Sprintf(`Здравствуйте, %s!

Ваша заявка принята и ждёт одобрения администратора.
Когда её рассмотрят, вы получите письмо с данными для входа.`, firstName)

	html = fmt.Sprintf(`<html><body style="font-family:Arial,sans-serif">
<p>Здравствуйте, %s!</p>
<p>Ваша заявка принята и ждёт одобрения администратора.</p>
<p>Когда её рассмотрят, вы получите письмо с данными для входа.</p>
</body></html>`, firstName)

	return subject, text, html
}
