package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentialsMessage(t *testing.T) {
	subject, text, html := credentialsMessage("Иван", "ivan.petrov", "Xy9#abc", "https://spasibo.team/login")

	assert.Equal(t, "Доступ к платформе «Спасибо»", subject)

	for _, body := range []string{text, html} {
		assert.Contains(t, body, "Иван")
		assert.Contains(t, body, "ivan.petrov")
		assert.Contains(t, body, "Xy9#abc")
		assert.Contains(t, body, "https://spasibo.team/login")
	}
	assert.Contains(t, html, "<html>")
	assert.NotContains(t, text, "<html>")
}

func TestRegistrationReceivedMessage(t *testing.T) {
	subject, text, html := registrationReceivedMessage("Анна")

	assert.Equal(t, "Заявка на регистрацию принята", subject)
	assert.Contains(t, text, "Анна")
	assert.Contains(t, html, "Анна")
}
