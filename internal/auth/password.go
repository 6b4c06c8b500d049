// Package auth — password.go: хеширование паролей.
// bcrypt работает только с первыми 72 байтами входа, поэтому и хеширование,
// и проверка обрезают пароль через один общий хелпер — пути не могут разойтись.
package auth

import (
	"crypto/rand"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// PasswordAlphabet — алфавит генерируемых паролей.
const PasswordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*"

// GeneratedPasswordLength — длина автосгенерированного пароля.
const GeneratedPasswordLength = 12

const bcryptMaxBytes = 72

// truncatePassword обрезает пароль до 72 байт по границе UTF-8 символа.
// Обрезка посреди руны дала бы разные байты при хешировании и проверке.
func truncatePassword(password string) []byte {
	b := []byte(password)
	if len(b) <= bcryptMaxBytes {
		return b
	}
	b = b[:bcryptMaxBytes]
	// Отступаем назад до начала руны
	for len(b) > 0 && !utf8.Valid(b) {
		b = b[:len(b)-1]
	}
	return b
}

// HashPassword хеширует пароль bcrypt'ом со стандартной стоимостью.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncatePassword(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("ошибка хеширования пароля: %w", err)
	}
	return string(hash), nil
}

// CheckPassword сверяет пароль с хешем. Возвращает true при совпадении.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncatePassword(password)) == nil
}

// GeneratePassword генерирует пароль длиной n из PasswordAlphabet,
// используя криптографический источник случайности.
func GeneratePassword(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("ошибка генерации пароля: %w", err)
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = PasswordAlphabet[int(b)%len(PasswordAlphabet)]
	}
	return string(out), nil
}
