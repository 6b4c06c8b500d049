// Package auth — jwt.go: выдача и проверка JWT для веб-клиента.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims — полезная нагрузка токена веб-сессии.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTManager выпускает и проверяет токены.
type JWTManager struct {
	secret []byte
	expiry time.Duration
}

// NewJWTManager создаёт менеджер токенов.
func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		expiry: 24 * time.Hour,
	}
}

// Issue выпускает токен для пользователя.
func (m *JWTManager) Issue(userID int64) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse проверяет подпись и срок токена и возвращает user id.
func (m *JWTManager) Parse(tokenString string) (int64, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("некорректный токен: %w", err)
	}
	return claims.UserID, nil
}
