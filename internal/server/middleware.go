// Package server — middleware.go: определение вызывающего пользователя
// и шлюзы доступа (пользователь, администратор, cron-секрет).
package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"thanks-bot/internal/common"
	"thanks-bot/internal/features/users"
)

type ctxKey int

const userKey ctxKey = iota

// userResolver — поиск пользователя по идентификаторам запроса.
type userResolver interface {
	GetByID(ctx context.Context, id int64) (*users.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*users.User, error)
}

type tokenParser interface {
	Parse(token string) (int64, error)
}

// Identity определяет вызывающего по одному из трёх способов:
// X-Telegram-Id, X-User-Id или Bearer-токен. Анонимные запросы проходят
// дальше без пользователя в контексте.
func Identity(resolver userResolver, tokens tokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u := resolveUser(r, resolver, tokens); u != nil {
				r = r.WithContext(context.WithValue(r.Context(), userKey, u))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolveUser(r *http.Request, resolver userResolver, tokens tokenParser) *users.User {
	ctx := r.Context()

	if raw := r.Header.Get("X-Telegram-Id"); raw != "" {
		if tgID, err := strconv.ParseInt(raw, 10, 64); err == nil {
			if u, err := resolver.GetByTelegramID(ctx, tgID); err == nil {
				return u
			}
		}
	}

	if raw := r.Header.Get("X-User-Id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			if u, err := resolver.GetByID(ctx, id); err == nil {
				return u
			}
		}
	}

	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if id, err := tokens.Parse(strings.TrimPrefix(auth, "Bearer ")); err == nil {
			if u, err := resolver.GetByID(ctx, id); err == nil {
				return u
			}
		}
	}

	return nil
}

// currentUser достаёт пользователя из контекста запроса.
func currentUser(r *http.Request) *users.User {
	u, _ := r.Context().Value(userKey).(*users.User)
	return u
}

// RequireUser пропускает только аутентифицированные запросы.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r) == nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Detail: "требуется аутентификация"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin пропускает только администраторов.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(r)
		if u == nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Detail: "требуется аутентификация"})
			return
		}
		if !u.IsAdmin {
			writeError(w, common.ErrNotAdmin)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCronSecret пропускает запросы планировщика с верным секретом.
func RequireCronSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Cron-Secret") != secret {
				writeError(w, common.ErrCronSecretMismatch)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
