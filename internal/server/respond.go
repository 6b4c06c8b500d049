// Package server — respond.go: единый формат ответов HTTP-слоя.
// Ошибки отдаются как {"detail": "..."} со статусом по классу ошибки.
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"thanks-bot/internal/common"
)

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.WithError(err).Error("Ошибка сериализации ответа")
	}
}

// statusFor классифицирует ошибку:
// 400 валидация и бизнес-конфликты, 401/403 доступ, 404 не найдено, 500 прочее.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrUserNotFound),
		errors.Is(err, common.ErrSenderNotFound),
		errors.Is(err, common.ErrReceiverNotFound),
		errors.Is(err, common.ErrItemNotFound),
		errors.Is(err, common.ErrInvitationNotFound),
		errors.Is(err, common.ErrUpdateNotFound):
		return http.StatusNotFound

	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized

	case errors.Is(err, common.ErrNotApproved),
		errors.Is(err, common.ErrAccountBlocked),
		errors.Is(err, common.ErrNotAdmin),
		errors.Is(err, common.ErrCronSecretMismatch),
		errors.Is(err, common.ErrNotInvited):
		return http.StatusForbidden

	case errors.Is(err, common.ErrSelfTransfer),
		errors.Is(err, common.ErrDailyLimitExceeded),
		errors.Is(err, common.ErrInsufficientFunds),
		errors.Is(err, common.ErrOutOfStock),
		errors.Is(err, common.ErrWrongItemKind),
		errors.Is(err, common.ErrInvitationExpired),
		errors.Is(err, common.ErrInvitationTerminal),
		errors.Is(err, common.ErrNoChanges),
		errors.Is(err, common.ErrLoginTaken),
		errors.Is(err, common.ErrEmailTaken),
		errors.Is(err, common.ErrAccountAlreadyLinked),
		errors.Is(err, common.ErrNotEnoughFragments),
		errors.Is(err, common.ErrNoTickets),
		errors.Is(err, common.ErrBonusCreditFailed),
		errors.Is(err, common.ErrBadCallbackData):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		// Внутренние подробности наружу не отдаём
		log.WithError(err).Error("Внутренняя ошибка запроса")
		detail = "внутренняя ошибка сервера"
	}
	writeJSON(w, status, errorBody{Detail: detail})
}

func writeBadRequest(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Detail: detail})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeBadRequest(w, "некорректное тело запроса")
		return false
	}
	return true
}
