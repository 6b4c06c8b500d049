package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"thanks-bot/internal/common"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{common.ErrUserNotFound, http.StatusNotFound},
		{common.ErrItemNotFound, http.StatusNotFound},
		{common.ErrInvitationNotFound, http.StatusNotFound},
		{common.ErrInvalidCredentials, http.StatusUnauthorized},
		{common.ErrNotApproved, http.StatusForbidden},
		{common.ErrAccountBlocked, http.StatusForbidden},
		{common.ErrNotAdmin, http.StatusForbidden},
		{common.ErrNotInvited, http.StatusForbidden},
		{common.ErrSelfTransfer, http.StatusBadRequest},
		{common.ErrDailyLimitExceeded, http.StatusBadRequest},
		{common.ErrInsufficientFunds, http.StatusBadRequest},
		{common.ErrOutOfStock, http.StatusBadRequest},
		{common.ErrInvitationExpired, http.StatusBadRequest},
		{common.ErrNoChanges, http.StatusBadRequest},
		{common.ErrNoTickets, http.StatusBadRequest},
		{common.ErrBonusCreditFailed, http.StatusBadRequest},
		{errors.New("что-то пошло не так"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, statusFor(tc.err), "ошибка %v", tc.err)
	}
}

func TestStatusFor_WrappedError(t *testing.T) {
	wrapped := fmt.Errorf("ошибка перевода: %w", common.ErrDailyLimitExceeded)
	assert.Equal(t, http.StatusBadRequest, statusFor(wrapped))
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
	assert.Contains(t, rec.Body.String(), "внутренняя ошибка сервера")
}

func TestWriteError_BusinessErrorPassedThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, common.ErrOutOfStock)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), common.ErrOutOfStock.Error())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
