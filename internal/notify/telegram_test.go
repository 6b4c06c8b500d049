package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	retryable := []error{
		errors.New("Too Many Requests: retry after 5"),
		errors.New("Bad Gateway"),
		errors.New("context deadline exceeded"),
	}
	for _, err := range retryable {
		assert.True(t, isRetryable(err), "ошибка %q", err)
	}

	permanent := []error{
		errors.New("Forbidden: bot was blocked by the user"),
		errors.New("Forbidden: user is deactivated"),
		errors.New("Bad Request: chat not found"),
		errors.New("Forbidden: bot can't initiate conversation with a user"),
		errors.New("Bad Request: message is not modified"),
		errors.New("Bad Request: message is too long"),
		errors.New("Bad Request: message to delete not found"),
		errors.New("Bad Request: message to edit not found"),
		errors.New("Bad Request: can't parse entities: unexpected end tag"),
		errors.New("Bad Request: wrong file identifier"),
	}
	for _, err := range permanent {
		assert.False(t, isRetryable(err), "ошибка %q", err)
	}
}
