package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thanks-bot/internal/common"
)

func TestParseCallback(t *testing.T) {
	cases := []struct {
		data   string
		action CallbackAction
		id     int64
	}{
		{"approve_7", ActionApproveUser, 7},
		{"reject_7", ActionRejectUser, 7},
		{"approve_update_12", ActionApproveUpdate, 12},
		{"reject_update_12", ActionRejectUpdate, 12},
		{"approve_local_purchase_3", ActionApproveLocal, 3},
		{"reject_local_purchase_3", ActionRejectLocal, 3},
		{"accept_shared_gift_44", ActionAcceptShared, 44},
		{"reject_shared_gift_44", ActionRejectShared, 44},
	}
	for _, tc := range cases {
		cb, err := ParseCallback(tc.data)
		require.NoError(t, err, "данные %q", tc.data)
		assert.Equal(t, tc.action, cb.Action)
		assert.Equal(t, tc.id, cb.ID)
	}
}

func TestParseCallback_BadData(t *testing.T) {
	for _, data := range []string{
		"",
		"unknown_action_5",
		"approve_",
		"approve_abc",
		"approve_-1",
		"approve_0",
	} {
		_, err := ParseCallback(data)
		assert.ErrorIs(t, err, common.ErrBadCallbackData, "данные %q", data)
	}
}

func TestCallback_AdminOnly(t *testing.T) {
	assert.True(t, Callback{Action: ActionApproveUser}.adminOnly())
	assert.True(t, Callback{Action: ActionRejectLocal}.adminOnly())
	// Ответ на приглашение — действие самого приглашённого
	assert.False(t, Callback{Action: ActionAcceptShared}.adminOnly())
	assert.False(t, Callback{Action: ActionRejectShared}.adminOnly())
}

func TestCallback_Approve(t *testing.T) {
	assert.True(t, Callback{Action: ActionApproveUpdate}.approve())
	assert.True(t, Callback{Action: ActionAcceptShared}.approve())
	assert.False(t, Callback{Action: ActionRejectUpdate}.approve())
	assert.False(t, Callback{Action: ActionRejectShared}.approve())
}
