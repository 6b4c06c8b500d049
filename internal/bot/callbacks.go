// Package bot — callbacks.go: разбор callback-данных inline-кнопок.
// Формат данных: <действие>_<id>, список действий фиксирован.
package bot

import (
	"strconv"
	"strings"

	"thanks-bot/internal/common"
	"thanks-bot/internal/notify"
)

// Действия inline-кнопок.
type CallbackAction string

const (
	ActionApproveUser   CallbackAction = "approve_user"
	ActionRejectUser    CallbackAction = "reject_user"
	ActionApproveUpdate CallbackAction = "approve_update"
	ActionRejectUpdate  CallbackAction = "reject_update"
	ActionApproveLocal  CallbackAction = "approve_local_purchase"
	ActionRejectLocal   CallbackAction = "reject_local_purchase"
	ActionAcceptShared  CallbackAction = "accept_shared_gift"
	ActionRejectShared  CallbackAction = "reject_shared_gift"
)

// Callback — разобранные данные кнопки.
type Callback struct {
	Action CallbackAction
	ID     int64
}

// adminOnly — true для действий, доступных только администраторам.
func (c Callback) adminOnly() bool {
	switch c.Action {
	case ActionApproveUser, ActionRejectUser,
		ActionApproveUpdate, ActionRejectUpdate,
		ActionApproveLocal, ActionRejectLocal:
		return true
	}
	return false
}

// approve — true для «одобряющей» половины пары кнопок.
func (c Callback) approve() bool {
	switch c.Action {
	case ActionApproveUser, ActionApproveUpdate, ActionApproveLocal, ActionAcceptShared:
		return true
	}
	return false
}

var callbackPrefixes = map[string]CallbackAction{
	notify.CallbackApproveUser:   ActionApproveUser,
	notify.CallbackRejectUser:    ActionRejectUser,
	notify.CallbackApproveUpdate: ActionApproveUpdate,
	notify.CallbackRejectUpdate:  ActionRejectUpdate,
	notify.CallbackApproveLocal:  ActionApproveLocal,
	notify.CallbackRejectLocal:   ActionRejectLocal,
	notify.CallbackAcceptShared:  ActionAcceptShared,
	notify.CallbackRejectShared:  ActionRejectShared,
}

// ParseCallback разбирает данные кнопки. Побеждает самый длинный
// подошедший префикс, чтобы approve_ не съедал approve_update_.
func ParseCallback(data string) (Callback, error) {
	var best string
	var bestAction CallbackAction
	for prefix, action := range callbackPrefixes {
		if strings.HasPrefix(data, prefix) && len(prefix) > len(best) {
			best = prefix
			bestAction = action
		}
	}
	if best == "" {
		return Callback{}, common.ErrBadCallbackData
	}

	id, err := strconv.ParseInt(data[len(best):], 10, 64)
	if err != nil || id <= 0 {
		return Callback{}, common.ErrBadCallbackData
	}
	return Callback{Action: bestAction, ID: id}, nil
}
