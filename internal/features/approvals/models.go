// Package approvals управляет цепочками согласования: регистрация,
// изменение профиля, локальные покупки. Все переходы запускаются
// inline-кнопками в Telegram.
// models.go описывает структуры таблицы pending_updates.
package approvals

import "time"

// Статусы заявки на изменение профиля.
const (
	UpdatePending  = "pending"
	UpdateApproved = "approved"
	UpdateRejected = "rejected"
)

// ProfileFields — поля профиля, изменяемые через согласование.
// Снимки старых и новых значений хранятся в JSONB.
type ProfileFields struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Position    *string `json:"position,omitempty"`
	Department  *string `json:"department,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"` // ISO-8601
	Email       *string `json:"email,omitempty"`
}

// PendingUpdate — заявка на изменение профиля. Снимок старых и новых
// значений; удаляется при терминальном переходе.
type PendingUpdate struct {
	ID        int64         `db:"id"`
	UserID    int64         `db:"user_id"`
	OldData   ProfileFields `db:"old_data"`
	NewData   ProfileFields `db:"new_data"`
	Status    string        `db:"status"`
	CreatedAt time.Time     `db:"created_at"`
}

// ApprovedCredentials — результат одобрения веб-регистрации:
// сгенерированные учётные данные для письма.
type ApprovedCredentials struct {
	Login    string
	Password string // Открытый пароль существует только до отправки письма
}
