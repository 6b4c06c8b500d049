// Package users управляет сотрудниками: регистрацией, статусами,
// привязкой веб-аккаунта к Telegram, сессиями и анонимизацией.
// models.go описывает структуры данных для работы с таблицей users.
package users

import "time"

// Статусы пользователя.
const (
	StatusPending  = "pending"  // Ждёт одобрения администратором
	StatusApproved = "approved" // Одобрен, полный доступ
	StatusRejected = "rejected" // Отклонён
	StatusBlocked  = "blocked"  // Заблокирован
	StatusDeleted  = "deleted"  // Анонимизирован, история сохранена
)

// User представляет сотрудника в базе данных.
// Отрицательный TelegramID — сентинел анонимизированного пользователя.
type User struct {
	ID                 int64      `db:"id"`
	TelegramID         *int64     `db:"telegram_id"` // nil, если регистрация через веб
	Login              *string    `db:"login"`
	PasswordHash       *string    `db:"password_hash"`
	BrowserAuthEnabled bool       `db:"browser_auth_enabled"`
	Status             string     `db:"status"`
	IsAdmin            bool       `db:"is_admin"`
	FirstName          string     `db:"first_name"`
	LastName           string     `db:"last_name"`
	Position           string     `db:"position"`
	Department         string     `db:"department"`
	Phone              string     `db:"phone"`
	DateOfBirth        *time.Time `db:"date_of_birth"`
	PhotoURL           string     `db:"photo_url"`
	Email              string     `db:"email"` // Хранится в нижнем регистре
	Balance            int64      `db:"balance"`
	ReservedBalance    int64      `db:"reserved_balance"`
	TicketFragments    int64      `db:"ticket_fragments"`
	Tickets            int64      `db:"tickets"`
	DailyTransferCount int        `db:"daily_transfer_count"`
	LastLogin          *time.Time `db:"last_login"`
	OnboardingSeen     bool       `db:"onboarding_seen"`
	BotStarted         bool       `db:"bot_started"`
	CardBarcode        string     `db:"card_barcode"`
	CardBalance        string     `db:"card_balance"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

// AvailableBalance возвращает доступный остаток: баланс минус резерв.
func (u *User) AvailableBalance() int64 {
	return u.Balance - u.ReservedBalance
}

// DisplayName возвращает отображаемое имя пользователя.
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	return name
}

// IsWebOnly — true, если у пользователя нет действующей привязки к Telegram.
func (u *User) IsWebOnly() bool {
	return u.TelegramID == nil || *u.TelegramID < 0
}

// NewUser — данные для создания пользователя (веб или Telegram).
type NewUser struct {
	TelegramID  *int64
	Login       *string
	Password    string // Пустой — учётные данные сгенерируют при одобрении
	FirstName   string
	LastName    string
	Position    string
	Department  string
	Phone       string
	DateOfBirth *time.Time
	Email       string
}

// ProfileUpdate — поля, которые пользователь меняет напрямую (без согласования).
type ProfileUpdate struct {
	PhotoURL *string `json:"photo_url"`
	Phone    *string `json:"phone"`
}

// Session — веб-сессия для аналитики. Сессии не «завершаются»:
// длительность считается как last_seen - session_start.
type Session struct {
	ID           int64     `db:"id"`
	UserID       int64     `db:"user_id"`
	SessionStart time.Time `db:"session_start"`
	LastSeen     time.Time `db:"last_seen"`
}

// BirthdayUser — именинник для ежедневной задачи.
type BirthdayUser struct {
	ID         int64
	TelegramID *int64
	FirstName  string
	NewBalance int64
}
