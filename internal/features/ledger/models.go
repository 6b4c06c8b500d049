// Package ledger управляет переводами «спасибо»: дневные лимиты,
// начисление фрагментов билетов и лидерборды.
// models.go описывает структуры для работы с таблицей transactions.
package ledger

import "time"

// Роли для лидерборда.
type Role string

const (
	RoleReceived Role = "received" // Топ получателей
	RoleSent     Role = "sent"     // Топ отправителей
)

// Transaction — неизменяемая запись перевода. Сумма в ядре всегда 1.
type Transaction struct {
	ID         int64     `db:"id"`
	SenderID   int64     `db:"sender_id"`
	ReceiverID int64     `db:"receiver_id"`
	Amount     int64     `db:"amount"`
	Message    string    `db:"message"`
	CreatedAt  time.Time `db:"created_at"`
}

// TransferResult — итог успешного перевода, нужен для ответа API
// и уведомления получателя.
type TransferResult struct {
	Transaction        *Transaction
	SenderFragments    int64
	SenderDailyCount   int
	ReceiverBalance    int64
	ReceiverTelegramID *int64
	SenderName         string
	ReceiverName       string
}

// FeedItem — элемент общей ленты переводов.
type FeedItem struct {
	ID           int64     `json:"id"`
	SenderID     int64     `json:"sender_id"`
	SenderName   string    `json:"sender_name"`
	ReceiverID   int64     `json:"receiver_id"`
	ReceiverName string    `json:"receiver_name"`
	Amount       int64     `json:"amount"`
	Message      string    `json:"message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// LeaderboardEntry — строка лидерборда.
type LeaderboardEntry struct {
	UserID   int64  `json:"user_id"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url,omitempty"`
	Total    int64  `json:"total"`
}

// RankInfo — позиция конкретного пользователя.
// Rank == nil, если у пользователя нет активности за период.
type RankInfo struct {
	Rank         *int  `json:"rank"`
	Total        int64 `json:"total"`
	Participants int   `json:"participants"`
}
