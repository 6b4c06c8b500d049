// Package banners — рекламные и сервисные баннеры главного экрана.
// Баннеры лидерборда пересобираются планировщиком раз в месяц.
package banners

import "time"

// Типы баннеров. Баннеры лидерборда существуют в двух вариантах:
// топ получателей и топ отправителей спасибо.
const (
	KindManual               = "manual" // Создан администратором
	KindLeaderboardReceivers = "leaderboard_receivers"
	KindLeaderboardSenders   = "leaderboard_senders"
)

// Banner — баннер главного экрана.
type Banner struct {
	ID        int64     `db:"id" json:"id"`
	Kind      string    `db:"kind" json:"kind"`
	Title     string    `db:"title" json:"title"`
	Body      string    `db:"body" json:"body,omitempty"`
	ImageURL  string    `db:"image_url" json:"image_url,omitempty"`
	LinkURL   string    `db:"link_url" json:"link_url,omitempty"`
	Position  int       `db:"position" json:"position"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewBanner — данные для создания баннера администратором.
type NewBanner struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	ImageURL string `json:"image_url"`
	LinkURL  string `json:"link_url"`
	Position int    `json:"position"`
}
