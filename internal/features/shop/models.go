// Package shop управляет магазином: каталог, покупки, одноразовые коды,
// совместные и локальные подарки, внешние бонусы.
// models.go описывает структуры таблиц market_items, item_codes, purchases,
// shared_gift_invitations, local_gifts.
package shop

import "time"

// MarketItem — позиция каталога.
// Для auto-issuance товаров колонка stock справочная: источником истины
// служит число невыданных кодов, Stock пересчитывается при чтении.
type MarketItem struct {
	ID              int64      `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	Description     string     `db:"description" json:"description"`
	ImageURL        string     `db:"image_url" json:"image_url"`
	PriceRub        int64      `db:"price_rub" json:"price_rub"`
	Price           int64      `db:"price" json:"price"` // В спасибо: round(price_rub/30)
	Stock           int64      `db:"stock" json:"stock"`
	IsAutoIssuance  bool       `db:"is_auto_issuance" json:"is_auto_issuance"`
	IsSharedGift    bool       `db:"is_shared_gift" json:"is_shared_gift"`
	IsLocalPurchase bool       `db:"is_local_purchase" json:"is_local_purchase"`
	IsArchived      bool       `db:"is_archived" json:"is_archived"`
	ArchivedAt      *time.Time `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// PriceFromRub переводит рублёвую цену в спасибо: round(priceRub/divisor).
func PriceFromRub(priceRub, divisor int64) int64 {
	return (priceRub + divisor/2) / divisor
}

// ItemCode — одноразовый код auto-issuance товара.
// Выданный код (is_issued=true) никогда не возвращается в оборот.
type ItemCode struct {
	ID           int64  `db:"id"`
	MarketItemID int64  `db:"market_item_id"`
	Value        string `db:"value"`
	IsIssued     bool   `db:"is_issued"`
	PurchaseID   *int64 `db:"purchase_id"`
	RecipientID  *int64 `db:"recipient_id"`
}

// Purchase — завершённая операция магазина.
type Purchase struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	ItemID    int64     `db:"item_id"`
	CreatedAt time.Time `db:"created_at"`
}

// PurchaseResult — итог обычной покупки.
type PurchaseResult struct {
	Purchase   *Purchase
	ItemName   string
	NewBalance int64
	IssuedCode *string // nil для физических товаров
	BuyerTG    *int64
}

// Статусы приглашения совместного подарка.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationRejected = "rejected"
	InvitationExpired  = "expired"
)

// SharedGiftInvitation — конечный автомат совместного подарка.
// Покупатель платит полную цену при создании; на reject/expire
// вся сумма возвращается, сток уменьшается только на accept.
type SharedGiftInvitation struct {
	ID            int64      `db:"id" json:"id"`
	BuyerID       int64      `db:"buyer_id" json:"buyer_id"`
	InvitedUserID int64      `db:"invited_user_id" json:"invited_user_id"`
	ItemID        int64      `db:"item_id" json:"item_id"`
	Status        string     `db:"status" json:"status"`
	Price         int64      `db:"price" json:"price"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt     time.Time  `db:"expires_at" json:"expires_at"`
	AcceptedAt    *time.Time `db:"accepted_at" json:"accepted_at,omitempty"`
	RejectedAt    *time.Time `db:"rejected_at" json:"rejected_at,omitempty"`
}

// InvitationResult — данные для ответа и уведомлений после перехода.
type InvitationResult struct {
	Invitation *SharedGiftInvitation
	ItemName   string
	BuyerTG    *int64
	InvitedTG  *int64
	NewBalance int64 // Баланс инициатора перехода (или покупателя при возврате)
}

// Статусы локального подарка.
const (
	LocalGiftPending  = "pending"
	LocalGiftApproved = "approved"
	LocalGiftRejected = "rejected"
)

// LocalGift — покупка, требующая одобрения администратором.
// Пока заявка pending, reserved_amount входит в reserved_balance пользователя.
type LocalGift struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	ItemID         int64     `db:"item_id" json:"item_id"`
	PurchaseID     int64     `db:"purchase_id" json:"purchase_id"`
	City           string    `db:"city" json:"city"`
	WebsiteURL     string    `db:"website_url" json:"website_url"`
	Status         string    `db:"status" json:"status"`
	ReservedAmount int64     `db:"reserved_amount" json:"reserved_amount"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// LocalGiftResult — итог создания/обработки локального подарка.
type LocalGiftResult struct {
	Gift            *LocalGift
	ItemName        string
	UserName        string
	UserTG          *int64
	NewBalance      int64
	ReservedBalance int64
	AlreadyDone     bool // true, если повторная обработка ничего не изменила
}

// ExpiredRefund — возврат по истёкшему приглашению для уведомления покупателя.
type ExpiredRefund struct {
	InvitationID int64
	BuyerTG      *int64
	ItemName     string
	Price        int64
}

// StatixResult — итог покупки внешних бонусов.
type StatixResult struct {
	NewBalance     int64
	PurchasedBonus int64
}
