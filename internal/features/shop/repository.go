// Package shop — repository.go выполняет все операции магазина в БД.
// Каждая операция — одна транзакция с блокировкой строк:
//   - выдача кода: FOR UPDATE SKIP LOCKED, чтобы конкурентные покупатели
//     никогда не получили один код;
//   - списание стока физического товара: FOR UPDATE на строке товара;
//   - терминальные переходы приглашений: FOR UPDATE на строке приглашения
//     плюс перепроверка статуса, чтобы возврат не случился дважды.
package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"thanks-bot/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// itemColumns: stock для auto-issuance пересчитывается из невыданных кодов,
// хранимому значению не доверяем.
const itemColumns = `
	i.id, i.name, i.description, i.image_url, i.price_rub, i.price,
	CASE WHEN i.is_auto_issuance
		THEN (SELECT COUNT(*) FROM item_codes c WHERE c.market_item_id = i.id AND NOT c.is_issued)
		ELSE i.stock
	END AS stock,
	i.is_auto_issuance, i.is_shared_gift, i.is_local_purchase, i.is_archived, i.archived_at, i.created_at`

func scanItem(row pgx.Row) (*MarketItem, error) {
	var m MarketItem
	err := row.Scan(
		&m.ID, &m.Name, &m.Description, &m.ImageURL, &m.PriceRub, &m.Price, &m.Stock,
		&m.IsAutoIssuance, &m.IsSharedGift, &m.IsLocalPurchase, &m.IsArchived, &m.ArchivedAt, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrItemNotFound
		}
		return nil, fmt.Errorf("ошибка чтения товара: %w", err)
	}
	return &m, nil
}

// ListItems возвращает неархивированный каталог.
func (r *Repository) ListItems(ctx context.Context) ([]*MarketItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+itemColumns+` FROM market_items i WHERE NOT i.is_archived ORDER BY i.id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения каталога: %w", err)
	}
	defer rows.Close()

	var out []*MarketItem
	for rows.Next() {
		m, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetItem возвращает товар по id (с производным стоком).
func (r *Repository) GetItem(ctx context.Context, id int64) (*MarketItem, error) {
	return scanItem(r.db.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM market_items i WHERE i.id = $1`, id))
}

// CreateItem добавляет товар в каталог. Цена в спасибо выводится
// из рублёвой в момент записи.
func (r *Repository) CreateItem(ctx context.Context, m *MarketItem, priceDivisor int64) (*MarketItem, error) {
	return scanItem(r.db.QueryRow(ctx, `
		INSERT INTO market_items AS i
			(name, description, image_url, price_rub, price, stock,
			 is_auto_issuance, is_shared_gift, is_local_purchase)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+itemColumns,
		m.Name, m.Description, m.ImageURL, m.PriceRub, PriceFromRub(m.PriceRub, priceDivisor),
		m.Stock, m.IsAutoIssuance, m.IsSharedGift, m.IsLocalPurchase,
	))
}

// ArchiveItem убирает товар из каталога.
func (r *Repository) ArchiveItem(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE market_items SET is_archived = TRUE, archived_at = NOW()
		WHERE id = $1 AND NOT is_archived
	`, id)
	if err != nil {
		return fmt.Errorf("ошибка архивации товара: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrItemNotFound
	}
	return nil
}

// SeedCodes генерирует n одноразовых кодов для auto-issuance товара.
func (r *Repository) SeedCodes(ctx context.Context, itemID int64, n int) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := 0; i < n; i++ {
		code := strings.ToUpper(uuid.NewString()[:18])
		if _, err := tx.Exec(ctx, `
			INSERT INTO item_codes (market_item_id, value) VALUES ($1, $2)
		`, itemID, code); err != nil {
			return 0, fmt.Errorf("ошибка генерации кода: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка коммита кодов: %w", err)
	}
	return n, nil
}

// lockUserBalance блокирует строку пользователя и возвращает баланс и резерв.
func lockUserBalance(ctx context.Context, tx pgx.Tx, userID int64) (balance, reserved int64, err error) {
	err = tx.QueryRow(ctx,
		`SELECT balance, reserved_balance FROM users WHERE id = $1 FOR UPDATE`, userID,
	).Scan(&balance, &reserved)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, common.ErrUserNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка блокировки пользователя: %w", err)
	}
	return balance, reserved, nil
}

// Purchase выполняет обычную покупку (auto-issuance или физический товар).
// Для auto-issuance код выбирается с FOR UPDATE SKIP LOCKED, для физического
// товара сток проверяется и уменьшается под блокировкой строки товара.
func (r *Repository) Purchase(ctx context.Context, userID, itemID int64) (*PurchaseResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// Строка товара блокируется в обоих случаях: для физического товара
	// блокировка покрывает чтение и списание стока в одной транзакции
	var item MarketItem
	err = tx.QueryRow(ctx, `
		SELECT id, name, price, stock, is_auto_issuance, is_shared_gift, is_local_purchase, is_archived
		FROM market_items WHERE id = $1 FOR UPDATE
	`, itemID).Scan(&item.ID, &item.Name, &item.Price, &item.Stock,
		&item.IsAutoIssuance, &item.IsSharedGift, &item.IsLocalPurchase, &item.IsArchived)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения товара: %w", err)
	}
	if item.IsArchived {
		return nil, common.ErrItemNotFound
	}
	if item.IsSharedGift || item.IsLocalPurchase {
		return nil, common.ErrWrongItemKind
	}

	balance, reserved, err := lockUserBalance(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if balance-reserved < item.Price {
		return nil, common.ErrInsufficientFunds
	}

	res := &PurchaseResult{ItemName: item.Name}

	var codeID int64
	if item.IsAutoIssuance {
		var codeValue string
		err = tx.QueryRow(ctx, `
			SELECT id, value FROM item_codes
			WHERE market_item_id = $1 AND NOT is_issued
			ORDER BY id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		`, itemID).Scan(&codeID, &codeValue)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrOutOfStock
		}
		if err != nil {
			return nil, fmt.Errorf("ошибка выбора кода: %w", err)
		}
		res.IssuedCode = &codeValue
	} else {
		if item.Stock <= 0 {
			return nil, common.ErrOutOfStock
		}
		if _, err := tx.Exec(ctx,
			`UPDATE market_items SET stock = stock - 1 WHERE id = $1`, itemID); err != nil {
			return nil, fmt.Errorf("ошибка списания стока: %w", err)
		}
	}

	err = tx.QueryRow(ctx, `
		UPDATE users SET balance = balance - $2, updated_at = NOW()
		WHERE id = $1
		RETURNING balance, telegram_id
	`, userID, item.Price).Scan(&res.NewBalance, &res.BuyerTG)
	if err != nil {
		return nil, fmt.Errorf("ошибка списания баланса: %w", err)
	}

	p := &Purchase{UserID: userID, ItemID: itemID}
	err = tx.QueryRow(ctx, `
		INSERT INTO purchases (user_id, item_id) VALUES ($1, $2)
		RETURNING id, created_at
	`, userID, itemID).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка записи покупки: %w", err)
	}
	res.Purchase = p

	if item.IsAutoIssuance {
		if _, err := tx.Exec(ctx, `
			UPDATE item_codes SET is_issued = TRUE, purchase_id = $2, recipient_id = $3
			WHERE id = $1
		`, codeID, p.ID, userID); err != nil {
			return nil, fmt.Errorf("ошибка выдачи кода: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка коммита покупки: %w", err)
	}
	return res, nil
}

// CreateInvitation создаёт приглашение совместного подарка.
// Покупатель платит полную цену сразу; срок действия — ttl от текущего момента.
func (r *Repository) CreateInvitation(ctx context.Context, buyerID, invitedID, itemID int64, ttl time.Duration) (*InvitationResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var name string
	var price int64
	var isShared, archived bool
	err = tx.QueryRow(ctx, `
		SELECT name, price, is_shared_gift, is_archived FROM market_items WHERE id = $1
	`, itemID).Scan(&name, &price, &isShared, &archived)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения товара: %w", err)
	}
	if archived {
		return nil, common.ErrItemNotFound
	}
	if !isShared {
		return nil, common.ErrWrongItemKind
	}

	var invitedTG *int64
	err = tx.QueryRow(ctx, `SELECT telegram_id FROM users WHERE id = $1`, invitedID).Scan(&invitedTG)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения приглашённого: %w", err)
	}

	balance, reserved, err := lockUserBalance(ctx, tx, buyerID)
	if err != nil {
		return nil, err
	}
	if balance-reserved < price {
		return nil, common.ErrInsufficientFunds
	}

	var newBalance int64
	err = tx.QueryRow(ctx, `
		UPDATE users SET balance = balance - $2, updated_at = NOW()
		WHERE id = $1 RETURNING balance
	`, buyerID, price).Scan(&newBalance)
	if err != nil {
		return nil, fmt.Errorf("ошибка списания у покупателя: %w", err)
	}

	inv := &SharedGiftInvitation{
		BuyerID: buyerID, InvitedUserID: invitedID, ItemID: itemID,
		Status: InvitationPending, Price: price,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO shared_gift_invitations (buyer_id, invited_user_id, item_id, status, price, expires_at)
		VALUES ($1, $2, $3, $4, $5, NOW() + $6)
		RETURNING id, created_at, expires_at
	`, buyerID, invitedID, itemID, InvitationPending, price, ttl).Scan(&inv.ID, &inv.CreatedAt, &inv.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания приглашения: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка коммита приглашения: %w", err)
	}
	return &InvitationResult{Invitation: inv, ItemName: name, InvitedTG: invitedTG, NewBalance: newBalance}, nil
}

// GetInvitation возвращает приглашение по id.
func (r *Repository) GetInvitation(ctx context.Context, id int64) (*SharedGiftInvitation, error) {
	var inv SharedGiftInvitation
	err := r.db.QueryRow(ctx, `
		SELECT id, buyer_id, invited_user_id, item_id, status, price, created_at, expires_at, accepted_at, rejected_at
		FROM shared_gift_invitations WHERE id = $1
	`, id).Scan(&inv.ID, &inv.BuyerID, &inv.InvitedUserID, &inv.ItemID, &inv.Status, &inv.Price,
		&inv.CreatedAt, &inv.ExpiresAt, &inv.AcceptedAt, &inv.RejectedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения приглашения: %w", err)
	}
	return &inv, nil
}

// lockInvitation блокирует приглашение и возвращает его вместе с именем товара.
func lockInvitation(ctx context.Context, tx pgx.Tx, id int64) (*SharedGiftInvitation, string, error) {
	var inv SharedGiftInvitation
	var itemName string
	err := tx.QueryRow(ctx, `
		SELECT inv.id, inv.buyer_id, inv.invited_user_id, inv.item_id, inv.status, inv.price,
		       inv.created_at, inv.expires_at, inv.accepted_at, inv.rejected_at, i.name
		FROM shared_gift_invitations inv
		JOIN market_items i ON i.id = inv.item_id
		WHERE inv.id = $1
		FOR UPDATE OF inv
	`, id).Scan(&inv.ID, &inv.BuyerID, &inv.InvitedUserID, &inv.ItemID, &inv.Status, &inv.Price,
		&inv.CreatedAt, &inv.ExpiresAt, &inv.AcceptedAt, &inv.RejectedAt, &itemName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", common.ErrInvitationNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("ошибка блокировки приглашения: %w", err)
	}
	return &inv, itemName, nil
}

// refundBuyer возвращает покупателю полную цену приглашения.
func refundBuyer(ctx context.Context, tx pgx.Tx, inv *SharedGiftInvitation) (newBalance int64, buyerTG *int64, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE users SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1 RETURNING balance, telegram_id
	`, inv.BuyerID, inv.Price).Scan(&newBalance, &buyerTG)
	if err != nil {
		return 0, nil, fmt.Errorf("ошибка возврата покупателю: %w", err)
	}
	return newBalance, buyerTG, nil
}

// AcceptInvitation — переход pending→accepted от лица приглашённого.
// Если приглашение уже истекло, вместо accept выполняется expire с возвратом:
// возврат фиксируется коммитом, а вызывающему возвращается ErrInvitationExpired.
// Аналогично при нулевом стоке: возврат + ErrOutOfStock.
func (r *Repository) AcceptInvitation(ctx context.Context, invID, userID int64, now time.Time) (*InvitationResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	inv, itemName, err := lockInvitation(ctx, tx, invID)
	if err != nil {
		return nil, err
	}
	if inv.Status != InvitationPending {
		return nil, common.ErrInvitationTerminal
	}
	if inv.InvitedUserID != userID {
		return nil, common.ErrNotInvited
	}

	if now.After(inv.ExpiresAt) {
		if _, _, err := refundBuyer(ctx, tx, inv); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE shared_gift_invitations SET status = $2 WHERE id = $1`,
			invID, InvitationExpired); err != nil {
			return nil, fmt.Errorf("ошибка перевода в expired: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("ошибка коммита expire: %w", err)
		}
		return nil, common.ErrInvitationExpired
	}

	// Сток под блокировкой строки товара
	var stock int64
	err = tx.QueryRow(ctx,
		`SELECT stock FROM market_items WHERE id = $1 FOR UPDATE`, inv.ItemID).Scan(&stock)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения стока: %w", err)
	}
	if stock <= 0 {
		if _, _, err := refundBuyer(ctx, tx, inv); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE shared_gift_invitations SET status = $2, rejected_at = NOW() WHERE id = $1`,
			invID, InvitationRejected); err != nil {
			return nil, fmt.Errorf("ошибка перевода в rejected: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("ошибка коммита возврата: %w", err)
		}
		return nil, common.ErrOutOfStock
	}

	if _, err := tx.Exec(ctx,
		`UPDATE market_items SET stock = stock - 1 WHERE id = $1`, inv.ItemID); err != nil {
		return nil, fmt.Errorf("ошибка списания стока: %w", err)
	}

	// Покупка записывается только на покупателя, приглашённый Purchase не получает
	if _, err := tx.Exec(ctx,
		`INSERT INTO purchases (user_id, item_id) VALUES ($1, $2)`,
		inv.BuyerID, inv.ItemID); err != nil {
		return nil, fmt.Errorf("ошибка записи покупки: %w", err)
	}

	err = tx.QueryRow(ctx, `
		UPDATE shared_gift_invitations SET status = $2, accepted_at = NOW()
		WHERE id = $1 RETURNING accepted_at
	`, invID, InvitationAccepted).Scan(&inv.AcceptedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка перевода в accepted: %w", err)
	}
	inv.Status = InvitationAccepted

	res := &InvitationResult{Invitation: inv, ItemName: itemName}
	err = tx.QueryRow(ctx, `SELECT telegram_id FROM users WHERE id = $1`, inv.BuyerID).Scan(&res.BuyerTG)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения покупателя: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка коммита accept: %w", err)
	}
	return res, nil
}

// RejectInvitation — переход pending→rejected от лица приглашённого
// с полным возвратом покупателю.
func (r *Repository) RejectInvitation(ctx context.Context, invID, userID int64) (*InvitationResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	inv, itemName, err := lockInvitation(ctx, tx, invID)
	if err != nil {
		return nil, err
	}
	if inv.Status != InvitationPending {
		return nil, common.ErrInvitationTerminal
	}
	if inv.InvitedUserID != userID {
		return nil, common.ErrNotInvited
	}

	newBalance, buyerTG, err := refundBuyer(ctx, tx, inv)
	if err != nil {
		return nil, err
	}

	err = tx.QueryRow(ctx, `
		UPDATE shared_gift_invitations SET status = $2, rejected_at = NOW()
		WHERE id = $1 RETURNING rejected_at
	`, invID, InvitationRejected).Scan(&inv.RejectedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка перевода в rejected: %w", err)
	}
	inv.Status = InvitationRejected

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка коммита reject: %w", err)
	}
	return &InvitationResult{Invitation: inv, ItemName: itemName, BuyerTG: buyerTG, NewBalance: newBalance}, nil
}

// ExpireInvitations переводит все просроченные pending-приглашения в expired
// с возвратом покупателям. SKIP LOCKED позволяет запускать метлу параллельно
// с пользовательскими accept/reject: занятые строки пропускаются и
// добираются следующим запуском.
func (r *Repository) ExpireInvitations(ctx context.Context, now time.Time) ([]ExpiredRefund, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT inv.id, inv.buyer_id, inv.price, i.name
		FROM shared_gift_invitations inv
		JOIN market_items i ON i.id = inv.item_id
		WHERE inv.status = $1 AND inv.expires_at < $2
		FOR UPDATE OF inv SKIP LOCKED
	`, InvitationPending, now)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки просроченных приглашений: %w", err)
	}

	type pending struct {
		id, buyerID, price int64
		itemName           string
	}
	var expired []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.buyerID, &p.price, &p.itemName); err != nil {
			rows.Close()
			return nil, fmt.Errorf("ошибка сканирования приглашения: %w", err)
		}
		expired = append(expired, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var refunds []ExpiredRefund
	for _, p := range expired {
		var buyerTG *int64
		err := tx.QueryRow(ctx, `
			UPDATE users SET balance = balance + $2, updated_at = NOW()
			WHERE id = $1 RETURNING telegram_id
		`, p.buyerID, p.price).Scan(&buyerTG)
		if err != nil {
			return nil, fmt.Errorf("ошибка возврата по приглашению %d: %w", p.id, err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE shared_gift_invitations SET status = $2 WHERE id = $1`,
			p.id, InvitationExpired); err != nil {
			return nil, fmt.Errorf("ошибка перевода приглашения %d в expired: %w", p.id, err)
		}
		refunds = append(refunds, ExpiredRefund{
			InvitationID: p.id, BuyerTG: buyerTG, ItemName: p.itemName, Price: p.price,
		})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка коммита метлы: %w", err)
	}
	return refunds, nil
}

// CreateLocalGift создаёт заявку на локальную покупку: цена резервируется
// (reserved_balance += price), покупка записывается сразу, списание —
// только после одобрения администратором.
func (r *Repository) CreateLocalGift(ctx context.Context, userID, itemID int64, city, websiteURL string) (*LocalGiftResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var name string
	var price int64
	var isLocal, archived bool
	err = tx.QueryRow(ctx, `
		SELECT name, price, is_local_purchase, is_archived FROM market_items WHERE id = $1
	`, itemID).Scan(&name, &price, &isLocal, &archived)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения товара: %w", err)
	}
	if archived {
		return nil, common.ErrItemNotFound
	}
	if !isLocal {
		return nil, common.ErrWrongItemKind
	}

	balance, reserved, err := lockUserBalance(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if balance-reserved < price {
		return nil, common.ErrInsufficientFunds
	}

	res := &LocalGiftResult{ItemName: name}
	err = tx.QueryRow(ctx, `
		UPDATE users SET reserved_balance = reserved_balance + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING balance, reserved_balance, telegram_id, TRIM(first_name || ' ' || last_name)
	`, userID, price).Scan(&res.NewBalance, &res.ReservedBalance, &res.UserTG, &res.UserName)
	if err != nil {
		return nil, fmt.Errorf("ошибка резервирования: %w", err)
	}

	var purchaseID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO purchases (user_id, item_id) VALUES ($1, $2) RETURNING id
	`, userID, itemID).Scan(&purchaseID)
	if err != nil {
		return nil, fmt.Errorf("ошибка записи покупки: %w", err)
	}

	g := &LocalGift{
		UserID: userID, ItemID: itemID, PurchaseID: purchaseID,
		City: city, WebsiteURL: websiteURL, Status: LocalGiftPending, ReservedAmount: price,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO local_gifts (user_id, item_id, purchase_id, city, website_url, status, reserved_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, userID, itemID, purchaseID, city, websiteURL, LocalGiftPending, price).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания заявки: %w", err)
	}
	res.Gift = g

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка коммита заявки: %w", err)
	}
	return res, nil
}

// ProcessLocalGift — терминальный переход заявки администратором.
// Идемпотентен: повторная обработка нетерминальной заявки возвращает
// текущее состояние без изменений (AlreadyDone=true).
func (r *Repository) ProcessLocalGift(ctx context.Context, giftID int64, approve bool) (*LocalGiftResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var g LocalGift
	var itemName string
	err = tx.QueryRow(ctx, `
		SELECT g.id, g.user_id, g.item_id, g.purchase_id, g.city, g.website_url,
		       g.status, g.reserved_amount, g.created_at, i.name
		FROM local_gifts g
		JOIN market_items i ON i.id = g.item_id
		WHERE g.id = $1
		FOR UPDATE OF g
	`, giftID).Scan(&g.ID, &g.UserID, &g.ItemID, &g.PurchaseID, &g.City, &g.WebsiteURL,
		&g.Status, &g.ReservedAmount, &g.CreatedAt, &itemName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка блокировки заявки: %w", err)
	}

	res := &LocalGiftResult{Gift: &g, ItemName: itemName}

	if g.Status != LocalGiftPending {
		// Повторное нажатие кнопки — ничего не делаем
		res.AlreadyDone = true
		err = tx.QueryRow(ctx, `
			SELECT balance, reserved_balance, telegram_id, TRIM(first_name || ' ' || last_name)
			FROM users WHERE id = $1
		`, g.UserID).Scan(&res.NewBalance, &res.ReservedBalance, &res.UserTG, &res.UserName)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения пользователя: %w", err)
		}
		return res, nil
	}

	if approve {
		// Резерв снимается и баланс списывается
		err = tx.QueryRow(ctx, `
			UPDATE users SET
				balance = balance - $2,
				reserved_balance = reserved_balance - $2,
				updated_at = NOW()
			WHERE id = $1
			RETURNING balance, reserved_balance, telegram_id, TRIM(first_name || ' ' || last_name)
		`, g.UserID, g.ReservedAmount).Scan(&res.NewBalance, &res.ReservedBalance, &res.UserTG, &res.UserName)
		g.Status = LocalGiftApproved
	} else {
		// Резерв снимается, баланс не трогаем
		err = tx.QueryRow(ctx, `
			UPDATE users SET
				reserved_balance = reserved_balance - $2,
				updated_at = NOW()
			WHERE id = $1
			RETURNING balance, reserved_balance, telegram_id, TRIM(first_name || ' ' || last_name)
		`, g.UserID, g.ReservedAmount).Scan(&res.NewBalance, &res.ReservedBalance, &res.UserTG, &res.UserName)
		g.Status = LocalGiftRejected
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка обновления баланса: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE local_gifts SET status = $2 WHERE id = $1`, giftID, g.Status); err != nil {
		return nil, fmt.Errorf("ошибка обновления заявки: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка коммита заявки: %w", err)
	}
	return res, nil
}

// DebitForBonus списывает сумму под покупку внешних бонусов.
func (r *Repository) DebitForBonus(ctx context.Context, userID, amount int64) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	balance, reserved, err := lockUserBalance(ctx, tx, userID)
	if err != nil {
		return 0, err
	}
	if balance-reserved < amount {
		return 0, common.ErrInsufficientFunds
	}

	var newBalance int64
	err = tx.QueryRow(ctx, `
		UPDATE users SET balance = balance - $2, updated_at = NOW()
		WHERE id = $1 RETURNING balance
	`, userID, amount).Scan(&newBalance)
	if err != nil {
		return 0, fmt.Errorf("ошибка списания: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка коммита списания: %w", err)
	}
	return newBalance, nil
}

// RefundBonus — компенсация при отказе внешней бонусной системы.
func (r *Repository) RefundBonus(ctx context.Context, userID, amount int64) (int64, error) {
	var newBalance int64
	err := r.db.QueryRow(ctx, `
		UPDATE users SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1 RETURNING balance
	`, userID, amount).Scan(&newBalance)
	if err != nil {
		return 0, fmt.Errorf("ошибка возврата: %w", err)
	}
	return newBalance, nil
}
