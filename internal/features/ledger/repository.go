// Package ledger — repository.go выполняет все операции с таблицей transactions
// и денежными полями users. Перевод выполняется в одной транзакции БД
// с блокировкой строк.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

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

// Transfer атомарно выполняет перевод 1 спасибо.
// Внутри одной транзакции БД:
//   - строки отправителя и получателя блокируются в порядке возрастания id,
//     чтобы встречные переводы не взаимоблокировались;
//   - если last_transfer_at отправителя был до текущей даты (UTC), дневной
//     счётчик обнуляется до проверки лимита;
//   - получателю +1 к балансу, отправителю +1 фрагмент и +1 к счётчику,
//     last_transfer_at = now; добавляется запись в transactions.
func (r *Repository) Transfer(ctx context.Context, senderID, receiverID int64, message string, dailyLimit int) (*TransferResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// Блокируем обе строки в порядке возрастания id
	first, second := senderID, receiverID
	if receiverID < senderID {
		first, second = receiverID, senderID
	}
	for _, id := range []int64{first, second} {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			if id == senderID {
				return nil, common.ErrSenderNotFound
			}
			return nil, common.ErrReceiverNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("ошибка блокировки пользователя %d: %w", id, err)
		}
	}

	// Сброс дневного счётчика при смене даты — обязателен и на пути чтения,
	// потому что пользователь может перевести до ближайшего тика планировщика
	_, err = tx.Exec(ctx, `
		UPDATE users SET daily_transfer_count = 0
		WHERE id = $1 AND (last_transfer_at IS NULL OR (last_transfer_at AT TIME ZONE 'UTC')::date < (NOW() AT TIME ZONE 'UTC')::date)
	`, senderID)
	if err != nil {
		return nil, fmt.Errorf("ошибка сброса дневного счётчика: %w", err)
	}

	var dailyCount int
	var senderName string
	err = tx.QueryRow(ctx,
		`SELECT daily_transfer_count, TRIM(first_name || ' ' || last_name) FROM users WHERE id = $1`,
		senderID,
	).Scan(&dailyCount, &senderName)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения отправителя: %w", err)
	}
	if dailyCount >= dailyLimit {
		return nil, common.ErrDailyLimitExceeded
	}

	res := &TransferResult{SenderName: senderName}

	err = tx.QueryRow(ctx, `
		UPDATE users SET
			ticket_fragments = ticket_fragments + 1,
			daily_transfer_count = daily_transfer_count + 1,
			last_transfer_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ticket_fragments, daily_transfer_count
	`, senderID).Scan(&res.SenderFragments, &res.SenderDailyCount)
	if err != nil {
		return nil, fmt.Errorf("ошибка обновления отправителя: %w", err)
	}

	err = tx.QueryRow(ctx, `
		UPDATE users SET balance = balance + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING balance, telegram_id, TRIM(first_name || ' ' || last_name)
	`, receiverID).Scan(&res.ReceiverBalance, &res.ReceiverTelegramID, &res.ReceiverName)
	if err != nil {
		return nil, fmt.Errorf("ошибка обновления получателя: %w", err)
	}

	t := &Transaction{SenderID: senderID, ReceiverID: receiverID, Amount: 1, Message: message}
	err = tx.QueryRow(ctx, `
		INSERT INTO transactions (sender_id, receiver_id, amount, message)
		VALUES ($1, $2, 1, $3)
		RETURNING id, created_at
	`, senderID, receiverID, message).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка записи транзакции: %w", err)
	}
	res.Transaction = t

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка коммита перевода: %w", err)
	}
	return res, nil
}

// Feed возвращает последние переводы для общей ленты.
func (r *Repository) Feed(ctx context.Context, limit int) ([]FeedItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT t.id, t.sender_id, TRIM(s.first_name || ' ' || s.last_name),
		       t.receiver_id, TRIM(rc.first_name || ' ' || rc.last_name),
		       t.amount, t.message, t.created_at
		FROM transactions t
		JOIN users s ON s.id = t.sender_id
		JOIN users rc ON rc.id = t.receiver_id
		ORDER BY t.created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ленты: %w", err)
	}
	defer rows.Close()

	var out []FeedItem
	for rows.Next() {
		var f FeedItem
		if err := rows.Scan(&f.ID, &f.SenderID, &f.SenderName, &f.ReceiverID, &f.ReceiverName,
			&f.Amount, &f.Message, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования ленты: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// leaderboardJoin выбирает колонку группировки по роли.
func leaderboardJoin(role Role) string {
	if role == RoleSent {
		return "t.sender_id"
	}
	return "t.receiver_id"
}

// Leaderboard возвращает топ пользователей за окно [from, to].
// Анонимизированные пользователи исключаются; ничьи упорядочены по id.
func (r *Repository) Leaderboard(ctx context.Context, from, to time.Time, role Role, limit int) ([]LeaderboardEntry, error) {
	query := fmt.Sprintf(`
		SELECT u.id, TRIM(u.first_name || ' ' || u.last_name), u.photo_url, SUM(t.amount) AS total
		FROM transactions t
		JOIN users u ON u.id = %s
		WHERE t.created_at BETWEEN $1 AND $2
		  AND u.status <> 'deleted'
		GROUP BY u.id, u.first_name, u.last_name, u.photo_url
		ORDER BY total DESC, u.id
		LIMIT $3
	`, leaderboardJoin(role))

	rows, err := r.db.Query(ctx, query, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка построения лидерборда: %w", err)
	}
	defer rows.Close()

	var out []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Name, &e.PhotoURL, &e.Total); err != nil {
			return nil, fmt.Errorf("ошибка сканирования лидерборда: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UserRank возвращает позицию пользователя (dense rank), его сумму
// и число участников за окно. Rank = nil при отсутствии активности.
func (r *Repository) UserRank(ctx context.Context, userID int64, from, to time.Time, role Role) (*RankInfo, error) {
	query := fmt.Sprintf(`
		WITH totals AS (
			SELECT u.id AS user_id, SUM(t.amount) AS total
			FROM transactions t
			JOIN users u ON u.id = %s
			WHERE t.created_at BETWEEN $1 AND $2
			  AND u.status <> 'deleted'
			GROUP BY u.id
		),
		ranked AS (
			SELECT user_id, total,
			       DENSE_RANK() OVER (ORDER BY total DESC) AS rnk
			FROM totals
		)
		SELECT
			(SELECT rnk FROM ranked WHERE user_id = $3),
			COALESCE((SELECT total FROM ranked WHERE user_id = $3), 0),
			(SELECT COUNT(*) FROM totals)
	`, leaderboardJoin(role))

	var info RankInfo
	err := r.db.QueryRow(ctx, query, from, to, userID).Scan(&info.Rank, &info.Total, &info.Participants)
	if err != nil {
		return nil, fmt.Errorf("ошибка вычисления ранга: %w", err)
	}
	return &info, nil
}

// ResetDailyLimits массово обнуляет дневные счётчики переводов.
// Повторный запуск ничего не меняет.
func (r *Repository) ResetDailyLimits(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET daily_transfer_count = 0 WHERE daily_transfer_count <> 0`)
	if err != nil {
		return 0, fmt.Errorf("ошибка сброса дневных лимитов: %w", err)
	}
	return tag.RowsAffected(), nil
}
