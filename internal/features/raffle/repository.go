// Package raffle — repository.go выполняет операции рулетки в БД.
// Сборка билетов и розыгрыш атомарны на уровне строки пользователя.
package raffle

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

// AssembleTickets собирает билеты из фрагментов одним UPDATE:
// деление нацело даёт билеты, остаток остаётся фрагментами.
func (r *Repository) AssembleTickets(ctx context.Context, userID int64) (*AssembleResult, error) {
	var res AssembleResult
	err := r.db.QueryRow(ctx, `
		UPDATE users SET
			tickets = tickets + ticket_fragments / $2,
			ticket_fragments = ticket_fragments % $2,
			updated_at = NOW()
		WHERE id = $1 AND ticket_fragments >= $2
		RETURNING tickets, ticket_fragments
	`, userID, FragmentsPerTicket).Scan(&res.Tickets, &res.Fragments)
	if errors.Is(err, pgx.ErrNoRows) {
		// Либо пользователя нет, либо фрагментов меньше, чем нужно
		var exists bool
		if checkErr := r.db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); checkErr != nil {
			return nil, fmt.Errorf("ошибка проверки пользователя: %w", checkErr)
		}
		if !exists {
			return nil, common.ErrUserNotFound
		}
		return nil, common.ErrNotEnoughFragments
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки билетов: %w", err)
	}
	return &res, nil
}

// Spin списывает билет, начисляет приз на баланс и записывает выигрыш.
func (r *Repository) Spin(ctx context.Context, userID, prize int64) (*SpinResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var tickets, balance int64
	err = tx.QueryRow(ctx,
		`SELECT tickets, balance FROM users WHERE id = $1 FOR UPDATE`, userID).
		Scan(&tickets, &balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка блокировки пользователя: %w", err)
	}
	if tickets < 1 {
		return nil, common.ErrNoTickets
	}

	var res SpinResult
	res.Prize = prize
	err = tx.QueryRow(ctx, `
		UPDATE users SET
			tickets = tickets - 1,
			balance = balance + $2,
			updated_at = NOW()
		WHERE id = $1
		RETURNING tickets, balance
	`, userID, prize).Scan(&res.TicketsLeft, &res.NewBalance)
	if err != nil {
		return nil, fmt.Errorf("ошибка списания билета: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO roulette_wins (user_id, amount) VALUES ($1, $2)`,
		userID, prize); err != nil {
		return nil, fmt.Errorf("ошибка записи выигрыша: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка коммита розыгрыша: %w", err)
	}
	return &res, nil
}

// History возвращает последние выигрыши пользователя.
func (r *Repository) History(ctx context.Context, userID int64, limit int) ([]*Win, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, amount, created_at
		FROM roulette_wins
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения истории выигрышей: %w", err)
	}
	defer rows.Close()

	wins := make([]*Win, 0, limit)
	for rows.Next() {
		var w Win
		if err := rows.Scan(&w.ID, &w.UserID, &w.Amount, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения выигрыша: %w", err)
		}
		wins = append(wins, &w)
	}
	return wins, rows.Err()
}

// ResetStaleFragments обнуляет фрагменты, не обновлявшиеся дольше квартала.
func (r *Repository) ResetStaleFragments(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET
			ticket_fragments = 0,
			fragments_reset_at = $1,
			updated_at = NOW()
		WHERE ticket_fragments > 0
		  AND COALESCE(fragments_reset_at, created_at) <= $1 - INTERVAL '3 months'
	`, now)
	if err != nil {
		return 0, fmt.Errorf("ошибка сброса фрагментов: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ResetStaleTickets обнуляет билеты, не обновлявшиеся дольше четырёх месяцев.
func (r *Repository) ResetStaleTickets(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET
			tickets = 0,
			tickets_reset_at = $1,
			updated_at = NOW()
		WHERE tickets > 0
		  AND COALESCE(tickets_reset_at, created_at) <= $1 - INTERVAL '4 months'
	`, now)
	if err != nil {
		return 0, fmt.Errorf("ошибка сброса билетов: %w", err)
	}
	return tag.RowsAffected(), nil
}
