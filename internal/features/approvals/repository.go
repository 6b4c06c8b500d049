// Package approvals — repository.go выполняет операции согласования в БД:
// статусы пользователей, учётные данные, заявки на изменение профиля.
package approvals

import (
	"context"
	"encoding/json"
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

// SetUserStatus меняет статус пользователя.
func (r *Repository) SetUserStatus(ctx context.Context, userID int64, status string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`, userID, status)
	if err != nil {
		return fmt.Errorf("ошибка смены статуса: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}
	return nil
}

// SetCredentials сохраняет сгенерированные учётные данные
// и включает вход через браузер.
func (r *Repository) SetCredentials(ctx context.Context, userID int64, login, passwordHash string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users SET
			login = COALESCE(login, $2),
			password_hash = COALESCE(password_hash, $3),
			browser_auth_enabled = TRUE,
			updated_at = NOW()
		WHERE id = $1
	`, userID, login, passwordHash)
	if err != nil {
		return fmt.Errorf("ошибка сохранения учётных данных: %w", err)
	}
	return nil
}

// LoginTaken проверяет занятость логина.
func (r *Repository) LoginTaken(ctx context.Context, login string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE login = $1)`, login).Scan(&exists)
	return exists, err
}

// CreatePendingUpdate сохраняет заявку на изменение профиля
// со снимками старых и новых значений.
func (r *Repository) CreatePendingUpdate(ctx context.Context, userID int64, oldData, newData ProfileFields) (*PendingUpdate, error) {
	oldJSON, err := json.Marshal(oldData)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации снимка: %w", err)
	}
	newJSON, err := json.Marshal(newData)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации снимка: %w", err)
	}

	p := &PendingUpdate{UserID: userID, OldData: oldData, NewData: newData, Status: UpdatePending}
	err = r.db.QueryRow(ctx, `
		INSERT INTO pending_updates (user_id, old_data, new_data, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, userID, oldJSON, newJSON, UpdatePending).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания заявки: %w", err)
	}
	return p, nil
}

// ProcessPendingUpdate — терминальный переход заявки на изменение профиля.
// На approve новые значения применяются к пользователю (дата рождения
// парсится из ISO-8601; при ошибке парсинга поле молча обнуляется),
// на reject пользователь не меняется. В обоих случаях заявка удаляется.
// Возвращает nil, если заявка уже обработана (удалена).
func (r *Repository) ProcessPendingUpdate(ctx context.Context, updateID int64, approve bool) (*PendingUpdate, *int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var p PendingUpdate
	var oldJSON, newJSON []byte
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, old_data, new_data, status, created_at
		FROM pending_updates WHERE id = $1
		FOR UPDATE
	`, updateID).Scan(&p.ID, &p.UserID, &oldJSON, &newJSON, &p.Status, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка блокировки заявки: %w", err)
	}
	if err := json.Unmarshal(oldJSON, &p.OldData); err != nil {
		return nil, nil, fmt.Errorf("ошибка чтения снимка: %w", err)
	}
	if err := json.Unmarshal(newJSON, &p.NewData); err != nil {
		return nil, nil, fmt.Errorf("ошибка чтения снимка: %w", err)
	}

	if approve {
		n := p.NewData
		var dob *time.Time
		if n.DateOfBirth != nil {
			if parsed, err := time.Parse("2006-01-02", *n.DateOfBirth); err == nil {
				dob = &parsed
			}
		}
		_, err = tx.Exec(ctx, `
			UPDATE users SET
				first_name = COALESCE($2, first_name),
				last_name = COALESCE($3, last_name),
				position = COALESCE($4, position),
				department = COALESCE($5, department),
				phone = COALESCE($6, phone),
				email = COALESCE(LOWER($7), email),
				date_of_birth = CASE WHEN $8::text IS NOT NULL THEN $9::date ELSE date_of_birth END,
				updated_at = NOW()
			WHERE id = $1
		`, p.UserID, n.FirstName, n.LastName, n.Position, n.Department, n.Phone, n.Email,
			n.DateOfBirth, dob)
		if err != nil {
			return nil, nil, fmt.Errorf("ошибка применения изменений: %w", err)
		}
		p.Status = UpdateApproved
	} else {
		p.Status = UpdateRejected
	}

	var userTG *int64
	err = tx.QueryRow(ctx, `SELECT telegram_id FROM users WHERE id = $1`, p.UserID).Scan(&userTG)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, fmt.Errorf("ошибка чтения пользователя: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM pending_updates WHERE id = $1`, updateID); err != nil {
		return nil, nil, fmt.Errorf("ошибка удаления заявки: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("ошибка коммита заявки: %w", err)
	}
	return &p, userTG, nil
}
