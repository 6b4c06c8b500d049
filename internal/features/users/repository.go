// Package users — repository.go отвечает за все операции с таблицей users в БД.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"thanks-bot/internal/common"
)

const userColumns = `id, telegram_id, login, password_hash, browser_auth_enabled, status, is_admin,
	first_name, last_name, position, department, phone, date_of_birth, photo_url, email,
	balance, reserved_balance, ticket_fragments, tickets, daily_transfer_count, last_login,
	onboarding_seen, bot_started, card_barcode, card_balance, created_at, updated_at`

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.TelegramID, &u.Login, &u.PasswordHash, &u.BrowserAuthEnabled, &u.Status, &u.IsAdmin,
		&u.FirstName, &u.LastName, &u.Position, &u.Department, &u.Phone, &u.DateOfBirth, &u.PhotoURL, &u.Email,
		&u.Balance, &u.ReservedBalance, &u.TicketFragments, &u.Tickets, &u.DailyTransferCount, &u.LastLogin,
		&u.OnboardingSeen, &u.BotStarted, &u.CardBarcode, &u.CardBalance, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка чтения пользователя: %w", err)
	}
	return &u, nil
}

// Create добавляет нового пользователя со статусом pending.
func (r *Repository) Create(ctx context.Context, n *NewUser, passwordHash *string) (*User, error) {
	query := `
		INSERT INTO users (telegram_id, login, password_hash, status,
			first_name, last_name, position, department, phone, date_of_birth, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, LOWER($11))
		RETURNING ` + userColumns
	u, err := scanUser(r.db.QueryRow(ctx, query,
		n.TelegramID, n.Login, passwordHash, StatusPending,
		n.FirstName, n.LastName, n.Position, n.Department, n.Phone, n.DateOfBirth, n.Email,
	))
	if err != nil {
		if strings.Contains(err.Error(), "users_login_key") {
			return nil, common.ErrLoginTaken
		}
		if strings.Contains(err.Error(), "users_email_key") {
			return nil, common.ErrEmailTaken
		}
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return u, nil
}

// GetByID возвращает пользователя по внутреннему id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByTelegramID возвращает пользователя по Telegram user id.
func (r *Repository) GetByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID))
}

// GetByLoginOrEmail ищет пользователя по логину или email
// (email сравнивается без учёта регистра).
func (r *Repository) GetByLoginOrEmail(ctx context.Context, loginOrEmail string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE login = $1 OR email = LOWER($1)`, loginOrEmail))
}

// UpdateLastLogin отмечает момент последней активности.
func (r *Repository) UpdateLastLogin(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET last_login = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка обновления last_login: %w", err)
	}
	return nil
}

// UpdateSelf применяет прямые правки профиля (фото, телефон).
// Остальные поля меняются только через согласование.
func (r *Repository) UpdateSelf(ctx context.Context, id int64, upd *ProfileUpdate) (*User, error) {
	query := `
		UPDATE users SET
			photo_url = COALESCE($2, photo_url),
			phone = COALESCE($3, phone),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, query, id, upd.PhotoURL, upd.Phone))
}

// SetOnboardingSeen отмечает прохождение онбординга.
func (r *Repository) SetOnboardingSeen(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET onboarding_seen = TRUE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

// SetBotStarted отмечает первое взаимодействие с ботом.
// Возвращает true, если это было первое /start этого пользователя.
func (r *Repository) SetBotStarted(ctx context.Context, telegramID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET bot_started = TRUE, updated_at = NOW()
		WHERE telegram_id = $1 AND NOT bot_started
	`, telegramID)
	if err != nil {
		return false, fmt.Errorf("ошибка отметки /start: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SaveCard сохраняет штрихкод и баланс карты из .pkpass
// и синхронизирует имя/фамилию владельца.
func (r *Repository) SaveCard(ctx context.Context, telegramID int64, barcode, balance, first, last string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET
			card_barcode = $2,
			card_balance = $3,
			first_name = CASE WHEN $4 <> '' THEN $4 ELSE first_name END,
			last_name  = CASE WHEN $5 <> '' THEN $5 ELSE last_name END,
			updated_at = NOW()
		WHERE telegram_id = $1
	`, telegramID, barcode, balance, first, last)
	if err != nil {
		return fmt.Errorf("ошибка сохранения карты: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}
	return nil
}

// Search ищет пользователей по подстроке в имени, фамилии, логине или телефоне.
// Удалённые и отклонённые не показываются. Максимум 20 результатов.
func (r *Repository) Search(ctx context.Context, query string) ([]*User, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE status NOT IN ($2, $3)
		  AND (LOWER(first_name) LIKE $1 OR LOWER(last_name) LIKE $1
		       OR LOWER(COALESCE(login, '')) LIKE $1 OR LOWER(phone) LIKE $1)
		ORDER BY last_name, first_name
		LIMIT 20
	`, pattern, StatusDeleted, StatusRejected)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска пользователей: %w", err)
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// LinkTelegram привязывает Telegram-аккаунт к веб-пользователю по email.
// Правила:
//   - telegram_id не должен быть привязан ни к кому;
//   - у пользователя с таким email не должно быть другой действующей привязки.
func (r *Repository) LinkTelegram(ctx context.Context, email string, telegramID int64) (*User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE telegram_id = $1)`, telegramID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки привязки: %w", err)
	}
	if exists {
		return nil, common.ErrAccountAlreadyLinked
	}

	u, err := scanUser(tx.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = LOWER($1) FOR UPDATE`, email))
	if err != nil {
		return nil, err
	}
	if u.TelegramID != nil && *u.TelegramID >= 0 {
		return nil, common.ErrAccountAlreadyLinked
	}

	u, err = scanUser(tx.QueryRow(ctx, `
		UPDATE users SET telegram_id = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns, u.ID, telegramID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка коммита: %w", err)
	}
	return u, nil
}

// Anonymize стирает персональные данные, сохраняя историю операций.
// Telegram id заменяется свежим отрицательным сентинелом (-id уникален,
// потому что id уникален), чтобы ссылочная целостность не пострадала.
func (r *Repository) Anonymize(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET
			status = $2,
			telegram_id = -id,
			login = NULL,
			password_hash = NULL,
			browser_auth_enabled = FALSE,
			first_name = 'Удалённый',
			last_name = 'пользователь',
			position = '', department = '', phone = '', photo_url = '',
			email = 'deleted-' || id || '@local',
			date_of_birth = NULL,
			card_barcode = '', card_balance = '',
			updated_at = NOW()
		WHERE id = $1 AND status <> $2
	`, id, StatusDeleted)
	if err != nil {
		return fmt.Errorf("ошибка анонимизации: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}
	return nil
}

// CreditBirthdays начисляет бонус всем именинникам дня и возвращает их
// для поздравительных сообщений. Идемпотентность обеспечивается
// отметкой birthday_credited_at.
func (r *Repository) CreditBirthdays(ctx context.Context, bonus int64) ([]BirthdayUser, error) {
	rows, err := r.db.Query(ctx, `
		UPDATE users SET
			balance = balance + $1,
			birthday_credited_at = NOW(),
			updated_at = NOW()
		WHERE status = $2
		  AND date_of_birth IS NOT NULL
		  AND EXTRACT(MONTH FROM date_of_birth) = EXTRACT(MONTH FROM NOW())
		  AND EXTRACT(DAY FROM date_of_birth) = EXTRACT(DAY FROM NOW())
		  AND (birthday_credited_at IS NULL OR birthday_credited_at::date < NOW()::date)
		RETURNING id, telegram_id, first_name, balance
	`, bonus, StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("ошибка начисления именинникам: %w", err)
	}
	defer rows.Close()

	var out []BirthdayUser
	for rows.Next() {
		var b BirthdayUser
		if err := rows.Scan(&b.ID, &b.TelegramID, &b.FirstName, &b.NewBalance); err != nil {
			return nil, fmt.Errorf("ошибка сканирования именинника: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// StartSession создаёт веб-сессию.
func (r *Repository) StartSession(ctx context.Context, userID int64) (*Session, error) {
	var s Session
	err := r.db.QueryRow(ctx, `
		INSERT INTO user_sessions (user_id, session_start, last_seen)
		VALUES ($1, NOW(), NOW())
		RETURNING id, user_id, session_start, last_seen
	`, userID).Scan(&s.ID, &s.UserID, &s.SessionStart, &s.LastSeen)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания сессии: %w", err)
	}
	return &s, nil
}

// PingSession обновляет last_seen. Возвращает nil, nil если сессии нет.
func (r *Repository) PingSession(ctx context.Context, id int64) (*Session, error) {
	var s Session
	err := r.db.QueryRow(ctx, `
		UPDATE user_sessions SET last_seen = NOW()
		WHERE id = $1
		RETURNING id, user_id, session_start, last_seen
	`, id).Scan(&s.ID, &s.UserID, &s.SessionStart, &s.LastSeen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка обновления сессии: %w", err)
	}
	return &s, nil
}
