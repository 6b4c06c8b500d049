// Package banners — repository.go выполняет операции с таблицей banners.
package banners

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"thanks-bot/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListActive возвращает активные баннеры в порядке позиций.
func (r *Repository) ListActive(ctx context.Context) ([]*Banner, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, kind, title, body, image_url, link_url, position, active, created_at
		FROM banners
		WHERE active
		ORDER BY position, id
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения баннеров: %w", err)
	}
	defer rows.Close()

	var list []*Banner
	for rows.Next() {
		var b Banner
		if err := rows.Scan(&b.ID, &b.Kind, &b.Title, &b.Body, &b.ImageURL,
			&b.LinkURL, &b.Position, &b.Active, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения баннера: %w", err)
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}

// Create создаёт ручной баннер.
func (r *Repository) Create(ctx context.Context, nb NewBanner) (*Banner, error) {
	b := &Banner{
		Kind:     KindManual,
		Title:    nb.Title,
		Body:     nb.Body,
		ImageURL: nb.ImageURL,
		LinkURL:  nb.LinkURL,
		Position: nb.Position,
		Active:   true,
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO banners (kind, title, body, image_url, link_url, position, active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING id, created_at
	`, b.Kind, b.Title, b.Body, b.ImageURL, b.LinkURL, b.Position).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания баннера: %w", err)
	}
	return b, nil
}

// Deactivate скрывает баннер.
func (r *Repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE banners SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка деактивации баннера: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrItemNotFound
	}
	return nil
}

// ReplaceLeaderboardBanners атомарно заменяет баннеры лидерборда:
// старые баннеры обоих типов удаляются и новые вставляются
// в одной транзакции. Тип каждого баннера берётся из b.Kind.
func (r *Repository) ReplaceLeaderboardBanners(ctx context.Context, fresh []*Banner) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM banners WHERE kind = ANY($1)`,
		[]string{KindLeaderboardReceivers, KindLeaderboardSenders}); err != nil {
		return fmt.Errorf("ошибка удаления старых баннеров: %w", err)
	}

	for _, b := range fresh {
		if _, err := tx.Exec(ctx, `
			INSERT INTO banners (kind, title, body, image_url, link_url, position, active)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		`, b.Kind, b.Title, b.Body, b.ImageURL, b.LinkURL, b.Position); err != nil {
			return fmt.Errorf("ошибка вставки баннера: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка коммита баннеров: %w", err)
	}
	return nil
}
