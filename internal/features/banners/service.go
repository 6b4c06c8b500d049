// Package banners — service.go: сценарии баннеров, включая месячную
// пересборку баннеров лидерборда.
package banners

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"thanks-bot/internal/features/ledger"
)

// repository — операции с хранилищем, нужные сервису.
type repository interface {
	ListActive(ctx context.Context) ([]*Banner, error)
	Create(ctx context.Context, nb NewBanner) (*Banner, error)
	Deactivate(ctx context.Context, id int64) error
	ReplaceLeaderboardBanners(ctx context.Context, fresh []*Banner) error
}

// leaderboardSource — топ прошлого месяца из фичи переводов.
type leaderboardSource interface {
	TopForBanner(ctx context.Context, role ledger.Role) ([]ledger.LeaderboardEntry, error)
}

type Service struct {
	repo   repository
	ledger leaderboardSource
}

func NewService(repo *Repository, ledgerSvc leaderboardSource) *Service {
	return &Service{repo: repo, ledger: ledgerSvc}
}

// ListActive возвращает баннеры главного экрана.
func (s *Service) ListActive(ctx context.Context) ([]*Banner, error) {
	return s.repo.ListActive(ctx)
}

// Create создаёт ручной баннер.
func (s *Service) Create(ctx context.Context, nb NewBanner) (*Banner, error) {
	return s.repo.Create(ctx, nb)
}

// Deactivate скрывает баннер.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.Deactivate(ctx, id)
}

// RebuildMonthly пересобирает оба баннера лидерборда по итогам прошлого
// месяца: топ получателей и топ отправителей (ежемесячная задача
// планировщика). Замена в хранилище атомарна для обоих типов.
func (s *Service) RebuildMonthly(ctx context.Context) error {
	variants := []struct {
		role  ledger.Role
		kind  string
		title string
		body  string
	}{
		{ledger.RoleReceived, KindLeaderboardReceivers,
			"Герой месяца #%d", "%s — %d спасибо за прошлый месяц"},
		{ledger.RoleSent, KindLeaderboardSenders,
			"Щедрость месяца #%d", "%s — поблагодарил(а) %d раз за прошлый месяц"},
	}

	var fresh []*Banner
	for _, v := range variants {
		top, err := s.ledger.TopForBanner(ctx, v.role)
		if err != nil {
			return err
		}
		for i, entry := range top {
			fresh = append(fresh, &Banner{
				Kind:     v.kind,
				Title:    fmt.Sprintf(v.title, i+1),
				Body:     fmt.Sprintf(v.body, entry.Name, entry.Total),
				ImageURL: entry.PhotoURL,
				Position: i,
			})
		}
	}

	if err := s.repo.ReplaceLeaderboardBanners(ctx, fresh); err != nil {
		return err
	}

	log.WithField("count", len(fresh)).Info("Баннеры лидерборда пересобраны")
	return nil
}
