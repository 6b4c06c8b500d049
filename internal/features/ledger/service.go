// Package ledger — service.go содержит бизнес-логику переводов.
// Валидация, вызов атомарного перевода, уведомление получателя.
package ledger

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"thanks-bot/internal/common"
)

// repository — операции с хранилищем, нужные сервису.
// Конкретная реализация — *Repository, в тестах подменяется фейком.
type repository interface {
	Transfer(ctx context.Context, senderID, receiverID int64, message string, dailyLimit int) (*TransferResult, error)
	Feed(ctx context.Context, limit int) ([]FeedItem, error)
	Leaderboard(ctx context.Context, from, to time.Time, role Role, limit int) ([]LeaderboardEntry, error)
	UserRank(ctx context.Context, userID int64, from, to time.Time, role Role) (*RankInfo, error)
	ResetDailyLimits(ctx context.Context) (int64, error)
}

// Notifier — уведомления получателю перевода.
type Notifier interface {
	TransferReceived(telegramID int64, senderName, message string, newBalance int64)
}

type Service struct {
	repo       repository
	notifier   Notifier
	dailyLimit int
}

func NewService(repo *Repository, notifier Notifier, dailyLimit int) *Service {
	return &Service{repo: repo, notifier: notifier, dailyLimit: dailyLimit}
}

// Transfer переводит 1 спасибо от отправителя к получателю.
// Выполняет все необходимые проверки:
//   - нельзя переводить себе;
//   - не больше лимита переводов в день (счётчик сбрасывается при смене даты).
func (s *Service) Transfer(ctx context.Context, senderID, receiverID int64, message string) (*TransferResult, error) {
	if senderID == receiverID {
		return nil, common.ErrSelfTransfer
	}

	res, err := s.repo.Transfer(ctx, senderID, receiverID, message, s.dailyLimit)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"from": senderID,
		"to":   receiverID,
	}).Info("Перевод выполнен")

	// Уведомление после коммита; сбой доставки перевод не откатывает
	if res.ReceiverTelegramID != nil && *res.ReceiverTelegramID > 0 {
		s.notifier.TransferReceived(*res.ReceiverTelegramID, res.SenderName, message, res.ReceiverBalance)
	}

	return res, nil
}

// Feed возвращает последние 50 переводов.
func (s *Service) Feed(ctx context.Context) ([]FeedItem, error) {
	return s.repo.Feed(ctx, 50)
}

// Leaderboard возвращает топ-100 за период.
func (s *Service) Leaderboard(ctx context.Context, period common.Period, role Role) ([]LeaderboardEntry, error) {
	from, to := common.MonthWindow(period, time.Now())
	return s.repo.Leaderboard(ctx, from, to, role, 100)
}

// TopForBanner возвращает топ-3 прошлого месяца для баннеров лидерборда.
func (s *Service) TopForBanner(ctx context.Context, role Role) ([]LeaderboardEntry, error) {
	from, to := common.MonthWindow(common.PeriodLastMonth, time.Now())
	return s.repo.Leaderboard(ctx, from, to, role, 3)
}

// UserRank возвращает позицию пользователя за период.
func (s *Service) UserRank(ctx context.Context, userID int64, period common.Period, role Role) (*RankInfo, error) {
	from, to := common.MonthWindow(period, time.Now())
	return s.repo.UserRank(ctx, userID, from, to, role)
}

// ResetDailyLimits — массовый сброс счётчиков (ежедневная задача).
func (s *Service) ResetDailyLimits(ctx context.Context) (int64, error) {
	return s.repo.ResetDailyLimits(ctx)
}
