// Package raffle — service.go: сценарии рулетки поверх репозитория.
package raffle

import (
	"context"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const defaultHistoryLimit = 20

// repository — операции с хранилищем, нужные сервису.
type repository interface {
	AssembleTickets(ctx context.Context, userID int64) (*AssembleResult, error)
	Spin(ctx context.Context, userID, prize int64) (*SpinResult, error)
	History(ctx context.Context, userID int64, limit int) ([]*Win, error)
	ResetStaleFragments(ctx context.Context, now time.Time) (int64, error)
	ResetStaleTickets(ctx context.Context, now time.Time) (int64, error)
}

type Service struct {
	repo repository

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewService(repo *Repository) *Service {
	return &Service{
		repo: repo,
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// AssembleTickets собирает билеты из накопленных фрагментов.
func (s *Service) AssembleTickets(ctx context.Context, userID int64) (*AssembleResult, error) {
	return s.repo.AssembleTickets(ctx, userID)
}

// Spin разыгрывает приз за один билет.
func (s *Service) Spin(ctx context.Context, userID int64) (*SpinResult, error) {
	s.mu.Lock()
	prize := pickPrize(s.rnd)
	s.mu.Unlock()

	res, err := s.repo.Spin(ctx, userID, prize)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"prize":   res.Prize,
	}).Info("Рулетка прокручена")
	return res, nil
}

// History возвращает последние выигрыши пользователя.
func (s *Service) History(ctx context.Context, userID int64) ([]*Win, error) {
	return s.repo.History(ctx, userID, defaultHistoryLimit)
}

// ResetStaleFragments — квартальный сброс фрагментов (задача планировщика).
func (s *Service) ResetStaleFragments(ctx context.Context) (int64, error) {
	return s.repo.ResetStaleFragments(ctx, time.Now())
}

// ResetStaleTickets — сброс билетов раз в четыре месяца (задача планировщика).
func (s *Service) ResetStaleTickets(ctx context.Context) (int64, error) {
	return s.repo.ResetStaleTickets(ctx, time.Now())
}
