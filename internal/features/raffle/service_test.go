package raffle

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thanks-bot/internal/common"
)

type fakeRepo struct {
	spinPrizes []int64 // призы, переданные в Spin
	spinErr    error
}

func (f *fakeRepo) AssembleTickets(_ context.Context, _ int64) (*AssembleResult, error) {
	return &AssembleResult{Tickets: 2, Fragments: 1}, nil
}

func (f *fakeRepo) Spin(_ context.Context, _, prize int64) (*SpinResult, error) {
	if f.spinErr != nil {
		return nil, f.spinErr
	}
	f.spinPrizes = append(f.spinPrizes, prize)
	return &SpinResult{Prize: prize, TicketsLeft: 0, NewBalance: 10 + prize}, nil
}

func (f *fakeRepo) History(_ context.Context, _ int64, limit int) ([]*Win, error) {
	wins := make([]*Win, limit)
	return wins, nil
}

func (f *fakeRepo) ResetStaleFragments(_ context.Context, _ time.Time) (int64, error) { return 0, nil }

func (f *fakeRepo) ResetStaleTickets(_ context.Context, _ time.Time) (int64, error) { return 0, nil }

func TestSpin_PrizeFromTable(t *testing.T) {
	allowed := map[int64]bool{}
	for _, tier := range prizeTiers {
		for _, p := range tier.prizes {
			allowed[p] = true
		}
	}

	repo := &fakeRepo{}
	svc := &Service{repo: repo, rnd: rand.New(rand.NewSource(7))}

	for i := 0; i < 100; i++ {
		res, err := svc.Spin(context.Background(), 5)
		require.NoError(t, err)
		assert.True(t, allowed[res.Prize], "приз %d вне таблицы", res.Prize)
	}
	assert.Len(t, repo.spinPrizes, 100)
}

func TestSpin_NoTickets(t *testing.T) {
	svc := &Service{repo: &fakeRepo{spinErr: common.ErrNoTickets}, rnd: rand.New(rand.NewSource(1))}

	_, err := svc.Spin(context.Background(), 5)
	assert.ErrorIs(t, err, common.ErrNoTickets)
}

func TestHistory_UsesDefaultLimit(t *testing.T) {
	svc := &Service{repo: &fakeRepo{}, rnd: rand.New(rand.NewSource(1))}

	wins, err := svc.History(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, wins, defaultHistoryLimit)
}
