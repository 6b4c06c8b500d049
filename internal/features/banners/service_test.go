package banners

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thanks-bot/internal/features/ledger"
)

type fakeRepo struct {
	replaced []*Banner
}

func (f *fakeRepo) ListActive(_ context.Context) ([]*Banner, error) { return nil, nil }

func (f *fakeRepo) Create(_ context.Context, _ NewBanner) (*Banner, error) { return nil, nil }

func (f *fakeRepo) Deactivate(_ context.Context, _ int64) error { return nil }

func (f *fakeRepo) ReplaceLeaderboardBanners(_ context.Context, fresh []*Banner) error {
	f.replaced = fresh
	return nil
}

type fakeLeaderboard struct {
	tops  map[ledger.Role][]ledger.LeaderboardEntry
	roles []ledger.Role
}

func (f *fakeLeaderboard) TopForBanner(_ context.Context, role ledger.Role) ([]ledger.LeaderboardEntry, error) {
	f.roles = append(f.roles, role)
	return f.tops[role], nil
}

func TestRebuildMonthly_BuildsBothLeaderboards(t *testing.T) {
	repo := &fakeRepo{}
	lb := &fakeLeaderboard{tops: map[ledger.Role][]ledger.LeaderboardEntry{
		ledger.RoleReceived: {
			{UserID: 7, Name: "Иван Петров", Total: 42, PhotoURL: "https://cdn/7.jpg"},
			{UserID: 8, Name: "Анна Ли", Total: 30},
		},
		ledger.RoleSent: {
			{UserID: 9, Name: "Олег Сидоров", Total: 55},
		},
	}}
	svc := &Service{repo: repo, ledger: lb}

	require.NoError(t, svc.RebuildMonthly(context.Background()))

	// Запрошены оба топа
	assert.Equal(t, []ledger.Role{ledger.RoleReceived, ledger.RoleSent}, lb.roles)
	require.Len(t, repo.replaced, 3)

	assert.Equal(t, KindLeaderboardReceivers, repo.replaced[0].Kind)
	assert.Equal(t, "Герой месяца #1", repo.replaced[0].Title)
	assert.Contains(t, repo.replaced[0].Body, "Иван Петров")
	assert.Contains(t, repo.replaced[0].Body, "42")
	assert.Equal(t, "https://cdn/7.jpg", repo.replaced[0].ImageURL)
	assert.Equal(t, 0, repo.replaced[0].Position)

	assert.Equal(t, KindLeaderboardReceivers, repo.replaced[1].Kind)
	assert.Equal(t, 1, repo.replaced[1].Position)

	// Позиции отправителей нумеруются заново внутри своего типа
	assert.Equal(t, KindLeaderboardSenders, repo.replaced[2].Kind)
	assert.Equal(t, "Щедрость месяца #1", repo.replaced[2].Title)
	assert.Contains(t, repo.replaced[2].Body, "Олег Сидоров")
	assert.Equal(t, 0, repo.replaced[2].Position)
}

func TestRebuildMonthly_EmptyTop(t *testing.T) {
	repo := &fakeRepo{replaced: []*Banner{{Title: "старый"}}}
	svc := &Service{repo: repo, ledger: &fakeLeaderboard{}}

	require.NoError(t, svc.RebuildMonthly(context.Background()))
	// Пустые топы всё равно заменяют старые баннеры
	assert.Empty(t, repo.replaced)
}
