package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thanks-bot/internal/common"
)

type fakeRepo struct {
	transferResult *TransferResult
	transferErr    error
	gotDailyLimit  int
}

func (f *fakeRepo) Transfer(_ context.Context, _, _ int64, _ string, dailyLimit int) (*TransferResult, error) {
	f.gotDailyLimit = dailyLimit
	return f.transferResult, f.transferErr
}

func (f *fakeRepo) Feed(_ context.Context, _ int) ([]FeedItem, error) { return nil, nil }

func (f *fakeRepo) Leaderboard(_ context.Context, _, _ time.Time, _ Role, _ int) ([]LeaderboardEntry, error) {
	return nil, nil
}

func (f *fakeRepo) UserRank(_ context.Context, _ int64, _, _ time.Time, _ Role) (*RankInfo, error) {
	return nil, nil
}

func (f *fakeRepo) ResetDailyLimits(_ context.Context) (int64, error) { return 0, nil }

type fakeNotifier struct {
	received []int64 // telegram_id получателей
}

func (f *fakeNotifier) TransferReceived(telegramID int64, _, _ string, _ int64) {
	f.received = append(f.received, telegramID)
}

func ptr[T any](v T) *T { return &v }

func TestTransfer_SelfTransferRejected(t *testing.T) {
	svc := &Service{repo: &fakeRepo{}, notifier: &fakeNotifier{}, dailyLimit: 3}

	_, err := svc.Transfer(context.Background(), 5, 5, "себе")
	assert.ErrorIs(t, err, common.ErrSelfTransfer)
}

func TestTransfer_NotifiesReceiverWithTelegram(t *testing.T) {
	repo := &fakeRepo{transferResult: &TransferResult{
		Transaction:        &Transaction{ID: 1, SenderID: 5, ReceiverID: 6, Amount: 1},
		ReceiverTelegramID: ptr(int64(200)),
		ReceiverBalance:    10,
		SenderName:         "Иван Петров",
	}}
	notifier := &fakeNotifier{}
	svc := &Service{repo: repo, notifier: notifier, dailyLimit: 3}

	res, err := svc.Transfer(context.Background(), 5, 6, "спасибо за помощь")
	require.NoError(t, err)

	assert.Equal(t, 3, repo.gotDailyLimit)
	assert.Equal(t, int64(10), res.ReceiverBalance)
	assert.Equal(t, []int64{200}, notifier.received)
}

func TestTransfer_WebOnlyReceiverNotNotified(t *testing.T) {
	repo := &fakeRepo{transferResult: &TransferResult{
		Transaction: &Transaction{ID: 1, SenderID: 5, ReceiverID: 6, Amount: 1},
		// Отрицательный telegram_id — анонимизированный пользователь
		ReceiverTelegramID: ptr(int64(-6)),
	}}
	notifier := &fakeNotifier{}
	svc := &Service{repo: repo, notifier: notifier, dailyLimit: 3}

	_, err := svc.Transfer(context.Background(), 5, 6, "")
	require.NoError(t, err)
	assert.Empty(t, notifier.received)
}

func TestTransfer_RepoErrorPassedThrough(t *testing.T) {
	repo := &fakeRepo{transferErr: common.ErrDailyLimitExceeded}
	notifier := &fakeNotifier{}
	svc := &Service{repo: repo, notifier: notifier, dailyLimit: 3}

	_, err := svc.Transfer(context.Background(), 5, 6, "")
	assert.ErrorIs(t, err, common.ErrDailyLimitExceeded)
	assert.Empty(t, notifier.received)
}
