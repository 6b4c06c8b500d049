package shop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thanks-bot/internal/common"
)

type fakeRepo struct {
	purchaseResult  *PurchaseResult
	localResult     *LocalGiftResult
	debitBalance    int64
	debitErr        error
	refundedAmounts []int64
}

func (f *fakeRepo) ListItems(_ context.Context) ([]*MarketItem, error) { return nil, nil }

func (f *fakeRepo) GetItem(_ context.Context, _ int64) (*MarketItem, error) { return nil, nil }

func (f *fakeRepo) CreateItem(_ context.Context, m *MarketItem, priceDivisor int64) (*MarketItem, error) {
	m.Price = PriceFromRub(m.PriceRub, priceDivisor)
	return m, nil
}

func (f *fakeRepo) ArchiveItem(_ context.Context, _ int64) error { return nil }

func (f *fakeRepo) SeedCodes(_ context.Context, _ int64, n int) (int, error) { return n, nil }

func (f *fakeRepo) Purchase(_ context.Context, _, _ int64) (*PurchaseResult, error) {
	return f.purchaseResult, nil
}

func (f *fakeRepo) CreateInvitation(_ context.Context, _, _, _ int64, _ time.Duration) (*InvitationResult, error) {
	return nil, nil
}

func (f *fakeRepo) AcceptInvitation(_ context.Context, _, _ int64, _ time.Time) (*InvitationResult, error) {
	return nil, nil
}

func (f *fakeRepo) RejectInvitation(_ context.Context, _, _ int64) (*InvitationResult, error) {
	return nil, nil
}

func (f *fakeRepo) ExpireInvitations(_ context.Context, _ time.Time) ([]ExpiredRefund, error) {
	return nil, nil
}

func (f *fakeRepo) CreateLocalGift(_ context.Context, _, _ int64, _, _ string) (*LocalGiftResult, error) {
	return f.localResult, nil
}

func (f *fakeRepo) ProcessLocalGift(_ context.Context, _ int64, _ bool) (*LocalGiftResult, error) {
	return f.localResult, nil
}

func (f *fakeRepo) DebitForBonus(_ context.Context, _, _ int64) (int64, error) {
	return f.debitBalance, f.debitErr
}

func (f *fakeRepo) RefundBonus(_ context.Context, _, amount int64) (int64, error) {
	f.refundedAmounts = append(f.refundedAmounts, amount)
	return f.debitBalance + amount, nil
}

type fakeNotifier struct {
	purchaseConfirmed int
	adminNotices      int
	localProcessed    int
}

func (f *fakeNotifier) PurchaseConfirmed(_ int64, _ string, _ *string, _ int64) {
	f.purchaseConfirmed++
}

func (f *fakeNotifier) AdminPurchaseNotice(_, _ string) { f.adminNotices++ }

func (f *fakeNotifier) SharedGiftInvite(_ int64, _ int64, _, _ string) {}

func (f *fakeNotifier) SharedGiftAccepted(_ int64, _ string) {}

func (f *fakeNotifier) SharedGiftRejected(_ int64, _ string, _ int64) {}

func (f *fakeNotifier) SharedGiftExpired(_ int64, _ string, _ int64) {}

func (f *fakeNotifier) LocalGiftRequested(_ int64, _, _, _, _ string) {}

func (f *fakeNotifier) LocalGiftPendingNotice(_ int64, _ string, _ int64) {}

func (f *fakeNotifier) LocalGiftProcessed(_ int64, _ string, _ bool) { f.localProcessed++ }

type fakeBonusClient struct {
	err   error
	calls int
}

func (f *fakeBonusClient) CreditBonus(_ context.Context, _, _ int64) error {
	f.calls++
	return f.err
}

func ptr[T any](v T) *T { return &v }

func newTestService(repo *fakeRepo, n *fakeNotifier, bc *fakeBonusClient) *Service {
	return &Service{repo: repo, notifier: n, bonusClient: bc, sharedGiftTTL: 24 * time.Hour, priceDivisor: 30}
}

func TestPriceFromRub(t *testing.T) {
	assert.Equal(t, int64(10), PriceFromRub(300, 30))
	assert.Equal(t, int64(10), PriceFromRub(310, 30)) // округление вниз
	assert.Equal(t, int64(11), PriceFromRub(315, 30)) // округление вверх с половины
	assert.Equal(t, int64(0), PriceFromRub(14, 30))
}

func TestPurchase_NotifiesBuyerAndAdmins(t *testing.T) {
	repo := &fakeRepo{purchaseResult: &PurchaseResult{
		Purchase:   &Purchase{ID: 1, UserID: 5, ItemID: 2},
		ItemName:   "Кружка",
		NewBalance: 90,
		IssuedCode: ptr("CODE-123"),
		BuyerTG:    ptr(int64(100)),
	}}
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier, &fakeBonusClient{})

	res, err := svc.Purchase(context.Background(), 5, 2, "Иван Петров")
	require.NoError(t, err)

	assert.Equal(t, "CODE-123", *res.IssuedCode)
	assert.Equal(t, 1, notifier.purchaseConfirmed)
	assert.Equal(t, 1, notifier.adminNotices)
}

func TestInviteSharedGift_SelfInviteRejected(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakeNotifier{}, &fakeBonusClient{})

	_, err := svc.InviteSharedGift(context.Background(), 5, 5, 2, "Иван")
	assert.ErrorIs(t, err, common.ErrSelfTransfer)
}

func TestProcessLocalGift_AlreadyDoneSkipsNotification(t *testing.T) {
	repo := &fakeRepo{localResult: &LocalGiftResult{
		Gift:        &LocalGift{ID: 1, Status: LocalGiftApproved},
		UserTG:      ptr(int64(100)),
		AlreadyDone: true,
	}}
	notifier := &fakeNotifier{}
	svc := newTestService(repo, notifier, &fakeBonusClient{})

	res, err := svc.ProcessLocalGift(context.Background(), 1, true)
	require.NoError(t, err)
	assert.True(t, res.AlreadyDone)
	assert.Zero(t, notifier.localProcessed)
}

func TestPurchaseStatixBonus_Success(t *testing.T) {
	repo := &fakeRepo{debitBalance: 70}
	bc := &fakeBonusClient{}
	svc := newTestService(repo, &fakeNotifier{}, bc)

	res, err := svc.PurchaseStatixBonus(context.Background(), 5, 30)
	require.NoError(t, err)

	assert.Equal(t, int64(70), res.NewBalance)
	assert.Equal(t, int64(30), res.PurchasedBonus)
	assert.Equal(t, 1, bc.calls)
	assert.Empty(t, repo.refundedAmounts)
}

func TestPurchaseStatixBonus_ExternalFailureRefunds(t *testing.T) {
	repo := &fakeRepo{debitBalance: 70}
	bc := &fakeBonusClient{err: errors.New("statix: 503")}
	svc := newTestService(repo, &fakeNotifier{}, bc)

	_, err := svc.PurchaseStatixBonus(context.Background(), 5, 30)
	assert.ErrorIs(t, err, common.ErrBonusCreditFailed)
	// Списание скомпенсировано возвратом той же суммы
	assert.Equal(t, []int64{30}, repo.refundedAmounts)
}

func TestPurchaseStatixBonus_InvalidAmount(t *testing.T) {
	bc := &fakeBonusClient{}
	svc := newTestService(&fakeRepo{}, &fakeNotifier{}, bc)

	_, err := svc.PurchaseStatixBonus(context.Background(), 5, 0)
	assert.ErrorIs(t, err, common.ErrWrongItemKind)
	assert.Zero(t, bc.calls)
}

func TestPurchaseStatixBonus_DebitErrorNoExternalCall(t *testing.T) {
	repo := &fakeRepo{debitErr: common.ErrInsufficientFunds}
	bc := &fakeBonusClient{}
	svc := newTestService(repo, &fakeNotifier{}, bc)

	_, err := svc.PurchaseStatixBonus(context.Background(), 5, 30)
	assert.ErrorIs(t, err, common.ErrInsufficientFunds)
	assert.Zero(t, bc.calls)
}
