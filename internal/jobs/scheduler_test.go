package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"thanks-bot/internal/features/users"
)

type fakeUsers struct {
	credited []users.BirthdayUser
	err      error
}

func (f *fakeUsers) CreditBirthdays(_ context.Context, _ int64) ([]users.BirthdayUser, error) {
	return f.credited, f.err
}

type fakeLedger struct {
	reset int64
	err   error
}

func (f *fakeLedger) ResetDailyLimits(_ context.Context) (int64, error) { return f.reset, f.err }

type fakeRaffle struct {
	fragments int64
	tickets   int64
}

func (f *fakeRaffle) ResetStaleFragments(_ context.Context) (int64, error) { return f.fragments, nil }

func (f *fakeRaffle) ResetStaleTickets(_ context.Context) (int64, error) { return f.tickets, nil }

type fakeShop struct {
	expired int
}

func (f *fakeShop) ExpireSharedGifts(_ context.Context) (int, error) { return f.expired, nil }

type fakeBanners struct {
	rebuilt int
	err     error
}

func (f *fakeBanners) RebuildMonthly(_ context.Context) error {
	f.rebuilt++
	return f.err
}

type fakeCongrats struct {
	congratulated []int64
}

func (f *fakeCongrats) BirthdayCongrats(telegramID int64, _ string, _ int64) {
	f.congratulated = append(f.congratulated, telegramID)
}

func ptr[T any](v T) *T { return &v }

func TestRunDaily_Report(t *testing.T) {
	congrats := &fakeCongrats{}
	s := &Scheduler{
		users: &fakeUsers{credited: []users.BirthdayUser{
			{ID: 1, TelegramID: ptr(int64(100)), FirstName: "Иван"},
			{ID: 2, FirstName: "Анна"}, // без Telegram, поздравления нет
		}},
		ledger:        &fakeLedger{reset: 40},
		raffle:        &fakeRaffle{fragments: 3, tickets: 2},
		shop:          &fakeShop{expired: 5},
		banners:       &fakeBanners{},
		notifier:      congrats,
		birthdayBonus: 15,
	}

	report := s.RunDaily(context.Background())

	assert.Equal(t, int64(2), report.BirthdaysCredited)
	assert.Equal(t, int64(40), report.DailyLimitsReset)
	assert.Equal(t, int64(3), report.FragmentsReset)
	assert.Equal(t, int64(2), report.TicketsReset)
	assert.Equal(t, int64(5), report.InvitationsExpired)
	assert.Equal(t, []int64{100}, congrats.congratulated)
}

func TestRunDaily_StepFailureDoesNotStopOthers(t *testing.T) {
	s := &Scheduler{
		users:         &fakeUsers{err: errors.New("db down")},
		ledger:        &fakeLedger{err: errors.New("db down")},
		raffle:        &fakeRaffle{fragments: 1},
		shop:          &fakeShop{expired: 2},
		banners:       &fakeBanners{},
		notifier:      &fakeCongrats{},
		birthdayBonus: 15,
	}

	report := s.RunDaily(context.Background())

	// Упавшие шаги дают нулевые счётчики, остальные выполняются
	assert.Zero(t, report.BirthdaysCredited)
	assert.Zero(t, report.DailyLimitsReset)
	assert.Equal(t, int64(1), report.FragmentsReset)
	assert.Equal(t, int64(2), report.InvitationsExpired)
}

func TestRunMonthly(t *testing.T) {
	banners := &fakeBanners{}
	s := &Scheduler{banners: banners}

	assert.NoError(t, s.RunMonthly(context.Background()))
	assert.Equal(t, 1, banners.rebuilt)
}
