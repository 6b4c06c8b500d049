package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"thanks-bot/internal/common"
	"thanks-bot/internal/features/users"
)

type fakeUserService struct {
	first bool
	user  *users.User
}

func (f *fakeUserService) GetByTelegramID(_ context.Context, _ int64) (*users.User, error) {
	if f.user == nil {
		return nil, common.ErrUserNotFound
	}
	return f.user, nil
}

func (f *fakeUserService) MarkBotStarted(_ context.Context, _ int64) (bool, error) {
	return f.first, nil
}

func (f *fakeUserService) SaveCard(_ context.Context, _ int64, _, _, _, _ string) error {
	return nil
}

type fakeBotNotifier struct {
	greetings []bool
}

func (f *fakeBotNotifier) AnswerCallback(_, _ string) {}

func (f *fakeBotNotifier) Greeting(_ int64, known bool) {
	f.greetings = append(f.greetings, known)
}

func (f *fakeBotNotifier) CardSaved(_ int64, _ string) {}

func TestHandleStart_FirstInteractionGreets(t *testing.T) {
	n := &fakeBotNotifier{}
	b := &Bot{users: &fakeUserService{first: true, user: &users.User{ID: 1}}, notifier: n}

	b.handleStart(context.Background(), 100)

	assert.Equal(t, []bool{true}, n.greetings)
}

func TestHandleStart_RepeatIsSilent(t *testing.T) {
	n := &fakeBotNotifier{}
	b := &Bot{users: &fakeUserService{first: false, user: &users.User{ID: 1}}, notifier: n}

	b.handleStart(context.Background(), 100)

	assert.Empty(t, n.greetings)
}

func TestHandleStart_UnregisteredGetsSignupPrompt(t *testing.T) {
	n := &fakeBotNotifier{}
	b := &Bot{users: &fakeUserService{}, notifier: n}

	b.handleStart(context.Background(), 100)

	assert.Equal(t, []bool{false}, n.greetings)
}
