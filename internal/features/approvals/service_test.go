package approvals

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thanks-bot/internal/common"
	"thanks-bot/internal/features/users"
)

type fakeRepo struct {
	statuses    map[int64]string
	credentials map[int64]string // user_id → login
	takenLogins map[string]bool
	created     []*PendingUpdate
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		statuses:    map[int64]string{},
		credentials: map[int64]string{},
		takenLogins: map[string]bool{},
	}
}

func (f *fakeRepo) SetUserStatus(_ context.Context, userID int64, status string) error {
	f.statuses[userID] = status
	return nil
}

func (f *fakeRepo) SetCredentials(_ context.Context, userID int64, login, _ string) error {
	f.credentials[userID] = login
	f.takenLogins[login] = true
	return nil
}

func (f *fakeRepo) LoginTaken(_ context.Context, login string) (bool, error) {
	return f.takenLogins[login], nil
}

func (f *fakeRepo) CreatePendingUpdate(_ context.Context, userID int64, oldData, newData ProfileFields) (*PendingUpdate, error) {
	p := &PendingUpdate{
		ID:        int64(len(f.created) + 1),
		UserID:    userID,
		OldData:   oldData,
		NewData:   newData,
		Status:    UpdatePending,
		CreatedAt: time.Now(),
	}
	f.created = append(f.created, p)
	return p, nil
}

func (f *fakeRepo) ProcessPendingUpdate(_ context.Context, _ int64, _ bool) (*PendingUpdate, *int64, error) {
	return nil, nil, nil
}

type fakeDirectory struct {
	users map[int64]*users.User
}

func (f *fakeDirectory) GetByID(_ context.Context, id int64) (*users.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	return u, nil
}

type fakeNotifier struct {
	registrationProcessed []bool
	updateRequests        [][]string
	updateProcessed       []bool
}

func (f *fakeNotifier) RegistrationProcessed(_ int64, approved bool) {
	f.registrationProcessed = append(f.registrationProcessed, approved)
}

func (f *fakeNotifier) ProfileUpdateRequested(_ int64, _ string, changes []string) {
	f.updateRequests = append(f.updateRequests, changes)
}

func (f *fakeNotifier) ProfileUpdateProcessed(_ int64, approved bool) {
	f.updateProcessed = append(f.updateProcessed, approved)
}

type fakeMailer struct {
	sent []string // email адресата
	err  error
}

func (f *fakeMailer) SendCredentials(_ context.Context, email, _, _, _ string) error {
	f.sent = append(f.sent, email)
	return f.err
}

func ptr[T any](v T) *T { return &v }

func newTestService(repo *fakeRepo, dir *fakeDirectory, n *fakeNotifier, m *fakeMailer) *Service {
	return &Service{repo: repo, users: dir, notifier: n, mailer: m}
}

func TestProcessRegistration_ApproveWebUser(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{users: map[int64]*users.User{
		7: {ID: 7, Status: users.StatusPending, FirstName: "Иван", LastName: "Петров", Email: "ivan@corp.ru"},
	}}
	notifier := &fakeNotifier{}
	mailer := &fakeMailer{}
	svc := newTestService(repo, dir, notifier, mailer)

	res, err := svc.ProcessRegistration(context.Background(), 7, true)
	require.NoError(t, err)

	assert.Equal(t, users.StatusApproved, repo.statuses[7])
	require.NotNil(t, res.Credentials)
	assert.Equal(t, "ivan.petrov", res.Credentials.Login)
	assert.Len(t, res.Credentials.Password, 12)
	assert.Equal(t, []string{"ivan@corp.ru"}, mailer.sent)
	// Telegram не привязан — уведомления в Telegram нет
	assert.Empty(t, notifier.registrationProcessed)
}

func TestProcessRegistration_ApproveIdempotent(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{users: map[int64]*users.User{
		7: {ID: 7, Status: users.StatusApproved, FirstName: "Иван", PasswordHash: ptr("hash"), Email: "ivan@corp.ru"},
	}}
	notifier := &fakeNotifier{}
	mailer := &fakeMailer{}
	svc := newTestService(repo, dir, notifier, mailer)

	res, err := svc.ProcessRegistration(context.Background(), 7, true)
	require.NoError(t, err)

	// Повторное одобрение: статус не трогаем, письмо не уходит
	assert.Nil(t, res.Credentials)
	assert.Empty(t, repo.statuses)
	assert.Empty(t, mailer.sent)
}

func TestProcessRegistration_RejectNotifiesTelegram(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{users: map[int64]*users.User{
		7: {ID: 7, Status: users.StatusPending, FirstName: "Иван", TelegramID: ptr(int64(100))},
	}}
	notifier := &fakeNotifier{}
	svc := newTestService(repo, dir, notifier, &fakeMailer{})

	res, err := svc.ProcessRegistration(context.Background(), 7, false)
	require.NoError(t, err)

	assert.Equal(t, users.StatusRejected, repo.statuses[7])
	assert.Nil(t, res.Credentials)
	assert.Equal(t, []bool{false}, notifier.registrationProcessed)
}

func TestRequestProfileUpdate_NoChanges(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeDirectory{}, &fakeNotifier{}, &fakeMailer{})
	u := &users.User{ID: 1, FirstName: "Иван", Position: "Инженер"}

	// Совпадающие значения и nil-поля изменениями не считаются
	_, err := svc.RequestProfileUpdate(context.Background(), u, ProfileFields{
		FirstName: ptr("Иван"),
	})
	assert.ErrorIs(t, err, common.ErrNoChanges)
}

func TestRequestProfileUpdate_SnapshotsOnlyChangedFields(t *testing.T) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	svc := newTestService(repo, &fakeDirectory{}, notifier, &fakeMailer{})

	dob := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
	u := &users.User{
		ID:          1,
		FirstName:   "Иван",
		LastName:    "Петров",
		Position:    "Инженер",
		DateOfBirth: &dob,
	}

	p, err := svc.RequestProfileUpdate(context.Background(), u, ProfileFields{
		FirstName:   ptr("Иван"),      // без изменений
		Position:    ptr("Тимлид"),    // меняется
		DateOfBirth: ptr("1991-06-02"), // меняется
	})
	require.NoError(t, err)

	assert.Nil(t, p.OldData.FirstName)
	require.NotNil(t, p.OldData.Position)
	assert.Equal(t, "Инженер", *p.OldData.Position)
	assert.Equal(t, "Тимлид", *p.NewData.Position)
	assert.Equal(t, "1990-05-01", *p.OldData.DateOfBirth)
	assert.Equal(t, "1991-06-02", *p.NewData.DateOfBirth)

	require.Len(t, notifier.updateRequests, 1)
	assert.Len(t, notifier.updateRequests[0], 2)
}

func TestProcessProfileUpdate_AlreadyProcessed(t *testing.T) {
	notifier := &fakeNotifier{}
	svc := newTestService(newFakeRepo(), &fakeDirectory{}, notifier, &fakeMailer{})

	p, err := svc.ProcessProfileUpdate(context.Background(), 99, true)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Empty(t, notifier.updateProcessed)
}
