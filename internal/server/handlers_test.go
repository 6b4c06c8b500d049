package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thanks-bot/internal/common"
	"thanks-bot/internal/features/approvals"
	"thanks-bot/internal/features/ledger"
	"thanks-bot/internal/features/users"
)

type fakeUsers struct {
	fakeResolver
	authenticated *users.User
	authErr       error
}

func (f *fakeUsers) Register(_ context.Context, n *users.NewUser) (*users.User, error) {
	return &users.User{ID: 1, FirstName: n.FirstName, LastName: n.LastName, Status: users.StatusPending, Email: n.Email}, nil
}

func (f *fakeUsers) Authenticate(_ context.Context, _, _ string) (*users.User, error) {
	return f.authenticated, f.authErr
}

func (f *fakeUsers) UpdateSelf(_ context.Context, id int64, _ *users.ProfileUpdate) (*users.User, error) {
	return f.byID[id], nil
}

func (f *fakeUsers) LinkTelegram(_ context.Context, _ string, _ int64) (*users.User, error) {
	return nil, common.ErrUserNotFound
}

func (f *fakeUsers) Search(_ context.Context, _ string) ([]*users.User, error) { return nil, nil }

func (f *fakeUsers) Anonymize(_ context.Context, _ int64) error { return nil }

func (f *fakeUsers) SetOnboardingSeen(_ context.Context, _ int64) error { return nil }

func (f *fakeUsers) StartSession(_ context.Context, userID int64) (*users.Session, error) {
	return &users.Session{ID: 1, UserID: userID}, nil
}

func (f *fakeUsers) PingSession(_ context.Context, id int64) (*users.Session, error) {
	if id == 1 {
		return &users.Session{ID: 1}, nil
	}
	return nil, nil
}

type fakeApprovals struct{}

func (f *fakeApprovals) RequestProfileUpdate(_ context.Context, _ *users.User, _ approvals.ProfileFields) (*approvals.PendingUpdate, error) {
	return &approvals.PendingUpdate{ID: 1}, nil
}

type fakeLedger struct {
	transferErr error
}

func (f *fakeLedger) Transfer(_ context.Context, senderID, receiverID int64, message string) (*ledger.TransferResult, error) {
	if f.transferErr != nil {
		return nil, f.transferErr
	}
	return &ledger.TransferResult{
		Transaction:  &ledger.Transaction{ID: 10, SenderID: senderID, ReceiverID: receiverID, Amount: 1, Message: message},
		SenderName:   "Иван Петров",
		ReceiverName: "Анна Ли",
	}, nil
}

func (f *fakeLedger) Feed(_ context.Context) ([]ledger.FeedItem, error) {
	return []ledger.FeedItem{{ID: 10, Amount: 1}}, nil
}

func (f *fakeLedger) Leaderboard(_ context.Context, _ common.Period, _ ledger.Role) ([]ledger.LeaderboardEntry, error) {
	return []ledger.LeaderboardEntry{{UserID: 7, Name: "Иван Петров", Total: 12}}, nil
}

func (f *fakeLedger) UserRank(_ context.Context, _ int64, _ common.Period, _ ledger.Role) (*ledger.RankInfo, error) {
	rank := 3
	return &ledger.RankInfo{Rank: &rank, Total: 5, Participants: 20}, nil
}

func newTestServer(t *testing.T, u *fakeUsers, l *fakeLedger) http.Handler {
	t.Helper()
	if u == nil {
		u = &fakeUsers{}
	}
	if l == nil {
		l = &fakeLedger{}
	}
	srv := New(Deps{
		Users:     u,
		Approvals: &fakeApprovals{},
		Ledger:    l,
		Resolver:  &u.fakeResolver,
		Tokens:    &fakeTokens{},
		Webhook: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
		CronSecret: "s3cret",
	})
	return srv.Router()
}

func TestHandleRegister(t *testing.T) {
	h := newTestServer(t, nil, nil)

	body := `{"first_name":"Иван","last_name":"Петров","email":"ivan@corp.ru"}`
	req := httptest.NewRequest(http.MethodPost, "/users/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, users.StatusPending, resp.Status)
	assert.Equal(t, "Иван", resp.FirstName)
}

func TestHandleRegister_Validation(t *testing.T) {
	h := newTestServer(t, nil, nil)

	cases := []string{
		`{"last_name":"Петров","email":"a@b.ru"}`,      // нет имени
		`{"first_name":"Иван","last_name":"Петров"}`,   // ни telegram_id, ни email
		`не json`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/users/register", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "тело %s", body)
	}
}

func TestHandleLogin(t *testing.T) {
	u := &fakeUsers{authenticated: &users.User{ID: 7, FirstName: "Иван", Status: users.StatusApproved}}
	h := newTestServer(t, u, nil)

	body := `{"login":"ivan.petrov","password":"pass"}`
	req := httptest.NewRequest(http.MethodPost, "/users/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "token-issued", resp.Token)
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	u := &fakeUsers{authErr: common.ErrInvalidCredentials}
	h := newTestServer(t, u, nil)

	req := httptest.NewRequest(http.MethodPost, "/users/auth/login", strings.NewReader(`{"login":"x","password":"y"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "detail")
}

func TestHandleMe_RequiresAuth(t *testing.T) {
	h := newTestServer(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleMe_ByTelegramHeader(t *testing.T) {
	u := &fakeUsers{fakeResolver: fakeResolver{
		byTG: map[int64]*users.User{100: {ID: 7, FirstName: "Иван", Balance: 50, ReservedBalance: 10}},
	}}
	h := newTestServer(t, u, nil)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("X-Telegram-Id", "100")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(50), resp.Balance)
	assert.Equal(t, int64(40), resp.AvailableBalance)
}

func TestHandleTransfer(t *testing.T) {
	h := newTestServer(t, nil, nil)

	body := `{"sender_id":5,"receiver_id":6,"message":"  спасибо за помощь  "}`
	req := httptest.NewRequest(http.MethodPost, "/points/transfer", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var item ledger.FeedItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, int64(5), item.SenderID)
	assert.Equal(t, "спасибо за помощь", item.Message)
}

func TestHandleTransfer_DailyLimit(t *testing.T) {
	h := newTestServer(t, nil, &fakeLedger{transferErr: common.ErrDailyLimitExceeded})

	body := `{"sender_id":5,"receiver_id":6}`
	req := httptest.NewRequest(http.MethodPost, "/points/transfer", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), common.ErrDailyLimitExceeded.Error())
}

func TestHandleTransfer_MissingIDs(t *testing.T) {
	h := newTestServer(t, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/points/transfer", strings.NewReader(`{"sender_id":5}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleLeaderboard_OpenRoute(t *testing.T) {
	h := newTestServer(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/leaderboard/last-month?role=sent", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Иван Петров")
}

func TestSchedulerRoutes_RequireSecret(t *testing.T) {
	h := newTestServer(t, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/scheduler/run-monthly-tasks", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	u := &fakeUsers{fakeResolver: fakeResolver{
		byTG: map[int64]*users.User{100: {ID: 7}},
	}}
	h := newTestServer(t, u, nil)

	req := httptest.NewRequest(http.MethodPost, "/admin/banners", strings.NewReader(`{"title":"x"}`))
	req.Header.Set("X-Telegram-Id", "100")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
