package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"thanks-bot/internal/common"
	"thanks-bot/internal/features/users"
)

type fakeResolver struct {
	byID map[int64]*users.User
	byTG map[int64]*users.User
}

func (f *fakeResolver) GetByID(_ context.Context, id int64) (*users.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrUserNotFound
}

func (f *fakeResolver) GetByTelegramID(_ context.Context, tgID int64) (*users.User, error) {
	if u, ok := f.byTG[tgID]; ok {
		return u, nil
	}
	return nil, common.ErrUserNotFound
}

type fakeTokens struct {
	valid map[string]int64
}

func (f *fakeTokens) Parse(token string) (int64, error) {
	if id, ok := f.valid[token]; ok {
		return id, nil
	}
	return 0, common.ErrInvalidCredentials
}

func (f *fakeTokens) Issue(userID int64) (string, error) { return "token-issued", nil }

// echoUser возвращает id пользователя из контекста или "-".
func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := currentUser(r); u != nil {
			writeJSON(w, http.StatusOK, map[string]int64{"id": u.ID})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": "-"})
	})
}

func TestIdentity_TelegramHeader(t *testing.T) {
	resolver := &fakeResolver{byTG: map[int64]*users.User{100: {ID: 7}}}
	h := Identity(resolver, &fakeTokens{})(echoUser())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Telegram-Id", "100")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), `"id":7`)
}

func TestIdentity_UserIDHeader(t *testing.T) {
	resolver := &fakeResolver{byID: map[int64]*users.User{7: {ID: 7}}}
	h := Identity(resolver, &fakeTokens{})(echoUser())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-Id", "7")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), `"id":7`)
}

func TestIdentity_BearerToken(t *testing.T) {
	resolver := &fakeResolver{byID: map[int64]*users.User{7: {ID: 7}}}
	tokens := &fakeTokens{valid: map[string]int64{"jwt-ok": 7}}
	h := Identity(resolver, tokens)(echoUser())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer jwt-ok")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), `"id":7`)
}

func TestIdentity_AnonymousPassesThrough(t *testing.T) {
	h := Identity(&fakeResolver{}, &fakeTokens{})(echoUser())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"-"`)
}

func TestRequireUser_Unauthenticated(t *testing.T) {
	h := RequireUser(echoUser())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	h := RequireAdmin(echoUser())

	// Обычный пользователь → 403
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), userKey, &users.User{ID: 7}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Администратор → 200
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), userKey, &users.User{ID: 1, IsAdmin: true}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireCronSecret(t *testing.T) {
	h := RequireCronSecret("s3cret")(echoUser())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Cron-Secret", "wrong")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-Cron-Secret", "s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
