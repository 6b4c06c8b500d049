// Package server — handlers_users.go: идентичность и профиль.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"thanks-bot/internal/features/approvals"
	"thanks-bot/internal/features/users"
)

// usersService — операции фичи users, нужные HTTP-слою.
type usersService interface {
	Register(ctx context.Context, n *users.NewUser) (*users.User, error)
	Authenticate(ctx context.Context, loginOrEmail, password string) (*users.User, error)
	UpdateSelf(ctx context.Context, id int64, upd *users.ProfileUpdate) (*users.User, error)
	LinkTelegram(ctx context.Context, email string, telegramID int64) (*users.User, error)
	Search(ctx context.Context, query string) ([]*users.User, error)
	Anonymize(ctx context.Context, id int64) error
	SetOnboardingSeen(ctx context.Context, id int64) error
	StartSession(ctx context.Context, userID int64) (*users.Session, error)
	PingSession(ctx context.Context, id int64) (*users.Session, error)
}

type approvalsService interface {
	RequestProfileUpdate(ctx context.Context, u *users.User, req approvals.ProfileFields) (*approvals.PendingUpdate, error)
}

type tokenIssuer interface {
	Issue(userID int64) (string, error)
}

// UserResponse — представление пользователя для мини-аппа.
type UserResponse struct {
	ID               int64   `json:"id"`
	TelegramID       *int64  `json:"telegram_id,omitempty"`
	Login            *string `json:"login,omitempty"`
	Status           string  `json:"status"`
	IsAdmin          bool    `json:"is_admin"`
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	Position         string  `json:"position"`
	Department       string  `json:"department"`
	Phone            string  `json:"phone,omitempty"`
	DateOfBirth      *string `json:"date_of_birth,omitempty"`
	PhotoURL         string  `json:"photo_url,omitempty"`
	Email            string  `json:"email,omitempty"`
	Balance          int64   `json:"balance"`
	ReservedBalance  int64   `json:"reserved_balance"`
	AvailableBalance int64   `json:"available_balance"`
	TicketFragments  int64   `json:"ticket_fragments"`
	Tickets          int64   `json:"tickets"`
	OnboardingSeen   bool    `json:"onboarding_seen"`
	CardBarcode      string  `json:"card_barcode,omitempty"`
	CardBalance      string  `json:"card_balance,omitempty"`
	Token            string  `json:"token,omitempty"`
}

func toUserResponse(u *users.User) *UserResponse {
	resp := &UserResponse{
		ID:               u.ID,
		TelegramID:       u.TelegramID,
		Login:            u.Login,
		Status:           u.Status,
		IsAdmin:          u.IsAdmin,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Position:         u.Position,
		Department:       u.Department,
		Phone:            u.Phone,
		PhotoURL:         u.PhotoURL,
		Email:            u.Email,
		Balance:          u.Balance,
		ReservedBalance:  u.ReservedBalance,
		AvailableBalance: u.AvailableBalance(),
		TicketFragments:  u.TicketFragments,
		Tickets:          u.Tickets,
		OnboardingSeen:   u.OnboardingSeen,
		CardBarcode:      u.CardBarcode,
		CardBalance:      u.CardBalance,
	}
	if u.DateOfBirth != nil {
		dob := u.DateOfBirth.Format("2006-01-02")
		resp.DateOfBirth = &dob
	}
	return resp
}

type registerRequest struct {
	TelegramID  *int64  `json:"telegram_id"`
	Login       *string `json:"login"`
	Password    string  `json:"password"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Position    string  `json:"position"`
	Department  string  `json:"department"`
	Phone       string  `json:"phone"`
	DateOfBirth *string `json:"date_of_birth"`
	Email       string  `json:"email"`
}

// handleRegister — POST /users/register.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.FirstName == "" || req.LastName == "" {
		writeBadRequest(w, "имя и фамилия обязательны")
		return
	}
	if req.TelegramID == nil && req.Email == "" {
		writeBadRequest(w, "нужен telegram_id или email")
		return
	}

	n := &users.NewUser{
		TelegramID: req.TelegramID,
		Login:      req.Login,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Position:   req.Position,
		Department: req.Department,
		Phone:      req.Phone,
		Email:      req.Email,
	}
	if req.DateOfBirth != nil {
		if dob, err := time.Parse("2006-01-02", *req.DateOfBirth); err == nil {
			n.DateOfBirth = &dob
		}
	}

	u, err := s.users.Register(r.Context(), n)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// handleLogin — POST /users/auth/login. Ответ содержит JWT.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := s.users.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := toUserResponse(u)
	if token, err := s.tokens.Issue(u.ID); err == nil {
		resp.Token = token
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleMe — GET /users/me.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toUserResponse(currentUser(r)))
}

// handleUpdateMe — PUT /users/me: прямые правки (фото, телефон).
func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var upd users.ProfileUpdate
	if !decodeBody(w, r, &upd) {
		return
	}

	u, err := s.users.UpdateSelf(r.Context(), currentUser(r).ID, &upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// handleDeleteMe — DELETE /users/me: анонимизация с сохранением истории.
func (s *Server) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Anonymize(r.Context(), currentUser(r).ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// handleOnboarding — POST /users/me/onboarding.
func (s *Server) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	if err := s.users.SetOnboardingSeen(r.Context(), currentUser(r).ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// handleRequestUpdate — POST /users/me/request-update: изменения профиля
// через согласование администратором.
func (s *Server) handleRequestUpdate(w http.ResponseWriter, r *http.Request) {
	var req approvals.ProfileFields
	if !decodeBody(w, r, &req) {
		return
	}

	if _, err := s.approvals.RequestProfileUpdate(r.Context(), currentUser(r), req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"detail": "заявка отправлена на согласование"})
}

type linkAccountRequest struct {
	Email string `json:"email"`
}

// handleLinkAccount — POST /users/me/link-account: привязка Telegram
// к веб-аккаунту по email. Требует заголовка X-Telegram-Id.
func (s *Server) handleLinkAccount(w http.ResponseWriter, r *http.Request) {
	raw := r.Header.Get("X-Telegram-Id")
	tgID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || tgID <= 0 {
		writeBadRequest(w, "требуется заголовок X-Telegram-Id")
		return
	}

	var req linkAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := s.users.LinkTelegram(r.Context(), req.Email, tgID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// handleSearch — GET /users/search?q=: выбор получателя перевода.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	found, err := s.users.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*UserResponse, 0, len(found))
	for _, u := range found {
		resp = append(resp, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStartSession — POST /sessions.
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.users.StartSession(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// handlePingSession — POST /sessions/{id}/ping.
func (s *Server) handlePingSession(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "некорректный id сессии")
		return
	}

	sess, err := s.users.PingSession(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if sess == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Detail: "сессия не найдена"})
		return
	}
	writeJSON(w, http.StatusOK, sess)
}
