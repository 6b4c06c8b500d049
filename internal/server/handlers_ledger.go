// Package server — handlers_ledger.go: переводы, лента, лидерборды.
package server

import (
	"context"
	"net/http"
	"strings"

	"thanks-bot/internal/common"
	"thanks-bot/internal/features/ledger"
)

// ledgerService — операции фичи ledger, нужные HTTP-слою.
type ledgerService interface {
	Transfer(ctx context.Context, senderID, receiverID int64, message string) (*ledger.TransferResult, error)
	Feed(ctx context.Context) ([]ledger.FeedItem, error)
	Leaderboard(ctx context.Context, period common.Period, role ledger.Role) ([]ledger.LeaderboardEntry, error)
	UserRank(ctx context.Context, userID int64, period common.Period, role ledger.Role) (*ledger.RankInfo, error)
}

type transferRequest struct {
	SenderID   int64  `json:"sender_id"`
	ReceiverID int64  `json:"receiver_id"`
	Message    string `json:"message"`
}

// handleTransfer — POST /points/transfer.
func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SenderID <= 0 || req.ReceiverID <= 0 {
		writeBadRequest(w, "sender_id и receiver_id обязательны")
		return
	}

	res, err := s.ledger.Transfer(r.Context(), req.SenderID, req.ReceiverID, strings.TrimSpace(req.Message))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ledger.FeedItem{
		ID:           res.Transaction.ID,
		SenderID:     res.Transaction.SenderID,
		SenderName:   res.SenderName,
		ReceiverID:   res.Transaction.ReceiverID,
		ReceiverName: res.ReceiverName,
		Amount:       res.Transaction.Amount,
		Message:      res.Transaction.Message,
		CreatedAt:    res.Transaction.CreatedAt,
	})
}

// handleFeed — GET /transactions/feed.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := s.ledger.Feed(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func leaderboardParams(r *http.Request) (common.Period, ledger.Role) {
	period := common.Period(r.URL.Query().Get("period"))
	switch period {
	case common.PeriodCurrentMonth, common.PeriodLastMonth, common.PeriodAllTime:
	default:
		period = common.PeriodLastMonth
	}

	role := ledger.Role(r.URL.Query().Get("role"))
	if role != ledger.RoleSent {
		role = ledger.RoleReceived
	}
	return period, role
}

// handleLeaderboard — GET /leaderboard/last-month.
// Период и роль уточняются query-параметрами period и role.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	period, role := leaderboardParams(r)

	entries, err := s.ledger.Leaderboard(r.Context(), period, role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleRank — GET /leaderboard/rank: позиция вызывающего.
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	period, role := leaderboardParams(r)

	rank, err := s.ledger.UserRank(r.Context(), currentUser(r).ID, period, role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rank)
}
