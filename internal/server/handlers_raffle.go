// Package server — handlers_raffle.go: рулетка.
package server

import (
	"context"
	"net/http"

	"thanks-bot/internal/features/raffle"
)

// raffleService — операции фичи raffle, нужные HTTP-слою.
type raffleService interface {
	AssembleTickets(ctx context.Context, userID int64) (*raffle.AssembleResult, error)
	Spin(ctx context.Context, userID int64) (*raffle.SpinResult, error)
	History(ctx context.Context, userID int64) ([]*raffle.Win, error)
}

// handleAssemble — POST /roulette/assemble.
func (s *Server) handleAssemble(w http.ResponseWriter, r *http.Request) {
	if _, err := s.raffle.AssembleTickets(r.Context(), currentUser(r).ID); err != nil {
		writeError(w, err)
		return
	}

	// Свежий снимок пользователя после пересборки
	u, err := s.resolver.GetByID(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// handleSpin — POST /roulette/spin.
func (s *Server) handleSpin(w http.ResponseWriter, r *http.Request) {
	res, err := s.raffle.Spin(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{
		"prize_won":   res.Prize,
		"new_balance": res.NewBalance,
		"new_tickets": res.TicketsLeft,
	})
}

type rouletteWinResponse struct {
	Amount    int64  `json:"amount"`
	CreatedAt string `json:"created_at"`
}

// handleRouletteHistory — GET /roulette/history.
func (s *Server) handleRouletteHistory(w http.ResponseWriter, r *http.Request) {
	wins, err := s.raffle.History(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]rouletteWinResponse, 0, len(wins))
	for _, win := range wins {
		resp = append(resp, rouletteWinResponse{
			Amount:    win.Amount,
			CreatedAt: win.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
