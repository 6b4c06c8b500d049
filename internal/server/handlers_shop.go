// Package server — handlers_shop.go: каталог, покупки, совместные
// и локальные подарки, внешние бонусы.
package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"thanks-bot/internal/features/shop"
)

// shopService — операции фичи shop, нужные HTTP-слою.
type shopService interface {
	ListItems(ctx context.Context) ([]*shop.MarketItem, error)
	CreateItem(ctx context.Context, m *shop.MarketItem) (*shop.MarketItem, error)
	ArchiveItem(ctx context.Context, id int64) error
	SeedCodes(ctx context.Context, itemID int64, n int) (int, error)
	Purchase(ctx context.Context, userID, itemID int64, userName string) (*shop.PurchaseResult, error)
	InviteSharedGift(ctx context.Context, buyerID, invitedID, itemID int64, buyerName string) (*shop.InvitationResult, error)
	AcceptSharedGift(ctx context.Context, invID, userID int64) (*shop.InvitationResult, error)
	RejectSharedGift(ctx context.Context, invID, userID int64) (*shop.InvitationResult, error)
	CreateLocalGift(ctx context.Context, userID, itemID int64, city, websiteURL string) (*shop.LocalGiftResult, error)
	PurchaseStatixBonus(ctx context.Context, userID, amount int64) (*shop.StatixResult, error)
}

// userNamer — имя пользователя для админ-уведомлений о покупках.
type userNamer interface {
	DisplayNameByID(ctx context.Context, id int64) string
}

// handleListItems — GET /market/items.
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.shop.ListItems(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type purchaseRequest struct {
	UserID int64 `json:"user_id"`
	ItemID int64 `json:"item_id"`
}

type purchaseResponse struct {
	Message    string  `json:"message"`
	NewBalance int64   `json:"new_balance"`
	IssuedCode *string `json:"issued_code,omitempty"`
}

// handlePurchase — POST /market/purchase.
func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := s.shop.Purchase(r.Context(), req.UserID, req.ItemID, s.names.DisplayNameByID(r.Context(), req.UserID))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, purchaseResponse{
		Message:    "покупка оформлена",
		NewBalance: res.NewBalance,
		IssuedCode: res.IssuedCode,
	})
}

type localPurchaseRequest struct {
	UserID     int64  `json:"user_id"`
	ItemID     int64  `json:"item_id"`
	City       string `json:"city"`
	WebsiteURL string `json:"website_url"`
}

// handleLocalPurchase — POST /market/local-purchase.
func (s *Server) handleLocalPurchase(w http.ResponseWriter, r *http.Request) {
	var req localPurchaseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.City == "" {
		writeBadRequest(w, "город обязателен")
		return
	}

	res, err := s.shop.CreateLocalGift(r.Context(), req.UserID, req.ItemID, req.City, req.WebsiteURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{
		"new_balance":      res.NewBalance,
		"reserved_balance": res.ReservedBalance,
	})
}

type statixRequest struct {
	UserID      int64 `json:"user_id"`
	BonusAmount int64 `json:"bonus_amount"`
}

// handleStatixPurchase — POST /market/statix-bonus/purchase.
func (s *Server) handleStatixPurchase(w http.ResponseWriter, r *http.Request) {
	var req statixRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := s.shop.PurchaseStatixBonus(r.Context(), req.UserID, req.BonusAmount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{
		"new_balance":            res.NewBalance,
		"purchased_bonus_amount": res.PurchasedBonus,
	})
}

type inviteRequest struct {
	BuyerID       int64 `json:"buyer_id"`
	InvitedUserID int64 `json:"invited_user_id"`
	ItemID        int64 `json:"item_id"`
}

// handleSharedGiftInvite — POST /shared-gifts/invite.
func (s *Server) handleSharedGiftInvite(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := s.shop.InviteSharedGift(r.Context(), req.BuyerID, req.InvitedUserID, req.ItemID,
		s.names.DisplayNameByID(r.Context(), req.BuyerID))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res.Invitation)
}

type invitationActionRequest struct {
	InvitationID int64 `json:"invitation_id"`
	UserID       int64 `json:"user_id"`
}

// handleSharedGiftAccept — POST /shared-gifts/accept.
func (s *Server) handleSharedGiftAccept(w http.ResponseWriter, r *http.Request) {
	var req invitationActionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := s.shop.AcceptSharedGift(r.Context(), req.InvitationID, req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "приглашение принято",
		"new_balance": res.NewBalance,
	})
}

// handleSharedGiftReject — POST /shared-gifts/reject.
func (s *Server) handleSharedGiftReject(w http.ResponseWriter, r *http.Request) {
	var req invitationActionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if _, err := s.shop.RejectSharedGift(r.Context(), req.InvitationID, req.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "приглашение отклонено"})
}

// handleCreateItem — POST /admin/market/items.
func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var item shop.MarketItem
	if !decodeBody(w, r, &item) {
		return
	}
	if item.Name == "" || item.PriceRub <= 0 {
		writeBadRequest(w, "название и рублёвая цена обязательны")
		return
	}

	created, err := s.shop.CreateItem(r.Context(), &item)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleArchiveItem — DELETE /admin/market/items/{id}.
func (s *Server) handleArchiveItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "некорректный id товара")
		return
	}

	if err := s.shop.ArchiveItem(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type seedCodesRequest struct {
	Count int `json:"count"`
}

// handleSeedCodes — POST /admin/market/items/{id}/codes.
func (s *Server) handleSeedCodes(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "некорректный id товара")
		return
	}

	var req seedCodesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Count <= 0 || req.Count > 10000 {
		writeBadRequest(w, "count должен быть от 1 до 10000")
		return
	}

	added, err := s.shop.SeedCodes(r.Context(), id, req.Count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"added": added})
}
