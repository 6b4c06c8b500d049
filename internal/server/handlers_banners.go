// Package server — handlers_banners.go: баннеры главного экрана.
package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"thanks-bot/internal/features/banners"
)

// bannersService — операции фичи banners, нужные HTTP-слою.
type bannersService interface {
	ListActive(ctx context.Context) ([]*banners.Banner, error)
	Create(ctx context.Context, nb banners.NewBanner) (*banners.Banner, error)
	Deactivate(ctx context.Context, id int64) error
}

// handleListBanners — GET /banners.
func (s *Server) handleListBanners(w http.ResponseWriter, r *http.Request) {
	list, err := s.banners.ListActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleCreateBanner — POST /admin/banners.
func (s *Server) handleCreateBanner(w http.ResponseWriter, r *http.Request) {
	var nb banners.NewBanner
	if !decodeBody(w, r, &nb) {
		return
	}
	if nb.Title == "" {
		writeBadRequest(w, "заголовок обязателен")
		return
	}

	b, err := s.banners.Create(r.Context(), nb)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// handleDeactivateBanner — DELETE /admin/banners/{id}.
func (s *Server) handleDeactivateBanner(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "некорректный id баннера")
		return
	}

	if err := s.banners.Deactivate(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
