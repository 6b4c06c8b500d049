// Package server — HTTP-слой платформы: chi-маршрутизатор, определение
// вызывающего и маршруты мини-аппа, администрирования и планировщика.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"thanks-bot/internal/features/users"
)

// Server объединяет зависимости HTTP-обработчиков.
type Server struct {
	users     usersService
	approvals approvalsService
	ledger    ledgerService
	shop      shopService
	raffle    raffleService
	banners   bannersService
	scheduler schedulerService
	resolver  userResolver
	tokens    interface {
		tokenParser
		tokenIssuer
	}
	names      userNamer
	webhook    http.HandlerFunc
	cronSecret string
}

// Deps — зависимости HTTP-слоя.
type Deps struct {
	Users     usersService
	Approvals approvalsService
	Ledger    ledgerService
	Shop      shopService
	Raffle    raffleService
	Banners   bannersService
	Scheduler schedulerService
	Resolver  userResolver
	Tokens    interface {
		tokenParser
		tokenIssuer
	}
	Names      userNamer
	Webhook    http.HandlerFunc
	CronSecret string
}

func New(d Deps) *Server {
	return &Server{
		users:      d.Users,
		approvals:  d.Approvals,
		ledger:     d.Ledger,
		shop:       d.Shop,
		raffle:     d.Raffle,
		banners:    d.Banners,
		scheduler:  d.Scheduler,
		resolver:   d.Resolver,
		tokens:     d.Tokens,
		names:      d.Names,
		webhook:    d.Webhook,
		cronSecret: d.CronSecret,
	}
}

// Router собирает все маршруты.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(Identity(s.resolver, s.tokens))

	// Открытые маршруты
	r.Post("/users/register", s.handleRegister)
	r.Post("/users/auth/login", s.handleLogin)
	r.Get("/transactions/feed", s.handleFeed)
	r.Get("/leaderboard/last-month", s.handleLeaderboard)
	r.Get("/market/items", s.handleListItems)
	r.Get("/banners", s.handleListBanners)
	r.Post("/users/me/link-account", s.handleLinkAccount)
	r.Post("/telegram/webhook", s.webhook)

	// Операции от имени пользователя из тела запроса (бэкенд мини-аппа)
	r.Post("/points/transfer", s.handleTransfer)
	r.Post("/market/purchase", s.handlePurchase)
	r.Post("/market/local-purchase", s.handleLocalPurchase)
	r.Post("/market/statix-bonus/purchase", s.handleStatixPurchase)
	r.Post("/shared-gifts/invite", s.handleSharedGiftInvite)
	r.Post("/shared-gifts/accept", s.handleSharedGiftAccept)
	r.Post("/shared-gifts/reject", s.handleSharedGiftReject)

	// Аутентифицированные маршруты
	r.Group(func(r chi.Router) {
		r.Use(RequireUser)
		r.Get("/users/me", s.handleMe)
		r.Put("/users/me", s.handleUpdateMe)
		r.Delete("/users/me", s.handleDeleteMe)
		r.Post("/users/me/onboarding", s.handleOnboarding)
		r.Post("/users/me/request-update", s.handleRequestUpdate)
		r.Get("/users/search", s.handleSearch)
		r.Get("/leaderboard/rank", s.handleRank)
		r.Post("/roulette/assemble", s.handleAssemble)
		r.Post("/roulette/spin", s.handleSpin)
		r.Get("/roulette/history", s.handleRouletteHistory)
		r.Post("/sessions", s.handleStartSession)
		r.Post("/sessions/{id}/ping", s.handlePingSession)
	})

	// Администрирование
	r.Group(func(r chi.Router) {
		r.Use(RequireAdmin)
		r.Post("/admin/market/items", s.handleCreateItem)
		r.Delete("/admin/market/items/{id}", s.handleArchiveItem)
		r.Post("/admin/market/items/{id}/codes", s.handleSeedCodes)
		r.Post("/admin/banners", s.handleCreateBanner)
		r.Delete("/admin/banners/{id}", s.handleDeactivateBanner)
	})

	// Планировщик (внешний cron)
	r.Group(func(r chi.Router) {
		r.Use(RequireCronSecret(s.cronSecret))
		r.Post("/scheduler/run-daily-tasks", s.handleRunDaily)
		r.Post("/scheduler/run-monthly-tasks", s.handleRunMonthly)
	})

	return r
}

// DisplayNames адаптирует сервис пользователей к userNamer.
type DisplayNames struct {
	Users interface {
		GetByID(ctx context.Context, id int64) (*users.User, error)
	}
}

func (d DisplayNames) DisplayNameByID(ctx context.Context, id int64) string {
	u, err := d.Users.GetByID(ctx, id)
	if err != nil {
		return ""
	}
	return u.DisplayName()
}
