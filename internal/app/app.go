// Package app инициализирует все компоненты платформы.
// app.go — точка сборки: БД-пул, миграции, репозитории, сервисы,
// уведомления, бот, HTTP-сервер и планировщик.
package app

import (
	"context"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"thanks-bot/internal/auth"
	"thanks-bot/internal/bot"
	"thanks-bot/internal/config"
	"thanks-bot/internal/db/postgres"
	"thanks-bot/internal/features/approvals"
	"thanks-bot/internal/features/banners"
	"thanks-bot/internal/features/ledger"
	"thanks-bot/internal/features/raffle"
	"thanks-bot/internal/features/shop"
	"thanks-bot/internal/features/users"
	"thanks-bot/internal/jobs"
	"thanks-bot/internal/notify"
	"thanks-bot/internal/notify/email"
	"thanks-bot/internal/server"
)

// App содержит все компоненты приложения.
type App struct {
	Handler   http.Handler
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := notify.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	telegram := notify.NewTelegram(botAPI, cfg.AdminChatID,
		cfg.AdminPurchaseTopicID, cfg.AdminApprovalTopicID)

	// === 3. Email ===
	mailer, err := newMailer(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка настройки почты: %w", err)
	}

	// === 4. Репозитории ===
	userRepo := users.NewRepository(pool)
	ledgerRepo := ledger.NewRepository(pool)
	shopRepo := shop.NewRepository(pool)
	approvalRepo := approvals.NewRepository(pool)
	raffleRepo := raffle.NewRepository(pool)
	bannerRepo := banners.NewRepository(pool)

	// === 5. Сервисы ===
	userService := users.NewService(userRepo, telegram)
	ledgerService := ledger.NewService(ledgerRepo, telegram, cfg.TransferDailyLimit)
	statix := shop.NewStatixClient(cfg.StatixBaseURL, cfg.StatixAPIKey)
	shopService := shop.NewService(shopRepo, telegram, statix, cfg.SharedGiftTTL, cfg.PriceRubDivisor)
	approvalService := approvals.NewService(approvalRepo, userRepo, telegram, mailer)
	raffleService := raffle.NewService(raffleRepo)
	bannerService := banners.NewService(bannerRepo, ledgerService)

	// === 6. Бот и планировщик ===
	b := bot.New(botAPI, userService, shopService, approvalService, telegram)
	scheduler := jobs.NewScheduler(userService, ledgerService, raffleService,
		shopService, bannerService, telegram, cfg.BirthdayBonus)

	// === 7. HTTP-сервер ===
	tokens := auth.NewJWTManager(cfg.JWTSecret)
	srv := server.New(server.Deps{
		Users:      userService,
		Approvals:  approvalService,
		Ledger:     ledgerService,
		Shop:       shopService,
		Raffle:     raffleService,
		Banners:    bannerService,
		Scheduler:  scheduler,
		Resolver:   userService,
		Tokens:     tokens,
		Names:      server.DisplayNames{Users: userService},
		Webhook:    b.WebhookHandler(),
		CronSecret: cfg.AdminAPIKey,
	})

	return &App{
		Handler:   srv.Router(),
		Bot:       b,
		Scheduler: scheduler,
		DB:        pool,
		BotAPI:    botAPI,
	}, nil
}

// newMailer выбирает почтовый транспорт по конфигурации.
func newMailer(ctx context.Context, cfg *config.Config) (*email.Mailer, error) {
	var sender email.Sender
	switch cfg.EmailProvider {
	case "ses":
		ses, err := email.NewSESSender(ctx, email.SESConfig{
			Region:          cfg.SESRegion,
			Endpoint:        cfg.SESEndpoint,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretAccessKey,
			From:            cfg.EmailFrom,
		})
		if err != nil {
			return nil, err
		}
		sender = ses
	default:
		sender = email.NewPostboxSender(cfg.PostboxHost, cfg.PostboxPort,
			cfg.PostboxAccessKeyID, cfg.PostboxSecretAccessKey, cfg.EmailFrom)
	}
	return email.NewMailer(sender, cfg.AppLoginURL), nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.InitMigrations(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Users},
		{2, migration002Transactions},
		{3, migration003Market},
		{4, migration004Gifts},
		{5, migration005Approvals},
		{6, migration006Raffle},
		{7, migration007Banners},
		{8, migration008Sessions},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    telegram_id BIGINT UNIQUE,
    login VARCHAR(255) CONSTRAINT users_login_key UNIQUE,
    password_hash VARCHAR(255),
    browser_auth_enabled BOOLEAN DEFAULT FALSE,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    is_admin BOOLEAN DEFAULT FALSE,
    first_name VARCHAR(255) NOT NULL,
    last_name VARCHAR(255) NOT NULL DEFAULT '',
    position VARCHAR(255) NOT NULL DEFAULT '',
    department VARCHAR(255) NOT NULL DEFAULT '',
    phone VARCHAR(64) NOT NULL DEFAULT '',
    date_of_birth DATE,
    photo_url TEXT NOT NULL DEFAULT '',
    email VARCHAR(255) NOT NULL DEFAULT '',
    balance BIGINT NOT NULL DEFAULT 0,
    reserved_balance BIGINT NOT NULL DEFAULT 0,
    ticket_fragments BIGINT NOT NULL DEFAULT 0,
    tickets BIGINT NOT NULL DEFAULT 0,
    daily_transfer_count INTEGER NOT NULL DEFAULT 0,
    last_transfer_at TIMESTAMP,
    last_login TIMESTAMP,
    onboarding_seen BOOLEAN DEFAULT FALSE,
    bot_started BOOLEAN DEFAULT FALSE,
    card_barcode VARCHAR(255) NOT NULL DEFAULT '',
    card_balance VARCHAR(64) NOT NULL DEFAULT '',
    birthday_credited_at TIMESTAMP,
    fragments_reset_at TIMESTAMP,
    tickets_reset_at TIMESTAMP,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users(email) WHERE email <> '';
CREATE INDEX IF NOT EXISTS idx_users_status ON users(status);
CREATE INDEX IF NOT EXISTS idx_users_date_of_birth ON users(date_of_birth);
`

var migration002Transactions = `
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    sender_id BIGINT NOT NULL REFERENCES users(id),
    receiver_id BIGINT NOT NULL REFERENCES users(id),
    amount BIGINT NOT NULL DEFAULT 1,
    message TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_sender ON transactions(sender_id, created_at);
CREATE INDEX IF NOT EXISTS idx_transactions_receiver ON transactions(receiver_id, created_at);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at DESC);
`

var migration003Market = `
CREATE TABLE IF NOT EXISTS market_items (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    image_url TEXT NOT NULL DEFAULT '',
    price_rub BIGINT NOT NULL,
    price BIGINT NOT NULL,
    stock BIGINT NOT NULL DEFAULT 0,
    is_auto_issuance BOOLEAN DEFAULT FALSE,
    is_shared_gift BOOLEAN DEFAULT FALSE,
    is_local_purchase BOOLEAN DEFAULT FALSE,
    is_archived BOOLEAN DEFAULT FALSE,
    archived_at TIMESTAMP,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS item_codes (
    id BIGSERIAL PRIMARY KEY,
    market_item_id BIGINT NOT NULL REFERENCES market_items(id),
    value VARCHAR(64) NOT NULL,
    is_issued BOOLEAN DEFAULT FALSE,
    purchase_id BIGINT,
    recipient_id BIGINT
);
CREATE INDEX IF NOT EXISTS idx_item_codes_available ON item_codes(market_item_id) WHERE NOT is_issued;
CREATE TABLE IF NOT EXISTS purchases (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    item_id BIGINT NOT NULL REFERENCES market_items(id),
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_purchases_user ON purchases(user_id, created_at);
`

var migration004Gifts = `
CREATE TABLE IF NOT EXISTS shared_gift_invitations (
    id BIGSERIAL PRIMARY KEY,
    buyer_id BIGINT NOT NULL REFERENCES users(id),
    invited_user_id BIGINT NOT NULL REFERENCES users(id),
    item_id BIGINT NOT NULL REFERENCES market_items(id),
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    price BIGINT NOT NULL,
    created_at TIMESTAMP DEFAULT NOW(),
    expires_at TIMESTAMP NOT NULL,
    accepted_at TIMESTAMP,
    rejected_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_invitations_pending ON shared_gift_invitations(expires_at) WHERE status = 'pending';
CREATE TABLE IF NOT EXISTS local_gifts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    item_id BIGINT NOT NULL REFERENCES market_items(id),
    purchase_id BIGINT NOT NULL REFERENCES purchases(id),
    city VARCHAR(255) NOT NULL,
    website_url TEXT NOT NULL DEFAULT '',
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    reserved_amount BIGINT NOT NULL,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_local_gifts_status ON local_gifts(status);
`

var migration005Approvals = `
CREATE TABLE IF NOT EXISTS pending_updates (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    old_data JSONB NOT NULL,
    new_data JSONB NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_pending_updates_user ON pending_updates(user_id);
`

var migration006Raffle = `
CREATE TABLE IF NOT EXISTS roulette_wins (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    amount BIGINT NOT NULL,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_roulette_wins_user ON roulette_wins(user_id, created_at DESC);
`

var migration007Banners = `
CREATE TABLE IF NOT EXISTS banners (
    id BIGSERIAL PRIMARY KEY,
    kind VARCHAR(32) NOT NULL DEFAULT 'manual',
    title VARCHAR(255) NOT NULL,
    body TEXT NOT NULL DEFAULT '',
    image_url TEXT NOT NULL DEFAULT '',
    link_url TEXT NOT NULL DEFAULT '',
    position INTEGER NOT NULL DEFAULT 0,
    active BOOLEAN DEFAULT TRUE,
    created_at TIMESTAMP DEFAULT NOW()
);
`

var migration008Sessions = `
CREATE TABLE IF NOT EXISTS user_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    session_start TIMESTAMP NOT NULL DEFAULT NOW(),
    last_seen TIMESTAMP NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_user_sessions_user ON user_sessions(user_id);
`
