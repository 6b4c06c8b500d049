// Package config загружает конфигурацию платформы из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// Админский чат (форум) и топики, куда летят уведомления
	AdminChatID          int64 `envconfig:"ADMIN_CHAT_ID" required:"true"`
	AdminPurchaseTopicID int   `envconfig:"ADMIN_PURCHASE_TOPIC_ID" default:"0"`
	AdminApprovalTopicID int   `envconfig:"ADMIN_APPROVAL_TOPIC_ID" default:"0"`

	// --- Database ---
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- HTTP ---
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Безопасность ---
	// ADMIN_API_KEY одновременно служит секретом для эндпоинтов планировщика
	AdminAPIKey string `envconfig:"ADMIN_API_KEY" required:"true"`
	JWTSecret   string `envconfig:"JWT_SECRET" required:"true"`

	// --- Email ---
	EmailProvider string `envconfig:"EMAIL_PROVIDER" default:"postbox"` // "ses" | "postbox"
	EmailFrom     string `envconfig:"EMAIL_FROM" default:"noreply@spasibo.team"`
	AppLoginURL   string `envconfig:"APP_LOGIN_URL" default:"https://spasibo.team/login"`

	SESRegion          string `envconfig:"SES_REGION" default:"ru-central1"`
	SESEndpoint        string `envconfig:"SES_ENDPOINT" default:""`
	SESAccessKeyID     string `envconfig:"SES_ACCESS_KEY_ID" default:""`
	SESSecretAccessKey string `envconfig:"SES_SECRET_ACCESS_KEY" default:""`

	PostboxHost            string `envconfig:"POSTBOX_HOST" default:"smtp.postbox.cloud.yandex.net"`
	PostboxPort            string `envconfig:"POSTBOX_PORT" default:"587"`
	PostboxAccessKeyID     string `envconfig:"POSTBOX_ACCESS_KEY_ID" default:""`
	PostboxSecretAccessKey string `envconfig:"POSTBOX_SECRET_ACCESS_KEY" default:""`

	// --- Statix (внешняя бонусная система) ---
	StatixBaseURL string `envconfig:"STATIX_BASE_URL" default:""`
	StatixAPIKey  string `envconfig:"STATIX_API_KEY" default:""`

	// --- Планировщик ---
	// Включает внутренний cron; при внешнем cron задачи дергаются по HTTP
	CronEnabled bool `envconfig:"CRON_ENABLED" default:"true"`

	// --- Доменные константы ---
	TransferDailyLimit int           `envconfig:"TRANSFER_DAILY_LIMIT" default:"3"`
	BirthdayBonus      int64         `envconfig:"BIRTHDAY_BONUS" default:"15"`
	SharedGiftTTL      time.Duration `envconfig:"SHARED_GIFT_TTL" default:"24h"`
	PriceRubDivisor    int64         `envconfig:"PRICE_RUB_DIVISOR" default:"30"`
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.TransferDailyLimit <= 0 {
		return fmt.Errorf("TRANSFER_DAILY_LIMIT должен быть > 0")
	}
	if c.SharedGiftTTL <= 0 {
		return fmt.Errorf("SHARED_GIFT_TTL должен быть > 0")
	}
	if c.EmailProvider != "ses" && c.EmailProvider != "postbox" {
		return fmt.Errorf("EMAIL_PROVIDER должен быть ses или postbox")
	}
	if c.PriceRubDivisor <= 0 {
		return fmt.Errorf("PRICE_RUB_DIVISOR должен быть > 0")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
