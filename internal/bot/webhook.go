// Package bot принимает апдейты Telegram через webhook и маршрутизирует их:
// /start, карта лояльности из .pkpass и callback-кнопки согласований.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"thanks-bot/internal/bot/middleware"
	"thanks-bot/internal/common"
	"thanks-bot/internal/features/approvals"
	"thanks-bot/internal/features/shop"
	"thanks-bot/internal/features/users"
	"thanks-bot/internal/pkpass"
)

const (
	// Бюджет обработки одного апдейта, включая двухшаговую загрузку файла
	updateBudget = 60 * time.Second

	maxInflight    = 64
	maxPassSize    = 5 << 20
	rateLimitCount = 10
	rateLimitSpan  = 10 * time.Second
)

// userService — операции фичи users, нужные боту.
type userService interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*users.User, error)
	MarkBotStarted(ctx context.Context, telegramID int64) (bool, error)
	SaveCard(ctx context.Context, telegramID int64, barcode, balance, first, last string) error
}

type shopService interface {
	AcceptSharedGift(ctx context.Context, invID, userID int64) (*shop.InvitationResult, error)
	RejectSharedGift(ctx context.Context, invID, userID int64) (*shop.InvitationResult, error)
	ProcessLocalGift(ctx context.Context, giftID int64, approve bool) (*shop.LocalGiftResult, error)
}

type approvalService interface {
	ProcessRegistration(ctx context.Context, userID int64, approve bool) (*approvals.RegistrationResult, error)
	ProcessProfileUpdate(ctx context.Context, updateID int64, approve bool) (*approvals.PendingUpdate, error)
}

// notifier — ответы бота пользователю.
type notifier interface {
	AnswerCallback(callbackID, text string)
	Greeting(telegramID int64, known bool)
	CardSaved(telegramID int64, balance string)
}

// Bot обрабатывает апдейты Telegram.
type Bot struct {
	api       *tgbotapi.BotAPI
	users     userService
	shop      shopService
	approvals approvalService
	notifier  notifier

	rateLimiter *middleware.RateLimiter
	inflight    chan struct{}
}

func New(api *tgbotapi.BotAPI, usersSvc userService, shopSvc shopService,
	approvalSvc approvalService, n notifier) *Bot {
	return &Bot{
		api:         api,
		users:       usersSvc,
		shop:        shopSvc,
		approvals:   approvalSvc,
		notifier:    n,
		rateLimiter: middleware.NewRateLimiter(rateLimitCount, rateLimitSpan),
		inflight:    make(chan struct{}, maxInflight),
	}
}

// Close освобождает фоновые ресурсы.
func (b *Bot) Close() {
	b.rateLimiter.Close()
}

// WebhookHandler принимает апдейт от Telegram. Ответ отдаётся сразу,
// обработка идёт в фоне с ограничением параллелизма.
func (b *Bot) WebhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			log.WithError(err).Warn("Некорректный апдейт от Telegram")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		select {
		case b.inflight <- struct{}{}:
			go func() {
				defer func() { <-b.inflight }()
				defer middleware.RecoverFromPanic()

				ctx, cancel := context.WithTimeout(context.Background(), updateBudget)
				defer cancel()
				b.handleUpdate(ctx, update)
			}()
		default:
			log.Warn("Апдейт отброшен: достигнут лимит параллелизма")
		}

		w.WriteHeader(http.StatusOK)
	}
}

// handleUpdate обрабатывает один апдейт.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if !b.rateLimiter.Allow(msg.From.ID) {
		log.WithField("user_id", msg.From.ID).Debug("rate limited")
		return
	}

	switch {
	case msg.IsCommand() && msg.Command() == "start":
		b.handleStart(ctx, msg.From.ID)
	case msg.Document != nil && strings.HasSuffix(strings.ToLower(msg.Document.FileName), ".pkpass"):
		b.handlePass(ctx, msg.From.ID, msg.Document)
	}
}

// handleStart фиксирует запуск бота. Приветствие уходит только при
// первом взаимодействии; незарегистрированным (строки в базе нет,
// отметить нечего) каждый раз уходит приглашение зарегистрироваться.
func (b *Bot) handleStart(ctx context.Context, telegramID int64) {
	first, err := b.users.MarkBotStarted(ctx, telegramID)
	if err != nil {
		log.WithError(err).WithField("telegram_id", telegramID).Warn("Не удалось отметить /start")
		return
	}
	if first {
		b.notifier.Greeting(telegramID, true)
		return
	}
	if !b.isKnown(ctx, telegramID) {
		b.notifier.Greeting(telegramID, false)
	}
}

func (b *Bot) isKnown(ctx context.Context, telegramID int64) bool {
	_, err := b.users.GetByTelegramID(ctx, telegramID)
	return err == nil
}

// handlePass скачивает .pkpass в два шага (getFile, затем файл)
// и сохраняет карту лояльности.
func (b *Bot) handlePass(ctx context.Context, telegramID int64, doc *tgbotapi.Document) {
	if doc.FileSize > maxPassSize {
		log.WithField("telegram_id", telegramID).Warn("Файл .pkpass слишком большой")
		return
	}

	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: doc.FileID})
	if err != nil {
		log.WithError(err).Warn("Не удалось получить описание файла")
		return
	}

	data, err := b.download(ctx, file.Link(b.api.Token))
	if err != nil {
		log.WithError(err).Warn("Не удалось скачать .pkpass")
		return
	}

	card, err := pkpass.Parse(data)
	if err != nil {
		log.WithError(err).WithField("telegram_id", telegramID).Info("Файл .pkpass не разобран")
		return
	}

	if err := b.users.SaveCard(ctx, telegramID, card.Barcode, card.Balance,
		card.FirstName, card.LastName); err != nil {
		log.WithError(err).WithField("telegram_id", telegramID).Error("Карта не сохранена")
		return
	}
	b.notifier.CardSaved(telegramID, card.Balance)
}

func (b *Bot) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.api.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(io.LimitReader(resp.Body, maxPassSize))
}

// handleCallback маршрутизирует нажатие inline-кнопки.
func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	cb, err := ParseCallback(q.Data)
	if err != nil {
		b.notifier.AnswerCallback(q.ID, "Неизвестная кнопка")
		return
	}

	actor, err := b.users.GetByTelegramID(ctx, q.From.ID)
	if err != nil {
		b.notifier.AnswerCallback(q.ID, "Вы не зарегистрированы")
		return
	}
	if cb.adminOnly() && !actor.IsAdmin {
		b.notifier.AnswerCallback(q.ID, "Недостаточно прав")
		return
	}

	switch cb.Action {
	case ActionApproveUser, ActionRejectUser:
		_, err = b.approvals.ProcessRegistration(ctx, cb.ID, cb.approve())
	case ActionApproveUpdate, ActionRejectUpdate:
		_, err = b.approvals.ProcessProfileUpdate(ctx, cb.ID, cb.approve())
	case ActionApproveLocal, ActionRejectLocal:
		_, err = b.shop.ProcessLocalGift(ctx, cb.ID, cb.approve())
	case ActionAcceptShared:
		_, err = b.shop.AcceptSharedGift(ctx, cb.ID, actor.ID)
	case ActionRejectShared:
		_, err = b.shop.RejectSharedGift(ctx, cb.ID, actor.ID)
	}

	b.notifier.AnswerCallback(q.ID, callbackReply(err))

	if err != nil && !isBusinessError(err) {
		log.WithError(err).WithFields(log.Fields{
			"action": cb.Action,
			"id":     cb.ID,
		}).Error("Ошибка обработки callback")
	}
}

// callbackReply — короткий текст всплывающего уведомления.
func callbackReply(err error) string {
	switch {
	case err == nil:
		return "Готово"
	case errors.Is(err, common.ErrInvitationExpired):
		return "Приглашение истекло, средства возвращены"
	case errors.Is(err, common.ErrInvitationTerminal):
		return "Приглашение уже обработано"
	case errors.Is(err, common.ErrOutOfStock):
		return "Товар закончился, средства возвращены"
	case errors.Is(err, common.ErrNotInvited):
		return "Это приглашение адресовано не вам"
	case errors.Is(err, common.ErrUserNotFound):
		return "Пользователь не найден"
	default:
		return "Не получилось, попробуйте позже"
	}
}

func isBusinessError(err error) bool {
	for _, known := range []error{
		common.ErrInvitationExpired, common.ErrInvitationTerminal,
		common.ErrOutOfStock, common.ErrNotInvited, common.ErrUserNotFound,
	} {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}
