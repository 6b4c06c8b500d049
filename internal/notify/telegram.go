// Package notify — доставка уведомлений в Telegram.
// Один компонент реализует интерфейсы Notifier всех фич:
// сообщения пользователям и карточки с кнопками в админ-чат.
package notify

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Префиксы callback-данных inline-кнопок. Формат: <префикс><id>.
// Регистрационная пара короткая, остальные префиксы длиннее и при
// разборе имеют приоритет.
const (
	CallbackApproveUser   = "approve_"
	CallbackRejectUser    = "reject_"
	CallbackApproveUpdate = "approve_update_"
	CallbackRejectUpdate  = "reject_update_"
	CallbackApproveLocal  = "approve_local_purchase_"
	CallbackRejectLocal   = "reject_local_purchase_"
	CallbackAcceptShared  = "accept_shared_gift_"
	CallbackRejectShared  = "reject_shared_gift_"
)

const (
	maxSendAttempts = 3
	requestTimeout  = 30 * time.Second
	connectTimeout  = 10 * time.Second
)

// botAPI — минимальная поверхность tgbotapi, в тестах подменяется фейком.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Telegram отправляет уведомления через Bot API с повторами.
type Telegram struct {
	bot             botAPI
	adminChatID     int64
	purchaseTopicID int
	approvalTopicID int
}

// NewBotAPI создаёт клиент Bot API с ограниченными таймаутами:
// зависший вызов не должен блокировать обработку запроса.
func NewBotAPI(token string) (*tgbotapi.BotAPI, error) {
	client := &http.Client{
		Timeout: requestTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
		},
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации Bot API: %w", err)
	}
	return bot, nil
}

// NewTelegram создаёт отправителя поверх готового клиента Bot API.
func NewTelegram(bot botAPI, adminChatID int64, purchaseTopicID, approvalTopicID int) *Telegram {
	return &Telegram{
		bot:             bot,
		adminChatID:     adminChatID,
		purchaseTopicID: purchaseTopicID,
		approvalTopicID: approvalTopicID,
	}
}

// nonRetryable — ответы Bot API, при которых повтор бессмысленен.
// Любой Bad Request постоянен: запрос не станет корректным от повтора.
var nonRetryable = []string{
	"bot was blocked by the user",
	"user is deactivated",
	"chat not found",
	"bot can't initiate conversation",
	"message is not modified",
	"message is too long",
	"message to delete not found",
	"message to edit not found",
	"can't parse entities",
	"bad request",
}

func isRetryable(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, s := range nonRetryable {
		if strings.Contains(msg, s) {
			return false
		}
	}
	return true
}

// send отправляет сообщение с повторами: 3 попытки с паузами 1s/2s/4s,
// при 429 пауза берётся из retry_after.
func (t *Telegram) send(msg tgbotapi.Chattable) {
	delay := time.Second
	for attempt := 1; ; attempt++ {
		_, err := t.bot.Send(msg)
		if err == nil {
			return
		}

		var tgErr *tgbotapi.Error
		wait := delay
		if ok := asTelegramError(err, &tgErr); ok && tgErr.RetryAfter > 0 {
			wait = time.Duration(tgErr.RetryAfter) * time.Second
		}

		if attempt >= maxSendAttempts || !isRetryable(err) {
			log.WithError(err).Warn("Сообщение в Telegram не доставлено")
			return
		}
		time.Sleep(wait)
		delay *= 2
	}
}

func asTelegramError(err error, target **tgbotapi.Error) bool {
	if te, ok := err.(*tgbotapi.Error); ok {
		*target = te
		return true
	}
	return false
}

func (t *Telegram) sendText(chatID int64, text string) {
	t.send(tgbotapi.NewMessage(chatID, text))
}

// sendToTopic отправляет сообщение в топик админ-чата.
// Топик адресуется ответом на его корневое сообщение; если топик
// удалён, сообщение уходит в общий чат.
func (t *Telegram) sendToTopic(topicID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(t.adminChatID, text)
	msg.ReplyToMessageID = topicID
	msg.AllowSendingWithoutReply = true
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	t.send(msg)
}

func decisionKeyboard(approveData, rejectData string) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Одобрить", approveData),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отклонить", rejectData),
		),
	)
	return &kb
}

// AnswerCallback закрывает «часики» на кнопке и показывает всплывающий текст.
func (t *Telegram) AnswerCallback(callbackID, text string) {
	if _, err := t.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.WithError(err).Warn("Ответ на callback не отправлен")
	}
}

// --- Переводы ---

func (t *Telegram) TransferReceived(telegramID int64, senderName, message string, newBalance int64) {
	text := fmt.Sprintf("💜 %s поблагодарил(а) вас!", senderName)
	if message != "" {
		text += fmt.Sprintf("\n\n«%s»", message)
	}
	text += fmt.Sprintf("\n\nВаш баланс: %d спасибо", newBalance)
	t.sendText(telegramID, text)
}

// --- Магазин ---

func (t *Telegram) PurchaseConfirmed(telegramID int64, itemName string, issuedCode *string, newBalance int64) {
	text := fmt.Sprintf("🛍 Покупка «%s» оформлена.\nОстаток: %d спасибо", itemName, newBalance)
	if issuedCode != nil {
		text += fmt.Sprintf("\n\nВаш код: %s", *issuedCode)
	}
	t.sendText(telegramID, text)
}

func (t *Telegram) AdminPurchaseNotice(userName, itemName string) {
	t.sendToTopic(t.purchaseTopicID,
		fmt.Sprintf("🛍 %s купил(а) «%s»", userName, itemName), nil)
}

func (t *Telegram) SharedGiftInvite(telegramID int64, invitationID int64, buyerName, itemName string) {
	msg := tgbotapi.NewMessage(telegramID,
		fmt.Sprintf("🎁 %s приглашает вас разделить подарок «%s».\nПриглашение действует 24 часа.", buyerName, itemName))
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Принять",
				fmt.Sprintf("%s%d", CallbackAcceptShared, invitationID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отказаться",
				fmt.Sprintf("%s%d", CallbackRejectShared, invitationID)),
		),
	)
	msg.ReplyMarkup = kb
	t.send(msg)
}

func (t *Telegram) SharedGiftAccepted(buyerTG int64, itemName string) {
	t.sendText(buyerTG, fmt.Sprintf("🎁 Приглашение на «%s» принято!", itemName))
}

func (t *Telegram) SharedGiftRejected(buyerTG int64, itemName string, refund int64) {
	t.sendText(buyerTG,
		fmt.Sprintf("Приглашение на «%s» отклонено. Возврат: %d спасибо", itemName, refund))
}

func (t *Telegram) SharedGiftExpired(buyerTG int64, itemName string, refund int64) {
	t.sendText(buyerTG,
		fmt.Sprintf("Приглашение на «%s» истекло. Возврат: %d спасибо", itemName, refund))
}

func (t *Telegram) LocalGiftRequested(giftID int64, userName, itemName, city, websiteURL string) {
	text := fmt.Sprintf("📦 Заявка на локальную покупку\n\nСотрудник: %s\nТовар: %s\nГород: %s",
		userName, itemName, city)
	if websiteURL != "" {
		text += "\nСайт: " + websiteURL
	}
	t.sendToTopic(t.purchaseTopicID, text, decisionKeyboard(
		fmt.Sprintf("%s%d", CallbackApproveLocal, giftID),
		fmt.Sprintf("%s%d", CallbackRejectLocal, giftID),
	))
}

func (t *Telegram) LocalGiftPendingNotice(userTG int64, itemName string, reserved int64) {
	t.sendText(userTG,
		fmt.Sprintf("📦 Заявка на «%s» отправлена. Зарезервировано %d спасибо до решения администратора.",
			itemName, reserved))
}

func (t *Telegram) LocalGiftProcessed(userTG int64, itemName string, approved bool) {
	if approved {
		t.sendText(userTG, fmt.Sprintf("✅ Заявка на «%s» одобрена!", itemName))
		return
	}
	t.sendText(userTG, fmt.Sprintf("❌ Заявка на «%s» отклонена. Резерв возвращён на баланс.", itemName))
}

// --- Регистрация и профиль ---

func (t *Telegram) RegistrationRequested(userID int64, displayName, position, department string) {
	text := fmt.Sprintf("👤 Новая регистрация\n\n%s\n%s, %s", displayName, position, department)
	t.sendToTopic(t.approvalTopicID, text, decisionKeyboard(
		fmt.Sprintf("%s%d", CallbackApproveUser, userID),
		fmt.Sprintf("%s%d", CallbackRejectUser, userID),
	))
}

func (t *Telegram) RegistrationProcessed(telegramID int64, approved bool) {
	if approved {
		t.sendText(telegramID, "✅ Ваша регистрация одобрена. Добро пожаловать!")
		return
	}
	t.sendText(telegramID, "❌ Ваша регистрация отклонена.")
}

func (t *Telegram) ProfileUpdateRequested(updateID int64, userName string, changes []string) {
	text := fmt.Sprintf("✏️ Запрос на изменение профиля\n\nСотрудник: %s\n\n%s",
		userName, strings.Join(changes, "\n"))
	t.sendToTopic(t.approvalTopicID, text, decisionKeyboard(
		fmt.Sprintf("%s%d", CallbackApproveUpdate, updateID),
		fmt.Sprintf("%s%d", CallbackRejectUpdate, updateID),
	))
}

func (t *Telegram) ProfileUpdateProcessed(telegramID int64, approved bool) {
	if approved {
		t.sendText(telegramID, "✅ Изменения профиля одобрены.")
		return
	}
	t.sendText(telegramID, "❌ Изменения профиля отклонены.")
}

// --- Планировщик ---

func (t *Telegram) BirthdayCongrats(telegramID int64, firstName string, bonus int64) {
	t.sendText(telegramID,
		fmt.Sprintf("🎂 %s, с днём рождения! Вам начислено %d спасибо.", firstName, bonus))
}

// --- Служебное ---

// CardSaved подтверждает загрузку карты лояльности из .pkpass.
func (t *Telegram) CardSaved(telegramID int64, balance string) {
	text := "💳 Карта сохранена."
	if balance != "" {
		text += " Баланс: " + balance
	}
	t.sendText(telegramID, text)
}

// LinkHint подсказывает веб-пользователю, что аккаунт привязан.
func (t *Telegram) LinkHint(telegramID int64) {
	t.sendText(telegramID, "🔗 Telegram привязан к вашему аккаунту.")
}

// Greeting — ответ на первый /start: приветствие для зарегистрированных,
// приглашение зарегистрироваться для остальных.
func (t *Telegram) Greeting(telegramID int64, known bool) {
	if known {
		t.sendText(telegramID, "Привет! Уведомления включены.")
		return
	}
	t.sendText(telegramID, "Привет! Зарегистрируйтесь в приложении, чтобы получать и дарить спасибо.")
}
