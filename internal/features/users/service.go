// Package users — service.go содержит бизнес-логику идентификации:
// регистрация, вход по логину/паролю, привязка аккаунтов, сессии.
package users

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"thanks-bot/internal/auth"
	"thanks-bot/internal/common"
)

// Notifier — уведомления, которые шлёт сервис после успешных операций.
type Notifier interface {
	RegistrationRequested(userID int64, displayName, position, department string)
}

type Service struct {
	repo     *Repository
	notifier Notifier
}

func NewService(repo *Repository, notifier Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// Register создаёт пользователя в статусе pending и уведомляет администраторов
// сообщением с кнопками approve_<id> / reject_<id>.
func (s *Service) Register(ctx context.Context, n *NewUser) (*User, error) {
	n.Email = strings.ToLower(strings.TrimSpace(n.Email))

	var hash *string
	if n.Password != "" {
		h, err := auth.HashPassword(n.Password)
		if err != nil {
			return nil, err
		}
		hash = &h
	}

	u, err := s.repo.Create(ctx, n, hash)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"user_id": u.ID, "email": u.Email}).Info("Создана заявка на регистрацию")

	// Уведомление вне транзакции, сбой доставки регистрацию не откатывает
	s.notifier.RegistrationRequested(u.ID, u.DisplayName(), u.Position, u.Department)

	return u, nil
}

// Authenticate проверяет учётные данные веб-входа.
// Требуются browser_auth_enabled и статус approved.
func (s *Service) Authenticate(ctx context.Context, loginOrEmail, password string) (*User, error) {
	u, err := s.repo.GetByLoginOrEmail(ctx, loginOrEmail)
	if err != nil {
		return nil, common.ErrInvalidCredentials
	}
	if u.PasswordHash == nil || !auth.CheckPassword(*u.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}
	if !u.BrowserAuthEnabled {
		return nil, common.ErrNotApproved
	}
	switch u.Status {
	case StatusApproved:
	case StatusBlocked:
		return nil, common.ErrAccountBlocked
	default:
		return nil, common.ErrNotApproved
	}

	if err := s.repo.UpdateLastLogin(ctx, u.ID); err != nil {
		log.WithError(err).WithField("user_id", u.ID).Warn("Не удалось обновить last_login")
	}
	return u, nil
}

// GetByID возвращает пользователя по внутреннему id.
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByTelegramID возвращает пользователя по Telegram id.
func (s *Service) GetByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	return s.repo.GetByTelegramID(ctx, telegramID)
}

// UpdateSelf применяет прямые правки профиля.
func (s *Service) UpdateSelf(ctx context.Context, id int64, upd *ProfileUpdate) (*User, error) {
	return s.repo.UpdateSelf(ctx, id, upd)
}

// LinkTelegram привязывает Telegram-аккаунт к веб-пользователю по email.
func (s *Service) LinkTelegram(ctx context.Context, email string, telegramID int64) (*User, error) {
	return s.repo.LinkTelegram(ctx, strings.ToLower(strings.TrimSpace(email)), telegramID)
}

// Search ищет пользователей для выбора получателя перевода.
func (s *Service) Search(ctx context.Context, query string) ([]*User, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	return s.repo.Search(ctx, query)
}

// Anonymize стирает персональные данные пользователя, сохраняя историю.
func (s *Service) Anonymize(ctx context.Context, id int64) error {
	return s.repo.Anonymize(ctx, id)
}

// SetOnboardingSeen отмечает прохождение онбординга.
func (s *Service) SetOnboardingSeen(ctx context.Context, id int64) error {
	return s.repo.SetOnboardingSeen(ctx, id)
}

// MarkBotStarted фиксирует /start. Возвращает true при первом взаимодействии.
func (s *Service) MarkBotStarted(ctx context.Context, telegramID int64) (bool, error) {
	return s.repo.SetBotStarted(ctx, telegramID)
}

// SaveCard сохраняет данные карты лояльности из .pkpass.
func (s *Service) SaveCard(ctx context.Context, telegramID int64, barcode, balance, first, last string) error {
	return s.repo.SaveCard(ctx, telegramID, barcode, balance, first, last)
}

// CreditBirthdays начисляет именинникам бонус (ежедневная задача).
// Идемпотентна в пределах суток за счёт отметки последнего начисления.
func (s *Service) CreditBirthdays(ctx context.Context, bonus int64) ([]BirthdayUser, error) {
	return s.repo.CreditBirthdays(ctx, bonus)
}

// StartSession создаёт веб-сессию для аналитики.
func (s *Service) StartSession(ctx context.Context, userID int64) (*Session, error) {
	return s.repo.StartSession(ctx, userID)
}

// PingSession продлевает сессию; nil — если сессия не найдена.
func (s *Service) PingSession(ctx context.Context, id int64) (*Session, error) {
	return s.repo.PingSession(ctx, id)
}
