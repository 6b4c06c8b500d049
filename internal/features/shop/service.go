// Package shop — service.go координирует покупки от начала до конца:
// проверки, атомарная операция в репозитории, уведомления после коммита.
package shop

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"thanks-bot/internal/common"
)

// repository — операции с хранилищем, нужные сервису.
// Конкретная реализация — *Repository, в тестах подменяется фейком.
type repository interface {
	ListItems(ctx context.Context) ([]*MarketItem, error)
	GetItem(ctx context.Context, id int64) (*MarketItem, error)
	CreateItem(ctx context.Context, m *MarketItem, priceDivisor int64) (*MarketItem, error)
	ArchiveItem(ctx context.Context, id int64) error
	SeedCodes(ctx context.Context, itemID int64, n int) (int, error)
	Purchase(ctx context.Context, userID, itemID int64) (*PurchaseResult, error)
	CreateInvitation(ctx context.Context, buyerID, invitedID, itemID int64, ttl time.Duration) (*InvitationResult, error)
	AcceptInvitation(ctx context.Context, invID, userID int64, now time.Time) (*InvitationResult, error)
	RejectInvitation(ctx context.Context, invID, userID int64) (*InvitationResult, error)
	ExpireInvitations(ctx context.Context, now time.Time) ([]ExpiredRefund, error)
	CreateLocalGift(ctx context.Context, userID, itemID int64, city, websiteURL string) (*LocalGiftResult, error)
	ProcessLocalGift(ctx context.Context, giftID int64, approve bool) (*LocalGiftResult, error)
	DebitForBonus(ctx context.Context, userID, amount int64) (int64, error)
	RefundBonus(ctx context.Context, userID, amount int64) (int64, error)
}

// Notifier — уведомления магазина: покупателю, приглашённому и в админ-чат.
type Notifier interface {
	PurchaseConfirmed(telegramID int64, itemName string, issuedCode *string, newBalance int64)
	AdminPurchaseNotice(userName, itemName string)
	SharedGiftInvite(telegramID int64, invitationID int64, buyerName, itemName string)
	SharedGiftAccepted(buyerTG int64, itemName string)
	SharedGiftRejected(buyerTG int64, itemName string, refund int64)
	SharedGiftExpired(buyerTG int64, itemName string, refund int64)
	LocalGiftRequested(giftID int64, userName, itemName, city, websiteURL string)
	LocalGiftPendingNotice(userTG int64, itemName string, reserved int64)
	LocalGiftProcessed(userTG int64, itemName string, approved bool)
}

// BonusClient — внешняя бонусная система (statix).
type BonusClient interface {
	CreditBonus(ctx context.Context, userID, amount int64) error
}

type Service struct {
	repo          repository
	notifier      Notifier
	bonusClient   BonusClient
	sharedGiftTTL time.Duration
	priceDivisor  int64
}

func NewService(repo *Repository, notifier Notifier, bonusClient BonusClient,
	sharedGiftTTL time.Duration, priceDivisor int64) *Service {
	return &Service{
		repo:          repo,
		notifier:      notifier,
		bonusClient:   bonusClient,
		sharedGiftTTL: sharedGiftTTL,
		priceDivisor:  priceDivisor,
	}
}

// ListItems возвращает каталог.
func (s *Service) ListItems(ctx context.Context) ([]*MarketItem, error) {
	return s.repo.ListItems(ctx)
}

// GetItem возвращает товар.
func (s *Service) GetItem(ctx context.Context, id int64) (*MarketItem, error) {
	return s.repo.GetItem(ctx, id)
}

// CreateItem добавляет товар в каталог; цена в спасибо выводится из рублёвой.
func (s *Service) CreateItem(ctx context.Context, m *MarketItem) (*MarketItem, error) {
	return s.repo.CreateItem(ctx, m, s.priceDivisor)
}

// ArchiveItem убирает товар из каталога, сохраняя историю покупок.
func (s *Service) ArchiveItem(ctx context.Context, id int64) error {
	return s.repo.ArchiveItem(ctx, id)
}

// SeedCodes загружает партию одноразовых кодов для auto-issuance товара.
func (s *Service) SeedCodes(ctx context.Context, itemID int64, n int) (int, error) {
	return s.repo.SeedCodes(ctx, itemID, n)
}

// Purchase выполняет обычную покупку. Для auto-issuance товара покупатель
// получает одноразовый код в ответе и в Telegram-сообщении.
func (s *Service) Purchase(ctx context.Context, userID, itemID int64, userName string) (*PurchaseResult, error) {
	res, err := s.repo.Purchase(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"item_id": itemID,
	}).Info("Покупка выполнена")

	if res.BuyerTG != nil && *res.BuyerTG > 0 {
		s.notifier.PurchaseConfirmed(*res.BuyerTG, res.ItemName, res.IssuedCode, res.NewBalance)
	}
	s.notifier.AdminPurchaseNotice(userName, res.ItemName)

	return res, nil
}

// InviteSharedGift создаёт приглашение совместного подарка.
// Покупатель и приглашённый должны быть разными людьми.
func (s *Service) InviteSharedGift(ctx context.Context, buyerID, invitedID, itemID int64, buyerName string) (*InvitationResult, error) {
	if buyerID == invitedID {
		return nil, common.ErrSelfTransfer
	}

	res, err := s.repo.CreateInvitation(ctx, buyerID, invitedID, itemID, s.sharedGiftTTL)
	if err != nil {
		return nil, err
	}

	if res.InvitedTG != nil && *res.InvitedTG > 0 {
		s.notifier.SharedGiftInvite(*res.InvitedTG, res.Invitation.ID, buyerName, res.ItemName)
	}
	return res, nil
}

// AcceptSharedGift — принятие приглашения приглашённым.
func (s *Service) AcceptSharedGift(ctx context.Context, invID, userID int64) (*InvitationResult, error) {
	res, err := s.repo.AcceptInvitation(ctx, invID, userID, time.Now())
	if err != nil {
		return nil, err
	}
	if res.BuyerTG != nil && *res.BuyerTG > 0 {
		s.notifier.SharedGiftAccepted(*res.BuyerTG, res.ItemName)
	}
	return res, nil
}

// RejectSharedGift — отклонение приглашения приглашённым с возвратом покупателю.
func (s *Service) RejectSharedGift(ctx context.Context, invID, userID int64) (*InvitationResult, error) {
	res, err := s.repo.RejectInvitation(ctx, invID, userID)
	if err != nil {
		return nil, err
	}
	if res.BuyerTG != nil && *res.BuyerTG > 0 {
		s.notifier.SharedGiftRejected(*res.BuyerTG, res.ItemName, res.Invitation.Price)
	}
	return res, nil
}

// ExpireSharedGifts — метла просроченных приглашений (ежедневная задача).
// Идемпотентна: повторный запуск не порождает повторных возвратов.
func (s *Service) ExpireSharedGifts(ctx context.Context) (int, error) {
	refunds, err := s.repo.ExpireInvitations(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	for _, ref := range refunds {
		if ref.BuyerTG != nil && *ref.BuyerTG > 0 {
			s.notifier.SharedGiftExpired(*ref.BuyerTG, ref.ItemName, ref.Price)
		}
	}
	return len(refunds), nil
}

// CreateLocalGift создаёт заявку на локальную покупку с резервом средств.
func (s *Service) CreateLocalGift(ctx context.Context, userID, itemID int64, city, websiteURL string) (*LocalGiftResult, error) {
	res, err := s.repo.CreateLocalGift(ctx, userID, itemID, city, websiteURL)
	if err != nil {
		return nil, err
	}

	s.notifier.LocalGiftRequested(res.Gift.ID, res.UserName, res.ItemName, city, websiteURL)
	if res.UserTG != nil && *res.UserTG > 0 {
		s.notifier.LocalGiftPendingNotice(*res.UserTG, res.ItemName, res.Gift.ReservedAmount)
	}
	return res, nil
}

// ProcessLocalGift — одобрение/отклонение заявки администратором.
func (s *Service) ProcessLocalGift(ctx context.Context, giftID int64, approve bool) (*LocalGiftResult, error) {
	res, err := s.repo.ProcessLocalGift(ctx, giftID, approve)
	if err != nil {
		return nil, err
	}
	if res.AlreadyDone {
		return res, nil
	}
	if res.UserTG != nil && *res.UserTG > 0 {
		s.notifier.LocalGiftProcessed(*res.UserTG, res.ItemName, approve)
	}
	return res, nil
}

// PurchaseStatixBonus — покупка бонусов внешней системы лояльности.
// Списание коммитится локально, затем выполняется внешний вызов;
// при отказе внешней системы списание компенсируется возвратом.
func (s *Service) PurchaseStatixBonus(ctx context.Context, userID, amount int64) (*StatixResult, error) {
	if amount <= 0 {
		return nil, common.ErrWrongItemKind
	}

	newBalance, err := s.repo.DebitForBonus(ctx, userID, amount)
	if err != nil {
		return nil, err
	}

	if err := s.bonusClient.CreditBonus(ctx, userID, amount); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Внешняя бонусная система отклонила начисление")
		if _, refundErr := s.repo.RefundBonus(ctx, userID, amount); refundErr != nil {
			// Возврат не прошёл — это уже инцидент для ручного разбора
			log.WithError(refundErr).WithField("user_id", userID).Error("Компенсация списания не выполнена")
		}
		return nil, common.ErrBonusCreditFailed
	}

	return &StatixResult{NewBalance: newBalance, PurchasedBonus: amount}, nil
}
