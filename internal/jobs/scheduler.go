// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ежедневное обслуживание в 00:05
// и ежемесячная пересборка баннеров. Те же задачи доступны внешнему
// cron через HTTP-эндпоинты планировщика.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"thanks-bot/internal/features/users"
)

// userService — операции пользователей для ежедневной задачи.
type userService interface {
	CreditBirthdays(ctx context.Context, bonus int64) ([]users.BirthdayUser, error)
}

type ledgerService interface {
	ResetDailyLimits(ctx context.Context) (int64, error)
}

type raffleService interface {
	ResetStaleFragments(ctx context.Context) (int64, error)
	ResetStaleTickets(ctx context.Context) (int64, error)
}

type shopService interface {
	ExpireSharedGifts(ctx context.Context) (int, error)
}

type bannerService interface {
	RebuildMonthly(ctx context.Context) error
}

// birthdayNotifier поздравляет именинников.
type birthdayNotifier interface {
	BirthdayCongrats(telegramID int64, firstName string, bonus int64)
}

// DailyReport — счётчики выполненной ежедневной задачи.
type DailyReport struct {
	BirthdaysCredited  int64 `json:"birthdays_credited"`
	DailyLimitsReset   int64 `json:"daily_limits_reset"`
	FragmentsReset     int64 `json:"fragments_reset"`
	TicketsReset       int64 `json:"tickets_reset"`
	InvitationsExpired int64 `json:"invitations_expired"`
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron *cron.Cron

	users    userService
	ledger   ledgerService
	raffle   raffleService
	shop     shopService
	banners  bannerService
	notifier birthdayNotifier

	birthdayBonus int64
}

// NewScheduler создаёт планировщик задач с московским часовым поясом.
func NewScheduler(usersSvc userService, ledgerSvc ledgerService, raffleSvc raffleService,
	shopSvc shopService, bannerSvc bannerService, notifier birthdayNotifier, birthdayBonus int64) *Scheduler {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		log.WithError(err).Warn("Не удалось загрузить Europe/Moscow, используем UTC+3")
		loc = time.FixedZone("MSK", 3*60*60)
	}

	return &Scheduler{
		cron:          cron.New(cron.WithLocation(loc)),
		users:         usersSvc,
		ledger:        ledgerSvc,
		raffle:        raffleSvc,
		shop:          shopSvc,
		banners:       bannerSvc,
		notifier:      notifier,
		birthdayBonus: birthdayBonus,
	}
}

// Start запускает внутреннее расписание.
func (s *Scheduler) Start(ctx context.Context) {
	// Ежедневное обслуживание в 00:05 по Москве
	s.cron.AddFunc("5 0 * * *", func() {
		log.Info("[CRON] Ежедневное обслуживание")
		report := s.RunDaily(ctx)
		log.WithFields(log.Fields{
			"birthdays": report.BirthdaysCredited,
			"limits":    report.DailyLimitsReset,
			"fragments": report.FragmentsReset,
			"tickets":   report.TicketsReset,
			"expired":   report.InvitationsExpired,
		}).Info("[CRON] Ежедневное обслуживание завершено")
	})

	// Пересборка баннеров 1-го числа в 00:30
	s.cron.AddFunc("30 0 1 * *", func() {
		log.Info("[CRON] Ежемесячная пересборка баннеров")
		if err := s.RunMonthly(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка пересборки баннеров")
		}
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен (Europe/Moscow)")
}

// Stop останавливает планировщик и ждёт завершения текущих задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

// RunDaily выполняет ежедневное обслуживание. Каждый шаг идемпотентен;
// сбой одного шага логируется и не останавливает остальные.
func (s *Scheduler) RunDaily(ctx context.Context) DailyReport {
	var report DailyReport

	credited, err := s.users.CreditBirthdays(ctx, s.birthdayBonus)
	if err != nil {
		log.WithError(err).Error("[CRON] Ошибка начисления именинникам")
	}
	report.BirthdaysCredited = int64(len(credited))
	for _, bu := range credited {
		if bu.TelegramID != nil && *bu.TelegramID > 0 {
			s.notifier.BirthdayCongrats(*bu.TelegramID, bu.FirstName, s.birthdayBonus)
		}
	}

	if n, err := s.ledger.ResetDailyLimits(ctx); err != nil {
		log.WithError(err).Error("[CRON] Ошибка сброса дневных лимитов")
	} else {
		report.DailyLimitsReset = n
	}

	if n, err := s.raffle.ResetStaleFragments(ctx); err != nil {
		log.WithError(err).Error("[CRON] Ошибка сброса фрагментов")
	} else {
		report.FragmentsReset = n
	}

	if n, err := s.raffle.ResetStaleTickets(ctx); err != nil {
		log.WithError(err).Error("[CRON] Ошибка сброса билетов")
	} else {
		report.TicketsReset = n
	}

	if n, err := s.shop.ExpireSharedGifts(ctx); err != nil {
		log.WithError(err).Error("[CRON] Ошибка обработки истёкших приглашений")
	} else {
		report.InvitationsExpired = int64(n)
	}

	return report
}

// RunMonthly выполняет ежемесячное обслуживание.
func (s *Scheduler) RunMonthly(ctx context.Context) error {
	return s.banners.RebuildMonthly(ctx)
}
