// Package approvals — service.go: бизнес-логика согласований.
// Одобрение регистрации генерирует учётные данные и отправляет их
// письмом ровно один раз; изменения профиля применяются из снимка.
package approvals

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"thanks-bot/internal/auth"
	"thanks-bot/internal/common"
	"thanks-bot/internal/features/users"
)

// repository — операции с хранилищем, нужные сервису.
// Конкретная реализация — *Repository, в тестах подменяется фейком.
type repository interface {
	SetUserStatus(ctx context.Context, userID int64, status string) error
	SetCredentials(ctx context.Context, userID int64, login, passwordHash string) error
	LoginTaken(ctx context.Context, login string) (bool, error)
	CreatePendingUpdate(ctx context.Context, userID int64, oldData, newData ProfileFields) (*PendingUpdate, error)
	ProcessPendingUpdate(ctx context.Context, updateID int64, approve bool) (*PendingUpdate, *int64, error)
}

// userDirectory — чтение пользователей из соседней фичи.
type userDirectory interface {
	GetByID(ctx context.Context, id int64) (*users.User, error)
}

// Notifier — Telegram-уведомления цепочек согласования.
type Notifier interface {
	RegistrationProcessed(telegramID int64, approved bool)
	ProfileUpdateRequested(updateID int64, userName string, changes []string)
	ProfileUpdateProcessed(telegramID int64, approved bool)
}

// CredentialsMailer отправляет письмо с учётными данными.
type CredentialsMailer interface {
	SendCredentials(ctx context.Context, email, firstName, login, password string) error
}

type Service struct {
	repo     repository
	users    userDirectory
	notifier Notifier
	mailer   CredentialsMailer
}

func NewService(repo *Repository, usersRepo *users.Repository, notifier Notifier, mailer CredentialsMailer) *Service {
	return &Service{repo: repo, users: usersRepo, notifier: notifier, mailer: mailer}
}

// RegistrationResult — итог обработки регистрации.
// Credentials заполняются только при первом одобрении веб-регистрации.
type RegistrationResult struct {
	User        *users.User
	Credentials *ApprovedCredentials
}

// ProcessRegistration — одобрение или отклонение регистрации администратором.
// Повторное одобрение уже одобренного пользователя идемпотентно:
// статус не меняется, учётные данные не перегенерируются, письмо не уходит.
func (s *Service) ProcessRegistration(ctx context.Context, userID int64, approve bool) (*RegistrationResult, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if approve && u.Status == users.StatusApproved {
		return &RegistrationResult{User: u}, nil
	}

	status := users.StatusRejected
	if approve {
		status = users.StatusApproved
	}
	if err := s.repo.SetUserStatus(ctx, userID, status); err != nil {
		return nil, err
	}
	u.Status = status

	res := &RegistrationResult{User: u}

	if approve && u.PasswordHash == nil {
		creds, err := s.issueCredentials(ctx, u)
		if err != nil {
			return nil, err
		}
		res.Credentials = creds
	}

	if u.TelegramID != nil && *u.TelegramID > 0 {
		s.notifier.RegistrationProcessed(*u.TelegramID, approve)
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"approved": approve,
	}).Info("Регистрация обработана")
	return res, nil
}

// issueCredentials генерирует логин и пароль, сохраняет их и отправляет
// письмо. Открытый пароль нигде не сохраняется.
func (s *Service) issueCredentials(ctx context.Context, u *users.User) (*ApprovedCredentials, error) {
	login := ""
	if u.Login != nil {
		login = *u.Login
	} else {
		generated, err := GenerateLogin(u.FirstName, u.LastName, u.ID, func(l string) (bool, error) {
			return s.repo.LoginTaken(ctx, l)
		})
		if err != nil {
			return nil, err
		}
		login = generated
	}

	password, err := auth.GeneratePassword(auth.GeneratedPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("ошибка генерации пароля: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	if err := s.repo.SetCredentials(ctx, u.ID, login, hash); err != nil {
		return nil, err
	}

	if u.Email != "" {
		if err := s.mailer.SendCredentials(ctx, u.Email, u.FirstName, login, password); err != nil {
			// Учётные данные уже сохранены, падать нельзя
			log.WithError(err).WithField("user_id", u.ID).Error("Письмо с учётными данными не отправлено")
		}
	}

	return &ApprovedCredentials{Login: login, Password: password}, nil
}

// RequestProfileUpdate создаёт заявку на изменение профиля.
// В снимки попадают только реально изменившиеся поля;
// пустая разница — ошибка ErrNoChanges.
func (s *Service) RequestProfileUpdate(ctx context.Context, u *users.User, req ProfileFields) (*PendingUpdate, error) {
	oldData, newData, changes := diffProfile(u, req)
	if len(changes) == 0 {
		return nil, common.ErrNoChanges
	}

	p, err := s.repo.CreatePendingUpdate(ctx, u.ID, oldData, newData)
	if err != nil {
		return nil, err
	}

	s.notifier.ProfileUpdateRequested(p.ID, u.DisplayName(), changes)

	log.WithFields(log.Fields{
		"user_id":   u.ID,
		"update_id": p.ID,
	}).Info("Заявка на изменение профиля создана")
	return p, nil
}

// ProcessProfileUpdate — одобрение или отклонение заявки администратором.
// Возвращает nil без ошибки, если заявка уже обработана.
func (s *Service) ProcessProfileUpdate(ctx context.Context, updateID int64, approve bool) (*PendingUpdate, error) {
	p, userTG, err := s.repo.ProcessPendingUpdate(ctx, updateID, approve)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}

	if userTG != nil && *userTG > 0 {
		s.notifier.ProfileUpdateProcessed(*userTG, approve)
	}

	log.WithFields(log.Fields{
		"update_id": updateID,
		"approved":  approve,
	}).Info("Заявка на изменение профиля обработана")
	return p, nil
}

// diffProfile сравнивает запрошенные поля с текущим профилем и
// возвращает снимки изменившихся полей и их человекочитаемый список.
func diffProfile(u *users.User, req ProfileFields) (oldData, newData ProfileFields, changes []string) {
	changed := func(name string, cur string, want *string) *string {
		if want == nil || *want == cur {
			return nil
		}
		changes = append(changes, fmt.Sprintf("%s: %q → %q", name, cur, *want))
		return &cur
	}

	if old := changed("Имя", u.FirstName, req.FirstName); old != nil {
		oldData.FirstName, newData.FirstName = old, req.FirstName
	}
	if old := changed("Фамилия", u.LastName, req.LastName); old != nil {
		oldData.LastName, newData.LastName = old, req.LastName
	}
	if old := changed("Должность", u.Position, req.Position); old != nil {
		oldData.Position, newData.Position = old, req.Position
	}
	if old := changed("Отдел", u.Department, req.Department); old != nil {
		oldData.Department, newData.Department = old, req.Department
	}
	if old := changed("Телефон", u.Phone, req.Phone); old != nil {
		oldData.Phone, newData.Phone = old, req.Phone
	}
	if old := changed("Email", u.Email, req.Email); old != nil {
		oldData.Email, newData.Email = old, req.Email
	}

	curDOB := ""
	if u.DateOfBirth != nil {
		curDOB = u.DateOfBirth.Format("2006-01-02")
	}
	if old := changed("Дата рождения", curDOB, req.DateOfBirth); old != nil {
		oldData.DateOfBirth, newData.DateOfBirth = old, req.DateOfBirth
	}

	return oldData, newData, changes
}
