// Package common — errors.go определяет доменные ошибки,
// которые используются во всех модулях платформы.
// HTTP-слой и обработчики колбэков по ним выбирают статус
// и текст ответа пользователю.
package common

import "errors"

// Ошибки переводов (спасибо)
var (
	// ErrSenderNotFound — отправитель не найден в базе
	ErrSenderNotFound = errors.New("отправитель не найден")
	// ErrReceiverNotFound — получатель не найден в базе
	ErrReceiverNotFound = errors.New("получатель не найден")
	// ErrSelfTransfer — попытка отправить спасибо самому себе
	ErrSelfTransfer = errors.New("нельзя отправлять спасибо самому себе")
	// ErrDailyLimitExceeded — дневной лимит переводов исчерпан
	ErrDailyLimitExceeded = errors.New("дневной лимит переводов исчерпан")
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
)

// Ошибки магазина
var (
	// ErrItemNotFound — товар не найден или архивирован
	ErrItemNotFound = errors.New("товар не найден")
	// ErrInsufficientFunds — недостаточно спасибо на счёте
	ErrInsufficientFunds = errors.New("недостаточно спасибо на счёте")
	// ErrOutOfStock — товар закончился
	ErrOutOfStock = errors.New("товар закончился")
	// ErrWrongItemKind — товар нельзя купить этим способом
	ErrWrongItemKind = errors.New("товар нельзя купить этим способом")
	// ErrBonusCreditFailed — внешняя система бонусов не приняла начисление
	ErrBonusCreditFailed = errors.New("не удалось начислить бонусы, средства возвращены")
)

// Ошибки совместных подарков
var (
	// ErrInvitationNotFound — приглашение не найдено
	ErrInvitationNotFound = errors.New("приглашение не найдено")
	// ErrInvitationExpired — приглашение истекло, средства возвращены покупателю
	ErrInvitationExpired = errors.New("приглашение истекло, средства возвращены покупателю")
	// ErrInvitationTerminal — приглашение уже обработано
	ErrInvitationTerminal = errors.New("приглашение уже обработано")
	// ErrNotInvited — ответить на приглашение может только приглашённый
	ErrNotInvited = errors.New("ответить на приглашение может только приглашённый")
)

// Ошибки профиля и регистрации
var (
	// ErrNoChanges — запрос на изменение профиля без изменений
	ErrNoChanges = errors.New("нет изменений для согласования")
	// ErrLoginTaken — логин уже занят
	ErrLoginTaken = errors.New("логин уже занят")
	// ErrEmailTaken — email уже занят
	ErrEmailTaken = errors.New("email уже используется")
	// ErrAccountAlreadyLinked — Telegram-аккаунт уже привязан
	ErrAccountAlreadyLinked = errors.New("аккаунт уже привязан")
	// ErrUpdateNotFound — заявка на изменение профиля не найдена
	ErrUpdateNotFound = errors.New("заявка на изменение не найдена")
)

// Ошибки розыгрыша
var (
	// ErrNotEnoughFragments — меньше четырёх фрагментов билета
	ErrNotEnoughFragments = errors.New("недостаточно фрагментов для сборки билета")
	// ErrNoTickets — нет билетов для прокрутки
	ErrNoTickets = errors.New("нет билетов для участия в розыгрыше")
)

// Ошибки авторизации
var (
	// ErrInvalidCredentials — неверный логин или пароль
	ErrInvalidCredentials = errors.New("неверный логин или пароль")
	// ErrNotApproved — учётная запись ещё не одобрена администратором
	ErrNotApproved = errors.New("учётная запись не одобрена")
	// ErrAccountBlocked — учётная запись заблокирована
	ErrAccountBlocked = errors.New("учётная запись заблокирована")
	// ErrNotAdmin — действие доступно только администраторам
	ErrNotAdmin = errors.New("действие доступно только администраторам")
	// ErrCronSecretMismatch — неверный секрет планировщика
	ErrCronSecretMismatch = errors.New("неверный секрет планировщика")
	// ErrBadCallbackData — некорректные данные inline-кнопки
	ErrBadCallbackData = errors.New("некорректные данные кнопки")
)
