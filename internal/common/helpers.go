// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: работа с календарными окнами, форматирование дат.
package common

import "time"

// Period — отчётный период для лидербордов.
type Period string

const (
	PeriodCurrentMonth Period = "current_month"
	PeriodLastMonth    Period = "last_month"
	PeriodAllTime      Period = "all_time"
)

// MonthWindow возвращает границы периода [from, to] в UTC.
// Правая граница включает последнюю секунду последнего дня месяца.
// Для all_time возвращает (нулевое время, now).
func MonthWindow(period Period, now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	switch period {
	case PeriodCurrentMonth:
		return firstOfMonth, endOfMonth(firstOfMonth)
	case PeriodLastMonth:
		prev := firstOfMonth.AddDate(0, -1, 0)
		return prev, endOfMonth(prev)
	default:
		return time.Time{}, now
	}
}

// endOfMonth возвращает последнюю секунду месяца, начинающегося с first.
func endOfMonth(first time.Time) time.Time {
	return first.AddDate(0, 1, 0).Add(-time.Second)
}

// SameBirthday сравнивает месяц и день рождения с датой now.
// Год не учитывается.
func SameBirthday(dob, now time.Time) bool {
	return dob.Month() == now.Month() && dob.Day() == now.Day()
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04".
// Используется для отображения дат в сообщениях бота.
func FormatDateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// SameUTCDate сравнивает календарные даты двух моментов в UTC.
// Нужно для сброса дневного счётчика переводов при чтении.
func SameUTCDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
