// Package common — pluralize.go: русская плюрализация для сообщений бота.
// Слово «спасибо» не склоняется, поэтому плюрализуем только билеты,
// фрагменты и дни.
package common

import "math"

// pluralForm выбирает одну из трёх форм слова по правилам русского языка:
//   - n%10==1 И n%100!=11 → единственное число (1, 21, 31, ...)
//   - n%10 в [2,4] И n%100 НЕ в [12,14] → малое множественное (2, 3, 4, 22, ...)
//   - остальные случаи → большое множественное (0, 5-20, 25-30, ...)
func pluralForm(n int64, one, few, many string) string {
	absN := int64(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return one
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return few
	}
	return many
}

// PluralizeTickets возвращает правильную форму слова «билет».
//
// Примеры:
//
//	PluralizeTickets(1) → "билет"
//	PluralizeTickets(3) → "билета"
//	PluralizeTickets(5) → "билетов"
func PluralizeTickets(n int64) string {
	return pluralForm(n, "билет", "билета", "билетов")
}

// PluralizeFragments возвращает правильную форму слова «фрагмент».
func PluralizeFragments(n int64) string {
	return pluralForm(n, "фрагмент", "фрагмента", "фрагментов")
}

// PluralizeDays возвращает правильную форму слова «день».
func PluralizeDays(n int64) string {
	return pluralForm(n, "день", "дня", "дней")
}
