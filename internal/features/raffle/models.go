// Package raffle — рулетка: сборка билетов из фрагментов, розыгрыш
// призов с весами и история выигрышей.
// models.go описывает структуры таблицы roulette_wins.
package raffle

import "time"

// FragmentsPerTicket — сколько фрагментов собирается в один билет.
const FragmentsPerTicket = 4

// Win — запись о выигрыше в рулетке.
type Win struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Amount    int64     `db:"amount"`
	CreatedAt time.Time `db:"created_at"`
}

// AssembleResult — итог сборки билетов.
type AssembleResult struct {
	Tickets   int64 `json:"tickets"`
	Fragments int64 `json:"ticket_fragments"`
}

// SpinResult — итог одного прокрута рулетки.
type SpinResult struct {
	Prize       int64 `json:"prize"`
	TicketsLeft int64 `json:"tickets_left"`
	NewBalance  int64 `json:"new_balance"`
}
