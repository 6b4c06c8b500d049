// Package raffle — spin.go: выбор приза по весам.
package raffle

import "math/rand"

// prizeTier — ярус призов. Сначала по весам выбирается ярус,
// затем равновероятно приз внутри него.
type prizeTier struct {
	weight int
	prizes []int64
}

// Призы 5 и 10 отсутствуют намеренно: границы ярусов не пересекаются
// с «круглыми» суммами, чтобы выигрыш не путали с переводом.
var prizeTiers = []prizeTier{
	{weight: 65, prizes: []int64{1, 2, 3, 4}},
	{weight: 30, prizes: []int64{6, 7, 8, 9}},
	{weight: 5, prizes: []int64{11, 12, 13, 14}},
}

func totalWeight(tiers []prizeTier) int {
	sum := 0
	for _, t := range tiers {
		sum += t.weight
	}
	return sum
}

// pickPrize выбирает приз. Источник случайности передаётся снаружи.
func pickPrize(rnd *rand.Rand) int64 {
	roll := rnd.Intn(totalWeight(prizeTiers))
	for _, tier := range prizeTiers {
		if roll < tier.weight {
			return tier.prizes[rnd.Intn(len(tier.prizes))]
		}
		roll -= tier.weight
	}
	// Недостижимо при корректных весах
	last := prizeTiers[len(prizeTiers)-1]
	return last.prizes[0]
}
