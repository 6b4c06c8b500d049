package raffle

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPickPrize_OnlyAllowedValues(t *testing.T) {
	allowed := map[int64]bool{}
	for _, tier := range prizeTiers {
		for _, p := range tier.prizes {
			allowed[p] = true
		}
	}

	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		prize := pickPrize(rnd)
		assert.True(t, allowed[prize], "недопустимый приз %d", prize)
		// Круглые суммы исключены из таблицы призов
		assert.NotEqual(t, int64(5), prize)
		assert.NotEqual(t, int64(10), prize)
	}
}

func TestPickPrize_TierDistribution(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))

	const draws = 100000
	counts := map[int]int{} // индекс яруса → выпадений
	for i := 0; i < draws; i++ {
		prize := pickPrize(rnd)
		switch {
		case prize <= 4:
			counts[0]++
		case prize <= 9:
			counts[1]++
		default:
			counts[2]++
		}
	}

	// Допуск ±2 п.п. при 100k розыгрышей
	assert.InDelta(t, 0.65, float64(counts[0])/draws, 0.02)
	assert.InDelta(t, 0.30, float64(counts[1])/draws, 0.02)
	assert.InDelta(t, 0.05, float64(counts[2])/draws, 0.02)
}

func TestTotalWeight(t *testing.T) {
	assert.Equal(t, 100, totalWeight(prizeTiers))
}
