package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPluralizeTickets(t *testing.T) {
	cases := map[int64]string{
		0:   "билетов",
		1:   "билет",
		2:   "билета",
		4:   "билета",
		5:   "билетов",
		11:  "билетов",
		12:  "билетов",
		21:  "билет",
		22:  "билета",
		111: "билетов",
	}
	for n, want := range cases {
		assert.Equal(t, want, PluralizeTickets(n), "n=%d", n)
	}
}

func TestPluralizeFragments(t *testing.T) {
	assert.Equal(t, "фрагмент", PluralizeFragments(1))
	assert.Equal(t, "фрагмента", PluralizeFragments(3))
	assert.Equal(t, "фрагментов", PluralizeFragments(14))
}

func TestPluralizeDays(t *testing.T) {
	assert.Equal(t, "день", PluralizeDays(1))
	assert.Equal(t, "дня", PluralizeDays(2))
	assert.Equal(t, "дней", PluralizeDays(7))
}
