package approvals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransliterate(t *testing.T) {
	cases := map[string]string{
		"Иван":      "ivan",
		"Щербаков":  "shcherbakov",
		"Пётр":      "petr",
		"O'Brien":   "obrien",
		"Мария2":    "mariya2",
		"Юль-Ягода": "yulyagoda",
	}
	for in, want := range cases {
		assert.Equal(t, want, Transliterate(in), "вход %q", in)
	}
}

func TestBuildLoginBase(t *testing.T) {
	assert.Equal(t, "ivan.petrov", BuildLoginBase("Иван", "Петров", 7))
	assert.Equal(t, "anna", BuildLoginBase("Анна", "", 7))

	// Слишком короткая база → запасной вариант user<id>
	assert.Equal(t, "user42", BuildLoginBase("Ы", "", 42))
	assert.Equal(t, "user42", BuildLoginBase("", "", 42))
}

func TestGenerateLogin_SuffixOnCollision(t *testing.T) {
	taken := map[string]bool{
		"ivan.petrov":  true,
		"ivan.petrov1": true,
	}

	login, err := GenerateLogin("Иван", "Петров", 7, func(l string) (bool, error) {
		return taken[l], nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ivan.petrov2", login)
}

func TestGenerateLogin_FreeBase(t *testing.T) {
	login, err := GenerateLogin("Анна", "Ли", 3, func(string) (bool, error) {
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "anna.li", login)
}
