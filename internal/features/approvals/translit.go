// Package approvals — translit.go: генерация логина из имени и фамилии.
// Кириллица транслитерируется в латиницу, регистр приводится к нижнему,
// пунктуация отбрасывается.
package approvals

import (
	"fmt"
	"strings"
	"unicode"
)

// translitTable — таблица транслитерации кириллицы (ГОСТ-подобная, без диакритики).
var translitTable = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "shch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

// Transliterate переводит строку в латиницу в нижнем регистре.
// Латинские буквы и цифры проходят как есть, всё остальное отбрасывается.
func Transliterate(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if lat, ok := translitTable[r]; ok {
			sb.WriteString(lat)
			continue
		}
		if (r >= 'a' && r <= 'z') || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// BuildLoginBase составляет базовый логин вида "имя.фамилия".
// Если после транслитерации получилось короче 3 символов,
// возвращается запасной вариант "user<id>".
func BuildLoginBase(firstName, lastName string, userID int64) string {
	first := Transliterate(firstName)
	last := Transliterate(lastName)

	login := first
	if last != "" {
		if login != "" {
			login += "."
		}
		login += last
	}

	if len(login) < 3 {
		return fmt.Sprintf("user%d", userID)
	}
	return login
}

// GenerateLogin подбирает свободный логин: к базе добавляется
// увеличивающийся числовой суффикс, пока логин занят.
func GenerateLogin(firstName, lastName string, userID int64, taken func(login string) (bool, error)) (string, error) {
	base := BuildLoginBase(firstName, lastName, userID)

	login := base
	for suffix := 1; ; suffix++ {
		exists, err := taken(login)
		if err != nil {
			return "", fmt.Errorf("ошибка проверки логина: %w", err)
		}
		if !exists {
			return login, nil
		}
		login = fmt.Sprintf("%s%d", base, suffix)
	}
}
