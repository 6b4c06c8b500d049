package pkpass

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makePkpass собирает минимальный .pkpass-архив с заданным pass.json.
func makePkpass(t *testing.T, passJSON string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create("pass.json")
	require.NoError(t, err)
	_, err = w.Write([]byte(passJSON))
	require.NoError(t, err)

	// Реальные архивы содержат и другие файлы, они должны игнорироваться
	w, err = zw.Create("icon.png")
	require.NoError(t, err)
	_, err = w.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParse_StoreCard(t *testing.T) {
	data := makePkpass(t, `{
		"barcode": {"message": "9001234567"},
		"storeCard": {
			"headerFields": [{"key": "balance", "label": "Баланс", "value": 150.5}],
			"backFields": [{"key": "owner", "label": "Владелец", "value": "Иван Петров"}]
		}
	}`)

	card, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "9001234567", card.Barcode)
	assert.Equal(t, "150.5", card.Balance)
	assert.Equal(t, "Иван", card.FirstName)
	assert.Equal(t, "Петров", card.LastName)
}

func TestParse_BarcodesArrayFallback(t *testing.T) {
	data := makePkpass(t, `{
		"barcodes": [{"message": ""}, {"message": "777"}],
		"generic": {"primaryFields": [{"key": "name", "value": "Анна"}]}
	}`)

	card, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "777", card.Barcode)
	assert.Equal(t, "Анна", card.FirstName)
	assert.Empty(t, card.LastName)
}

func TestParse_NoBarcode(t *testing.T) {
	data := makePkpass(t, `{"storeCard": {}}`)

	_, err := Parse(data)
	assert.Error(t, err)
}

func TestParse_NotAZip(t *testing.T) {
	_, err := Parse([]byte("это не архив"))
	assert.Error(t, err)
}

func TestParse_NoPassJSON(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("manifest.json")
	require.NoError(t, err)
	_, err = w.Write([]byte("{}"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = Parse(buf.Bytes())
	assert.Error(t, err)
}

func TestSplitName(t *testing.T) {
	first, last := splitName("  Иван Петров  ")
	assert.Equal(t, "Иван", first)
	assert.Equal(t, "Петров", last)

	first, last = splitName("Мадонна")
	assert.Equal(t, "Мадонна", first)
	assert.Empty(t, last)
}
