// Package pkpass извлекает данные карты лояльности из файла .pkpass.
// Файл — ZIP-архив с манифестом pass.json; подпись архива не проверяется,
// карта используется только для отображения.
package pkpass

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Card — данные карты, извлечённые из .pkpass.
type Card struct {
	Barcode   string
	Balance   string
	FirstName string
	LastName  string
}

type passField struct {
	Key   string      `json:"key"`
	Label string      `json:"label"`
	Value interface{} `json:"value"`
}

type passFields struct {
	HeaderFields    []passField `json:"headerFields"`
	PrimaryFields   []passField `json:"primaryFields"`
	SecondaryFields []passField `json:"secondaryFields"`
	AuxiliaryFields []passField `json:"auxiliaryFields"`
	BackFields      []passField `json:"backFields"`
}

func (f *passFields) all() []passField {
	if f == nil {
		return nil
	}
	var out []passField
	out = append(out, f.HeaderFields...)
	out = append(out, f.PrimaryFields...)
	out = append(out, f.SecondaryFields...)
	out = append(out, f.AuxiliaryFields...)
	out = append(out, f.BackFields...)
	return out
}

type passBarcode struct {
	Message string `json:"message"`
}

type passManifest struct {
	Barcode   *passBarcode  `json:"barcode"`
	Barcodes  []passBarcode `json:"barcodes"`
	StoreCard *passFields   `json:"storeCard"`
	Generic   *passFields   `json:"generic"`
	Coupon    *passFields   `json:"coupon"`
}

// Parse разбирает содержимое файла .pkpass.
func Parse(data []byte) (*Card, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("файл не является архивом .pkpass: %w", err)
	}

	var manifest *passManifest
	for _, f := range zr.File {
		if f.Name != "pass.json" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения pass.json: %w", err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения pass.json: %w", err)
		}
		manifest = &passManifest{}
		if err := json.Unmarshal(raw, manifest); err != nil {
			return nil, fmt.Errorf("ошибка разбора pass.json: %w", err)
		}
		break
	}
	if manifest == nil {
		return nil, fmt.Errorf("в архиве нет pass.json")
	}

	card := &Card{Barcode: barcodeMessage(manifest)}

	fields := append(manifest.StoreCard.all(), manifest.Generic.all()...)
	fields = append(fields, manifest.Coupon.all()...)

	for _, f := range fields {
		key := strings.ToLower(f.Key)
		label := strings.ToLower(f.Label)
		switch {
		case card.Balance == "" && (strings.Contains(key, "balance") || strings.Contains(label, "баланс")):
			card.Balance = valueString(f.Value)
		case card.FirstName == "" && (strings.Contains(key, "name") || strings.Contains(key, "owner") ||
			strings.Contains(label, "имя") || strings.Contains(label, "владелец")):
			card.FirstName, card.LastName = splitName(valueString(f.Value))
		}
	}

	if card.Barcode == "" {
		return nil, fmt.Errorf("в pass.json нет штрихкода")
	}
	return card, nil
}

func barcodeMessage(m *passManifest) string {
	if m.Barcode != nil && m.Barcode.Message != "" {
		return m.Barcode.Message
	}
	for _, b := range m.Barcodes {
		if b.Message != "" {
			return b.Message
		}
	}
	return ""
}

func valueString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}

// splitName делит "Имя Фамилия" на две части; всё после первого
// пробела считается фамилией.
func splitName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	parts := strings.SplitN(full, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}
