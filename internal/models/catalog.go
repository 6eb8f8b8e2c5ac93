// Package models содержит типы данных сервиса подбора: записи каталога, результаты и измерения.
package models

import (
	"bytes"
	"math"
	"strconv"

	"github.com/goccy/go-json"
)

// CatalogItem запись из внешнего каталога.
// Поля, которые сервис не использует, сохраняются в raw и отдаются клиенту без изменений.
type CatalogItem struct {
	ID     string
	Girth  float64 // см, NaN если в записи нет числового значения
	Length float64 // см, NaN если в записи нет числового значения

	raw map[string]json.RawMessage
}

// UnmarshalJSON разбирает запись каталога, сохраняя все исходные поля
func (c *CatalogItem) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.raw = raw
	c.ID = decodeID(raw["id"])
	c.Girth = decodeNumber(raw["girth"])
	c.Length = decodeNumber(raw["length"])
	return nil
}

// MarshalJSON возвращает исходную запись; id, girth и length добавляются,
// только если их не было в исходных данных.
func (c CatalogItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.fields())
}

// Field возвращает исходное значение поля записи
func (c CatalogItem) Field(name string) (json.RawMessage, bool) {
	v, ok := c.raw[name]
	return v, ok
}

func (c CatalogItem) fields() map[string]any {
	out := make(map[string]any, len(c.raw)+3)
	for k, v := range c.raw {
		out[k] = v
	}
	if _, ok := out["id"]; !ok {
		out["id"] = c.ID
	}
	if _, ok := out["girth"]; !ok && !math.IsNaN(c.Girth) {
		out["girth"] = c.Girth
	}
	if _, ok := out["length"]; !ok && !math.IsNaN(c.Length) {
		out["length"] = c.Length
	}
	return out
}

// decodeID принимает как строковый, так и числовой идентификатор
func decodeID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(bytes.Trim(raw, `"`))
}

func decodeNumber(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return math.NaN()
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	// Каталог иногда отдает числа строками
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return math.NaN()
}
