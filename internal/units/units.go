// Package units содержит преобразования пользовательских измерений в сантиметры
// и производные величины, которые показываются рядом с результатами подбора.
package units

import (
	"math"
	"strings"
)

// Unit единица измерения, в которой пользователь вводит значения
type Unit string

const (
	// Centimeters каноническая единица измерения
	Centimeters Unit = "cm"
	// Inches альтернативная единица измерения
	Inches Unit = "inch"

	// cmPerInch коэффициент перевода дюймов в сантиметры
	cmPerInch = 2.54
)

// ParseUnit разбирает строковое обозначение единицы.
// Всё, что не распознано как дюймы, считается сантиметрами.
func ParseUnit(s string) Unit {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inch", "inches", "in":
		return Inches
	default:
		return Centimeters
	}
}

// ConvertToCm переводит значение в сантиметры
func ConvertToCm(value float64, unit Unit) float64 {
	if unit == Inches {
		return value * cmPerInch
	}
	return value
}

// DeriveGirthFromWidth вычисляет обхват по ширине, считая сечение круглым.
// Результат округляется до двух знаков после запятой.
func DeriveGirthFromWidth(width float64) float64 {
	return round2(math.Pi * width)
}

// EstimateVolume оценивает объем цилиндра с окружностью girthCM и высотой lengthCM.
// Возвращает миллилитры (1 см³ = 1 мл), округленные до двух знаков.
func EstimateVolume(girthCM, lengthCM float64) float64 {
	radius := girthCM / (2 * math.Pi)
	return round2(math.Pi * radius * radius * lengthCM)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
