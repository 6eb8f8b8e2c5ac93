package service

import (
	"cmp"
	"math"
	"slices"

	"github.com/InQaaaaGit/condom_recommender.git/internal/models"
)

// Tolerance допуски подбора в сантиметрах.
// Товар подходит, если отклонение строго меньше допуска по обоим измерениям.
type Tolerance struct {
	Girth  float64
	Length float64
}

// DefaultTolerance допуски по умолчанию
var DefaultTolerance = Tolerance{Girth: 1.5, Length: 3}

// FilterAndRank отбирает товары, попавшие в допуски, и сортирует их по возрастанию
// отклонения обхвата. Длина в сортировке не участвует; при равном отклонении
// сохраняется порядок каталога.
func FilterAndRank(items []models.CatalogItem, m models.Measurement, tol Tolerance) []models.CatalogItem {
	matches := make([]models.CatalogItem, 0, len(items))
	for _, item := range items {
		if girthDiff(item, m) < tol.Girth && math.Abs(item.Length-m.LengthCM) < tol.Length {
			matches = append(matches, item)
		}
	}

	slices.SortStableFunc(matches, func(a, b models.CatalogItem) int {
		return cmp.Compare(girthDiff(a, m), girthDiff(b, m))
	})
	return matches
}

func girthDiff(item models.CatalogItem, m models.Measurement) float64 {
	return math.Abs(item.Girth - m.GirthCM)
}
