package units

import (
	"math"

	"github.com/InQaaaaGit/condom_recommender.git/internal/models"
)

// Input значения из формы в единицах пользователя.
// Нулевое значение поля означает, что поле не заполнено.
type Input struct {
	Width  float64
	Girth  float64
	Length float64
	Unit   Unit
}

// EffectiveGirth возвращает обхват в единицах пользователя.
// Если обхват не указан, он выводится из ширины.
func (in Input) EffectiveGirth() float64 {
	if usable(in.Girth) {
		return in.Girth
	}
	if usable(in.Width) {
		return DeriveGirthFromWidth(in.Width)
	}
	return 0
}

// Normalize переводит ввод в сантиметры.
// ok == false означает, что запрос отправлять не нужно: какое-то из значений пустое.
func (in Input) Normalize() (m models.Measurement, ok bool) {
	girth := in.EffectiveGirth()
	if !usable(girth) || !usable(in.Length) {
		return models.Measurement{}, false
	}

	return models.Measurement{
		GirthCM:  ConvertToCm(girth, in.Unit),
		LengthCM: ConvertToCm(in.Length, in.Unit),
	}, true
}

func usable(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
