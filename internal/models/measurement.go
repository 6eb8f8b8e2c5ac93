package models

// Measurement целевые размеры в сантиметрах
type Measurement struct {
	GirthCM  float64 `json:"girth" validate:"finite,gt=0"`
	LengthCM float64 `json:"length" validate:"finite,gt=0"`
}

// ErrorResponse тело ответа для ошибок 400 и 500
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse тело ответа, когда подходящих товаров нет
type MessageResponse struct {
	Message string `json:"message"`
}
