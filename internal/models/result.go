package models

import (
	"encoding/base64"

	"github.com/goccy/go-json"
)

// jpegDataURIPrefix префикс data URI для изображений товаров
const jpegDataURIPrefix = "data:image/jpeg;base64,"

// MatchResult подходящая запись каталога вместе с изображением.
// ImageURL равен nil, если изображение получить не удалось.
type MatchResult struct {
	CatalogItem
	ImageURL *string
}

// NewMatchResult создает результат без изображения
func NewMatchResult(item CatalogItem) MatchResult {
	return MatchResult{CatalogItem: item}
}

// WithImage возвращает копию результата с JPEG, закодированным в data URI
func (r MatchResult) WithImage(jpeg []byte) MatchResult {
	uri := JPEGDataURI(jpeg)
	r.ImageURL = &uri
	return r
}

// MarshalJSON отдает все поля записи каталога и imageUrl (null, если изображения нет)
func (r MatchResult) MarshalJSON() ([]byte, error) {
	fields := r.CatalogItem.fields()
	if r.ImageURL != nil {
		fields["imageUrl"] = *r.ImageURL
	} else {
		fields["imageUrl"] = nil
	}
	return json.Marshal(fields)
}

// UnmarshalJSON разбирает результат, полученный от сервиса
func (r *MatchResult) UnmarshalJSON(data []byte) error {
	if err := r.CatalogItem.UnmarshalJSON(data); err != nil {
		return err
	}
	r.ImageURL = nil
	raw, ok := r.raw["imageUrl"]
	delete(r.raw, "imageUrl")
	if !ok {
		return nil
	}
	var uri *string
	if err := json.Unmarshal(raw, &uri); err != nil {
		return err
	}
	r.ImageURL = uri
	return nil
}

// JPEGDataURI кодирует байты изображения в data URI
func JPEGDataURI(jpeg []byte) string {
	return jpegDataURIPrefix + base64.StdEncoding.EncodeToString(jpeg)
}
