package catalog

import "errors"

// ErrUnexpectedStatus возвращается, когда каталог ответил не 2xx
var ErrUnexpectedStatus = errors.New("unexpected catalog response status")

// ErrMalformedCatalog возвращается, когда тело ответа каталога не разбирается как JSON-массив
var ErrMalformedCatalog = errors.New("malformed catalog response")

// ErrUnavailable возвращается, пока circuit breaker разомкнут
var ErrUnavailable = errors.New("catalog temporarily unavailable")

// ErrImageTooLarge возвращается, когда изображение превышает maxImageSize
var ErrImageTooLarge = errors.New("catalog image too large")
