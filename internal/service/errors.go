package service

import "errors"

// ErrInvalidMeasurement возвращается, если обхват или длина не являются положительными числами
var ErrInvalidMeasurement = errors.New("invalid measurement")

// ErrUpstream возвращается, когда каталог ответил ошибкой или временно недоступен
var ErrUpstream = errors.New("catalog fetch failed")

// ErrNoMatch возвращается, когда ни один товар не попал в допуски
var ErrNoMatch = errors.New("no suitable item found")
