package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/InQaaaaGit/condom_recommender.git/internal/metrics"
	"github.com/InQaaaaGit/condom_recommender.git/internal/models"
)

const breakerName = "catalog"

var _ Source = (*BreakerClient)(nil)

// BreakerClient оборачивает загрузку каталога в circuit breaker.
// После threshold ошибок подряд запросы к каталогу не выполняются в течение cooldown,
// и FetchCatalog сразу возвращает ErrUnavailable.
// Изображения загружаются напрямую: их ошибки изолированы и не должны размыкать цепь.
type BreakerClient struct {
	source Source
	cb     *gobreaker.CircuitBreaker[[]models.CatalogItem]
	logger *zap.Logger
}

// NewBreakerClient создает клиент с circuit breaker поверх source
func NewBreakerClient(source Source, threshold int, cooldown time.Duration, logger *zap.Logger) *BreakerClient {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]models.CatalogItem](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
		// Отмена запроса клиентом не говорит о состоянии каталога
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &BreakerClient{
		source: source,
		cb:     cb,
		logger: logger,
	}
}

// FetchCatalog загружает каталог, если цепь замкнута
func (b *BreakerClient) FetchCatalog(ctx context.Context) ([]models.CatalogItem, error) {
	items, err := b.cb.Execute(func() ([]models.CatalogItem, error) {
		return b.source.FetchCatalog(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return items, err
}

// FetchImage загружает изображение без участия circuit breaker
func (b *BreakerClient) FetchImage(ctx context.Context, id string) ([]byte, error) {
	return b.source.FetchImage(ctx, id)
}

// Ping сообщает о недоступности, пока цепь разомкнута
func (b *BreakerClient) Ping(ctx context.Context) error {
	if b.cb.State() == gobreaker.StateOpen {
		return ErrUnavailable
	}
	return b.source.Ping(ctx)
}

// State возвращает текущее состояние circuit breaker
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
