// Package service реализует подбор товаров из внешнего каталога по обхвату и длине.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/InQaaaaGit/condom_recommender.git/internal/catalog"
	"github.com/InQaaaaGit/condom_recommender.git/internal/config"
	"github.com/InQaaaaGit/condom_recommender.git/internal/metrics"
	"github.com/InQaaaaGit/condom_recommender.git/internal/models"
	"github.com/InQaaaaGit/condom_recommender.git/internal/validation"
)

// RecommendService определяет интерфейс сервиса подбора
type RecommendService interface {
	// Recommend возвращает подходящие товары в порядке близости по обхвату
	Recommend(ctx context.Context, m models.Measurement) ([]models.MatchResult, error)
	// CheckConnection проверяет доступность каталога
	CheckConnection(ctx context.Context) error
}

var _ RecommendService = (*MatchService)(nil)

// MatchService реализует RecommendService поверх внешнего каталога
type MatchService struct {
	source         catalog.Source
	tolerance      Tolerance
	imageTimeout   time.Duration
	stageTimeout   time.Duration
	maxConcurrency int
	logger         *zap.Logger
}

// NewMatchService создает сервис подбора с клиентом каталога из конфигурации
func NewMatchService(cfg *config.Config, logger *zap.Logger) *MatchService {
	return NewMatchServiceWithSource(NewCatalogSource(cfg, logger), cfg, logger)
}

// NewMatchServiceWithSource создает сервис подбора поверх заданного источника каталога
func NewMatchServiceWithSource(source catalog.Source, cfg *config.Config, logger *zap.Logger) *MatchService {
	return &MatchService{
		source:         source,
		tolerance:      Tolerance{Girth: cfg.GirthTolerance, Length: cfg.LengthTolerance},
		imageTimeout:   cfg.ImageFetchTimeout,
		stageTimeout:   cfg.ImageStageTimeout,
		maxConcurrency: cfg.ImageMaxConcurrency,
		logger:         logger,
	}
}

// NewCatalogSource создает клиент каталога; при BreakerThreshold > 0 он оборачивается в circuit breaker
func NewCatalogSource(cfg *config.Config, logger *zap.Logger) catalog.Source {
	client := catalog.NewClient(cfg.CatalogBaseURL, nil, cfg.CatalogTimeout, logger)
	if cfg.BreakerThreshold <= 0 {
		return client
	}
	return catalog.NewBreakerClient(client, cfg.BreakerThreshold, cfg.BreakerCooldown, logger)
}

// Recommend подбирает товары для заданных размеров.
// Каталог загружается до фильтрации; изображения для всех подошедших товаров
// загружаются параллельно, и ошибка одного изображения не влияет на остальные.
func (s *MatchService) Recommend(ctx context.Context, m models.Measurement) ([]models.MatchResult, error) {
	if err := validation.Struct(m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMeasurement, err)
	}

	s.logger.Info("Fetching catalog",
		zap.Float64("girth_cm", m.GirthCM),
		zap.Float64("length_cm", m.LengthCM))

	items, err := s.source.FetchCatalog(ctx)
	if err != nil {
		if errors.Is(err, catalog.ErrUnexpectedStatus) || errors.Is(err, catalog.ErrUnavailable) {
			return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
		}
		return nil, fmt.Errorf("error fetching catalog: %w", err)
	}

	matches := FilterAndRank(items, m, s.tolerance)
	if len(matches) == 0 {
		return nil, ErrNoMatch
	}

	return s.attachImages(ctx, matches), nil
}

// CheckConnection проверяет доступность каталога
func (s *MatchService) CheckConnection(ctx context.Context) error {
	return s.source.Ping(ctx)
}

// attachImages загружает изображения параллельно.
// Результаты пишутся по индексу, поэтому порядок совпадает с порядком items.
// Все загрузки укладываются в stageTimeout: изображения, не полученные к этому сроку, остаются null.
func (s *MatchService) attachImages(ctx context.Context, items []models.CatalogItem) []models.MatchResult {
	results := make([]models.MatchResult, len(items))

	if s.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.stageTimeout)
		defer cancel()
	}

	var g errgroup.Group
	if s.maxConcurrency > 0 {
		g.SetLimit(s.maxConcurrency)
	}
	for i, item := range items {
		g.Go(func() error {
			results[i] = s.withImage(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// withImage никогда не возвращает ошибку: при неудаче imageUrl остается null
func (s *MatchService) withImage(ctx context.Context, item models.CatalogItem) models.MatchResult {
	if s.imageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.imageTimeout)
		defer cancel()
	}

	jpeg, err := s.source.FetchImage(ctx, item.ID)
	if err != nil {
		metrics.ImageFetches.WithLabelValues("error").Inc()
		s.logger.Warn("Failed to fetch image", zap.String("id", item.ID), zap.Error(err))
		return models.NewMatchResult(item)
	}

	metrics.ImageFetches.WithLabelValues("ok").Inc()
	return models.NewMatchResult(item).WithImage(jpeg)
}
