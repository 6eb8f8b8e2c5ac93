// Package app содержит основную структуру приложения и логику инициализации.
// Предоставляет точку входа для запуска HTTP сервера с настроенными маршрутами и middleware.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/InQaaaaGit/condom_recommender.git/internal/config"
	"github.com/InQaaaaGit/condom_recommender.git/internal/handler"
	"github.com/InQaaaaGit/condom_recommender.git/internal/middleware"
	"github.com/InQaaaaGit/condom_recommender.git/internal/server"
	"github.com/InQaaaaGit/condom_recommender.git/internal/service"
)

// shutdownTimeout время на завершение активных запросов при остановке
const shutdownTimeout = 10 * time.Second

// App представляет основное приложение сервиса подбора.
// Инкапсулирует конфигурацию, HTTP роутер, логгер и обработчики запросов.
type App struct {
	config  *config.Config   // Конфигурация приложения
	router  *chi.Mux         // HTTP роутер для обработки запросов
	logger  *zap.Logger      // Логгер для записи событий приложения
	handler *handler.Handler // Обработчики HTTP запросов
}

// NewApp создает и инициализирует новый экземпляр приложения.
// Создает клиент каталога, сервис подбора и обработчики запросов.
//
// Параметры:
//   - cfg: конфигурация приложения
//   - logger: логгер; если nil, создается development-логгер
//
// Возвращает указатель на App или ошибку при неудачной инициализации зависимостей.
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("error creating logger: %w", err)
		}
	}

	svc := service.NewMatchService(cfg, logger)

	a := &App{
		config:  cfg,
		router:  chi.NewRouter(),
		logger:  logger,
		handler: handler.NewHandler(svc, logger),
	}
	a.setupRoutes()
	return a, nil
}

// setupRoutes настраивает HTTP маршруты и middleware для приложения.
// Ограничение частоты применяется только к /recommend, так как этот маршрут
// порождает запросы к внешнему каталогу. /metrics сжимает ответ самостоятельно.
func (a *App) setupRoutes() {
	// Middleware
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.LoggerMiddleware(a.logger))

	// Routes
	a.router.Group(func(r chi.Router) {
		r.Use(middleware.GzipMiddleware(a.logger))
		r.Get("/ping", a.handler.HandlePing)

		r.Group(func(r chi.Router) {
			if a.config.RateLimitRequests > 0 {
				r.Use(httprate.LimitByIP(a.config.RateLimitRequests, a.config.RateLimitWindow))
			}
			r.Get("/recommend", a.handler.HandleRecommend)
		})
	})
	a.router.Handle("/metrics", promhttp.Handler())

	// Профилирование
	a.router.Mount("/debug/pprof", http.DefaultServeMux)
}

// Router возвращает настроенный роутер приложения
func (a *App) Router() http.Handler {
	return a.router
}

// GetServer создает и возвращает настроенный HTTP сервер.
// WriteTimeout покрывает загрузку каталога и общий срок загрузки изображений с запасом.
func (a *App) GetServer() *http.Server {
	return &http.Server{
		Addr:         a.config.ServerAddress,
		Handler:      a.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: a.config.CatalogTimeout + a.config.ImageStageTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// Run запускает HTTP или HTTPS сервер и блокируется до отмены ctx или ошибки сервера.
// После отмены ctx сервер останавливается с ожиданием активных запросов.
func (a *App) Run(ctx context.Context) error {
	srv := server.NewHTTPServer(a.GetServer(), a.config, a.logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
