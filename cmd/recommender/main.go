package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/InQaaaaGit/condom_recommender.git/internal/app"
	"github.com/InQaaaaGit/condom_recommender.git/internal/buildinfo"
	"github.com/InQaaaaGit/condom_recommender.git/internal/config"
	"github.com/InQaaaaGit/condom_recommender.git/internal/server"
)

// Задаются при сборке:
//
//	go build -ldflags "-X main.buildVersion=v1.0.0 -X main.buildDate=$(date +%F) -X main.buildCommit=$(git rev-parse --short HEAD)"
var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	// Инициализация логгера
	logger, cleanup := server.InitLogger()
	defer cleanup()

	buildinfo.NewInfo(buildVersion, buildDate, buildCommit).Log(logger)

	// Инициализация конфигурации
	cfg := server.InitConfig(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}

// run создает приложение и обслуживает запросы до отмены ctx
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	application, err := app.NewApp(cfg, logger)
	if err != nil {
		return fmt.Errorf("error creating application: %w", err)
	}
	return application.Run(ctx)
}
