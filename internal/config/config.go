package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"

	"github.com/InQaaaaGit/condom_recommender.git/internal/validation"
)

// DefaultCatalogBaseURL адрес внешнего каталога по умолчанию
const DefaultCatalogBaseURL = "https://dstats.calcsd.info/api/v0"

// Config хранит конфигурацию приложения.
type Config struct {
	ServerAddress  string `env:"SERVER_ADDRESS" validate:"required"`       // Адрес для запуска HTTP-сервера
	CatalogBaseURL string `env:"CATALOG_BASE_URL" validate:"required,url"` // Базовый адрес внешнего каталога
	ConfigFile     string `env:"CONFIG"`                                   // Путь к JSON-файлу конфигурации
	EnableHTTPS    string `env:"ENABLE_HTTPS"`                             // Булево значение (true, 1, false, 0); иное отключает HTTPS
	TLSCertFile    string `env:"TLS_CERT_FILE"`                            // Сертификат для HTTPS
	TLSKeyFile     string `env:"TLS_KEY_FILE"`                             // Ключ для HTTPS

	// Допуски при подборе, см
	GirthTolerance  float64 `env:"GIRTH_TOLERANCE" validate:"gt=0"`
	LengthTolerance float64 `env:"LENGTH_TOLERANCE" validate:"gt=0"`

	CatalogTimeout      time.Duration `env:"CATALOG_TIMEOUT" validate:"gt=0"`
	ImageFetchTimeout   time.Duration `env:"IMAGE_FETCH_TIMEOUT" validate:"gt=0"`
	ImageStageTimeout   time.Duration `env:"IMAGE_STAGE_TIMEOUT" validate:"gt=0"`    // Общий срок загрузки всех изображений запроса
	ImageMaxConcurrency int           `env:"IMAGE_MAX_CONCURRENCY" validate:"gte=0"` // 0 - без ограничения

	BreakerThreshold int           `env:"BREAKER_THRESHOLD" validate:"gte=0"` // 0 отключает circuit breaker
	BreakerCooldown  time.Duration `env:"BREAKER_COOLDOWN" validate:"gt=0"`

	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" validate:"gte=0"` // 0 отключает ограничение
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" validate:"gt=0"`
}

// defaultConfig возвращает конфигурацию со значениями по умолчанию
func defaultConfig() *Config {
	return &Config{
		ServerAddress:       ":8080",
		CatalogBaseURL:      DefaultCatalogBaseURL,
		TLSCertFile:         "server.crt",
		TLSKeyFile:          "server.key",
		GirthTolerance:      1.5,
		LengthTolerance:     3,
		CatalogTimeout:      15 * time.Second,
		ImageFetchTimeout:   10 * time.Second,
		ImageStageTimeout:   20 * time.Second,
		ImageMaxConcurrency: 0,
		BreakerThreshold:    5,
		BreakerCooldown:     30 * time.Second,
		RateLimitRequests:   0,
		RateLimitWindow:     time.Minute,
	}
}

// NewConfig инициализирует конфигурацию.
// Приоритет: значения по умолчанию < JSON-файл < флаги < переменные окружения.
func NewConfig() (*Config, error) {
	cfg := defaultConfig()

	// 1. JSON-файл читаем до флагов, чтобы флаги могли его переопределить
	cfg.ConfigFile = lookupConfigFile(os.Args[1:])
	jsonCfg, err := loadJSONConfig(cfg.ConfigFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyJSONConfig(jsonCfg); err != nil {
		return nil, err
	}

	// 2. Флаги командной строки
	flag.StringVar(&cfg.ServerAddress, "a", cfg.ServerAddress, "Адрес запуска HTTP-сервера (env: SERVER_ADDRESS)")
	flag.StringVar(&cfg.CatalogBaseURL, "u", cfg.CatalogBaseURL, "Базовый адрес внешнего каталога (env: CATALOG_BASE_URL)")
	flag.StringVar(&cfg.ConfigFile, "c", cfg.ConfigFile, "Путь к JSON-файлу конфигурации (env: CONFIG)")
	flag.StringVar(&cfg.EnableHTTPS, "s", cfg.EnableHTTPS, "Включить HTTPS (env: ENABLE_HTTPS)")
	flag.StringVar(&cfg.TLSCertFile, "cert", cfg.TLSCertFile, "Файл сертификата TLS (env: TLS_CERT_FILE)")
	flag.StringVar(&cfg.TLSKeyFile, "key", cfg.TLSKeyFile, "Файл ключа TLS (env: TLS_KEY_FILE)")
	flag.Float64Var(&cfg.GirthTolerance, "gt", cfg.GirthTolerance, "Допуск по обхвату, см (env: GIRTH_TOLERANCE)")
	flag.Float64Var(&cfg.LengthTolerance, "lt", cfg.LengthTolerance, "Допуск по длине, см (env: LENGTH_TOLERANCE)")
	flag.DurationVar(&cfg.CatalogTimeout, "ct", cfg.CatalogTimeout, "Таймаут загрузки каталога (env: CATALOG_TIMEOUT)")
	flag.DurationVar(&cfg.ImageFetchTimeout, "it", cfg.ImageFetchTimeout, "Таймаут загрузки одного изображения (env: IMAGE_FETCH_TIMEOUT)")
	flag.DurationVar(&cfg.ImageStageTimeout, "is", cfg.ImageStageTimeout, "Общий таймаут загрузки изображений одного запроса (env: IMAGE_STAGE_TIMEOUT)")
	flag.IntVar(&cfg.ImageMaxConcurrency, "ic", cfg.ImageMaxConcurrency, "Максимум параллельных загрузок изображений, 0 - без ограничения (env: IMAGE_MAX_CONCURRENCY)")
	flag.IntVar(&cfg.BreakerThreshold, "bt", cfg.BreakerThreshold, "Число ошибок подряд до размыкания circuit breaker, 0 - отключен (env: BREAKER_THRESHOLD)")
	flag.DurationVar(&cfg.BreakerCooldown, "bc", cfg.BreakerCooldown, "Время в разомкнутом состоянии (env: BREAKER_COOLDOWN)")
	flag.IntVar(&cfg.RateLimitRequests, "rl", cfg.RateLimitRequests, "Запросов с одного IP за окно, 0 - без ограничения (env: RATE_LIMIT_REQUESTS)")
	flag.DurationVar(&cfg.RateLimitWindow, "rw", cfg.RateLimitWindow, "Окно ограничения запросов (env: RATE_LIMIT_WINDOW)")

	flag.Parse()

	// 3. Переменные окружения (имеют наивысший приоритет)
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет корректность значений конфигурации
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// IsHTTPSEnabled сообщает, нужно ли запускать сервер по HTTPS.
// Значение разбирается strconv.ParseBool; пустое или нераспознанное значение отключает HTTPS.
func (c *Config) IsHTTPSEnabled() bool {
	enabled, err := strconv.ParseBool(strings.TrimSpace(c.EnableHTTPS))
	return err == nil && enabled
}

// lookupConfigFile ищет путь к JSON-файлу в переменной CONFIG и аргументе -c
func lookupConfigFile(args []string) string {
	if v, ok := os.LookupEnv("CONFIG"); ok && v != "" {
		return v
	}
	for i, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || name != "c" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
