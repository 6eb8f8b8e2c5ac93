package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// JSONConfig конфигурация из JSON-файла.
// Указатели позволяют отличить отсутствующее поле от нулевого значения.
type JSONConfig struct {
	ServerAddress       *string  `json:"server_address,omitempty"`
	CatalogBaseURL      *string  `json:"catalog_base_url,omitempty"`
	EnableHTTPS         *bool    `json:"enable_https,omitempty"`
	TLSCertFile         *string  `json:"tls_cert_file,omitempty"`
	TLSKeyFile          *string  `json:"tls_key_file,omitempty"`
	GirthTolerance      *float64 `json:"girth_tolerance,omitempty"`
	LengthTolerance     *float64 `json:"length_tolerance,omitempty"`
	CatalogTimeout      *string  `json:"catalog_timeout,omitempty"`
	ImageFetchTimeout   *string  `json:"image_fetch_timeout,omitempty"`
	ImageStageTimeout   *string  `json:"image_stage_timeout,omitempty"`
	ImageMaxConcurrency *int     `json:"image_max_concurrency,omitempty"`
	BreakerThreshold    *int     `json:"breaker_threshold,omitempty"`
	BreakerCooldown     *string  `json:"breaker_cooldown,omitempty"`
	RateLimitRequests   *int     `json:"rate_limit_requests,omitempty"`
	RateLimitWindow     *string  `json:"rate_limit_window,omitempty"`
}

// loadJSONConfig читает JSON-файл конфигурации.
// Пустое имя или отсутствующий файл дают пустую конфигурацию.
func loadJSONConfig(filename string) (*JSONConfig, error) {
	cfg := &JSONConfig{}
	if filename == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return cfg, nil
}

// applyJSONConfig переносит заданные в файле значения в конфигурацию
func (c *Config) applyJSONConfig(j *JSONConfig) error {
	if j.ServerAddress != nil {
		c.ServerAddress = *j.ServerAddress
	}
	if j.CatalogBaseURL != nil {
		c.CatalogBaseURL = *j.CatalogBaseURL
	}
	if j.EnableHTTPS != nil {
		c.EnableHTTPS = strconv.FormatBool(*j.EnableHTTPS)
	}
	if j.TLSCertFile != nil {
		c.TLSCertFile = *j.TLSCertFile
	}
	if j.TLSKeyFile != nil {
		c.TLSKeyFile = *j.TLSKeyFile
	}
	if j.GirthTolerance != nil {
		c.GirthTolerance = *j.GirthTolerance
	}
	if j.LengthTolerance != nil {
		c.LengthTolerance = *j.LengthTolerance
	}
	if j.ImageMaxConcurrency != nil {
		c.ImageMaxConcurrency = *j.ImageMaxConcurrency
	}
	if j.BreakerThreshold != nil {
		c.BreakerThreshold = *j.BreakerThreshold
	}
	if j.RateLimitRequests != nil {
		c.RateLimitRequests = *j.RateLimitRequests
	}

	durations := []struct {
		name string
		src  *string
		dst  *time.Duration
	}{
		{"catalog_timeout", j.CatalogTimeout, &c.CatalogTimeout},
		{"image_fetch_timeout", j.ImageFetchTimeout, &c.ImageFetchTimeout},
		{"image_stage_timeout", j.ImageStageTimeout, &c.ImageStageTimeout},
		{"breaker_cooldown", j.BreakerCooldown, &c.BreakerCooldown},
		{"rate_limit_window", j.RateLimitWindow, &c.RateLimitWindow},
	}
	for _, d := range durations {
		if d.src == nil {
			continue
		}
		v, err := time.ParseDuration(*d.src)
		if err != nil {
			return fmt.Errorf("invalid %s in config file: %w", d.name, err)
		}
		*d.dst = v
	}

	return nil
}
