// Package catalog реализует клиент внешнего каталога: список товаров и их изображения.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/InQaaaaGit/condom_recommender.git/internal/metrics"
	"github.com/InQaaaaGit/condom_recommender.git/internal/models"
)

// Source определяет операции с внешним каталогом.
// Client и BreakerClient реализуют этот интерфейс.
type Source interface {
	// FetchCatalog загружает каталог целиком
	FetchCatalog(ctx context.Context) ([]models.CatalogItem, error)
	// FetchImage загружает JPEG-изображение товара
	FetchImage(ctx context.Context, id string) ([]byte, error)
	// Ping проверяет доступность каталога
	Ping(ctx context.Context) error
}

var _ Source = (*Client)(nil)

// maxImageSize ограничение на размер одного изображения
const maxImageSize = 10 << 20

// Client HTTP-клиент каталога
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient создает клиент каталога.
// Если httpClient равен nil, используется клиент с таймаутом timeout.
func NewClient(baseURL string, httpClient *http.Client, timeout time.Duration, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// FetchCatalog загружает каталог через GET <base>/condoms
func (c *Client) FetchCatalog(ctx context.Context) ([]models.CatalogItem, error) {
	start := time.Now()
	items, err := c.fetchCatalog(ctx)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.CatalogFetchDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	return items, err
}

func (c *Client) fetchCatalog(ctx context.Context) ([]models.CatalogItem, error) {
	resp, err := c.get(ctx, c.baseURL+"/condoms", "application/json")
	if err != nil {
		return nil, err
	}
	defer c.closeBody(resp)

	if !isSuccess(resp.StatusCode) {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading catalog body: %w", err)
	}

	var items []models.CatalogItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCatalog, err)
	}

	c.logger.Debug("Catalog fetched", zap.Int("items", len(items)))
	return items, nil
}

// FetchImage загружает изображение через GET <base>/condom/{id} с Accept: image/jpeg
func (c *Client) FetchImage(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.get(ctx, c.baseURL+"/condom/"+url.PathEscape(id), "image/jpeg")
	if err != nil {
		return nil, err
	}
	defer c.closeBody(resp)

	if !isSuccess(resp.StatusCode) {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	// Лишний байт сверх лимита отличает обрезанное изображение от изображения ровно maxImageSize
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("error reading image body: %w", err)
	}
	if len(data) > maxImageSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrImageTooLarge, maxImageSize)
	}
	return data, nil
}

// Ping проверяет, что каталог отвечает. Ответы 5xx считаются недоступностью.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.get(ctx, c.baseURL+"/condoms", "application/json")
	if err != nil {
		return err
	}
	c.closeBody(resp)

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, target, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error requesting %s: %w", target, err)
	}
	return resp, nil
}

func (c *Client) closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		c.logger.Error("Error closing response body", zap.Error(err))
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
