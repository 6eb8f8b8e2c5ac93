// Package client реализует клиент сервиса подбора.
// Клиент переводит ввод пользователя в сантиметры и обращается к GET /recommend.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/InQaaaaGit/condom_recommender.git/internal/models"
	"github.com/InQaaaaGit/condom_recommender.git/internal/units"
)

// ErrIncompleteInput возвращается, если обхват (или ширина) и длина не заполнены.
// Запрос к сервису в этом случае не выполняется.
var ErrIncompleteInput = errors.New("girth or width and length are required")

// APIError ответ сервиса с кодом, отличным от 200.
// Message содержит текст сервера без изменений.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("recommend: status %d: %s", e.Status, e.Message)
}

// Recommendation результат подбора с оценкой объема товара
type Recommendation struct {
	models.MatchResult
	VolumeML float64
}

// Client клиент сервиса подбора
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создает клиент. Если httpClient равен nil, используется http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Recommend нормализует ввод и запрашивает подходящие товары.
// Порядок результатов совпадает с порядком ответа сервиса.
func (c *Client) Recommend(ctx context.Context, in units.Input) ([]Recommendation, error) {
	m, ok := in.Normalize()
	if !ok {
		return nil, ErrIncompleteInput
	}

	query := url.Values{}
	query.Set("girth", strconv.FormatFloat(m.GirthCM, 'f', -1, 64))
	query.Set("length", strconv.FormatFloat(m.LengthCM, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/recommend?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error requesting recommendations: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp.StatusCode, body)
	}

	var results []models.MatchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	recs := make([]Recommendation, len(results))
	for i, r := range results {
		recs[i] = Recommendation{
			MatchResult: r,
			VolumeML:    units.EstimateVolume(r.Girth, r.Length),
		}
	}
	return recs, nil
}

// decodeAPIError извлекает текст из поля error или message
func decodeAPIError(status int, body []byte) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}

	switch {
	case payload.Error != "":
		apiErr.Message = payload.Error
	case payload.Message != "":
		apiErr.Message = payload.Message
	default:
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
