package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/InQaaaaGit/condom_recommender.git/internal/app"
	"github.com/InQaaaaGit/condom_recommender.git/internal/config"
)

func testConfig(catalogURL string) *config.Config {
	return &config.Config{
		ServerAddress:     "127.0.0.1:0",
		CatalogBaseURL:    catalogURL,
		GirthTolerance:    1.5,
		LengthTolerance:   3,
		CatalogTimeout:    time.Second,
		ImageFetchTimeout: time.Second,
		BreakerThreshold:  5,
		BreakerCooldown:   time.Minute,
		RateLimitWindow:   time.Minute,
	}
}

func TestRun(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// Сервер останавливается после отмены контекста без ошибки
	err := run(ctx, testConfig("http://localhost:9999"), zap.NewNop())
	assert.NoError(t, err)
}

func TestRunInvalidAddress(t *testing.T) {
	cfg := testConfig("http://localhost:9999")
	cfg.ServerAddress = "invalid-address"

	err := run(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestRecommenderEndpoints(t *testing.T) {
	catalog := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/condoms" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `[{"id":"a","girth":12,"length":18}]`)
	}))
	defer catalog.Close()

	appInstance, err := app.NewApp(testConfig(catalog.URL), zap.NewNop())
	require.NoError(t, err)

	// Создаем тестовый сервер
	ts := httptest.NewServer(appInstance.Router())
	defer ts.Close()

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "GET /recommend - подходящий товар",
			path:       "/recommend?girth=12.5&length=17",
			wantStatus: http.StatusOK,
			wantBody:   `"id":"a"`,
		},
		{
			name:       "GET /recommend - нет параметров",
			path:       "/recommend",
			wantStatus: http.StatusBadRequest,
			wantBody:   "Invalid input. Please enter valid measurements.",
		},
		{
			name:       "GET /recommend - ничего не найдено",
			path:       "/recommend?girth=20&length=30",
			wantStatus: http.StatusNotFound,
			wantBody:   "No suitable condom found.",
		},
		{
			name:       "GET /ping",
			path:       "/ping",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantBody != "" {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Contains(t, string(body), tt.wantBody)
			}
		})
	}
}
