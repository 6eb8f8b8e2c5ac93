package service

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/InQaaaaGit/condom_recommender.git/internal/config"
	"github.com/InQaaaaGit/condom_recommender.git/internal/models"
)

var testJPEG = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}

// fakeCatalog имитирует внешний каталог и считает обращения к нему
type fakeCatalog struct {
	catalogStatus int
	catalogBody   string
	imageStatus   func(id string) int
	imageBody     func(id string) []byte
	imageDelay    time.Duration

	catalogRequests atomic.Int32
	imageRequests   atomic.Int32
	inFlight        atomic.Int32
	maxInFlight     atomic.Int32
}

func (f *fakeCatalog) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/condoms":
		f.catalogRequests.Add(1)
		status := f.catalogStatus
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		w.Write([]byte(f.catalogBody))
	case strings.HasPrefix(r.URL.Path, "/condom/"):
		f.imageRequests.Add(1)
		n := f.inFlight.Add(1)
		defer f.inFlight.Add(-1)
		for {
			m := f.maxInFlight.Load()
			if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		if f.imageDelay > 0 {
			select {
			case <-time.After(f.imageDelay):
			case <-r.Context().Done():
				return
			}
		}
		id := strings.TrimPrefix(r.URL.Path, "/condom/")
		if f.imageStatus != nil {
			if status := f.imageStatus(id); status != http.StatusOK {
				w.WriteHeader(status)
				return
			}
		}
		w.Header().Set("Content-Type", "image/jpeg")
		if f.imageBody != nil {
			w.Write(f.imageBody(id))
			return
		}
		w.Write(testJPEG)
	default:
		http.NotFound(w, r)
	}
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		CatalogBaseURL:    baseURL,
		GirthTolerance:    1.5,
		LengthTolerance:   3,
		CatalogTimeout:    5 * time.Second,
		ImageFetchTimeout: 2 * time.Second,
		BreakerThreshold:  0,
		BreakerCooldown:   time.Minute,
	}
}

func newTestService(t *testing.T, fake *fakeCatalog, mutate ...func(*config.Config)) *MatchService {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := testConfig(srv.URL)
	for _, fn := range mutate {
		fn(cfg)
	}
	return NewMatchService(cfg, zap.NewNop())
}

const sampleCatalog = `[
	{"id":"wide","name":"Wide","girth":13.2,"length":19,"link":"https://shop.example/wide"},
	{"id":"snug","name":"Snug","girth":11.8,"length":20.5},
	{"id":"long","name":"Long","girth":12.1,"length":21.5},
	{"id":"tiny","name":"Tiny","girth":9,"length":16}
]`

func TestRecommendSuccess(t *testing.T) {
	fake := &fakeCatalog{catalogBody: sampleCatalog}
	svc := newTestService(t, fake)

	results, err := svc.Recommend(context.Background(), models.Measurement{GirthCM: 12, LengthCM: 19})
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, "long", results[0].ID)
	assert.Equal(t, "snug", results[1].ID)
	assert.Equal(t, "wide", results[2].ID)

	for _, r := range results {
		require.NotNil(t, r.ImageURL)
		assert.Equal(t, models.JPEGDataURI(testJPEG), *r.ImageURL)
	}
	link, ok := results[2].Field("link")
	assert.True(t, ok)
	assert.JSONEq(t, `"https://shop.example/wide"`, string(link))

	assert.EqualValues(t, 1, fake.catalogRequests.Load())
	assert.EqualValues(t, 3, fake.imageRequests.Load())
}

func TestRecommendRankingIgnoresLength(t *testing.T) {
	fake := &fakeCatalog{catalogBody: `[
		{"id":"b","girth":13.2,"length":18},
		{"id":"a","girth":12.5,"length":20.9}
	]`}
	svc := newTestService(t, fake)

	results, err := svc.Recommend(context.Background(), models.Measurement{GirthCM: 12, LengthCM: 18})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "b", results[1].ID)
}

func TestRecommendInvalidMeasurementMakesNoRequests(t *testing.T) {
	tests := []struct {
		name string
		m    models.Measurement
	}{
		{"Zero girth", models.Measurement{GirthCM: 0, LengthCM: 18}},
		{"Zero length", models.Measurement{GirthCM: 12, LengthCM: 0}},
		{"Negative", models.Measurement{GirthCM: -12, LengthCM: 18}},
		{"NaN", models.Measurement{GirthCM: math.NaN(), LengthCM: 18}},
		{"Infinity", models.Measurement{GirthCM: 12, LengthCM: math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeCatalog{catalogBody: sampleCatalog}
			svc := newTestService(t, fake)

			_, err := svc.Recommend(context.Background(), tt.m)
			assert.ErrorIs(t, err, ErrInvalidMeasurement)
			assert.EqualValues(t, 0, fake.catalogRequests.Load())
			assert.EqualValues(t, 0, fake.imageRequests.Load())
		})
	}
}

func TestRecommendUpstreamFailureMakesNoImageRequests(t *testing.T) {
	for _, status := range []int{http.StatusInternalServerError, http.StatusServiceUnavailable, http.StatusNotFound} {
		t.Run(fmt.Sprint(status), func(t *testing.T) {
			fake := &fakeCatalog{catalogStatus: status, catalogBody: sampleCatalog}
			svc := newTestService(t, fake)

			_, err := svc.Recommend(context.Background(), models.Measurement{GirthCM: 12, LengthCM: 19})
			assert.ErrorIs(t, err, ErrUpstream)
			assert.EqualValues(t, 0, fake.imageRequests.Load())
		})
	}
}

func TestRecommendMalformedCatalogIsInternal(t *testing.T) {
	fake := &fakeCatalog{catalogBody: `not json`}
	svc := newTestService(t, fake)

	_, err := svc.Recommend(context.Background(), models.Measurement{GirthCM: 12, LengthCM: 19})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUpstream)
	assert.NotErrorIs(t, err, ErrNoMatch)
	assert.NotErrorIs(t, err, ErrInvalidMeasurement)
}

func TestRecommendNoMatch(t *testing.T) {
	fake := &fakeCatalog{catalogBody: sampleCatalog}
	svc := newTestService(t, fake)

	_, err := svc.Recommend(context.Background(), models.Measurement{GirthCM: 20, LengthCM: 30})
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.EqualValues(t, 0, fake.imageRequests.Load())
}

func TestRecommendAllImagesFail(t *testing.T) {
	fake := &fakeCatalog{
		catalogBody: sampleCatalog,
		imageStatus: func(id string) int { return http.StatusInternalServerError },
	}
	svc := newTestService(t, fake)

	results, err := svc.Recommend(context.Background(), models.Measurement{GirthCM: 12, LengthCM: 19})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Nil(t, r.ImageURL)
	}
}

func TestRecommendImageFailureIsIsolated(t *testing.T) {
	fake := &fakeCatalog{
		catalogBody: sampleCatalog,
		imageStatus: func(id string) int {
			if id == "snug" {
				return http.StatusNotFound
			}
			return http.StatusOK
		},
	}
	svc := newTestService(t, fake)

	results, err := svc.Recommend(context.Background(), models.Measurement{GirthCM: 12, LengthCM: 19})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NotNil(t, results[0].ImageURL)
	assert.Nil(t, results[1].ImageURL)
	assert.NotNil(t, results[2].ImageURL)
}

func TestRecommendOversizedImageIsNull(t *testing.T) {
	oversized := make([]byte, 10<<20+1)
	fake := &fakeCatalog{
		catalogBody: sampleCatalog,
		imageBody: func(id string) []byte {
			if id == "long" {
				return oversized
			}
			return testJPEG
		},
	}
	svc := newTestService(t, fake)

	results, err := svc.Recommend(context.Background(), models.Measurement{GirthCM: 12, LengthCM: 19})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "long", results[0].ID)
	assert.Nil(t, results[0].ImageURL)
	require.NotNil(t, results[1].ImageURL)
	assert.Equal(t, models.JPEGDataURI(testJPEG), *results[1].ImageURL)
}

func TestRecommendImageTimeout(t *testing.T) {
	fake := &fakeCatalog{catalogBody: sampleCatalog, imageDelay: time.Second}
	svc := newTestService(t, fake, func(cfg *config.Config) {
		cfg.ImageFetchTimeout = 50 * time.Millisecond
	})

	start := time.Now()
	results, err := svc.Recommend(context.Background(), models.Measurement{GirthCM: 12, LengthCM: 19})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 900*time.Millisecond)

	require.Len(t, results, 3)
	for _, r := range results {
		assert.Nil(t, r.ImageURL)
	}
}

func TestRecommendConcurrencyLimit(t *testing.T) {
	var body strings.Builder
	body.WriteString("[")
	for i := 0; i < 12; i++ {
		if i > 0 {
			body.WriteString(",")
		}
		fmt.Fprintf(&body, `{"id":"item-%02d","girth":12,"length":18}`, i)
	}
	body.WriteString("]")

	fake := &fakeCatalog{catalogBody: body.String(), imageDelay: 20 * time.Millisecond}
	svc := newTestService(t, fake, func(cfg *config.Config) {
		cfg.ImageMaxConcurrency = 3
	})

	results, err := svc.Recommend(context.Background(), models.Measurement{GirthCM: 12, LengthCM: 18})
	require.NoError(t, err)
	require.Len(t, results, 12)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("item-%02d", i), r.ID)
		assert.NotNil(t, r.ImageURL)
	}
	assert.LessOrEqual(t, fake.maxInFlight.Load(), int32(3))
}

func TestRecommendImageStageDeadline(t *testing.T) {
	var body strings.Builder
	body.WriteString("[")
	for i := 0; i < 6; i++ {
		if i > 0 {
			body.WriteString(",")
		}
		fmt.Fprintf(&body, `{"id":"item-%02d","girth":12,"length":18}`, i)
	}
	body.WriteString("]")

	fake := &fakeCatalog{catalogBody: body.String(), imageDelay: 150 * time.Millisecond}
	svc := newTestService(t, fake, func(cfg *config.Config) {
		cfg.ImageMaxConcurrency = 1
		cfg.ImageFetchTimeout = time.Second
		cfg.ImageStageTimeout = 250 * time.Millisecond
	})

	start := time.Now()
	results, err := svc.Recommend(context.Background(), models.Measurement{GirthCM: 12, LengthCM: 18})
	require.NoError(t, err)
	// Без общего срока шесть загрузок по очереди заняли бы около 900ms
	assert.Less(t, time.Since(start), 700*time.Millisecond)

	require.Len(t, results, 6)
	assert.NotNil(t, results[0].ImageURL)
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("item-%02d", i), r.ID)
	}
	for _, r := range results[2:] {
		assert.Nil(t, r.ImageURL)
	}
}

// orderedSource отдает изображения в обратном порядке, чтобы проверить сборку ответа по рангу
type orderedSource struct {
	items []models.CatalogItem
	mu    sync.Mutex
	order []string
}

func (s *orderedSource) FetchCatalog(ctx context.Context) ([]models.CatalogItem, error) {
	return s.items, nil
}

func (s *orderedSource) FetchImage(ctx context.Context, id string) ([]byte, error) {
	// Первый по рангу товар отвечает последним
	delay := map[string]time.Duration{"a": 60 * time.Millisecond, "b": 30 * time.Millisecond, "c": 0}[id]
	time.Sleep(delay)
	s.mu.Lock()
	s.order = append(s.order, id)
	s.mu.Unlock()
	return []byte(id), nil
}

func (s *orderedSource) Ping(ctx context.Context) error {
	return nil
}

func TestRecommendKeepsRankOrderRegardlessOfCompletion(t *testing.T) {
	source := &orderedSource{items: []models.CatalogItem{
		{ID: "c", Girth: 13, Length: 18},
		{ID: "a", Girth: 12, Length: 18},
		{ID: "b", Girth: 12.5, Length: 18},
	}}
	svc := NewMatchServiceWithSource(source, testConfig("http://unused"), zap.NewNop())

	results, err := svc.Recommend(context.Background(), models.Measurement{GirthCM: 12, LengthCM: 18})
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{results[0].ID, results[1].ID, results[2].ID})
	assert.Equal(t, []string{"c", "b", "a"}, source.order)
	assert.Equal(t, models.JPEGDataURI([]byte("a")), *results[0].ImageURL)
}

func TestCheckConnection(t *testing.T) {
	healthy := newTestService(t, &fakeCatalog{catalogBody: "[]"})
	assert.NoError(t, healthy.CheckConnection(context.Background()))

	broken := newTestService(t, &fakeCatalog{catalogStatus: http.StatusBadGateway})
	assert.Error(t, broken.CheckConnection(context.Background()))
}

func TestNewCatalogSourceWithBreaker(t *testing.T) {
	fake := &fakeCatalog{catalogStatus: http.StatusInternalServerError}
	svc := newTestService(t, fake, func(cfg *config.Config) {
		cfg.BreakerThreshold = 2
	})
	m := models.Measurement{GirthCM: 12, LengthCM: 18}

	for i := 0; i < 3; i++ {
		_, err := svc.Recommend(context.Background(), m)
		assert.ErrorIs(t, err, ErrUpstream)
	}
	// Третий запрос отклонен circuit breaker без обращения к каталогу
	assert.EqualValues(t, 2, fake.catalogRequests.Load())
}
