package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/InQaaaaGit/condom_recommender.git/internal/metrics"
	"github.com/InQaaaaGit/condom_recommender.git/internal/models"
	"github.com/InQaaaaGit/condom_recommender.git/internal/service"
	"github.com/InQaaaaGit/condom_recommender.git/internal/validation"
)

const (
	contentTypeJSON = "application/json"

	invalidInputMessage  = "Invalid input. Please enter valid measurements."
	upstreamErrorMessage = "Failed to fetch condom data."
	noMatchMessage       = "No suitable condom found."
	internalErrorMessage = "Internal Server Error"
)

// Handler обработчики HTTP-запросов сервиса подбора
type Handler struct {
	service service.RecommendService
	logger  *zap.Logger
}

func NewHandler(service service.RecommendService, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// HandleRecommend обрабатывает GET /recommend?girth=<см>&length=<см>
func (h *Handler) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	m, ok := parseMeasurement(r)
	if !ok {
		metrics.RecommendRequests.WithLabelValues("invalid").Inc()
		h.writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: invalidInputMessage})
		return
	}

	results, err := h.service.Recommend(r.Context(), m)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidMeasurement):
			metrics.RecommendRequests.WithLabelValues("invalid").Inc()
			h.writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: invalidInputMessage})
		case errors.Is(err, service.ErrUpstream):
			metrics.RecommendRequests.WithLabelValues("upstream_error").Inc()
			h.logger.Error("Catalog fetch failed", zap.Error(err))
			h.writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: upstreamErrorMessage})
		case errors.Is(err, service.ErrNoMatch):
			metrics.RecommendRequests.WithLabelValues("not_found").Inc()
			h.writeJSON(w, http.StatusNotFound, models.MessageResponse{Message: noMatchMessage})
		default:
			metrics.RecommendRequests.WithLabelValues("internal_error").Inc()
			h.logger.Error("Server error", zap.Error(err))
			h.writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: internalErrorMessage})
		}
		return
	}

	metrics.RecommendRequests.WithLabelValues("ok").Inc()
	metrics.MatchesReturned.Observe(float64(len(results)))
	h.writeJSON(w, http.StatusOK, results)
}

// parseMeasurement разбирает и проверяет параметры запроса.
// Отсутствующий параметр считается нулем и не проходит проверку.
func parseMeasurement(r *http.Request) (models.Measurement, bool) {
	query := r.URL.Query()

	girth, ok := parseParam(query.Get("girth"))
	if !ok {
		return models.Measurement{}, false
	}
	length, ok := parseParam(query.Get("length"))
	if !ok {
		return models.Measurement{}, false
	}

	m := models.Measurement{GirthCM: girth, LengthCM: length}
	if err := validation.Struct(m); err != nil {
		return models.Measurement{}, false
	}
	return m, true
}

func parseParam(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		h.logger.Error("Error encoding JSON response", zap.Error(err))
		http.Error(w, internalErrorMessage, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("Error writing response", zap.Error(err))
	}
}
