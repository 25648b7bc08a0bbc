package handler

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/shopapi/internal/model"
	"github.com/vyrodovalexey/shopapi/internal/store"
)

// InfoHandler serves the service summary, health probes and demo user routes.
type InfoHandler struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewInfoHandler creates a new InfoHandler instance.
func NewInfoHandler(s store.Store, logger *zap.Logger) *InfoHandler {
	return &InfoHandler{
		store:  s,
		logger: logger,
		now:    time.Now,
	}
}

// RegisterRoutes registers the info routes with the router.
func (h *InfoHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Root).Methods(http.MethodGet)
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/users/me", h.CurrentUser).Methods(http.MethodGet)
	router.HandleFunc("/users/{id}", h.GetUser).Methods(http.MethodGet)
}

// RegisterProbeRoutes registers the health and readiness probes.
func (h *InfoHandler) RegisterProbeRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/ready", h.ReadyCheck).Methods(http.MethodGet)
}

// Root handles GET / requests.
func (h *InfoHandler) Root(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Statistics(r.Context())
	if err != nil {
		h.logger.Error("failed to count items", zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, RootResponse{
		Message:    msgWelcome,
		Version:    Version,
		Features:   Features,
		TotalItems: stats.TotalItems,
	})
}

// HealthCheck handles GET /health requests.
func (h *InfoHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Message:   msgHealthy,
		Timestamp: h.now().Format(model.CreatedAtLayout),
		Uptime:    msgUptime,
	})
}

// ReadyCheck handles GET /ready requests. The service is ready once the
// store answers queries.
func (h *InfoHandler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Statistics(r.Context())
	if err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		writeJSON(w, h.logger, http.StatusServiceUnavailable, ReadyResponse{Status: "not ready"})
		return
	}

	writeJSON(w, h.logger, http.StatusOK, ReadyResponse{Status: "ready", Items: stats.TotalItems})
}

// CurrentUser handles GET /users/me requests.
func (h *InfoHandler) CurrentUser(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, CurrentUserResponse{
		Username:  "관리자",
		Email:     "admin@shopapi.com",
		Role:      "admin",
		LastLogin: h.now().Format(model.CreatedAtLayout),
	})
}

// GetUser handles GET /users/{id} requests with a generated demo profile.
func (h *InfoHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id", "user_id")
	if err != nil {
		writeValidationError(w, h.logger, err)
		return
	}

	daysAgo := 1 + rand.IntN(365)
	writeJSON(w, h.logger, http.StatusOK, UserResponse{
		UserID:    id,
		Username:  fmt.Sprintf("사용자%d", id),
		Email:     fmt.Sprintf("user%d@example.com", id),
		CreatedAt: h.now().AddDate(0, 0, -daysAgo).Format(time.DateOnly),
	})
}
