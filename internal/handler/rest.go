package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/shopapi/internal/model"
	"github.com/vyrodovalexey/shopapi/internal/store"
)

// RESTHandler handles REST API requests for catalog items.
type RESTHandler struct {
	store    store.Store
	logger   *zap.Logger
	validate *validator.Validate
	strict   bool
	events   EventPublisher
}

// RESTOption configures a RESTHandler.
type RESTOption func(*RESTHandler)

// WithStrictValidation rejects empty names, negative prices and negative
// stock counts. Without it such values are stored as given.
func WithStrictValidation(strict bool) RESTOption {
	return func(h *RESTHandler) {
		h.strict = strict
	}
}

// WithEventPublisher publishes a CatalogEvent after every successful mutation.
func WithEventPublisher(p EventPublisher) RESTOption {
	return func(h *RESTHandler) {
		if p != nil {
			h.events = p
		}
	}
}

// NewRESTHandler creates a new RESTHandler instance.
func NewRESTHandler(s store.Store, logger *zap.Logger, opts ...RESTOption) *RESTHandler {
	h := &RESTHandler{
		store:    s,
		logger:   logger,
		validate: newValidator(),
		events:   noopPublisher{},
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// RegisterRoutes registers the catalog routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/statistics", h.GetStatistics).Methods(http.MethodGet)
	router.HandleFunc("/categories", h.ListCategories).Methods(http.MethodGet)
	router.HandleFunc("/search", h.SearchItems).Methods(http.MethodGet)
	router.HandleFunc("/items", h.ListItems).Methods(http.MethodGet)
	router.HandleFunc("/items", h.CreateItem).Methods(http.MethodPost)
	router.HandleFunc("/items/{id}", h.GetItem).Methods(http.MethodGet)
	router.HandleFunc("/items/{id}", h.UpdateItem).Methods(http.MethodPut)
	router.HandleFunc("/items/{id}", h.DeleteItem).Methods(http.MethodDelete)
	router.HandleFunc("/items/{id}/stock", h.UpdateStock).Methods(http.MethodPatch)
}

// GetStatistics handles GET /statistics requests.
func (h *RESTHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Statistics(r.Context())
	if err != nil {
		h.handleStoreError(w, err, "statistics")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, stats)
}

// ListCategories handles GET /categories requests.
func (h *RESTHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.Categories(r.Context())
	if err != nil {
		h.handleStoreError(w, err, "list categories")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, summary)
}

// SearchItems handles GET /search requests.
func (h *RESTHandler) SearchItems(w http.ResponseWriter, r *http.Request) {
	values, ok := r.URL.Query()["q"]
	if !ok {
		h.writeValidationError(w, newValidationError("Field required", issueMissing, "query", "q"))
		return
	}

	q := ""
	if len(values) > 0 {
		q = values[0]
	}

	items, err := h.store.Search(r.Context(), q)
	if err != nil {
		h.handleStoreError(w, err, "search items")
		return
	}

	h.logger.Debug("search completed", zap.String("query", q), zap.Int("results", len(items)))
	writeJSON(w, h.logger, http.StatusOK, items)
}

// ListItems handles GET /items requests.
func (h *RESTHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r.URL.Query())
	if err != nil {
		h.writeValidationError(w, err)
		return
	}

	items, err := h.store.List(r.Context(), query)
	if err != nil {
		h.handleStoreError(w, err, "list items")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, items)
}

// GetItem handles GET /items/{id} requests.
func (h *RESTHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id", "item_id")
	if err != nil {
		h.writeValidationError(w, err)
		return
	}

	item, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.handleStoreError(w, err, "get item")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, item)
}

// CreateItem handles POST /items requests.
func (h *RESTHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	draft, err := h.readDraft(r)
	if err != nil {
		h.writeValidationError(w, err)
		return
	}

	item, err := h.store.Create(r.Context(), draft)
	if err != nil {
		h.handleStoreError(w, err, "create item")
		return
	}

	h.logger.Info("item created",
		zap.Int("id", item.ID),
		zap.String("name", item.Name),
		zap.String("category", item.Category),
	)
	h.events.Publish(model.NewCatalogEvent(model.EventItemCreated, *item))
	writeJSON(w, h.logger, http.StatusOK, item)
}

// UpdateItem handles PUT /items/{id} requests.
func (h *RESTHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id", "item_id")
	if err != nil {
		h.writeValidationError(w, err)
		return
	}

	draft, err := h.readDraft(r)
	if err != nil {
		h.writeValidationError(w, err)
		return
	}

	item, err := h.store.Update(r.Context(), id, draft)
	if err != nil {
		h.handleStoreError(w, err, "update item")
		return
	}

	h.logger.Info("item updated", zap.Int("id", item.ID))
	h.events.Publish(model.NewCatalogEvent(model.EventItemUpdated, *item))
	writeJSON(w, h.logger, http.StatusOK, item)
}

// UpdateStock handles PATCH /items/{id}/stock requests.
func (h *RESTHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id", "item_id")
	if err != nil {
		h.writeValidationError(w, err)
		return
	}

	stockCount, err := parseStockCount(r)
	if err != nil {
		h.writeValidationError(w, err)
		return
	}

	if h.strict {
		if err := h.validate.Var(stockCount, "gte=0"); err != nil {
			h.writeValidationError(w, newValidationError("failed on rule: gte", issueValue, "query", "stock_count"))
			return
		}
	}

	item, err := h.store.UpdateStock(r.Context(), id, stockCount)
	if err != nil {
		h.handleStoreError(w, err, "update stock")
		return
	}

	h.logger.Info("stock updated", zap.Int("id", item.ID), zap.Int("stock_count", item.StockCount))
	h.events.Publish(model.NewCatalogEvent(model.EventStockUpdated, *item))
	writeJSON(w, h.logger, http.StatusOK, StockUpdateResponse{
		Message: fmt.Sprintf("아이템 '%s'의 재고가 %d개로 업데이트되었습니다", item.Name, stockCount),
		Item:    item,
	})
}

// DeleteItem handles DELETE /items/{id} requests.
func (h *RESTHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id", "item_id")
	if err != nil {
		h.writeValidationError(w, err)
		return
	}

	item, err := h.store.Delete(r.Context(), id)
	if err != nil {
		h.handleStoreError(w, err, "delete item")
		return
	}

	h.logger.Info("item deleted", zap.Int("id", item.ID), zap.String("name", item.Name))
	h.events.Publish(model.NewCatalogEvent(model.EventItemDeleted, *item))
	writeJSON(w, h.logger, http.StatusOK, DeleteResponse{
		Message:     fmt.Sprintf("아이템 '%s'이 삭제되었습니다", item.Name),
		DeletedItem: item,
	})
}

// readDraft decodes the request body and, in strict mode, validates it.
func (h *RESTHandler) readDraft(r *http.Request) (*model.ItemDraft, error) {
	draft, err := decodeItemDraft(r)
	if err != nil {
		return nil, err
	}

	if h.strict {
		if err := h.validate.Struct(draft); err != nil {
			return nil, strictDraftIssues(err)
		}
	}

	return draft, nil
}

// writeValidationError writes a 422 response for request errors.
func (h *RESTHandler) writeValidationError(w http.ResponseWriter, err error) {
	writeValidationError(w, h.logger, err)
}

// handleStoreError handles store errors and writes appropriate HTTP responses.
func (h *RESTHandler) handleStoreError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.logger.Debug("item not found", zap.String("operation", operation), zap.Error(err))
		writeError(w, h.logger, http.StatusNotFound, msgItemNotFound)
	default:
		h.logger.Error("store operation failed", zap.String("operation", operation), zap.Error(err))
		writeError(w, h.logger, http.StatusInternalServerError, msgInternal)
	}
}

// writeValidationError writes a 422 response listing every issue.
func writeValidationError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var vErr *validationError
	if !errors.As(err, &vErr) {
		logger.Error("unexpected request error", zap.Error(err))
		writeError(w, logger, http.StatusInternalServerError, msgInternal)
		return
	}

	logger.Warn("request validation failed", zap.Error(err))
	writeJSON(w, logger, http.StatusUnprocessableEntity, model.ValidationErrorResponse{Detail: vErr.issues})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, logger *zap.Logger, status int, message string) {
	writeJSON(w, logger, status, model.ErrorResponse{Detail: message})
}
