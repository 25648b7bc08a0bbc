package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/shopapi/internal/model"
	"github.com/vyrodovalexey/shopapi/internal/store"
)

var errStoreDown = errors.New("store unavailable")

// failingStore returns errStoreDown from every operation.
type failingStore struct{}

func (failingStore) List(context.Context, model.ListQuery) ([]model.Item, error) {
	return nil, errStoreDown
}

func (failingStore) Get(context.Context, int) (*model.Item, error) {
	return nil, errStoreDown
}

func (failingStore) Search(context.Context, string) ([]model.Item, error) {
	return nil, errStoreDown
}

func (failingStore) Categories(context.Context) (*model.CategorySummary, error) {
	return nil, errStoreDown
}

func (failingStore) Statistics(context.Context) (*model.Statistics, error) {
	return nil, errStoreDown
}

func (failingStore) Create(context.Context, *model.ItemDraft) (*model.Item, error) {
	return nil, errStoreDown
}

func (failingStore) Update(context.Context, int, *model.ItemDraft) (*model.Item, error) {
	return nil, errStoreDown
}

func (failingStore) UpdateStock(context.Context, int, int) (*model.Item, error) {
	return nil, errStoreDown
}

func (failingStore) Delete(context.Context, int) (*model.Item, error) {
	return nil, errStoreDown
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []model.CatalogEvent
}

func (p *recordingPublisher) Publish(event model.CatalogEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Events() []model.CatalogEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.CatalogEvent(nil), p.events...)
}

func newSeededStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	s := store.NewMemoryStore()
	require.NoError(t, s.Seed(context.Background(), store.SampleItems()))
	return s
}

func newRESTRouter(s store.Store, opts ...RESTOption) *mux.Router {
	router := mux.NewRouter()
	NewRESTHandler(s, zap.NewNop(), opts...).RegisterRoutes(router)
	return router
}

func serve(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), "body: %s", rr.Body.String())
	return out
}

func itemIDs(items []model.Item) []int {
	out := make([]int, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}
