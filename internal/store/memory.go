package store

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/vyrodovalexey/shopapi/internal/model"
)

// imageTopics are the topics used for generated placeholder image URLs.
var imageTopics = []string{"product", "technology", "fashion", "food", "electronics"}

// Rand is the randomness source used when creating items.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithRand sets the randomness source used for ratings and image URLs.
func WithRand(r Rand) Option {
	return func(s *MemoryStore) {
		s.rand = r
	}
}

// WithClock sets the clock used for created_at timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// MemoryStore implements Store with an in-memory slice kept in insertion order.
type MemoryStore struct {
	mu     sync.RWMutex
	items  []model.Item
	nextID int
	rand   Rand
	now    func() time.Time
}

// NewMemoryStore creates an empty MemoryStore. The first created item gets id 1.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		items:  make([]model.Item, 0),
		nextID: 1,
		rand:   rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SampleItem is a seed record. Unlike created items its rating is fixed.
type SampleItem struct {
	Draft  model.ItemDraft
	Rating float64
}

// Seed appends the samples in order, assigning ids from the counter.
func (s *MemoryStore) Seed(ctx context.Context, samples []SampleItem) error {
	if err := checkContext(ctx, "seed items"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range samples {
		item := s.newItemLocked(&samples[i].Draft)
		item.Rating = samples[i].Rating
		s.items = append(s.items, item)
	}

	return nil
}

// Reset removes every item and restarts ids at 1.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make([]model.Item, 0)
	s.nextID = 1
}

// List returns the items matching the query, ordered by its sort key.
func (s *MemoryStore) List(ctx context.Context, query model.ListQuery) ([]model.Item, error) {
	if err := checkContext(ctx, "list items"); err != nil {
		return nil, err
	}

	s.mu.RLock()
	items := make([]model.Item, 0, len(s.items))
	for _, item := range s.items {
		if query.Matches(item) {
			items = append(items, item.Clone())
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(items, func(a, b model.Item) int {
		c := compareItems(query.SortBy, a, b)
		if query.Order == model.SortDesc {
			return -c
		}
		return c
	})

	return items, nil
}

// compareItems orders two items by the given field.
func compareItems(field model.SortField, a, b model.Item) int {
	switch field {
	case model.SortByPrice:
		return cmp.Compare(a.Price, b.Price)
	case model.SortByRating:
		return cmp.Compare(a.Rating, b.Rating)
	case model.SortByName:
		return strings.Compare(a.Name, b.Name)
	default:
		return cmp.Compare(a.ID, b.ID)
	}
}

// Get retrieves an item by its ID.
func (s *MemoryStore) Get(ctx context.Context, id int) (*model.Item, error) {
	if err := checkContext(ctx, "get item"); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, fmt.Errorf("get item %d: %w", id, ErrNotFound)
	}

	item := s.items[idx].Clone()
	return &item, nil
}

// Search returns items whose name, description or any tag contains q,
// ignoring case, in collection order.
func (s *MemoryStore) Search(ctx context.Context, q string) ([]model.Item, error) {
	if err := checkContext(ctx, "search items"); err != nil {
		return nil, err
	}

	results := make([]model.Item, 0)
	if q == "" {
		return results, nil
	}

	term := strings.ToLower(q)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if matchesTerm(item, term) {
			results = append(results, item.Clone())
		}
	}

	return results, nil
}

// matchesTerm reports whether a lower-cased term occurs in the item's
// name, description or tags.
func matchesTerm(item model.Item, term string) bool {
	if strings.Contains(strings.ToLower(item.Name), term) {
		return true
	}
	if item.Description != nil && strings.Contains(strings.ToLower(*item.Description), term) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// Categories returns the distinct categories in first-seen order with counts.
func (s *MemoryStore) Categories(ctx context.Context) (*model.CategorySummary, error) {
	if err := checkContext(ctx, "list categories"); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &model.CategorySummary{
		Categories:     make([]string, 0),
		CategoryCounts: make(map[string]int),
	}
	for _, item := range s.items {
		if _, seen := summary.CategoryCounts[item.Category]; !seen {
			summary.Categories = append(summary.Categories, item.Category)
		}
		summary.CategoryCounts[item.Category]++
	}

	return summary, nil
}

// Statistics aggregates the current catalog. AvgPrice is 0 when it is empty.
func (s *MemoryStore) Statistics(ctx context.Context) (*model.Statistics, error) {
	if err := checkContext(ctx, "compute statistics"); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &model.Statistics{
		TotalItems: len(s.items),
		Categories: make(map[string]int),
	}

	var priceSum float64
	for _, item := range s.items {
		if item.IsAvailable {
			stats.AvailableItems++
		}
		stats.TotalValue += item.Price * float64(item.StockCount)
		stats.Categories[item.Category]++
		priceSum += item.Price
	}

	if len(s.items) > 0 {
		stats.AvgPrice = priceSum / float64(len(s.items))
	}

	return stats, nil
}

// Create adds a new item built from the draft and returns it.
func (s *MemoryStore) Create(ctx context.Context, draft *model.ItemDraft) (*model.Item, error) {
	if err := checkContext(ctx, "create item"); err != nil {
		return nil, err
	}

	if draft == nil {
		return nil, fmt.Errorf("create item: %w", ErrNilDraft)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.newItemLocked(draft)
	item.Rating = s.randomRatingLocked()
	s.items = append(s.items, item)

	out := item.Clone()
	return &out, nil
}

// Update replaces the mutable fields of an existing item. The id, created_at
// and rating are kept, and so is the image URL when the draft has none.
func (s *MemoryStore) Update(ctx context.Context, id int, draft *model.ItemDraft) (*model.Item, error) {
	if err := checkContext(ctx, "update item"); err != nil {
		return nil, err
	}

	if draft == nil {
		return nil, fmt.Errorf("update item: %w", ErrNilDraft)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, fmt.Errorf("update item %d: %w", id, ErrNotFound)
	}

	existing := s.items[idx]
	imageURL := existing.ImageURL
	if draft.HasImageURL() {
		imageURL = draft.ImageURL
	}

	updated := model.Item{
		ID:          existing.ID,
		Name:        draft.Name,
		Description: draft.Description,
		Price:       draft.Price,
		IsAvailable: draft.IsAvailable,
		Category:    draft.Category,
		ImageURL:    imageURL,
		CreatedAt:   existing.CreatedAt,
		StockCount:  draft.StockCount,
		Rating:      existing.Rating,
		Tags:        draft.Tags,
	}.Clone()

	s.items[idx] = updated

	out := updated.Clone()
	return &out, nil
}

// UpdateStock sets the stock count of an existing item and leaves every other
// field untouched.
func (s *MemoryStore) UpdateStock(ctx context.Context, id int, stockCount int) (*model.Item, error) {
	if err := checkContext(ctx, "update stock"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, fmt.Errorf("update stock %d: %w", id, ErrNotFound)
	}

	s.items[idx].StockCount = stockCount

	out := s.items[idx].Clone()
	return &out, nil
}

// Delete removes an item and returns its last state. Its id is never reused.
func (s *MemoryStore) Delete(ctx context.Context, id int) (*model.Item, error) {
	if err := checkContext(ctx, "delete item"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, fmt.Errorf("delete item %d: %w", id, ErrNotFound)
	}

	removed := s.items[idx]
	s.items = slices.Delete(s.items, idx, idx+1)

	return &removed, nil
}

// newItemLocked assigns the next id and created_at to a copy of the draft.
// The caller must hold the write lock.
func (s *MemoryStore) newItemLocked(draft *model.ItemDraft) model.Item {
	imageURL := draft.ImageURL
	if !draft.HasImageURL() {
		generated := s.placeholderImageURLLocked()
		imageURL = &generated
	}

	item := model.Item{
		ID:          s.nextID,
		Name:        draft.Name,
		Description: draft.Description,
		Price:       draft.Price,
		IsAvailable: draft.IsAvailable,
		Category:    draft.Category,
		ImageURL:    imageURL,
		CreatedAt:   s.now().Format(model.CreatedAtLayout),
		StockCount:  draft.StockCount,
		Tags:        draft.Tags,
	}.Clone()

	s.nextID++

	return item
}

// randomRatingLocked returns a uniform rating in [MinRating, MaxRating]
// rounded to one decimal place.
func (s *MemoryStore) randomRatingLocked() float64 {
	r := model.MinRating + s.rand.Float64()*(model.MaxRating-model.MinRating)
	return math.Round(r*10) / 10
}

// placeholderImageURLLocked builds a random Unsplash-style image URL.
func (s *MemoryStore) placeholderImageURLLocked() string {
	topic := imageTopics[s.rand.IntN(len(imageTopics))]
	return fmt.Sprintf(
		"https://images.unsplash.com/photo-1%d-%d?w=400&q=80&auto=format&fit=crop&topic=%s",
		500000000+s.rand.IntN(200000000),
		100000000+s.rand.IntN(900000000),
		topic,
	)
}

// indexLocked returns the slice position of id, or -1.
func (s *MemoryStore) indexLocked(id int) int {
	return slices.IndexFunc(s.items, func(item model.Item) bool {
		return item.ID == id
	})
}

// checkContext fails fast when the context is already done.
func checkContext(ctx context.Context, operation string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", operation, ctx.Err())
	default:
		return nil
	}
}
