// Package model defines data structures used throughout the application.
package model

import (
	"slices"
	"time"
)

// DefaultCategory is assigned when a draft does not name a category.
const DefaultCategory = "기타"

// CreatedAtLayout formats Item.CreatedAt. The layout sorts lexically in
// chronological order.
const CreatedAtLayout = "2006-01-02 15:04:05"

// Rating bounds for newly created items.
const (
	MinRating = 3.0
	MaxRating = 5.0
)

// Item represents a product in the catalog.
type Item struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Price       float64  `json:"price"`
	IsAvailable bool     `json:"is_available"`
	Category    string   `json:"category"`
	ImageURL    *string  `json:"image_url"`
	CreatedAt   string   `json:"created_at"`
	StockCount  int      `json:"stock_count"`
	Rating      float64  `json:"rating"`
	Tags        []string `json:"tags"`
}

// Clone returns a deep copy of the item so callers cannot mutate stored state.
func (i Item) Clone() Item {
	out := i
	out.Description = cloneString(i.Description)
	out.ImageURL = cloneString(i.ImageURL)
	out.Tags = cloneTags(i.Tags)
	return out
}

// ItemDraft is the client supplied part of an item, without the
// server-assigned id, created_at and rating.
type ItemDraft struct {
	Name        string   `json:"name" validate:"required"`
	Description *string  `json:"description"`
	Price       float64  `json:"price" validate:"gte=0"`
	IsAvailable bool     `json:"is_available"`
	Category    string   `json:"category"`
	ImageURL    *string  `json:"image_url" validate:"omitempty,url"`
	StockCount  int      `json:"stock_count" validate:"gte=0"`
	Tags        []string `json:"tags"`
}

// HasImageURL reports whether the draft carries a non-empty image URL.
func (d *ItemDraft) HasImageURL() bool {
	return d.ImageURL != nil && *d.ImageURL != ""
}

// SortField selects the key used to order list results.
type SortField string

// Supported sort fields.
const (
	SortByID     SortField = "id"
	SortByPrice  SortField = "price"
	SortByRating SortField = "rating"
	SortByName   SortField = "name"
)

// ParseSortField maps a query value to a SortField. Unknown values sort by id.
func ParseSortField(s string) SortField {
	switch SortField(s) {
	case SortByPrice, SortByRating, SortByName:
		return SortField(s)
	default:
		return SortByID
	}
}

// SortOrder is the direction of a sort.
type SortOrder string

// Supported sort orders.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder maps a query value to a SortOrder. Anything but "desc" is ascending.
func ParseSortOrder(s string) SortOrder {
	if SortOrder(s) == SortDesc {
		return SortDesc
	}
	return SortAsc
}

// ListQuery filters and orders a catalog listing. Zero values mean
// "no constraint"; nil price bounds are unbounded.
type ListQuery struct {
	Category      string
	MinPrice      *float64
	MaxPrice      *float64
	AvailableOnly bool
	SortBy        SortField
	Order         SortOrder
}

// Matches reports whether the item satisfies every filter criterion.
func (q ListQuery) Matches(item Item) bool {
	if q.Category != "" && item.Category != q.Category {
		return false
	}
	if q.MinPrice != nil && item.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && item.Price > *q.MaxPrice {
		return false
	}
	if q.AvailableOnly && !item.IsAvailable {
		return false
	}
	return true
}

// Statistics aggregates the current catalog.
type Statistics struct {
	TotalItems     int            `json:"total_items"`
	AvailableItems int            `json:"available_items"`
	TotalValue     float64        `json:"total_value"`
	Categories     map[string]int `json:"categories"`
	AvgPrice       float64        `json:"avg_price"`
}

// CategorySummary lists distinct categories with their item counts.
type CategorySummary struct {
	Categories     []string       `json:"categories"`
	CategoryCounts map[string]int `json:"category_counts"`
}

// ErrorResponse is the body of a non-validation error.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ValidationIssue describes one rejected input value.
type ValidationIssue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ValidationErrorResponse is the body of a 422 response.
type ValidationErrorResponse struct {
	Detail []ValidationIssue `json:"detail"`
}

// CatalogEvent describes a change to the catalog, pushed to /ws subscribers.
type CatalogEvent struct {
	Type      string    `json:"type"`
	ItemID    int       `json:"item_id"`
	Item      *Item     `json:"item,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Catalog event types.
const (
	EventItemCreated  = "item_created"
	EventItemUpdated  = "item_updated"
	EventStockUpdated = "stock_updated"
	EventItemDeleted  = "item_deleted"
)

// NewCatalogEvent creates an event carrying a snapshot of the item.
func NewCatalogEvent(eventType string, item Item) CatalogEvent {
	snapshot := item.Clone()
	return CatalogEvent{
		Type:      eventType,
		ItemID:    item.ID,
		Item:      &snapshot,
		Timestamp: time.Now().UTC(),
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return slices.Clone(tags)
}
