// Package store provides catalog storage interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/vyrodovalexey/shopapi/internal/model"
)

// Store errors.
var (
	ErrNotFound = errors.New("item not found")
	ErrNilDraft = errors.New("item draft cannot be nil")
)

// Store defines the catalog operations. Every read returns copies; mutating
// a returned item never changes stored state.
type Store interface {
	// List returns the items matching the query, ordered by its sort key.
	List(ctx context.Context, query model.ListQuery) ([]model.Item, error)

	// Get retrieves an item by its ID.
	Get(ctx context.Context, id int) (*model.Item, error)

	// Search returns items whose name, description or any tag contains q,
	// ignoring case. An empty q matches nothing.
	Search(ctx context.Context, q string) ([]model.Item, error)

	// Categories returns the distinct categories and their item counts.
	Categories(ctx context.Context) (*model.CategorySummary, error)

	// Statistics aggregates the current catalog.
	Statistics(ctx context.Context) (*model.Statistics, error)

	// Create adds a new item built from the draft and returns it.
	Create(ctx context.Context, draft *model.ItemDraft) (*model.Item, error)

	// Update replaces the mutable fields of an existing item.
	Update(ctx context.Context, id int, draft *model.ItemDraft) (*model.Item, error)

	// UpdateStock sets the stock count of an existing item.
	UpdateStock(ctx context.Context, id int, stockCount int) (*model.Item, error)

	// Delete removes an item and returns its last state.
	Delete(ctx context.Context, id int) (*model.Item, error)
}
