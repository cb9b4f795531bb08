package repository

import (
	"context"
	"errors"

	"docvault/internal/model"
)

// ErrNotFound is returned by FindByID when no document has the given ID.
var ErrNotFound = errors.New("document not found")

// DocumentRepository defines data access for the document corpus.
// The corpus is append-only: records are created once and never changed.
// No business logic here, strictly persistence operations.
type DocumentRepository interface {
	// Create appends a new document record and returns the stored record.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// All returns a consistent snapshot of the whole corpus in insertion order.
	// An empty corpus is an empty, non-nil slice.
	All(ctx context.Context) ([]model.Document, error)

	// List returns one page of the corpus in insertion order and the total rows count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Document], error)

	// PingContext reports whether the backing store is reachable.
	PingContext(ctx context.Context) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}

// Page cuts pq out of items. It never returns a nil Items slice.
func Page[T any](items []T, pq PageQuery) *PageResult[T] {
	res := &PageResult[T]{Items: make([]T, 0), Total: len(items)}
	if pq.Offset < 0 || pq.Offset >= len(items) || pq.Limit <= 0 {
		return res
	}
	end := pq.Offset + pq.Limit
	if end > len(items) {
		end = len(items)
	}
	res.Items = append(res.Items, items[pq.Offset:end]...)
	return res
}
