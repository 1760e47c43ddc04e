package mirror

import (
	"context"
	"errors"
)

// ErrNotFound distinguishes a missing document from other store failures.
var ErrNotFound = errors.New("mirror: document not found")

// Document is one record in a mirror collection.
type Document struct {
	ID   string
	Data map[string]any
}

// Store is the remote document store boundary used by the reconciliation
// engine and the notification service. Implementations must report missing
// documents with ErrNotFound and anything else as a plain error.
type Store interface {
	// Get fetches a document by id.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Set writes a document at the given id, overwriting any previous content.
	Set(ctx context.Context, collection, id string, data map[string]any) error
	// Update merges patch fields into an existing document.
	Update(ctx context.Context, collection, id string, patch map[string]any) error
	// Create writes a document under a newly generated id and returns the id.
	Create(ctx context.Context, collection string, data map[string]any) (string, error)
	// QueryAll returns every document in a collection.
	QueryAll(ctx context.Context, collection string) ([]Document, error)
}

// GetString reads an optional string field from document data.
func (d Document) GetString(field string) string {
	if v, ok := d.Data[field].(string); ok {
		return v
	}
	return ""
}

// GetFloat reads an optional numeric field; ok is false when absent or
// not a number. JSON round-trips store all numbers as float64, which keeps
// field comparison on a single decimal representation.
func (d Document) GetFloat(field string) (float64, bool) {
	switch v := d.Data[field].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}
