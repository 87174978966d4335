// Package docstore is the document store client: untyped documents grouped
// in collections and keyed by string ids.
package docstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
	ErrConflict      = errors.New("document changed concurrently")
)

// Document is a schema-less record. Mapping to typed entities happens in
// package models.
type Document = map[string]any

// Snapshot is a document read together with its id.
type Snapshot struct {
	ID   string
	Data Document
}

// Filter is an equality match on a top-level field.
type Filter struct {
	Field string
	Value any
}

type Query struct {
	Filters []Filter
	Limit   int
}

// Where starts a query with one equality filter.
func Where(field string, value any) Query {
	return Query{Filters: []Filter{{Field: field, Value: value}}}
}

func (q Query) And(field string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Value: value})
	return q
}

func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

// MutateFunc receives a private copy of the current document and returns
// the document to store. Returning an error aborts without writing.
type MutateFunc func(Document) (Document, error)

type Store interface {
	Get(ctx context.Context, collection, id string) (Snapshot, error)
	// Add stores doc under a freshly generated id.
	Add(ctx context.Context, collection string, doc Document) (string, error)
	// Set creates or replaces the document with the given id.
	Set(ctx context.Context, collection, id string, doc Document) error
	// Create stores doc only if no document with id exists.
	Create(ctx context.Context, collection, id string, doc Document) error
	// Update sets the given top-level fields on an existing document.
	Update(ctx context.Context, collection, id string, fields Document) error
	Find(ctx context.Context, collection string, q Query) ([]Snapshot, error)
	// Transact is an atomic read-modify-write scoped to one document.
	Transact(ctx context.Context, collection, id string, fn MutateFunc) error
}
