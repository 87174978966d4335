package docstore

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Memory keeps collections in process. It backs tests and STORE_DRIVER=memory.
type Memory struct {
	mu   sync.Mutex
	data map[string]map[string]Document
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]Document)}
}

func (m *Memory) coll(name string) map[string]Document {
	c, ok := m.data[name]
	if !ok {
		c = make(map[string]Document)
		m.data[name] = c
	}
	return c
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.coll(collection)[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return Snapshot{ID: id, Data: clone(doc)}, nil
}

func (m *Memory) Add(ctx context.Context, collection string, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coll(collection)[id] = clone(doc)
	return id, nil
}

func (m *Memory) Set(ctx context.Context, collection, id string, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coll(collection)[id] = clone(doc)
	return nil
}

func (m *Memory) Create(ctx context.Context, collection, id string, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.coll(collection)
	if _, exists := c[id]; exists {
		return ErrAlreadyExists
	}
	c[id] = clone(doc)
	return nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, fields Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.coll(collection)
	doc, ok := c[id]
	if !ok {
		return ErrNotFound
	}
	if doc == nil {
		doc = Document{}
		c[id] = doc
	}
	for k, v := range fields {
		doc[k] = cloneValue(v)
	}
	return nil
}

func (m *Memory) Find(ctx context.Context, collection string, q Query) ([]Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.coll(collection)
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := []Snapshot{}
	for _, id := range ids {
		if !matches(c[id], q.Filters) {
			continue
		}
		out = append(out, Snapshot{ID: id, Data: clone(c[id])})
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) Transact(ctx context.Context, collection, id string, fn MutateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.coll(collection)
	doc, ok := c[id]
	if !ok {
		return ErrNotFound
	}
	next, err := fn(clone(doc))
	if err != nil {
		return err
	}
	c[id] = clone(next)
	return nil
}

func matches(doc Document, filters []Filter) bool {
	for _, f := range filters {
		v, ok := doc[f.Field]
		if !ok || !reflect.DeepEqual(v, f.Value) {
			return false
		}
	}
	return true
}

func clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return clone(x)
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = cloneValue(x[i])
		}
		return out
	case []map[string]any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = clone(x[i])
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out
	}
	return v
}
