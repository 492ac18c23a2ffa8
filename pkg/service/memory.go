package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/Suhaibinator/SHooks/pkg/hook"
	"github.com/google/uuid"
)

// Memory is an in-process Service storing records in a map.
// Find filters on query equality; query keys starting with "$" are ignored.
type Memory struct {
	IDField string // Record field holding the id. Default "id".

	mu      sync.RWMutex
	records map[string]map[string]any
	order   []string
}

// NewMemory creates an empty Memory service.
func NewMemory() *Memory {
	return &Memory{IDField: "id", records: make(map[string]map[string]any)}
}

func (m *Memory) idField() string {
	if m.IDField == "" {
		return "id"
	}
	return m.IDField
}

// Find returns every record matching params.Query.
func (m *Memory) Find(ctx context.Context, params *hook.Params) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var query map[string]any
	if params != nil {
		query = params.Query
	}

	results := make([]map[string]any, 0, len(m.records))
	for _, id := range m.order {
		rec := m.records[id]
		if matches(rec, query) {
			results = append(results, copyRecord(rec))
		}
	}
	return results, nil
}

// Get returns the record with id.
func (m *Memory) Get(ctx context.Context, id string, params *hook.Params) (any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, hook.NotFound(fmt.Sprintf("no record found for id '%s'", id))
	}
	return copyRecord(rec), nil
}

// Create stores data as a new record, assigning an id when data has none.
// Numeric ids are kept in their string form, since records are addressed by
// string id.
func (m *Memory) Create(ctx context.Context, data map[string]any, params *hook.Params) (any, error) {
	rec := copyRecord(data)
	var id string
	switch v := rec[m.idField()].(type) {
	case nil:
	case string:
		id = v
	case json.Number:
		id = v.String()
	case int, int32, int64, float64:
		id = fmt.Sprint(v)
	default:
		return nil, hook.BadRequest(fmt.Sprintf("field '%s' must be a string or number", m.idField()))
	}
	if id == "" {
		id = uuid.New().String()
	}
	rec[m.idField()] = id

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.records == nil {
		m.records = make(map[string]map[string]any)
	}
	if _, exists := m.records[id]; exists {
		return nil, hook.BadRequest(fmt.Sprintf("record '%s' already exists", id))
	}
	m.records[id] = rec
	m.order = append(m.order, id)
	return copyRecord(rec), nil
}

// Update replaces the record with id.
func (m *Memory) Update(ctx context.Context, id string, data map[string]any, params *hook.Params) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return nil, hook.NotFound(fmt.Sprintf("no record found for id '%s'", id))
	}
	rec := copyRecord(data)
	rec[m.idField()] = id
	m.records[id] = rec
	return copyRecord(rec), nil
}

// Patch merges data into the record with id.
func (m *Memory) Patch(ctx context.Context, id string, data map[string]any, params *hook.Params) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, hook.NotFound(fmt.Sprintf("no record found for id '%s'", id))
	}
	for k, v := range data {
		if k == m.idField() {
			continue
		}
		rec[k] = v
	}
	return copyRecord(rec), nil
}

// Remove deletes the record with id and returns it.
func (m *Memory) Remove(ctx context.Context, id string, params *hook.Params) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, hook.NotFound(fmt.Sprintf("no record found for id '%s'", id))
	}
	delete(m.records, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return rec, nil
}

func matches(rec, query map[string]any) bool {
	for k, want := range query {
		if strings.HasPrefix(k, "$") {
			continue
		}
		v, ok := rec[k]
		if !ok || fmt.Sprint(v) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func copyRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec)+1)
	for k, v := range rec {
		out[k] = v
	}
	return out
}
