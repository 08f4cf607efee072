package handlers

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/imrishuroy/todo-list-api/internal/idempotency"
	"github.com/imrishuroy/todo-list-api/internal/todos"
)

// memStore is an in-memory todos.Store that mirrors the DynamoDB store's
// list projection and modified-count semantics.
type memStore struct {
	mu       sync.Mutex
	order    []string
	items    map[string]todos.Record
	failWith error
}

func newMemStore() *memStore {
	return &memStore{items: map[string]todos.Record{}}
}

func (m *memStore) Insert(ctx context.Context, rec todos.Record) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return "", m.failWith
	}
	if _, ok := m.items[rec.ID]; ok {
		return "", fmt.Errorf("duplicate id %s", rec.ID)
	}
	m.order = append(m.order, rec.ID)
	m.items[rec.ID] = rec
	return rec.ID, nil
}

func (m *memStore) FindOne(ctx context.Context, id string) (*todos.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	rec, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memStore) FindAll(ctx context.Context, limit int) ([]todos.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []todos.Record
	for _, id := range m.order {
		if len(out) == limit {
			break
		}
		r := m.items[id]
		p := todos.Record{ID: r.ID, Title: r.Title, Description: r.Description, Timestamp: r.Timestamp, Done: r.Done}
		if r.Document != nil {
			p.Document = &todos.Attachment{Filename: r.Document.Filename}
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memStore) DeleteOne(ctx context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	if _, ok := m.items[id]; !ok {
		return 0, nil
	}
	delete(m.items, id)
	for i, k := range m.order {
		if k == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return 1, nil
}

func (m *memStore) UpdateOne(ctx context.Context, id string, rec todos.Record) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	old, ok := m.items[id]
	if !ok {
		return 0, nil
	}
	rec.ID = id
	m.items[id] = rec
	if reflect.DeepEqual(old, rec) {
		return 0, nil
	}
	return 1, nil
}

// fakeIdem is an in-memory IdempotencyStore.
type fakeIdem struct {
	mu      sync.Mutex
	records map[string]*idempotency.IdempotencyRecord
	err     error
}

func newFakeIdem() *fakeIdem {
	return &fakeIdem{records: map[string]*idempotency.IdempotencyRecord{}}
}

func (f *fakeIdem) CreateIfNotExists(ctx context.Context, key, route string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if rec, ok := f.records[key]; ok && rec.Status != idempotency.StatusFailed {
		return false, nil
	}
	f.records[key] = &idempotency.IdempotencyRecord{IdempotencyKey: key, Status: idempotency.StatusInProgress, Route: route}
	return true, nil
}

func (f *fakeIdem) Get(ctx context.Context, key string) (*idempotency.IdempotencyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	rec, ok := f.records[key]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeIdem) MarkDone(ctx context.Context, key, recordID, responseBody string, responseStatus int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[key]
	if !ok {
		return errors.New("unknown key")
	}
	rec.Status = idempotency.StatusDone
	rec.RecordID = recordID
	rec.ResponseBody = responseBody
	rec.ResponseStatus = responseStatus
	return nil
}

func (f *fakeIdem) MarkFailed(ctx context.Context, key, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[key]
	if !ok {
		return errors.New("unknown key")
	}
	rec.Status = idempotency.StatusFailed
	rec.Note = note
	return nil
}
