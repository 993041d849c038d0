package docstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a mutex-guarded in-process Store with the same merge and
// snapshot-then-listen semantics as the Redis implementation. Used in tests
// and as a development fallback when Redis is not configured.
type MemoryStore struct {
	mu          sync.Mutex
	docs        map[uuid.UUID]map[string]json.RawMessage
	subscribers map[uuid.UUID]map[int]func(*Settings)
	nextSubID   int
}

// NewMemoryStore creates an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:        make(map[uuid.UUID]map[string]json.RawMessage),
		subscribers: make(map[uuid.UUID]map[int]func(*Settings)),
	}
}

// Read fetches the current settings document.
func (s *MemoryStore) Read(ctx context.Context, coupleID uuid.UUID) (*Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[coupleID]
	if !ok {
		return nil, ErrNotFound
	}
	return &Settings{Fields: cloneFields(doc)}, nil
}

// MergeWrite shallow-merges the given fields and notifies subscribers.
func (s *MemoryStore) MergeWrite(ctx context.Context, coupleID uuid.UUID, fields map[string]json.RawMessage) error {
	s.mu.Lock()
	doc, ok := s.docs[coupleID]
	if !ok {
		doc = make(map[string]json.RawMessage)
		s.docs[coupleID] = doc
	}
	for name, raw := range fields {
		doc[name] = append(json.RawMessage(nil), raw...)
	}
	snapshot := &Settings{Fields: cloneFields(doc)}
	fns := make([]func(*Settings), 0, len(s.subscribers[coupleID]))
	for _, fn := range s.subscribers[coupleID] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	// Callbacks run outside the lock; they may issue further writes
	// (reconciliation does exactly that when the stored state is stale).
	for _, fn := range fns {
		fn(snapshot)
	}
	return nil
}

// Update applies fn to the field's current bytes under the store lock,
// so an interleaved writer can never be overwritten with stale state.
func (s *MemoryStore) Update(ctx context.Context, coupleID uuid.UUID, field string, fn func(current json.RawMessage) (json.RawMessage, error)) error {
	s.mu.Lock()
	var current json.RawMessage
	if doc, ok := s.docs[coupleID]; ok {
		current = doc[field]
	}

	next, err := fn(current)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if next == nil {
		s.mu.Unlock()
		return nil
	}

	doc, ok := s.docs[coupleID]
	if !ok {
		doc = make(map[string]json.RawMessage)
		s.docs[coupleID] = doc
	}
	doc[field] = append(json.RawMessage(nil), next...)
	snapshot := &Settings{Fields: cloneFields(doc)}
	fns := make([]func(*Settings), 0, len(s.subscribers[coupleID]))
	for _, subscriber := range s.subscribers[coupleID] {
		fns = append(fns, subscriber)
	}
	s.mu.Unlock()

	for _, subscriber := range fns {
		subscriber(snapshot)
	}
	return nil
}

// Subscribe delivers the current snapshot, then every subsequent write.
func (s *MemoryStore) Subscribe(ctx context.Context, coupleID uuid.UUID, fn func(*Settings)) (func(), error) {
	s.mu.Lock()
	if s.subscribers[coupleID] == nil {
		s.subscribers[coupleID] = make(map[int]func(*Settings))
	}
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[coupleID][id] = fn

	var snapshot *Settings
	if doc, ok := s.docs[coupleID]; ok {
		snapshot = &Settings{Fields: cloneFields(doc)}
	}
	s.mu.Unlock()

	if snapshot != nil {
		fn(snapshot)
	}

	unsubscribe := func() {
		s.mu.Lock()
		delete(s.subscribers[coupleID], id)
		s.mu.Unlock()
	}
	return unsubscribe, nil
}

func cloneFields(doc map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(doc))
	for name, raw := range doc {
		out[name] = append(json.RawMessage(nil), raw...)
	}
	return out
}
