package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a couple has no settings document yet.
var ErrNotFound = errors.New("settings document not found")

// Settings is a couple's shared settings document. Top-level fields are kept
// raw so unrelated features (theme, tabs, growth) pass through untouched;
// each consumer owns exactly the fields it writes.
type Settings struct {
	Fields map[string]json.RawMessage
}

// NewSettings returns an empty document.
func NewSettings() *Settings {
	return &Settings{Fields: make(map[string]json.RawMessage)}
}

// Get unmarshals a top-level field into v. Returns false when absent.
func (s *Settings) Get(field string, v interface{}) (bool, error) {
	if s == nil || s.Fields == nil {
		return false, nil
	}
	raw, ok := s.Fields[field]
	if !ok || len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode field %q: %w", field, err)
	}
	return true, nil
}

// Field builds a merge-write payload for a single top-level field. The
// caller supplies the full sub-object; nested values are never merged.
func Field(name string, v interface{}) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode field %q: %w", name, err)
	}
	return map[string]json.RawMessage{name: raw}, nil
}

// Store is the document-store collaborator the game engine consumes.
// MergeWrite performs an atomic read-modify-write shallow merge of the
// given top-level fields; concurrent writers touching different fields
// (or different keys inside a field they each rewrite in full from the
// latest observed state) must not drop each other's values.
type Store interface {
	Read(ctx context.Context, coupleID uuid.UUID) (*Settings, error)
	MergeWrite(ctx context.Context, coupleID uuid.UUID, fields map[string]json.RawMessage) error
	// Update runs a transactional read-modify-write of one top-level
	// field: fn receives the field's current bytes (nil when absent) and
	// returns the replacement. fn may run more than once when the
	// document changes under an optimistic transaction, so it must be
	// side-effect-free up to its captured outputs. Returning a nil
	// payload with a nil error leaves the document untouched and
	// publishes nothing.
	Update(ctx context.Context, coupleID uuid.UUID, field string, fn func(current json.RawMessage) (json.RawMessage, error)) error
	// Subscribe delivers the current snapshot first, then every subsequent
	// change, until the returned unsubscribe function is called.
	Subscribe(ctx context.Context, coupleID uuid.UUID, fn func(*Settings)) (func(), error)
}
