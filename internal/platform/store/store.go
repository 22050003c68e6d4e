// Package store persists whole collections of JSON records.
//
// Every collection is an ordered sequence; callers read it whole, change it in
// memory and write it whole. Update runs that cycle under the collection's
// write lock so concurrent requests cannot lose each other's writes.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Collection names one persisted record set.
type Collection string

const (
	Users     Collection = "users"
	Responses Collection = "responses"
	Logins    Collection = "logins"
)

var (
	// ErrCorruptCollection is returned when a collection exists but cannot be decoded.
	ErrCorruptCollection = errors.New("collection data is corrupt")
	// ErrInvalidCollection is returned for a name with no usable file name.
	ErrInvalidCollection = errors.New("invalid collection name")
)

// UpdateFunc receives the current records and returns the replacement sequence.
type UpdateFunc func(records []json.RawMessage) ([]json.RawMessage, error)

type RecordStore interface {
	// Load returns the collection in insertion order. A collection that has
	// never been written is created empty.
	Load(ctx context.Context, c Collection) ([]json.RawMessage, error)
	// Save replaces the collection.
	Save(ctx context.Context, c Collection, records []json.RawMessage) error
	// Update performs an exclusive read-modify-write. If fn fails nothing is written.
	Update(ctx context.Context, c Collection, fn UpdateFunc) error
	Close() error
}

// LoadInto decodes every record of c into a T.
func LoadInto[T any](ctx context.Context, s RecordStore, c Collection) ([]T, error) {
	raw, err := s.Load(ctx, c)
	if err != nil {
		return nil, err
	}
	return Decode[T](c, raw)
}

// Decode converts raw records into typed values.
func Decode[T any](c Collection, raw []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(raw))
	for i, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, &RecordError{Collection: c, Index: i, Err: err}
		}
		out = append(out, v)
	}
	return out, nil
}

// RecordError reports a single record that does not fit the expected shape.
type RecordError struct {
	Collection Collection
	Index      int
	Err        error
}

func (e *RecordError) Error() string {
	return "decode " + string(e.Collection) + " record: " + e.Err.Error()
}

func (e *RecordError) Unwrap() []error {
	return []error{ErrCorruptCollection, e.Err}
}
