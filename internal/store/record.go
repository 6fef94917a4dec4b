// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by Retrieve when no record matches the given id.
var ErrNotFound = errors.New("record not found")

// Ref is a typed reference to a record of another entity.
type Ref struct {
	Entity string
	ID     string
}

// IsZero reports whether the reference points at nothing.
func (r Ref) IsZero() bool {
	return r.Entity == "" && r.ID == ""
}

// Record is a generic, schema-less view of one stored record. Field values
// are restricted to string, bool, int64, float64, decimal.Decimal, time.Time
// and Ref; adapters may reject anything else.
type Record struct {
	Entity string
	ID     string
	Fields map[string]any
}

// NewRecord creates an empty record of the given entity.
func NewRecord(entity string) *Record {
	return &Record{Entity: entity, Fields: make(map[string]any)}
}

// Set assigns a field value and returns the record for chaining.
func (r *Record) Set(field string, value any) *Record {
	if r.Fields == nil {
		r.Fields = make(map[string]any)
	}
	r.Fields[field] = value
	return r
}

// Get returns the raw field value, or nil when the field is absent.
func (r *Record) Get(field string) any {
	if r.Fields == nil {
		return nil
	}
	return r.Fields[field]
}

// GetString returns the field as a string, or "" when absent or not a string.
func (r *Record) GetString(field string) string {
	s, _ := r.Get(field).(string)
	return s
}

// GetRef returns the field as a reference, or a zero Ref.
func (r *Record) GetRef(field string) Ref {
	ref, _ := r.Get(field).(Ref)
	return ref
}

// GetTime returns the field as a time, or the zero time.
func (r *Record) GetTime(field string) time.Time {
	t, _ := r.Get(field).(time.Time)
	return t
}

// GetInt returns the field as an int64, or 0.
func (r *Record) GetInt(field string) int64 {
	switch v := r.Get(field).(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// GetDecimal returns the field as a decimal, or zero.
func (r *Record) GetDecimal(field string) decimal.Decimal {
	switch v := r.Get(field).(type) {
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	}
	return decimal.Decimal{}
}

// Ref returns a reference to this record.
func (r *Record) Ref() Ref {
	return Ref{Entity: r.Entity, ID: r.ID}
}

// Store is the record persistence capability the import engine runs against.
// All calls are synchronous; resolve-or-create sequences built on top of it
// are point-in-time checks and assume a single writer per batch.
type Store interface {
	// Retrieve fetches one record by id. Columns, when non-empty, restricts
	// the returned fields. Returns ErrNotFound when the id does not exist.
	Retrieve(ctx context.Context, entity, id string, columns []string) (*Record, error)

	// RetrieveMany returns the records matching the query, in retrieval
	// order (creation order unless the query orders explicitly).
	RetrieveMany(ctx context.Context, q Query) ([]*Record, error)

	// Create persists a new record and returns its id. When the record
	// carries no id one is generated.
	Create(ctx context.Context, r *Record) (string, error)

	// Update merges the record's fields into the stored record.
	Update(ctx context.Context, r *Record) error
}
