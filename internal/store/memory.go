// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store. It backs dry runs and tests; retrieval
// order is creation order, matching what resolve-or-create logic expects
// from the real adapters.
type MemoryStore struct {
	records map[string]map[string]*Record
	order   map[string][]string // entity -> ids in creation order

	// Creates and Updates count the write calls made against the store.
	Creates int
	Updates int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]map[string]*Record),
		order:   make(map[string][]string),
	}
}

func (m *MemoryStore) Retrieve(ctx context.Context, entity, id string, columns []string) (*Record, error) {
	r, ok := m.records[entity][id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(r, columns), nil
}

func (m *MemoryStore) RetrieveMany(ctx context.Context, q Query) ([]*Record, error) {
	var out []*Record
	for _, id := range m.order[q.Entity] {
		r := m.records[q.Entity][id]
		ok, err := q.Matches(r, m.fetch)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, cloneRecord(r, q.Columns))
		}
	}
	return q.SortLimit(out), nil
}

func (m *MemoryStore) Create(ctx context.Context, r *Record) (string, error) {
	if r.Entity == "" {
		return "", fmt.Errorf("create: record has no entity")
	}
	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := m.records[r.Entity][id]; exists {
		return "", fmt.Errorf("create: %s %s already exists", r.Entity, id)
	}
	stored := cloneRecord(r, nil)
	stored.ID = id
	if m.records[r.Entity] == nil {
		m.records[r.Entity] = make(map[string]*Record)
	}
	m.records[r.Entity][id] = stored
	m.order[r.Entity] = append(m.order[r.Entity], id)
	m.Creates++
	r.ID = id
	return id, nil
}

func (m *MemoryStore) Update(ctx context.Context, r *Record) error {
	stored, ok := m.records[r.Entity][r.ID]
	if !ok {
		return fmt.Errorf("update %s %s: %w", r.Entity, r.ID, ErrNotFound)
	}
	for k, v := range r.Fields {
		stored.Fields[k] = v
	}
	m.Updates++
	return nil
}

// Count returns the number of stored records of an entity.
func (m *MemoryStore) Count(entity string) int {
	return len(m.records[entity])
}

func (m *MemoryStore) fetch(entity, id string) (*Record, error) {
	r, ok := m.records[entity][id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

func cloneRecord(r *Record, columns []string) *Record {
	out := &Record{Entity: r.Entity, ID: r.ID, Fields: make(map[string]any, len(r.Fields))}
	if len(columns) == 0 {
		for k, v := range r.Fields {
			out.Fields[k] = v
		}
		return out
	}
	for _, c := range columns {
		if v, ok := r.Fields[c]; ok {
			out.Fields[c] = v
		}
	}
	return out
}
