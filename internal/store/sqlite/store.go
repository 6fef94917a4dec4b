// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package sqlite provides a SQLite-backed implementation of store.Store.
// Records are kept in a single generic table with the field map serialized
// as JSON; conditions and links are evaluated through the shared query
// matcher so behavior stays identical to the in-memory store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"bordereau-import/internal/store"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	seq    INTEGER PRIMARY KEY AUTOINCREMENT,
	entity TEXT NOT NULL,
	id     TEXT NOT NULL,
	fields TEXT NOT NULL,
	UNIQUE (entity, id)
);
CREATE INDEX IF NOT EXISTS idx_records_entity ON records(entity);
`

// Store implements store.Store on top of a SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens (and if necessary initializes) the database at path. Use
// ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize sqlite store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Retrieve(ctx context.Context, entity, id string, columns []string) (*store.Record, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT fields FROM records WHERE entity = ? AND id = ?`, entity, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("retrieve %s %s: %w", entity, id, err)
	}
	rec, err := decodeRecord(entity, id, raw)
	if err != nil {
		return nil, err
	}
	return restrict(rec, columns), nil
}

func (s *Store) RetrieveMany(ctx context.Context, q store.Query) ([]*store.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, fields FROM records WHERE entity = ? ORDER BY seq`, q.Entity)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Entity, err)
	}
	defer rows.Close()

	fetch := func(entity, id string) (*store.Record, error) {
		return s.Retrieve(ctx, entity, id, nil)
	}

	var out []*store.Record
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", q.Entity, err)
		}
		rec, err := decodeRecord(q.Entity, id, raw)
		if err != nil {
			return nil, err
		}
		ok, err := q.Matches(rec, fetch)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, restrict(rec, q.Columns))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Entity, err)
	}
	return q.SortLimit(out), nil
}

func (s *Store) Create(ctx context.Context, r *store.Record) (string, error) {
	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}
	raw, err := encodeFields(r.Fields)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", r.Entity, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO records (entity, id, fields) VALUES (?, ?, ?)`, r.Entity, id, raw); err != nil {
		return "", fmt.Errorf("create %s: %w", r.Entity, err)
	}
	r.ID = id
	return id, nil
}

func (s *Store) Update(ctx context.Context, r *store.Record) error {
	existing, err := s.Retrieve(ctx, r.Entity, r.ID, nil)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", r.Entity, r.ID, err)
	}
	for k, v := range r.Fields {
		existing.Fields[k] = v
	}
	raw, err := encodeFields(existing.Fields)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", r.Entity, r.ID, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE records SET fields = ? WHERE entity = ? AND id = ?`, raw, r.Entity, r.ID); err != nil {
		return fmt.Errorf("update %s %s: %w", r.Entity, r.ID, err)
	}
	return nil
}

// fieldValue is the tagged JSON envelope for one field. The tag preserves
// the logical type across the round trip.
type fieldValue struct {
	T string  `json:"t"`
	V string  `json:"v"`
	E string  `json:"e,omitempty"` // referenced entity, for refs
	B bool    `json:"b,omitempty"`
	F float64 `json:"f,omitempty"`
	I int64   `json:"i,omitempty"`
}

func encodeFields(fields map[string]any) (string, error) {
	enc := make(map[string]fieldValue, len(fields))
	for k, v := range fields {
		switch t := v.(type) {
		case string:
			enc[k] = fieldValue{T: "s", V: t}
		case bool:
			enc[k] = fieldValue{T: "b", B: t}
		case int:
			enc[k] = fieldValue{T: "i", I: int64(t)}
		case int64:
			enc[k] = fieldValue{T: "i", I: t}
		case float64:
			enc[k] = fieldValue{T: "f", F: t}
		case decimal.Decimal:
			enc[k] = fieldValue{T: "d", V: t.String()}
		case time.Time:
			enc[k] = fieldValue{T: "t", V: t.Format(time.RFC3339Nano)}
		case store.Ref:
			enc[k] = fieldValue{T: "r", E: t.Entity, V: t.ID}
		case nil:
			continue
		default:
			return "", fmt.Errorf("field %s: unsupported value type %T", k, v)
		}
	}
	raw, err := json.Marshal(enc)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeRecord(entity, id, raw string) (*store.Record, error) {
	var enc map[string]fieldValue
	if err := json.Unmarshal([]byte(raw), &enc); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", entity, id, err)
	}
	rec := &store.Record{Entity: entity, ID: id, Fields: make(map[string]any, len(enc))}
	for k, fv := range enc {
		switch fv.T {
		case "s":
			rec.Fields[k] = fv.V
		case "b":
			rec.Fields[k] = fv.B
		case "i":
			rec.Fields[k] = fv.I
		case "f":
			rec.Fields[k] = fv.F
		case "d":
			d, err := decimal.NewFromString(fv.V)
			if err != nil {
				return nil, fmt.Errorf("decode %s %s field %s: %w", entity, id, k, err)
			}
			rec.Fields[k] = d
		case "t":
			ts, err := time.Parse(time.RFC3339Nano, fv.V)
			if err != nil {
				return nil, fmt.Errorf("decode %s %s field %s: %w", entity, id, k, err)
			}
			rec.Fields[k] = ts
		case "r":
			rec.Fields[k] = store.Ref{Entity: fv.E, ID: fv.V}
		default:
			return nil, fmt.Errorf("decode %s %s field %s: unknown tag %q", entity, id, k, fv.T)
		}
	}
	return rec, nil
}

func restrict(r *store.Record, columns []string) *store.Record {
	if len(columns) == 0 {
		return r
	}
	out := &store.Record{Entity: r.Entity, ID: r.ID, Fields: make(map[string]any, len(columns))}
	for _, c := range columns {
		if v, ok := r.Fields[c]; ok {
			out.Fields[c] = v
		}
	}
	return out
}
