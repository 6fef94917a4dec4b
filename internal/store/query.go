// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Operator identifies a condition comparison.
type Operator string

const (
	OpEqual       Operator = "eq"
	OpNotEqual    Operator = "ne"
	OpGreaterThan Operator = "gt"
	OpLessThan    Operator = "lt"
	OpEndsWith    Operator = "ends-with"
	OpNull        Operator = "null"
	OpNotNull     Operator = "not-null"
)

// Condition constrains one field of the queried entity.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

// Link joins the queried entity to a related one through a reference field
// and applies conditions to the linked record.
type Link struct {
	FromField  string // reference field on the queried entity
	ToEntity   string
	Conditions []Condition
}

// Order sorts results by one field.
type Order struct {
	Field string
	Desc  bool
}

// Query describes a RetrieveMany request: equality/range/text conditions,
// optional joined sub-criteria, ordering and a result cap.
type Query struct {
	Entity     string
	Columns    []string
	Conditions []Condition
	Links      []Link
	OrderBy    []Order
	Limit      int
}

// Where appends a condition and returns the query for chaining.
func (q Query) Where(field string, op Operator, value any) Query {
	q.Conditions = append(q.Conditions, Condition{Field: field, Op: op, Value: value})
	return q
}

// Fetcher resolves a referenced record for link evaluation. Implementations
// return ErrNotFound for dangling references.
type Fetcher func(entity, id string) (*Record, error)

// Matches reports whether the record satisfies all conditions and links of
// the query. Link evaluation fetches the referenced record through fetch;
// a zero or dangling reference never matches.
func (q Query) Matches(r *Record, fetch Fetcher) (bool, error) {
	for _, c := range q.Conditions {
		if !matchCondition(r.Get(c.Field), c) {
			return false, nil
		}
	}
	for _, l := range q.Links {
		ref := r.GetRef(l.FromField)
		if ref.IsZero() {
			return false, nil
		}
		linked, err := fetch(l.ToEntity, ref.ID)
		if err != nil {
			if err == ErrNotFound {
				return false, nil
			}
			return false, err
		}
		for _, c := range l.Conditions {
			if !matchCondition(linked.Get(c.Field), c) {
				return false, nil
			}
		}
	}
	return true, nil
}

// SortLimit applies the query's ordering and limit to an already-filtered
// result slice, in place, and returns it.
func (q Query) SortLimit(recs []*Record) []*Record {
	if len(q.OrderBy) > 0 {
		sort.SliceStable(recs, func(i, j int) bool {
			for _, o := range q.OrderBy {
				c := compareValues(recs[i].Get(o.Field), recs[j].Get(o.Field))
				if c == 0 {
					continue
				}
				if o.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	if q.Limit > 0 && len(recs) > q.Limit {
		recs = recs[:q.Limit]
	}
	return recs
}

// EqualValues reports whether two field values are equal under the same
// comparison rules conditions use.
func EqualValues(a, b any) bool {
	if isAbsent(a) && isAbsent(b) {
		return true
	}
	return compareValues(a, b) == 0
}

func matchCondition(v any, c Condition) bool {
	switch c.Op {
	case OpNull:
		return isAbsent(v)
	case OpNotNull:
		return !isAbsent(v)
	case OpEndsWith:
		s, ok := v.(string)
		want, _ := c.Value.(string)
		return ok && strings.HasSuffix(s, want)
	case OpEqual:
		return !isAbsent(v) && compareValues(v, c.Value) == 0
	case OpNotEqual:
		return isAbsent(v) || compareValues(v, c.Value) != 0
	case OpGreaterThan:
		return !isAbsent(v) && compareValues(v, c.Value) > 0
	case OpLessThan:
		return !isAbsent(v) && compareValues(v, c.Value) < 0
	}
	return false
}

func isAbsent(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case Ref:
		return t.IsZero()
	case time.Time:
		return t.IsZero()
	}
	return false
}

// compareValues orders two field values of the same logical type. Mismatched
// types compare as unequal (returns -1).
func compareValues(a, b any) int {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case av:
				return 1
			}
			return -1
		}
	case int64:
		if bv, ok := toInt64(b); ok {
			av2 := av
			switch {
			case av2 == bv:
				return 0
			case av2 > bv:
				return 1
			}
			return -1
		}
	case int:
		return compareValues(int64(av), b)
	case float64:
		if bv, ok := toFloat64(b); ok {
			switch {
			case av == bv:
				return 0
			case av > bv:
				return 1
			}
			return -1
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			switch {
			case av.Equal(bv):
				return 0
			case av.After(bv):
				return 1
			}
			return -1
		}
	case decimal.Decimal:
		if bv, ok := b.(decimal.Decimal); ok {
			return av.Cmp(bv)
		}
	case Ref:
		if bv, ok := b.(Ref); ok {
			if av == bv {
				return 0
			}
			return strings.Compare(av.Entity+av.ID, bv.Entity+bv.ID)
		}
		// Conditions frequently carry a bare id for reference fields.
		if bv, ok := b.(string); ok {
			return strings.Compare(av.ID, bv)
		}
	}
	return -1
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	}
	return 0, false
}
