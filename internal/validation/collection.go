// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package validation

import "sort"

// Collection accumulates validation errors for a whole batch, keyed by row
// number, with a movable current-row cursor owned by the batch driver.
// Current-row queries reflect only the cursor; All returns the full batch
// history in row order.
type Collection struct {
	first   int
	current int
	errors  map[int][]Error
}

// NewCollection creates a collection whose cursor starts at firstRow (the
// first data row of the feed, after any header rows).
func NewCollection(firstRow int) *Collection {
	return &Collection{
		first:   firstRow,
		current: firstRow,
		errors:  make(map[int][]Error),
	}
}

// CurrentRow returns the cursor position.
func (c *Collection) CurrentRow() int { return c.current }

// NextRow advances the cursor and returns the new row number.
func (c *Collection) NextRow() int {
	c.current++
	return c.current
}

// Add records an error against its own row number; an unset row number is
// attributed to the current row. Rows before the collection's first row are
// clamped to it so every error stays inside the batch.
func (c *Collection) Add(err Error) {
	if err.RowNumber == 0 {
		err.RowNumber = c.current
	}
	if err.RowNumber < c.first {
		err.RowNumber = c.first
	}
	c.errors[err.RowNumber] = append(c.errors[err.RowNumber], err)
}

// AddAll records a batch of errors.
func (c *Collection) AddAll(errs []Error) {
	for _, e := range errs {
		c.Add(e)
	}
}

// CurrentRowErrors returns the errors recorded against the cursor row.
func (c *Collection) CurrentRowErrors() []Error {
	return c.errors[c.current]
}

// HasCurrentRowErrors reports whether the cursor row has any error.
func (c *Collection) HasCurrentRowErrors() bool {
	return len(c.errors[c.current]) > 0
}

// All returns every recorded error, ordered by row number then insertion.
func (c *Collection) All() []Error {
	rows := make([]int, 0, len(c.errors))
	for n := range c.errors {
		rows = append(rows, n)
	}
	sort.Ints(rows)
	var out []Error
	for _, n := range rows {
		out = append(out, c.errors[n]...)
	}
	return out
}

// Len returns the total number of recorded errors.
func (c *Collection) Len() int {
	n := 0
	for _, errs := range c.errors {
		n += len(errs)
	}
	return n
}

// FailedRows returns the number of rows with at least one error.
func (c *Collection) FailedRows() int {
	return len(c.errors)
}
