// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package validation collects per-row conversion failures into a
// row-indexed error set. Validation never short-circuits inside a row; a
// malformed row reports every problem at once, and a row with any error is
// barred from entity resolution.
package validation

import (
	"bordereau-import/internal/attribute"
)

// Kind classifies one validation error.
type Kind string

const (
	MissingValue    Kind = "MISSING_VALUE"
	IncorrectFormat Kind = "INCORRECT_FORMAT"
	BusinessError   Kind = "BUSINESS_ERROR"
)

// Error is one validation failure, attributed to exactly one row.
type Error struct {
	RowNumber int
	Column    string
	Kind      Kind
	RawValue  string
	Message   string
}

// ValidateRow checks every attribute of the row and returns the full set of
// failures: one MissingValue per empty mandatory column, one
// IncorrectFormat per present but unparsable non-lookup value.
func ValidateRow(m *attribute.MappedRow) []Error {
	var errs []Error
	for _, a := range m.Attributes() {
		issue := a.Check()
		if issue == nil {
			continue
		}
		kind := IncorrectFormat
		if issue.Kind == attribute.IssueMissing {
			kind = MissingValue
		}
		errs = append(errs, Error{
			RowNumber: m.Row.Number,
			Column:    a.Column.Label,
			Kind:      kind,
			RawValue:  a.Raw,
			Message:   issue.Message,
		})
	}
	return errs
}
