// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package report renders the error collection of a finished batch as a
// flat table, one row per error, batch order preserved.
package report

import (
	"bordereau-import/internal/validation"
)

// Entry is one rendered error report row.
type Entry struct {
	RowNumber        int
	Column           string
	ErrorCode        string
	ErrorDescription string
	TechnicalDetails string
}

// descriptions maps error kinds to the operator-facing description.
var descriptions = map[validation.Kind]string{
	validation.MissingValue:    "A mandatory value is missing",
	validation.IncorrectFormat: "The value does not match the column format",
	validation.BusinessError:   "The row could not be resolved against existing records",
}

// Build flattens the collection into report entries.
func Build(c *validation.Collection) []Entry {
	errs := c.All()
	out := make([]Entry, len(errs))
	for i, e := range errs {
		detail := e.Message
		if e.RawValue != "" {
			detail = "value " + quote(e.RawValue) + ": " + e.Message
		}
		out[i] = Entry{
			RowNumber:        e.RowNumber,
			Column:           e.Column,
			ErrorCode:        string(e.Kind),
			ErrorDescription: descriptions[e.Kind],
			TechnicalDetails: detail,
		}
	}
	return out
}

func quote(s string) string {
	return "\"" + s + "\""
}
