// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"bordereau-import/internal/batch"
)

// TextFormatter renders a colored, human-readable batch summary.
type TextFormatter struct {
	colors map[string]*color.Color
}

// NewTextFormatter creates a text formatter. When noColor is set all output
// is plain.
func NewTextFormatter(noColor bool) *TextFormatter {
	f := &TextFormatter{
		colors: map[string]*color.Color{
			"green":  color.New(color.FgGreen),
			"yellow": color.New(color.FgYellow),
			"red":    color.New(color.FgRed),
			"white":  color.New(color.FgWhite, color.Bold),
		},
	}
	if noColor {
		for _, c := range f.colors {
			c.DisableColor()
		}
	}
	return f
}

// WriteSummary renders the run summary and the per-row errors.
func (f *TextFormatter) WriteSummary(w io.Writer, s *batch.Summary) {
	ok := s.RowsProcessed - s.RowsFailed
	fmt.Fprintf(w, "%s\n", f.colors["white"].Sprint("Import summary"))
	fmt.Fprintf(w, "  rows processed: %d\n", s.RowsProcessed)
	fmt.Fprintf(w, "  rows imported:  %s\n", f.colors["green"].Sprintf("%d", ok))
	if s.RowsFailed > 0 {
		fmt.Fprintf(w, "  rows failed:    %s\n", f.colors["red"].Sprintf("%d", s.RowsFailed))
	}

	if len(s.Created) > 0 {
		fmt.Fprintf(w, "\n%s\n", f.colors["white"].Sprint("Records created"))
		entities := make([]string, 0, len(s.Created))
		for e := range s.Created {
			entities = append(entities, e)
		}
		sort.Strings(entities)
		for _, e := range entities {
			fmt.Fprintf(w, "  %-16s %d\n", e, s.Created[e])
		}
	}
	if s.Updated > 0 {
		fmt.Fprintf(w, "  records updated: %d\n", s.Updated)
	}

	entries := Build(s.Errors)
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", f.colors["white"].Sprint("Errors"))
	for _, e := range entries {
		label := e.Column
		if label == "" {
			label = "(row)"
		}
		fmt.Fprintf(w, "  row %d %s: %s: %s\n",
			e.RowNumber,
			f.colors["yellow"].Sprint(label),
			f.colors["red"].Sprint(e.ErrorCode),
			e.TechnicalDetails)
	}
}
