// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bordereau-import/internal/attribute"
	"bordereau-import/internal/template"
)

func testTemplate() *template.Template {
	return &template.Template{
		Columns: []template.Column{
			{
				Label:        "Policy number",
				TargetEntity: "policyfolder",
				TargetField:  "name",
				Format:       template.FormatText,
				Mandatory:    true,
			},
			{
				Label:        "Start date",
				TargetEntity: "policyversion",
				TargetField:  "startdate",
				Format:       template.FormatDate,
				Mandatory:    true,
			},
			{
				Label:        "Premium",
				TargetEntity: "policyversion",
				TargetField:  "premium",
				Format:       template.FormatCurrency,
			},
		},
	}
}

func TestValidateRowReportsAllFailuresAtOnce(t *testing.T) {
	m := attribute.Map(attribute.Row{
		Number: 7,
		Cells:  []string{"", "31/02/2024", "abc"},
	}, testTemplate())

	errs := ValidateRow(m)
	require.Len(t, errs, 3, "a bad row reports every problem, not just the first")

	byColumn := map[string]Error{}
	for _, e := range errs {
		assert.Equal(t, 7, e.RowNumber)
		byColumn[e.Column] = e
	}
	assert.Equal(t, MissingValue, byColumn["Policy number"].Kind)
	assert.Equal(t, IncorrectFormat, byColumn["Start date"].Kind)
	assert.Equal(t, "31/02/2024", byColumn["Start date"].RawValue)
	assert.Equal(t, IncorrectFormat, byColumn["Premium"].Kind)
}

func TestValidateRowCleanRow(t *testing.T) {
	m := attribute.Map(attribute.Row{
		Number: 3,
		Cells:  []string{"POL-42", "01/06/2024", "1.250,00"},
	}, testTemplate())
	assert.Empty(t, ValidateRow(m))
}

func TestValidateRowShortRowMissingMandatory(t *testing.T) {
	// Fewer cells than columns: the missing tail reads as empty values.
	m := attribute.Map(attribute.Row{Number: 5, Cells: []string{"POL-42"}}, testTemplate())
	errs := ValidateRow(m)
	require.Len(t, errs, 1)
	assert.Equal(t, "Start date", errs[0].Column)
	assert.Equal(t, MissingValue, errs[0].Kind)
}

func TestCollectionCursor(t *testing.T) {
	c := NewCollection(2)
	assert.Equal(t, 2, c.CurrentRow())

	c.Add(Error{Column: "A", Kind: BusinessError, Message: "nope"})
	require.True(t, c.HasCurrentRowErrors())
	assert.Equal(t, 2, c.CurrentRowErrors()[0].RowNumber, "unset row number binds to the cursor")

	assert.Equal(t, 3, c.NextRow())
	assert.False(t, c.HasCurrentRowErrors(), "cursor queries do not see earlier rows")

	c.Add(Error{RowNumber: 3, Column: "B", Kind: MissingValue})
	assert.True(t, c.HasCurrentRowErrors())
}

func TestCollectionClampsRowsBeforeFirst(t *testing.T) {
	c := NewCollection(2)
	c.Add(Error{RowNumber: 1, Column: "A", Kind: IncorrectFormat})
	all := c.All()
	require.Len(t, all, 1)
	assert.Equal(t, 2, all[0].RowNumber)
}

func TestCollectionAllSortedByRow(t *testing.T) {
	c := NewCollection(2)
	c.AddAll([]Error{
		{RowNumber: 9, Column: "late"},
		{RowNumber: 4, Column: "early"},
		{RowNumber: 9, Column: "late2"},
	})
	all := c.All()
	require.Len(t, all, 3)
	assert.Equal(t, "early", all[0].Column)
	assert.Equal(t, "late", all[1].Column)
	assert.Equal(t, "late2", all[2].Column, "insertion order kept within a row")

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 2, c.FailedRows())
}
