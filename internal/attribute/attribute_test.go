// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package attribute

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bordereau-import/internal/store"
	"bordereau-import/internal/template"
)

func col(format template.DataFormat) *template.Column {
	return &template.Column{
		Label:        "Test column",
		TargetEntity: "policyversion",
		TargetField:  "testfield",
		Format:       format,
		Source:       template.SourceColumn,
	}
}

func TestTextPassthrough(t *testing.T) {
	a := New(col(template.FormatText), "  hello  ")
	v, ok := a.String()
	require.True(t, ok)
	assert.Equal(t, "hello", v, "raw values are trimmed")
}

func TestEmptyCellHasNoValue(t *testing.T) {
	a := New(col(template.FormatText), "   ")
	assert.False(t, a.HasValue())
	_, ok := a.String()
	assert.False(t, ok)
}

func TestConstantSourceIgnoresCell(t *testing.T) {
	c := col(template.FormatText)
	c.Source = template.SourceConstant
	c.Default = "fixed"
	a := New(c, "from-cell")
	v, _ := a.String()
	assert.Equal(t, "fixed", v)
}

func TestColumnSourceFallsBackToDefault(t *testing.T) {
	c := col(template.FormatText)
	c.Default = "fallback"
	a := New(c, "")
	v, _ := a.String()
	assert.Equal(t, "fallback", v)
}

func TestMandatoryMissingYieldsExactlyMissingValue(t *testing.T) {
	c := col(template.FormatDate)
	c.Mandatory = true
	issue := New(c, "").Check()
	require.NotNil(t, issue)
	assert.Equal(t, IssueMissing, issue.Kind, "empty mandatory is missing, never a format error")
}

func TestOptionalMissingIsFine(t *testing.T) {
	assert.Nil(t, New(col(template.FormatInteger), "").Check())
}

func TestBooleanLiterals(t *testing.T) {
	for raw, want := range map[string]bool{"YES": true, "y": true, "NO": false, "n": false} {
		v, ok := New(col(template.FormatBoolean), raw).Bool()
		require.True(t, ok, raw)
		assert.Equal(t, want, v, raw)
	}
	issue := New(col(template.FormatBoolean), "maybe").Check()
	require.NotNil(t, issue)
	assert.Equal(t, IssueFormat, issue.Kind)
}

func TestBooleanWithOptionTable(t *testing.T) {
	c := col(template.FormatBoolean)
	c.BindOptionTable([]store.Option{
		{Value: 1, Code: "true", Label: "Ja"},
		{Value: 0, Code: "false", Label: "Nee"},
	})
	v, ok := New(c, "ja").Bool()
	require.True(t, ok)
	assert.True(t, v)
	v, ok = New(c, "NEE").Bool()
	require.True(t, ok)
	assert.False(t, v)
}

func TestOptionSetMatchesCodeAndLabel(t *testing.T) {
	c := col(template.FormatOptionSet)
	c.BindOptionTable([]store.Option{
		{Value: 1, Code: "new", Label: "New business"},
		{Value: 4, Code: "cancellation", Label: "Cancellation"},
	})
	v, ok := New(c, "New Business").OptionValue()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	v, ok = New(c, "CANCELLATION").OptionValue()
	require.True(t, ok)
	assert.Equal(t, 4, v)

	issue := New(c, "void").Check()
	require.NotNil(t, issue)
	assert.Equal(t, IssueFormat, issue.Kind)
}

func TestIntegerLocaleParse(t *testing.T) {
	v, ok := New(col(template.FormatInteger), "1.250").Int()
	require.True(t, ok)
	assert.Equal(t, int64(1250), v)

	issue := New(col(template.FormatInteger), "12x").Check()
	require.NotNil(t, issue)
	assert.Equal(t, IssueFormat, issue.Kind)
}

func TestDecimalLocaleParse(t *testing.T) {
	v, ok := New(col(template.FormatDecimal), "1.234,56").Decimal()
	require.True(t, ok)
	assert.Equal(t, "1234.56", v.String())

	v, ok = New(col(template.FormatDecimal), "99.5").Decimal()
	require.True(t, ok)
	assert.Equal(t, "99.5", v.String(), "plain dot-decimal is accepted")
}

func TestCurrencyZeroCollapsesToNoValue(t *testing.T) {
	a := New(col(template.FormatCurrency), "0,00")
	assert.False(t, a.HasValue(), "zero premium reads as absent")
	_, ok := a.Currency()
	assert.False(t, ok)

	v, ok := New(col(template.FormatCurrency), "150,25").Currency()
	require.True(t, ok)
	assert.Equal(t, "150.25", v.String())
}

func TestDateParse(t *testing.T) {
	v, ok := New(col(template.FormatDate), "31/01/2024").Time()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.Local), v)
}

func TestInvalidDayIsFormatError(t *testing.T) {
	issue := New(col(template.FormatDate), "31/02/2024").Check()
	require.NotNil(t, issue)
	assert.Equal(t, IssueFormat, issue.Kind)
}

func TestLookupExemptFromFormatChecks(t *testing.T) {
	c := col(template.FormatLookup)
	c.Lookup = template.LookupByName
	assert.Nil(t, New(c, "anything at all").Check())
}
