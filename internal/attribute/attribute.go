// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package attribute binds raw bordereau cells to template columns and
// performs format-aware conversion. Conversion is pure: an attribute is its
// column plus its raw value, nothing is cached destructively.
package attribute

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bordereau-import/internal/template"
)

// IssueKind classifies a conversion problem.
type IssueKind int

const (
	IssueMissing IssueKind = iota + 1
	IssueFormat
)

// Issue is a conversion or presence problem found on one attribute.
type Issue struct {
	Kind    IssueKind
	Message string
}

// Attribute pairs one column definition with one raw cell value. The raw
// value is trimmed on construction; an empty result means "no value".
type Attribute struct {
	Column *template.Column
	Raw    string
}

// New builds the attribute for a column and its raw cell, applying the
// column's value source: constant columns always use the default, column
// sourced ones fall back to the default only when the cell is empty.
func New(col *template.Column, cell string) Attribute {
	raw := strings.TrimSpace(cell)
	if col.Source == template.SourceConstant {
		raw = strings.TrimSpace(col.Default)
	} else if raw == "" {
		raw = strings.TrimSpace(col.Default)
	}
	return Attribute{Column: col, Raw: raw}
}

// HasValue reports whether the attribute carries any value at all. Currency
// attributes with a parsed zero amount report false: zero premium and no
// premium collapse to the same result.
func (a Attribute) HasValue() bool {
	if a.Raw == "" {
		return false
	}
	if a.Column.Format == template.FormatCurrency {
		d, err := parseDecimal(a.Raw)
		if err == nil && d.IsZero() {
			return false
		}
	}
	return true
}

// Check validates presence and format. It returns nil when the attribute is
// acceptable, a missing-value issue for empty mandatory columns, and a
// format issue for present but unconvertible values. Lookup columns are
// exempt from format checking; they are resolved by entity matching instead
// of string parsing.
func (a Attribute) Check() *Issue {
	if a.Raw == "" {
		if a.Column.Mandatory {
			return &Issue{Kind: IssueMissing, Message: "mandatory value is missing"}
		}
		return nil
	}
	if a.Column.Format == template.FormatLookup {
		return nil
	}
	if err := a.convertErr(); err != nil {
		return &Issue{Kind: IssueFormat, Message: err.Error()}
	}
	return nil
}

// convertErr runs the format conversion for its error only.
func (a Attribute) convertErr() error {
	switch a.Column.Format {
	case template.FormatOptionSet:
		_, err := a.optionValue()
		return err
	case template.FormatBoolean:
		_, err := a.boolValue()
		return err
	case template.FormatInteger:
		_, err := parseInteger(a.Raw)
		return err
	case template.FormatDecimal, template.FormatCurrency:
		_, err := parseDecimal(a.Raw)
		return err
	case template.FormatDate:
		_, err := parseDate(a.Raw)
		return err
	}
	// Text, Email, URL and MultiLineText pass through unchanged.
	return nil
}

// String returns the textual value. The second result is false when the
// attribute has no value.
func (a Attribute) String() (string, bool) {
	if a.Raw == "" {
		return "", false
	}
	return a.Raw, true
}

// Bool converts a boolean attribute.
func (a Attribute) Bool() (bool, bool) {
	if a.Raw == "" {
		return false, false
	}
	v, err := a.boolValue()
	if err != nil {
		return false, false
	}
	return v, true
}

// OptionValue converts an option-set attribute to its configured value.
func (a Attribute) OptionValue() (int, bool) {
	if a.Raw == "" {
		return 0, false
	}
	v, err := a.optionValue()
	if err != nil {
		return 0, false
	}
	return v, true
}

// Int converts an integer attribute using the fixed parsing locale.
func (a Attribute) Int() (int64, bool) {
	if a.Raw == "" {
		return 0, false
	}
	v, err := parseInteger(a.Raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Decimal converts a decimal attribute using the fixed parsing locale.
func (a Attribute) Decimal() (decimal.Decimal, bool) {
	if a.Raw == "" {
		return decimal.Decimal{}, false
	}
	v, err := parseDecimal(a.Raw)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return v, true
}

// Currency converts a currency attribute. A parsed zero amount converts to
// "no value", exactly like an absent one.
func (a Attribute) Currency() (decimal.Decimal, bool) {
	v, ok := a.Decimal()
	if !ok || v.IsZero() {
		return decimal.Decimal{}, false
	}
	return v, true
}

// Time converts a date attribute, assuming local time when the value
// carries no zone.
func (a Attribute) Time() (time.Time, bool) {
	if a.Raw == "" {
		return time.Time{}, false
	}
	v, err := parseDate(a.Raw)
	if err != nil {
		return time.Time{}, false
	}
	return v, true
}

// Value returns the converted value as the store expects it for the
// column's format: string, bool, int64 option value, decimal, or time. The
// second result is false when there is no value.
func (a Attribute) Value() (any, bool) {
	switch a.Column.Format {
	case template.FormatBoolean:
		v, ok := a.Bool()
		return v, ok
	case template.FormatOptionSet:
		v, ok := a.OptionValue()
		return int64(v), ok
	case template.FormatInteger:
		v, ok := a.Int()
		return v, ok
	case template.FormatDecimal:
		v, ok := a.Decimal()
		return v, ok
	case template.FormatCurrency:
		v, ok := a.Currency()
		return v, ok
	case template.FormatDate:
		v, ok := a.Time()
		return v, ok
	default:
		v, ok := a.String()
		return v, ok
	}
}

func (a Attribute) optionValue() (int, error) {
	raw := strings.ToLower(a.Raw)
	for _, opt := range a.Column.Options() {
		if strings.ToLower(opt.Code) == raw || strings.ToLower(opt.Label) == raw {
			return opt.Value, nil
		}
	}
	return 0, fmt.Errorf("%q matches no option of %s.%s",
		a.Raw, a.Column.TargetEntity, a.Column.TargetField)
}

func (a Attribute) boolValue() (bool, error) {
	if len(a.Column.Options()) > 0 {
		v, err := a.optionValue()
		if err != nil {
			return false, err
		}
		return v != 0, nil
	}
	switch strings.ToUpper(a.Raw) {
	case "YES", "Y":
		return true, nil
	case "NO", "N":
		return false, nil
	}
	return false, fmt.Errorf("%q is not a yes/no value", a.Raw)
}
