// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package template models the per-feed column configuration: which target
// entity/field each bordereau column maps to, how its raw text is converted,
// and the grouping keys that tie columns into roles, claims, covers and
// addresses. A template is loaded once per import job and read-only after.
package template

import (
	"fmt"
	"sort"
	"strings"

	"bordereau-import/internal/faults"
	"bordereau-import/internal/store"
	"bordereau-import/internal/suggest"
)

// DataFormat is the wire format of one column's raw value.
type DataFormat string

const (
	FormatText          DataFormat = "text"
	FormatEmail         DataFormat = "email"
	FormatURL           DataFormat = "url"
	FormatMultiLineText DataFormat = "multiline"
	FormatOptionSet     DataFormat = "optionset"
	FormatBoolean       DataFormat = "boolean"
	FormatInteger       DataFormat = "integer"
	FormatDecimal       DataFormat = "decimal"
	FormatCurrency      DataFormat = "currency"
	FormatDate          DataFormat = "date"
	FormatLookup        DataFormat = "lookup"
)

var validFormats = map[DataFormat]bool{
	FormatText: true, FormatEmail: true, FormatURL: true, FormatMultiLineText: true,
	FormatOptionSet: true, FormatBoolean: true, FormatInteger: true, FormatDecimal: true,
	FormatCurrency: true, FormatDate: true, FormatLookup: true,
}

// LookupMapping selects how a lookup column resolves its target record.
type LookupMapping string

const (
	LookupNone        LookupMapping = "none"
	LookupByName      LookupMapping = "by-name"
	LookupByOptionSet LookupMapping = "by-optionset"
)

// ValueSource selects where a column's value comes from.
type ValueSource string

const (
	// SourceColumn takes the value from the row cell, falling back to the
	// column default when the cell is empty.
	SourceColumn ValueSource = "column"
	// SourceConstant always takes the column default, ignoring the cell.
	SourceConstant ValueSource = "constant"
)

// GroupKeys are the ordinal grouping tags of a column. Zero values mean the
// column does not participate in that grouping.
type GroupKeys struct {
	ClaimOrder   int    `yaml:"claim_order"`
	RoleNumber   int    `yaml:"role_number"`
	RoleTypeID   string `yaml:"role_type"`
	CoverID      string `yaml:"cover"`
	AddressOf    string `yaml:"address_of"`
	RiskSubClass string `yaml:"risk_subclass"`
}

// Column is the immutable description of one bordereau column. Option
// tables for option-set and boolean columns are bound once via
// Template.BindOptions and never change afterwards.
type Column struct {
	Label        string        `yaml:"label"`
	TargetEntity string        `yaml:"entity"`
	TargetField  string        `yaml:"field"`
	Format       DataFormat    `yaml:"format"`
	Mandatory    bool          `yaml:"mandatory"`
	Lookup       LookupMapping `yaml:"lookup"`
	LookupEntity string        `yaml:"lookup_entity"`
	Default      string        `yaml:"default"`
	Source       ValueSource   `yaml:"source"`
	Identifier   bool          `yaml:"identifier"`
	Group        GroupKeys     `yaml:"group"`

	options []store.Option
}

// Options returns the bound option table, nil when none was bound.
func (c *Column) Options() []store.Option { return c.options }

// BindOptionTable binds an option table directly, bypassing the schema.
func (c *Column) BindOptionTable(opts []store.Option) { c.options = opts }

// Defaults are the fixed references a template stamps onto created records.
type Defaults struct {
	Broker  string `yaml:"broker"`
	Product string `yaml:"product"`
	Country string `yaml:"country"`
}

// Template is the ordered column set for one feed plus its metadata.
type Template struct {
	Name      string   `yaml:"name"`
	RiskClass string   `yaml:"risk_class"`
	Defaults  Defaults `yaml:"defaults"`
	Columns   []Column `yaml:"columns"`
}

// RoleTypeIDs returns the distinct role-type ids referenced by the
// template's columns, in first-appearance order.
func (t *Template) RoleTypeIDs() []string {
	seen := make(map[string]bool)
	var out []string
	for i := range t.Columns {
		id := t.Columns[i].Group.RoleTypeID
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// RoleNumbers returns the distinct role numbers used with the given
// role-type id, ascending. Columns without an explicit number count as 1.
func (t *Template) RoleNumbers(roleTypeID string) []int {
	seen := make(map[int]bool)
	var out []int
	for i := range t.Columns {
		if t.Columns[i].Group.RoleTypeID != roleTypeID {
			continue
		}
		n := t.Columns[i].Group.RoleNumber
		if n == 0 {
			n = 1
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

// ClaimOrders returns the distinct claim order numbers referenced by the
// template, ascending.
func (t *Template) ClaimOrders() []int {
	seen := make(map[int]bool)
	var out []int
	for i := range t.Columns {
		n := t.Columns[i].Group.ClaimOrder
		if n == 0 || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// HasIdentifierColumns reports whether any column contributes to the risk
// identifier string.
func (t *Template) HasIdentifierColumns() bool {
	for i := range t.Columns {
		if t.Columns[i].Identifier {
			return true
		}
	}
	return false
}

// Validate checks every column against the schema. Unknown target fields
// yield template faults carrying name suggestions; structural problems
// (missing label, unknown format) are reported as well. The returned slice
// is empty for a well-formed template.
func (t *Template) Validate(schema store.Schema) []error {
	var errs []error
	for i := range t.Columns {
		c := &t.Columns[i]
		if c.Label == "" {
			errs = append(errs, faults.Templatef("column %d has no label", i+1))
			continue
		}
		if !validFormats[c.Format] {
			errs = append(errs, faults.Templatef("column %q: unknown format %q", c.Label, c.Format))
			continue
		}
		if c.Format == FormatLookup && c.Lookup == LookupNone {
			errs = append(errs, faults.Templatef("column %q: lookup format without a lookup mapping", c.Label))
		}
		if c.Lookup == LookupByName && c.LookupEntity == "" {
			errs = append(errs, faults.Templatef("column %q: by-name lookup without a lookup entity", c.Label))
		}
		if c.TargetEntity == "" || c.TargetField == "" {
			errs = append(errs, faults.Templatef("column %q: no target entity/field", c.Label))
			continue
		}
		desc, err := schema.DescribeField(c.TargetEntity, c.TargetField)
		if err != nil {
			errs = append(errs, faults.Storef(err, "describe %s.%s", c.TargetEntity, c.TargetField))
			continue
		}
		if !desc.Exists {
			errs = append(errs, t.unknownFieldError(schema, c))
		}
	}
	return errs
}

func (t *Template) unknownFieldError(schema store.Schema, c *Column) error {
	names, err := schema.ListFields(c.TargetEntity)
	if err != nil || len(names) == 0 {
		return faults.Templatef("column %q: entity %q has no field %q",
			c.Label, c.TargetEntity, c.TargetField)
	}
	candidates := suggest.Suggest(c.TargetField, names)
	if len(candidates) == 0 {
		return faults.Templatef("column %q: entity %q has no field %q",
			c.Label, c.TargetEntity, c.TargetField)
	}
	return faults.Templatef("column %q: entity %q has no field %q (did you mean %s?)",
		c.Label, c.TargetEntity, c.TargetField, strings.Join(candidates, ", "))
}

// BindOptions loads the option tables of option-set, boolean and
// by-optionset lookup columns from the schema. Boolean columns without a
// configured option table fall back to the YES/NO literals at conversion
// time.
func (t *Template) BindOptions(schema store.Schema) error {
	for i := range t.Columns {
		c := &t.Columns[i]
		needsTable := c.Format == FormatOptionSet || c.Format == FormatBoolean ||
			(c.Format == FormatLookup && c.Lookup == LookupByOptionSet)
		if !needsTable {
			continue
		}
		desc, err := schema.DescribeField(c.TargetEntity, c.TargetField)
		if err != nil {
			return faults.Storef(err, "describe %s.%s", c.TargetEntity, c.TargetField)
		}
		if c.Format != FormatBoolean && len(desc.Options) == 0 {
			return faults.Templatef("column %q: %s.%s has no option values",
				c.Label, c.TargetEntity, c.TargetField)
		}
		c.options = desc.Options
	}
	return nil
}

func (f DataFormat) String() string { return string(f) }

// normalize applies defaults for omitted enum fields after YAML decoding.
func (t *Template) normalize() error {
	if len(t.Columns) == 0 {
		return fmt.Errorf("template %q has no columns", t.Name)
	}
	for i := range t.Columns {
		c := &t.Columns[i]
		if c.Lookup == "" {
			c.Lookup = LookupNone
		}
		if c.Source == "" {
			c.Source = SourceColumn
		}
	}
	return nil
}
