// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package attribute

import (
	"bordereau-import/internal/template"
)

// Row is one raw input line: ordered cells plus its 1-based row number.
// Immutable once read.
type Row struct {
	Number int
	Cells  []string
}

// MappedRow pairs one row with one template. The attribute slice is built
// on first access and immutable afterwards.
type MappedRow struct {
	Row      Row
	Template *template.Template

	attrs []Attribute
}

// Map binds a row to a template.
func Map(row Row, tpl *template.Template) *MappedRow {
	return &MappedRow{Row: row, Template: tpl}
}

// Attributes returns the typed attributes of the row, one per template
// column, memoized. Columns beyond the row's cell count read as empty.
func (m *MappedRow) Attributes() []Attribute {
	if m.attrs == nil {
		m.attrs = make([]Attribute, len(m.Template.Columns))
		for i := range m.Template.Columns {
			cell := ""
			if i < len(m.Row.Cells) {
				cell = m.Row.Cells[i]
			}
			m.attrs[i] = New(&m.Template.Columns[i], cell)
		}
	}
	return m.attrs
}

// Select returns the attributes whose column satisfies keep.
func (m *MappedRow) Select(keep func(*template.Column) bool) []Attribute {
	var out []Attribute
	for _, a := range m.Attributes() {
		if keep(a.Column) {
			out = append(out, a)
		}
	}
	return out
}

// ByEntity returns the attributes targeting any of the given entities,
// excluding columns that belong to a role grouping or a tagged address
// group (those attach through roles and address-of tags, not directly).
func (m *MappedRow) ByEntity(entities ...string) []Attribute {
	return m.Select(func(c *template.Column) bool {
		if c.Group.RoleTypeID != "" || c.Group.AddressOf != "" {
			return false
		}
		for _, e := range entities {
			if c.TargetEntity == e {
				return true
			}
		}
		return false
	})
}

// Field returns the first non-role attribute for a target entity/field.
func (m *MappedRow) Field(entity, field string) (Attribute, bool) {
	for _, a := range m.ByEntity(entity) {
		if a.Column.TargetField == field {
			return a, true
		}
	}
	return Attribute{}, false
}

// ForRole returns the attributes of one role slot: same role-type id and
// role number. Columns without an explicit number belong to slot 1.
func (m *MappedRow) ForRole(roleTypeID string, roleNumber int) []Attribute {
	return m.Select(func(c *template.Column) bool {
		if c.Group.RoleTypeID != roleTypeID {
			return false
		}
		n := c.Group.RoleNumber
		if n == 0 {
			n = 1
		}
		return n == roleNumber
	})
}

// ForAddressOf returns the attributes tagged with an address-of group key.
func (m *MappedRow) ForAddressOf(tag string) []Attribute {
	return m.Select(func(c *template.Column) bool {
		return c.Group.AddressOf == tag
	})
}

// ForClaimOrder returns the attributes of one claim order group.
func (m *MappedRow) ForClaimOrder(order int) []Attribute {
	return m.Select(func(c *template.Column) bool {
		return c.Group.ClaimOrder == order
	})
}

// IdentifierValue concatenates the raw values of identifier-flagged columns
// in template order. It synthesizes the risk identifier string used for
// risk-entity matching.
func (m *MappedRow) IdentifierValue() string {
	id := ""
	for _, a := range m.Attributes() {
		if !a.Column.Identifier {
			continue
		}
		if s, ok := a.String(); ok {
			id += s
		}
	}
	return id
}
