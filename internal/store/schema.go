// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package store

import "sort"

// Option is one entry of an option-set field's value table.
type Option struct {
	Value int
	Code  string
	Label string
}

// FieldDescription is the schema metadata for one field of an entity.
type FieldDescription struct {
	Exists  bool
	Label   string
	Options []Option // populated for option-set and two-option fields
}

// Schema exposes entity metadata separately from the data operations:
// existence checks drive template validation, option tables drive
// option-set conversion.
type Schema interface {
	// DescribeField returns the metadata for one field. Unknown fields
	// report Exists=false rather than an error.
	DescribeField(entity, field string) (FieldDescription, error)

	// ListFields returns the field names of an entity, sorted.
	ListFields(entity string) ([]string, error)
}

// StaticSchema is a Schema backed by an in-memory description, loaded once
// per import job.
type StaticSchema struct {
	entities map[string]map[string]FieldDescription
}

// NewStaticSchema wraps an entity→field→description map.
func NewStaticSchema(entities map[string]map[string]FieldDescription) *StaticSchema {
	return &StaticSchema{entities: entities}
}

func (s *StaticSchema) DescribeField(entity, field string) (FieldDescription, error) {
	fields, ok := s.entities[entity]
	if !ok {
		return FieldDescription{}, nil
	}
	return fields[field], nil
}

func (s *StaticSchema) ListFields(entity string) ([]string, error) {
	fields, ok := s.entities[entity]
	if !ok {
		return nil, nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
