// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package faults classifies import failures. Template faults mean the column
// configuration itself is broken and usually poison the whole batch; data
// faults abort only the row that carried the bad content; store faults wrap
// record-store rejections with row context.
package faults

import (
	"errors"
	"fmt"
)

// Class is the failure category of an import error.
type Class string

const (
	ClassTemplate Class = "TEMPLATE"
	ClassData     Class = "DATA"
	ClassStore    Class = "STORE"
)

// TemplateError reports an internally inconsistent template or a reference
// to a non-existent field or entity.
type TemplateError struct {
	Msg string
	Err error
}

func (e *TemplateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("template: %s: %v", e.Msg, e.Err)
	}
	return "template: " + e.Msg
}

func (e *TemplateError) Unwrap() error { return e.Err }

// Templatef creates a TemplateError.
func Templatef(format string, args ...any) error {
	return &TemplateError{Msg: fmt.Sprintf(format, args...)}
}

// DataError reports row content that fails a required lookup or business
// rule during resolution.
type DataError struct {
	Msg string
	Err error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data: %s: %v", e.Msg, e.Err)
	}
	return "data: " + e.Msg
}

func (e *DataError) Unwrap() error { return e.Err }

// Dataf creates a DataError.
func Dataf(format string, args ...any) error {
	return &DataError{Msg: fmt.Sprintf(format, args...)}
}

// StoreError wraps a record-store rejection with the operation that failed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Storef wraps err with the failed store operation.
func Storef(err error, format string, args ...any) error {
	return &StoreError{Op: fmt.Sprintf(format, args...), Err: err}
}

// Classify returns the failure class of err. Unclassified errors are treated
// as data errors so they abort the row, not the batch.
func Classify(err error) Class {
	var te *TemplateError
	if errors.As(err, &te) {
		return ClassTemplate
	}
	var se *StoreError
	if errors.As(err, &se) {
		return ClassStore
	}
	return ClassData
}
