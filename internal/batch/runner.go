// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package batch drives one import: it walks the feed row by row, validates
// first, resolves only clean rows, and accumulates every failure in the
// error collection. Rows are strictly sequential; a row may depend on
// records the previous row created.
package batch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bordereau-import/internal/attribute"
	"bordereau-import/internal/faults"
	"bordereau-import/internal/resolve"
	"bordereau-import/internal/store"
	"bordereau-import/internal/template"
	"bordereau-import/internal/validation"
)

// Summary reports what one import run did.
type Summary struct {
	RowsProcessed int
	RowsFailed    int
	Created       map[string]int
	Updated       int
	Errors        *validation.Collection
}

// Runner executes one import batch.
type Runner struct {
	Store    store.Store
	Schema   store.Schema
	Template *template.Template
	Log      *zap.Logger

	// ValidateOnly maps and validates every row but never touches the
	// record store.
	ValidateOnly bool
}

// Run imports the rows. firstRow is the 1-based feed row number of rows[0]
// (2 for a feed with one header line). Template faults abort the whole run
// before any row is touched; everything else is recorded per row and the
// batch continues. A failed row's already-committed side effects are not
// rolled back; there is no multi-record transaction boundary.
func (r *Runner) Run(ctx context.Context, rows [][]string, firstRow int) (*Summary, error) {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	if errs := r.Template.Validate(r.Schema); len(errs) > 0 {
		return nil, errs[0]
	}
	if err := r.Template.BindOptions(r.Schema); err != nil {
		return nil, err
	}

	var resolver *resolve.Resolver
	if !r.ValidateOnly {
		resolver = resolve.New(r.Store, r.Template, log)
		if err := resolver.Prepare(ctx); err != nil {
			return nil, err
		}

		job := store.NewRecord(resolve.EntityImportJob).
			Set(resolve.FieldName, fmt.Sprintf("%s %s", r.Template.Name, time.Now().Format("2006-01-02 15:04:05"))).
			Set(resolve.FieldDate, time.Now())
		if _, err := r.Store.Create(ctx, job); err != nil {
			return nil, faults.Storef(err, "create import job")
		}
		resolver.SetImportJob(job.Ref())
	}

	errors := validation.NewCollection(firstRow)
	summary := &Summary{Created: make(map[string]int), Errors: errors}

	for i, cells := range rows {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		rowNumber := firstRow + i
		summary.RowsProcessed++

		mapped := attribute.Map(attribute.Row{Number: rowNumber, Cells: cells}, r.Template)
		if errs := validation.ValidateRow(mapped); len(errs) > 0 {
			errors.AddAll(errs)
			summary.RowsFailed++
			log.Info("row failed validation",
				zap.Int("row", rowNumber), zap.Int("errors", len(errs)))
			errors.NextRow()
			continue
		}

		if r.ValidateOnly {
			errors.NextRow()
			continue
		}

		out, err := resolver.ProcessRow(ctx, mapped)
		if err != nil {
			errors.Add(validation.Error{
				RowNumber: rowNumber,
				Kind:      validation.BusinessError,
				Message:   err.Error(),
			})
			summary.RowsFailed++
			log.Warn("row failed resolution",
				zap.Int("row", rowNumber),
				zap.String("class", string(faults.Classify(err))),
				zap.Error(err))
			if faults.Classify(err) == faults.ClassTemplate {
				// A broken template fails every remaining row the same
				// way; stop instead of repeating the fault per row.
				return summary, err
			}
			errors.NextRow()
			continue
		}

		for _, ref := range out.Created {
			summary.Created[ref.Entity]++
		}
		summary.Updated += len(out.Updated)
		errors.NextRow()
	}

	log.Info("batch finished",
		zap.Int("rows", summary.RowsProcessed),
		zap.Int("failed", summary.RowsFailed))
	return summary, nil
}
