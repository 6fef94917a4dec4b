// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"
	"fmt"

	"bordereau-import/internal/attribute"
	"bordereau-import/internal/faults"
	"bordereau-import/internal/sequence"
	"bordereau-import/internal/store"
	"bordereau-import/internal/template"
)

// claimRoot builds the family root of claim names under a folder, e.g.
// folder POL001 -> CL-POL001, so the first claim is CL-POL001-001.
func claimRoot(folderName string) string {
	return "CL-" + folderName
}

// ProcessClaims creates the claim records and their dependent financial
// records (payments, transactions, recoveries) plus commission codes for
// each claim order group the template describes.
func (r *Resolver) ProcessClaims(ctx context.Context, m *attribute.MappedRow, graph *PolicyGraph, out *Outcome) error {
	for _, order := range m.Template.ClaimOrders() {
		attrs := m.ForClaimOrder(order)
		if !anyValue(attrs) {
			continue
		}

		claim, err := r.findOrCreateClaim(ctx, attrs, graph, order, out)
		if err != nil {
			return err
		}

		families := []struct {
			entity string
			family sequence.Family
		}{
			{EntityPayment, sequence.Payments},
			{EntityTransaction, sequence.Transactions},
			{EntityRecovery, sequence.Recoveries},
		}
		for _, f := range families {
			if err := r.createFinancial(ctx, attrs, claim, f.entity, f.family, out); err != nil {
				return err
			}
		}
	}

	return r.createCommission(ctx, m, graph, out)
}

func (r *Resolver) findOrCreateClaim(ctx context.Context, attrs []attribute.Attribute, graph *PolicyGraph, order int, out *Outcome) (*store.Record, error) {
	folderRef := graph.Folder.Ref()
	existing, err := r.store.RetrieveMany(ctx, store.Query{Entity: EntityClaim}.
		Where(FieldFolder, store.OpEqual, folderRef))
	if err != nil {
		return nil, faults.Storef(err, "list claims of %s", graph.Folder.GetString(FieldName))
	}
	for _, c := range existing {
		if c.GetInt(FieldOrder) == int64(order) {
			return c, nil
		}
	}

	var name string
	if len(existing) == 0 {
		name = sequence.First(claimRoot(graph.Folder.GetString(FieldName)))
	} else {
		latest := existing[len(existing)-1]
		name, err = sequence.Next(latest.GetString(FieldName), len(existing))
		if err != nil {
			return nil, faults.Dataf("cannot number claim after %q", latest.GetString(FieldName))
		}
	}

	claim := store.NewRecord(EntityClaim).
		Set(FieldName, name).
		Set(FieldFolder, folderRef).
		Set(FieldOrder, int64(order))
	if err := r.setFields(ctx, claim, attrs, EntityClaim); err != nil {
		return nil, err
	}
	if _, err := r.create(ctx, claim, out); err != nil {
		return nil, err
	}
	return claim, nil
}

// createFinancial creates one dependent financial record under the claim
// when the group's columns carry a value for it. Records with identical
// amount and date under the same claim are not recreated on re-import.
func (r *Resolver) createFinancial(ctx context.Context, attrs []attribute.Attribute, claim *store.Record, entity string, family sequence.Family, out *Outcome) error {
	fields := valuedFields(attrs, entity)
	if len(fields) == 0 {
		return nil
	}

	siblings, err := r.store.RetrieveMany(ctx, store.Query{Entity: entity}.
		Where(FieldClaim, store.OpEqual, claim.Ref()))
	if err != nil {
		return faults.Storef(err, "list %s of %s", entity, claim.GetString(FieldName))
	}
	for _, s := range siblings {
		if sameFields(s, fields) {
			return nil
		}
	}

	latest := ""
	if len(siblings) > 0 {
		latest = siblings[len(siblings)-1].GetString(FieldName)
	}
	name, err := family.NextName(claim.GetString(FieldName), latest, len(siblings))
	if err != nil {
		return faults.Dataf("cannot number %s after %q", entity, latest)
	}

	rec := store.NewRecord(entity).
		Set(FieldName, name).
		Set(FieldClaim, claim.Ref())
	for k, v := range fields {
		rec.Set(k, v)
	}
	_, err = r.create(ctx, rec, out)
	return err
}

// createCommission creates a commission code under the folder when the row
// carries commission values. Commission numbering parses and increments the
// previous two-digit code instead of counting siblings.
func (r *Resolver) createCommission(ctx context.Context, m *attribute.MappedRow, graph *PolicyGraph, out *Outcome) error {
	fields := valuedFields(m.ByEntity(EntityCommission), EntityCommission)
	if len(fields) == 0 {
		return nil
	}

	folderRef := graph.Folder.Ref()
	siblings, err := r.store.RetrieveMany(ctx, store.Query{Entity: EntityCommission}.
		Where(FieldFolder, store.OpEqual, folderRef))
	if err != nil {
		return faults.Storef(err, "list commissions of %s", graph.Folder.GetString(FieldName))
	}
	for _, s := range siblings {
		if sameFields(s, fields) {
			return nil
		}
	}

	next := 1
	if len(siblings) > 0 {
		next = sequence.NextCommission(siblings[len(siblings)-1].GetString(FieldName))
	}

	rec := store.NewRecord(EntityCommission).
		Set(FieldName, fmt.Sprintf("%s-C%02d", graph.Folder.GetString(FieldName), next)).
		Set(FieldFolder, folderRef)
	for k, v := range fields {
		rec.Set(k, v)
	}
	_, err = r.create(ctx, rec, out)
	return err
}

// anyValue reports whether any attribute in the group carries a value.
func anyValue(attrs []attribute.Attribute) bool {
	for _, a := range attrs {
		if a.HasValue() {
			return true
		}
	}
	return false
}

// valuedFields collects the converted values of the attributes targeting
// entity, keyed by target field. Lookup columns do not contribute; their
// raw text is not a storable value.
func valuedFields(attrs []attribute.Attribute, entity string) map[string]any {
	out := make(map[string]any)
	for _, a := range attrs {
		if a.Column.TargetEntity != entity || a.Column.Format == template.FormatLookup {
			continue
		}
		if v, ok := a.Value(); ok {
			out[a.Column.TargetField] = normalizeValue(v)
		}
	}
	return out
}

// sameFields reports whether the record already carries exactly these
// field values.
func sameFields(rec *store.Record, fields map[string]any) bool {
	for k, v := range fields {
		if !store.EqualValues(rec.Get(k), v) {
			return false
		}
	}
	return true
}
