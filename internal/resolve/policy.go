// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"

	"bordereau-import/internal/attribute"
	"bordereau-import/internal/faults"
	"bordereau-import/internal/sequence"
	"bordereau-import/internal/store"
)

// PolicyGraph is the policy fragment one row resolves to.
type PolicyGraph struct {
	Folder  *store.Record
	Version *store.Record
	Risk    store.Ref
}

// ProcessPolicy resolves or creates the policy folder, version, risk entity
// and insured-risk attachments for the row. A row without a policy number
// value carries no policy graph and returns nil.
func (r *Resolver) ProcessPolicy(ctx context.Context, m *attribute.MappedRow, holder ResolvedParty, out *Outcome) (*PolicyGraph, error) {
	policyAttrs := m.ByEntity(EntityPolicyVersion)
	policyNumber, ok := attrValue(policyAttrs, EntityPolicyVersion, FieldPolicyNumber)
	if !ok {
		return nil, nil
	}

	folder, err := r.findOrCreateFolder(ctx, policyNumber, out)
	if err != nil {
		return nil, err
	}

	txType, hasTxType := optionValue(policyAttrs, EntityPolicyVersion, FieldTransactionType)
	if hasTxType && txType == TransactionCancellation {
		// Cancellation rows stamp the folder before the version exists.
		patch := &store.Record{Entity: EntityPolicyFolder, ID: folder.ID, Fields: map[string]any{
			FieldCancellationResponsible: r.defaultBroker,
		}}
		if err := r.update(ctx, patch, out); err != nil {
			return nil, err
		}
	}

	riskID := m.IdentifierValue()

	version, err := r.findOrCreateVersion(ctx, m, policyAttrs, folder, policyNumber, riskID, holder, out)
	if err != nil {
		return nil, err
	}

	graph := &PolicyGraph{Folder: folder, Version: version}

	if err := r.resolveRisk(ctx, m, graph, riskID, out); err != nil {
		return nil, err
	}
	return graph, nil
}

func (r *Resolver) findOrCreateFolder(ctx context.Context, policyNumber string, out *Outcome) (*store.Record, error) {
	existing, err := r.store.RetrieveMany(ctx, store.Query{Entity: EntityPolicyFolder}.
		Where(FieldPolicyNumber, store.OpEqual, policyNumber))
	if err != nil {
		return nil, faults.Storef(err, "find policy folder %s", policyNumber)
	}
	if len(existing) > 0 {
		return existing[0], nil
	}

	folder := store.NewRecord(EntityPolicyFolder).
		Set(FieldName, policyNumber).
		Set(FieldPolicyNumber, policyNumber)
	if !r.defaultBroker.IsZero() {
		folder.Set(FieldBroker, r.defaultBroker)
	}
	if _, err := r.create(ctx, folder, out); err != nil {
		return nil, err
	}
	return folder, nil
}

// findOrCreateVersion reuses the version matching transaction type,
// transaction date and policy number, narrowed by the risk identifier when
// the template configures identifier columns. More than one match is an
// ambiguous policy, which aborts the row.
func (r *Resolver) findOrCreateVersion(ctx context.Context, m *attribute.MappedRow, policyAttrs []attribute.Attribute, folder *store.Record, policyNumber, riskID string, holder ResolvedParty, out *Outcome) (*store.Record, error) {
	q := store.Query{Entity: EntityPolicyVersion}.
		Where(FieldPolicyNumber, store.OpEqual, policyNumber)
	if v, ok := optionValue(policyAttrs, EntityPolicyVersion, FieldTransactionType); ok {
		q = q.Where(FieldTransactionType, store.OpEqual, v)
	}
	if a, ok := findAttr(policyAttrs, EntityPolicyVersion, FieldTransactionDate); ok {
		if d, has := a.Time(); has {
			q = q.Where(FieldTransactionDate, store.OpEqual, d)
		}
	}
	if r.tpl.HasIdentifierColumns() && riskID != "" {
		q = q.Where(FieldRiskIdentifier, store.OpEqual, riskID)
	}
	matches, err := r.store.RetrieveMany(ctx, q)
	if err != nil {
		return nil, faults.Storef(err, "find policy version %s", policyNumber)
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	if len(matches) > 1 {
		return nil, faults.Dataf("policy %s matches %d versions for the same transaction", policyNumber, len(matches))
	}

	if r.defaultProduct.IsZero() {
		return nil, faults.Templatef("no product configured; cannot create policy version %s", policyNumber)
	}

	name, err := r.nextVersionName(ctx, folder)
	if err != nil {
		return nil, err
	}

	version := store.NewRecord(EntityPolicyVersion).
		Set(FieldName, name).
		Set(FieldFolder, folder.Ref()).
		Set(FieldBroker, r.defaultBroker).
		Set(FieldProduct, r.defaultProduct)
	if riskID != "" {
		version.Set(FieldRiskIdentifier, riskID)
	}
	if !r.importJob.IsZero() {
		version.Set(FieldImportJob, r.importJob)
	}
	if holder.Kind != PartyNone {
		version.Set(FieldPolicyHolder, holder.Ref)
	}
	if err := r.setFields(ctx, version, policyAttrs, EntityPolicyVersion); err != nil {
		return nil, err
	}
	if _, err := r.create(ctx, version, out); err != nil {
		return nil, err
	}
	return version, nil
}

// nextVersionName derives the new version's display name from its siblings.
func (r *Resolver) nextVersionName(ctx context.Context, folder *store.Record) (string, error) {
	siblings, err := r.store.RetrieveMany(ctx, store.Query{Entity: EntityPolicyVersion}.
		Where(FieldFolder, store.OpEqual, folder.Ref()))
	if err != nil {
		return "", faults.Storef(err, "list versions of %s", folder.GetString(FieldName))
	}
	if len(siblings) == 0 {
		return sequence.First(folder.GetString(FieldName)), nil
	}
	latest := siblings[len(siblings)-1]
	name, err := sequence.Next(latest.GetString(FieldName), len(siblings))
	if err != nil {
		return "", faults.Dataf("cannot number policy version after %q", latest.GetString(FieldName))
	}
	return name, nil
}

// resolveRisk matches or creates the risk entity and attaches it to the
// version's insured risks.
func (r *Resolver) resolveRisk(ctx context.Context, m *attribute.MappedRow, graph *PolicyGraph, riskID string, out *Outcome) error {
	riskAttrs := m.ByEntity(EntityRiskEntity)
	if riskID == "" && len(riskAttrs) == 0 {
		return nil
	}

	riskAddr, err := r.ProcessAddress(ctx, m.ForAddressOf(EntityRiskEntity), out)
	if err != nil {
		return err
	}

	risk, err := r.findOrCreateRisk(ctx, m, riskAttrs, riskID, riskAddr, out)
	if err != nil {
		return err
	}
	graph.Risk = risk

	return r.attachInsuredRisks(ctx, m, graph, riskAddr, out)
}

func (r *Resolver) findOrCreateRisk(ctx context.Context, m *attribute.MappedRow, riskAttrs []attribute.Attribute, riskID string, riskAddr CompositeAddress, out *Outcome) (store.Ref, error) {
	if riskID != "" {
		existing, err := r.store.RetrieveMany(ctx, store.Query{Entity: EntityRiskEntity}.
			Where(FieldIdentifier, store.OpEqual, riskID))
		if err != nil {
			return store.Ref{}, faults.Storef(err, "find risk entity %q", riskID)
		}
		if len(existing) > 0 {
			return existing[0].Ref(), nil
		}
	}

	rec := store.NewRecord(EntityRiskEntity)
	if riskID != "" {
		rec.Set(FieldName, riskID)
		rec.Set(FieldIdentifier, riskID)
	}
	if sub := riskSubClass(m); sub != "" {
		rec.Set(FieldSubClass, sub)
	}
	if riskAddr.Address != nil {
		rec.Set(FieldAddress, riskAddr.Address.Ref())
	}
	if err := r.setFields(ctx, rec, riskAttrs, EntityRiskEntity); err != nil {
		return store.Ref{}, err
	}
	return r.create(ctx, rec, out)
}

// attachInsuredRisks links the resolved risk entity (and its address) to
// the version's insured risks. When every existing insured risk is still
// unassigned they all get the reference; a mix of assigned and unassigned
// means a multi-risk feed, which this engine does not support and must not
// silently mis-attach.
func (r *Resolver) attachInsuredRisks(ctx context.Context, m *attribute.MappedRow, graph *PolicyGraph, riskAddr CompositeAddress, out *Outcome) error {
	existing, err := r.store.RetrieveMany(ctx, store.Query{Entity: EntityInsuredRisk}.
		Where(FieldPolicyVersion, store.OpEqual, graph.Version.Ref()))
	if err != nil {
		return faults.Storef(err, "list insured risks of %s", graph.Version.GetString(FieldName))
	}

	if len(existing) == 0 {
		rec := store.NewRecord(EntityInsuredRisk).
			Set(FieldPolicyVersion, graph.Version.Ref()).
			Set(FieldRiskEntity, graph.Risk)
		applyRiskAddress(rec, riskAddr)
		if cover := coverID(m); cover != "" {
			rec.Set(FieldCover, cover)
		}
		if err := r.setFields(ctx, rec, m.ByEntity(EntityInsuredRisk), EntityInsuredRisk); err != nil {
			return err
		}
		_, err := r.create(ctx, rec, out)
		return err
	}

	for _, ir := range existing {
		assigned := ir.GetRef(FieldRiskEntity)
		if assigned == graph.Risk {
			// Re-import of the same row; the risk is already attached.
			return nil
		}
		if !assigned.IsZero() {
			return faults.Dataf("policy version %s already carries assigned risks; additional risk objects are not supported",
				graph.Version.GetString(FieldName))
		}
	}
	for _, ir := range existing {
		patch := &store.Record{Entity: EntityInsuredRisk, ID: ir.ID, Fields: map[string]any{
			FieldRiskEntity: graph.Risk,
		}}
		applyRiskAddress(patch, riskAddr)
		if err := r.update(ctx, patch, out); err != nil {
			return err
		}
	}
	return nil
}

func applyRiskAddress(rec *store.Record, addr CompositeAddress) {
	if addr.HasPostalCode() {
		rec.Set(FieldPostalCode, addr.PostalCode)
		rec.Set(FieldCountry, addr.Country)
	}
	if addr.Address != nil {
		rec.Set(FieldAddress, addr.Address.Ref())
	}
}

// riskSubClass returns the first risk sub-class group key configured on the
// template's columns.
func riskSubClass(m *attribute.MappedRow) string {
	for i := range m.Template.Columns {
		if s := m.Template.Columns[i].Group.RiskSubClass; s != "" {
			return s
		}
	}
	return ""
}

// coverID returns the first cover group key configured on the template.
func coverID(m *attribute.MappedRow) string {
	for i := range m.Template.Columns {
		if s := m.Template.Columns[i].Group.CoverID; s != "" {
			return s
		}
	}
	return ""
}

// optionValue returns the converted option value of the first attribute
// targeting entity.field.
func optionValue(attrs []attribute.Attribute, entity, fieldName string) (int, bool) {
	a, ok := findAttr(attrs, entity, fieldName)
	if !ok {
		return 0, false
	}
	return a.OptionValue()
}
