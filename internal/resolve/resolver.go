// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package resolve transforms validated rows into create/update calls on the
// record store, in dependency order: address and postal code first, then
// party, then policy graph, then risk attachment and roles. Every
// resolve-or-create is a point-in-time existence check followed by a
// conditional create; the engine assumes a single writer per batch and
// provides no cross-process exclusion.
package resolve

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bordereau-import/internal/attribute"
	"bordereau-import/internal/faults"
	"bordereau-import/internal/store"
	"bordereau-import/internal/template"
)

// Resolver resolves one import batch against the record store. It is not
// safe for concurrent use; rows are processed sequentially because later
// rows reuse records created by earlier ones.
type Resolver struct {
	store store.Store
	tpl   *template.Template
	log   *zap.Logger

	defaultBroker  store.Ref
	defaultProduct store.Ref
	defaultCountry store.Ref
	importJob      store.Ref

	roleTypes map[string]store.Ref
}

// Outcome reports the records a row's resolution touched.
type Outcome struct {
	Created []store.Ref
	Updated []store.Ref
}

// New creates a resolver for one template and store.
func New(st store.Store, tpl *template.Template, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		store:     st,
		tpl:       tpl,
		log:       log,
		roleTypes: make(map[string]store.Ref),
	}
}

// SetImportJob links records created by this batch to an import job record.
func (r *Resolver) SetImportJob(ref store.Ref) {
	r.importJob = ref
}

// Prepare resolves the template's default references. Defaults that are
// configured but do not resolve are template faults: the batch cannot
// produce correct records with a broken configuration.
func (r *Resolver) Prepare(ctx context.Context) error {
	var err error
	if r.tpl.Defaults.Broker != "" {
		r.defaultBroker, err = r.findByField(ctx, EntityBroker, FieldName, r.tpl.Defaults.Broker)
		if err != nil {
			return faults.Templatef("default broker %q does not exist", r.tpl.Defaults.Broker)
		}
	}
	if r.tpl.Defaults.Product != "" {
		r.defaultProduct, err = r.findByField(ctx, EntityProduct, FieldName, r.tpl.Defaults.Product)
		if err != nil {
			return faults.Templatef("default product %q does not exist", r.tpl.Defaults.Product)
		}
	}
	if r.tpl.Defaults.Country != "" {
		r.defaultCountry, err = r.findByField(ctx, EntityCountry, FieldCode, r.tpl.Defaults.Country)
		if err != nil {
			return faults.Templatef("default country %q does not exist", r.tpl.Defaults.Country)
		}
	}
	return nil
}

// ProcessRow resolves one validated row end to end and returns what was
// created or updated. Failures abort the row only; the error's fault class
// tells the driver whether the template itself is broken.
func (r *Resolver) ProcessRow(ctx context.Context, m *attribute.MappedRow) (*Outcome, error) {
	out := &Outcome{}
	log := r.log.With(zap.Int("row", m.Row.Number))

	addr, err := r.ProcessAddress(ctx, m.ByEntity(EntityPostalCode, EntityCountry, EntityAddress), out)
	if err != nil {
		return out, err
	}

	holder, err := r.ProcessParty(ctx, partyAttrs(m), addr, out)
	if err != nil {
		return out, err
	}
	if holder.Kind != PartyNone {
		log.Debug("resolved policy holder",
			zap.String("kind", string(holder.Kind)), zap.String("id", holder.Ref.ID))
	}

	graph, err := r.ProcessPolicy(ctx, m, holder, out)
	if err != nil {
		return out, err
	}

	if graph != nil {
		if err := r.ProcessRoles(ctx, m, graph, out); err != nil {
			return out, err
		}
		if err := r.ProcessClaims(ctx, m, graph, out); err != nil {
			return out, err
		}
	}

	log.Debug("row resolved",
		zap.Int("created", len(out.Created)), zap.Int("updated", len(out.Updated)))
	return out, nil
}

// partyAttrs selects the policy holder's party columns: individual or
// organization targets outside any role grouping.
func partyAttrs(m *attribute.MappedRow) []attribute.Attribute {
	return m.Select(func(c *template.Column) bool {
		if c.Group.RoleTypeID != "" {
			return false
		}
		return c.TargetEntity == EntityIndividual || c.TargetEntity == EntityOrganization
	})
}

// findByField retrieves the single record whose field equals value.
func (r *Resolver) findByField(ctx context.Context, entity, field, value string) (store.Ref, error) {
	recs, err := r.store.RetrieveMany(ctx, store.Query{Entity: entity}.
		Where(field, store.OpEqual, value))
	if err != nil {
		return store.Ref{}, faults.Storef(err, "find %s by %s", entity, field)
	}
	if len(recs) == 0 {
		return store.Ref{}, store.ErrNotFound
	}
	return recs[0].Ref(), nil
}

// create persists a record, recording it on the outcome.
func (r *Resolver) create(ctx context.Context, rec *store.Record, out *Outcome) (store.Ref, error) {
	if _, err := r.store.Create(ctx, rec); err != nil {
		return store.Ref{}, faults.Storef(err, "create %s", rec.Entity)
	}
	out.Created = append(out.Created, rec.Ref())
	return rec.Ref(), nil
}

// update persists field changes, recording them on the outcome.
func (r *Resolver) update(ctx context.Context, rec *store.Record, out *Outcome) error {
	if err := r.store.Update(ctx, rec); err != nil {
		return faults.Storef(err, "update %s %s", rec.Entity, rec.ID)
	}
	out.Updated = append(out.Updated, rec.Ref())
	return nil
}

// setAttributeFields copies the converted values of the attributes
// targeting entity onto the record, skipping fields already set. Lookup
// columns are left alone; they resolve against the store via setFields.
func setAttributeFields(rec *store.Record, attrs []attribute.Attribute, entity string) {
	for _, a := range attrs {
		if a.Column.TargetEntity != entity || a.Column.Format == template.FormatLookup {
			continue
		}
		if _, done := rec.Fields[a.Column.TargetField]; done {
			continue
		}
		if v, ok := a.Value(); ok {
			rec.Set(a.Column.TargetField, normalizeValue(v))
		}
	}
}

// setFields applies the attributes targeting entity to the record,
// resolving lookup columns: by-name lookups become references to the
// matching record of the configured entity, by-optionset lookups become
// the matched option value.
func (r *Resolver) setFields(ctx context.Context, rec *store.Record, attrs []attribute.Attribute, entity string) error {
	setAttributeFields(rec, attrs, entity)
	for _, a := range attrs {
		if a.Column.TargetEntity != entity || a.Column.Format != template.FormatLookup {
			continue
		}
		v, err := r.lookupValue(ctx, a)
		if err != nil {
			return err
		}
		if v != nil {
			rec.Set(a.Column.TargetField, v)
		}
	}
	return nil
}

// lookupValue resolves one lookup attribute's raw value.
func (r *Resolver) lookupValue(ctx context.Context, a attribute.Attribute) (any, error) {
	raw, ok := a.String()
	if !ok {
		return nil, nil
	}
	switch a.Column.Lookup {
	case template.LookupByName:
		entity := a.Column.LookupEntity
		if entity == "" {
			return nil, faults.Templatef("column %q: by-name lookup without a lookup entity", a.Column.Label)
		}
		ref, err := r.findByField(ctx, entity, FieldName, raw)
		if err == store.ErrNotFound {
			return nil, faults.Dataf("column %q: %s %q does not exist", a.Column.Label, entity, raw)
		}
		if err != nil {
			return nil, err
		}
		return ref, nil
	case template.LookupByOptionSet:
		v, ok := a.OptionValue()
		if !ok {
			return nil, faults.Dataf("column %q: %q matches no option of %s.%s",
				a.Column.Label, raw, a.Column.TargetEntity, a.Column.TargetField)
		}
		return int64(v), nil
	}
	return nil, nil
}

// normalizeValue converts attribute values to store field types.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case time.Time:
		return t
	default:
		return v
	}
}
