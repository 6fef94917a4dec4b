// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"

	"bordereau-import/internal/attribute"
	"bordereau-import/internal/faults"
	"bordereau-import/internal/store"
)

// PartyKind tells which entity a party resolved to.
type PartyKind string

const (
	PartyNone         PartyKind = ""
	PartyOrganization PartyKind = EntityOrganization
	PartyIndividual   PartyKind = EntityIndividual
)

// ResolvedParty is either an organization or an individual reference, never
// both. Kind is PartyNone when the columns carried no party at all.
type ResolvedParty struct {
	Kind PartyKind
	Ref  store.Ref
}

// ProcessParty resolves or creates the party described by the attributes.
// Individual identification (first and last name) takes precedence when
// both an individual and an organization could apply. Ambiguous individual
// matches create a new record rather than guessing: duplicates are cheaper
// to clean up than wrong merges.
func (r *Resolver) ProcessParty(ctx context.Context, attrs []attribute.Attribute, addr CompositeAddress, out *Outcome) (ResolvedParty, error) {
	first, hasFirst := attrValue(attrs, EntityIndividual, FieldFirstName)
	last, hasLast := attrValue(attrs, EntityIndividual, FieldLastName)
	if hasFirst && hasLast {
		ref, err := r.resolveIndividual(ctx, attrs, first, last, addr, out)
		if err != nil {
			return ResolvedParty{}, err
		}
		return ResolvedParty{Kind: PartyIndividual, Ref: ref}, nil
	}

	orgName, hasOrg := attrValue(attrs, EntityOrganization, FieldName)
	if hasOrg {
		ref, err := r.resolveOrganization(ctx, attrs, orgName, addr, out)
		if err != nil {
			return ResolvedParty{}, err
		}
		return ResolvedParty{Kind: PartyOrganization, Ref: ref}, nil
	}

	return ResolvedParty{Kind: PartyNone}, nil
}

// resolveOrganization reuses the organization with the exact same name,
// case sensitively, or creates a new one.
func (r *Resolver) resolveOrganization(ctx context.Context, attrs []attribute.Attribute, name string, addr CompositeAddress, out *Outcome) (store.Ref, error) {
	candidates, err := r.store.RetrieveMany(ctx, store.Query{Entity: EntityOrganization}.
		Where(FieldName, store.OpEqual, name))
	if err != nil {
		return store.Ref{}, faults.Storef(err, "find organization %q", name)
	}
	for _, c := range candidates {
		if c.GetString(FieldName) == name {
			return c.Ref(), r.attachAddress(ctx, c, addr, out)
		}
	}

	rec := store.NewRecord(EntityOrganization)
	if err := r.setFields(ctx, rec, attrs, EntityOrganization); err != nil {
		return store.Ref{}, err
	}
	setAddressFields(rec, addr)
	return r.create(ctx, rec, out)
}

// resolveIndividual matches existing individuals on the composite key of
// first name, last name, postal code, date of birth, email, mobile phone
// and national id; only keys with values constrain the search. Exactly one
// match is reused; zero or several create a new record.
func (r *Resolver) resolveIndividual(ctx context.Context, attrs []attribute.Attribute, first, last string, addr CompositeAddress, out *Outcome) (store.Ref, error) {
	q := store.Query{Entity: EntityIndividual}.
		Where(FieldFirstName, store.OpEqual, first).
		Where(FieldLastName, store.OpEqual, last)
	if addr.HasPostalCode() {
		q = q.Where(FieldPostalCode, store.OpEqual, addr.PostalCode)
	}
	if a, ok := findAttr(attrs, EntityIndividual, FieldDateOfBirth); ok {
		if dob, has := a.Time(); has {
			q = q.Where(FieldDateOfBirth, store.OpEqual, dob)
		}
	}
	for _, f := range []string{FieldEmail, FieldMobilePhone, FieldNationalID} {
		if v, ok := attrValue(attrs, EntityIndividual, f); ok {
			q = q.Where(f, store.OpEqual, v)
		}
	}

	matches, err := r.store.RetrieveMany(ctx, q)
	if err != nil {
		return store.Ref{}, faults.Storef(err, "find individual %s %s", first, last)
	}
	if len(matches) == 1 {
		return matches[0].Ref(), r.attachAddress(ctx, matches[0], addr, out)
	}

	rec := store.NewRecord(EntityIndividual)
	if err := r.setFields(ctx, rec, attrs, EntityIndividual); err != nil {
		return store.Ref{}, err
	}
	setAddressFields(rec, addr)
	return r.create(ctx, rec, out)
}

// attachAddress applies the address rules for a reused party: a party
// without an address gets the freshly resolved one attached; a party that
// already has one gets that address record updated in place.
func (r *Resolver) attachAddress(ctx context.Context, party *store.Record, addr CompositeAddress, out *Outcome) error {
	if addr.Address == nil {
		if addr.HasPostalCode() && party.GetRef(FieldPostalCode).IsZero() {
			patch := &store.Record{Entity: party.Entity, ID: party.ID, Fields: map[string]any{
				FieldPostalCode: addr.PostalCode,
			}}
			return r.update(ctx, patch, out)
		}
		return nil
	}

	existing := party.GetRef(FieldAddress)
	if existing.IsZero() {
		patch := &store.Record{Entity: party.Entity, ID: party.ID, Fields: map[string]any{
			FieldAddress: addr.Address.Ref(),
		}}
		if addr.HasPostalCode() {
			patch.Fields[FieldPostalCode] = addr.PostalCode
		}
		return r.update(ctx, patch, out)
	}

	patch := &store.Record{Entity: EntityAddress, ID: existing.ID, Fields: make(map[string]any)}
	for _, f := range []string{FieldStreet, FieldNumber, FieldBuilding, FieldPostalCode} {
		if v, ok := addr.Address.Fields[f]; ok {
			patch.Fields[f] = v
		}
	}
	if len(patch.Fields) == 0 {
		return nil
	}
	return r.update(ctx, patch, out)
}

// setAddressFields stamps the resolved address references onto a new party.
func setAddressFields(rec *store.Record, addr CompositeAddress) {
	if addr.HasPostalCode() {
		rec.Set(FieldPostalCode, addr.PostalCode)
	}
	if addr.Address != nil {
		rec.Set(FieldAddress, addr.Address.Ref())
	}
}
