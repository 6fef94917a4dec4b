// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"

	"bordereau-import/internal/attribute"
	"bordereau-import/internal/faults"
	"bordereau-import/internal/store"
)

// CompositeAddress is the transient result of address resolution. Address
// is nil when the columns carry nothing beyond postal code and country; the
// postal code and country references are still usable then.
type CompositeAddress struct {
	Country    store.Ref
	PostalCode store.Ref
	Address    *store.Record
}

// HasPostalCode reports whether any postal code was resolved.
func (a CompositeAddress) HasPostalCode() bool {
	return !a.PostalCode.IsZero()
}

// AddressRef returns the address record reference, or a zero Ref when only
// postal code and country were resolved.
func (a CompositeAddress) AddressRef() store.Ref {
	if a.Address == nil {
		return store.Ref{}
	}
	return a.Address.Ref()
}

// ProcessAddress resolves the address described by the given attributes.
// No postal code value means no address, which is not an error. The country
// comes from the template default, else from a country column; with
// neither, the template is misconfigured. Postal codes are found or created
// by (code, country); an address record is only searched/created when
// street, number or building values are present.
func (r *Resolver) ProcessAddress(ctx context.Context, attrs []attribute.Attribute, out *Outcome) (CompositeAddress, error) {
	postalAttr, ok := findAttr(attrs, EntityPostalCode, FieldCode)
	if !ok {
		// A postal code column targeting the code field is the gate for
		// the whole address group.
		return CompositeAddress{}, nil
	}
	code, ok := postalAttr.String()
	if !ok {
		return CompositeAddress{}, nil
	}

	country, err := r.resolveCountry(ctx, attrs)
	if err != nil {
		return CompositeAddress{}, err
	}

	postal, err := r.findOrCreatePostalCode(ctx, code, country, out)
	if err != nil {
		return CompositeAddress{}, err
	}

	result := CompositeAddress{Country: country, PostalCode: postal}

	street, hasStreet := attrValue(attrs, EntityAddress, FieldStreet)
	number, hasNumber := attrValue(attrs, EntityAddress, FieldNumber)
	building, hasBuilding := attrValue(attrs, EntityAddress, FieldBuilding)
	if !hasStreet && !hasNumber && !hasBuilding {
		return result, nil
	}

	q := store.Query{Entity: EntityAddress}.
		Where(FieldPostalCode, store.OpEqual, postal).
		Where(FieldStreet, store.OpEqual, street).
		Where(FieldNumber, store.OpEqual, number)
	if hasBuilding {
		q = q.Where(FieldBuilding, store.OpEqual, building)
	}
	existing, err := r.store.RetrieveMany(ctx, q)
	if err != nil {
		return CompositeAddress{}, faults.Storef(err, "find address")
	}
	if len(existing) > 0 {
		result.Address = existing[0]
		return result, nil
	}

	addr := store.NewRecord(EntityAddress).
		Set(FieldPostalCode, postal).
		Set(FieldOrigin, originBulkImport)
	if err := r.setFields(ctx, addr, attrs, EntityAddress); err != nil {
		return CompositeAddress{}, err
	}
	if _, err := r.create(ctx, addr, out); err != nil {
		return CompositeAddress{}, err
	}
	result.Address = addr
	return result, nil
}

// resolveCountry applies the default-then-column rule. A configured column
// whose value resolves to nothing is a data fault; a template with neither
// default nor column cannot resolve any country and is broken.
func (r *Resolver) resolveCountry(ctx context.Context, attrs []attribute.Attribute) (store.Ref, error) {
	if !r.defaultCountry.IsZero() {
		return r.defaultCountry, nil
	}
	countryAttr, ok := findAttr(attrs, EntityCountry, FieldCode)
	if !ok {
		countryAttr, ok = findAttr(attrs, EntityCountry, FieldName)
	}
	if !ok {
		return store.Ref{}, faults.Templatef("no default country and no country column configured")
	}
	value, ok := countryAttr.String()
	if !ok {
		return store.Ref{}, faults.Dataf("country column %q is empty", countryAttr.Column.Label)
	}
	ref, err := r.findByField(ctx, EntityCountry, countryAttr.Column.TargetField, value)
	if err == store.ErrNotFound {
		return store.Ref{}, faults.Dataf("country %q does not exist", value)
	}
	if err != nil {
		return store.Ref{}, err
	}
	return ref, nil
}

func (r *Resolver) findOrCreatePostalCode(ctx context.Context, code string, country store.Ref, out *Outcome) (store.Ref, error) {
	existing, err := r.store.RetrieveMany(ctx, store.Query{Entity: EntityPostalCode}.
		Where(FieldCode, store.OpEqual, code).
		Where(FieldCountry, store.OpEqual, country))
	if err != nil {
		return store.Ref{}, faults.Storef(err, "find postal code %s", code)
	}
	if len(existing) > 0 {
		return existing[0].Ref(), nil
	}
	rec := store.NewRecord(EntityPostalCode).
		Set(FieldCode, code).
		Set(FieldCountry, country)
	return r.create(ctx, rec, out)
}

// findAttr returns the first attribute targeting entity.field.
func findAttr(attrs []attribute.Attribute, entity, fieldName string) (attribute.Attribute, bool) {
	for _, a := range attrs {
		if a.Column.TargetEntity == entity && a.Column.TargetField == fieldName {
			return a, true
		}
	}
	return attribute.Attribute{}, false
}

// attrValue returns the string value of the first attribute targeting
// entity.field, and whether a value is present.
func attrValue(attrs []attribute.Attribute, entity, fieldName string) (string, bool) {
	a, ok := findAttr(attrs, entity, fieldName)
	if !ok {
		return "", false
	}
	return a.String()
}
