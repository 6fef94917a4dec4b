// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"

	"bordereau-import/internal/attribute"
	"bordereau-import/internal/faults"
	"bordereau-import/internal/store"
)

// ProcessRoles attaches a role record per role slot the template describes:
// one per distinct role-type id and role number (co-insured 1/2 style).
// Slots whose columns resolve to no party are skipped; a role of the same
// type for the same party on the same version is never duplicated.
func (r *Resolver) ProcessRoles(ctx context.Context, m *attribute.MappedRow, graph *PolicyGraph, out *Outcome) error {
	for _, typeID := range m.Template.RoleTypeIDs() {
		typeRef, err := r.roleTypeRef(ctx, typeID)
		if err != nil {
			return err
		}
		for _, number := range m.Template.RoleNumbers(typeID) {
			attrs := m.ForRole(typeID, number)

			addr, err := r.ProcessAddress(ctx, attrs, out)
			if err != nil {
				return err
			}
			party, err := r.ProcessParty(ctx, attrs, addr, out)
			if err != nil {
				return err
			}
			if party.Kind == PartyNone {
				continue
			}

			exists, err := r.roleExists(ctx, graph.Version.Ref(), typeRef, party.Ref)
			if err != nil {
				return err
			}
			if exists {
				continue
			}

			role := store.NewRecord(EntityRole).
				Set(FieldPolicyVersion, graph.Version.Ref()).
				Set(FieldRoleType, typeRef).
				Set(FieldParty, party.Ref).
				Set(FieldRoleNumber, int64(number))
			if _, err := r.create(ctx, role, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// roleTypeRef resolves a template role-type id to its record, cached per
// batch. A role type the store does not know is a template fault.
func (r *Resolver) roleTypeRef(ctx context.Context, typeID string) (store.Ref, error) {
	if ref, ok := r.roleTypes[typeID]; ok {
		return ref, nil
	}
	ref, err := r.findByField(ctx, EntityRoleType, FieldName, typeID)
	if err == store.ErrNotFound {
		return store.Ref{}, faults.Templatef("role type %q does not exist", typeID)
	}
	if err != nil {
		return store.Ref{}, err
	}
	r.roleTypes[typeID] = ref
	return ref, nil
}

func (r *Resolver) roleExists(ctx context.Context, version, roleType, party store.Ref) (bool, error) {
	existing, err := r.store.RetrieveMany(ctx, store.Query{Entity: EntityRole, Limit: 1}.
		Where(FieldPolicyVersion, store.OpEqual, version).
		Where(FieldRoleType, store.OpEqual, roleType).
		Where(FieldParty, store.OpEqual, party))
	if err != nil {
		return false, faults.Storef(err, "find role")
	}
	return len(existing) > 0, nil
}
