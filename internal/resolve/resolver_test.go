// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bordereau-import/internal/attribute"
	"bordereau-import/internal/faults"
	"bordereau-import/internal/store"
	"bordereau-import/internal/template"
)

// motorTemplate mirrors a typical single-risk motor feed: policy columns,
// holder columns, an address block, one identifier column and one driver
// role slot.
func motorTemplate(t *testing.T) *template.Template {
	t.Helper()
	tpl := &template.Template{
		Name: "motor-test",
		Defaults: template.Defaults{
			Broker:  "Acme Brokers",
			Product: "Motor Fleet",
			Country: "BE",
		},
		Columns: []template.Column{
			{Label: "Policy number", TargetEntity: EntityPolicyVersion, TargetField: FieldPolicyNumber,
				Format: template.FormatText, Mandatory: true},
			{Label: "Transaction type", TargetEntity: EntityPolicyVersion, TargetField: FieldTransactionType,
				Format: template.FormatOptionSet},
			{Label: "Transaction date", TargetEntity: EntityPolicyVersion, TargetField: FieldTransactionDate,
				Format: template.FormatDate},
			{Label: "Premium", TargetEntity: EntityPolicyVersion, TargetField: "premium",
				Format: template.FormatCurrency},
			{Label: "First name", TargetEntity: EntityIndividual, TargetField: FieldFirstName,
				Format: template.FormatText},
			{Label: "Last name", TargetEntity: EntityIndividual, TargetField: FieldLastName,
				Format: template.FormatText},
			{Label: "Postal code", TargetEntity: EntityPostalCode, TargetField: FieldCode,
				Format: template.FormatText},
			{Label: "Street", TargetEntity: EntityAddress, TargetField: FieldStreet,
				Format: template.FormatText},
			{Label: "House number", TargetEntity: EntityAddress, TargetField: FieldNumber,
				Format: template.FormatText},
			{Label: "Chassis", TargetEntity: EntityRiskEntity, TargetField: FieldIdentifier,
				Format: template.FormatText, Identifier: true},
			{Label: "Driver first name", TargetEntity: EntityIndividual, TargetField: FieldFirstName,
				Format: template.FormatText, Group: template.GroupKeys{RoleTypeID: "driver"}},
			{Label: "Driver last name", TargetEntity: EntityIndividual, TargetField: FieldLastName,
				Format: template.FormatText, Group: template.GroupKeys{RoleTypeID: "driver"}},
		},
	}
	require.NoError(t, tpl.BindOptions(DefaultSchema()))
	return tpl
}

// motorRow is a full row for motorTemplate, cells in column order.
func motorRow(number int, cells ...string) attribute.Row {
	return attribute.Row{Number: number, Cells: cells}
}

func seededStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	ctx := context.Background()
	ms := store.NewMemoryStore()
	for _, rec := range []*store.Record{
		store.NewRecord(EntityBroker).Set(FieldName, "Acme Brokers"),
		store.NewRecord(EntityProduct).Set(FieldName, "Motor Fleet"),
		store.NewRecord(EntityCountry).Set(FieldCode, "BE"),
		store.NewRecord(EntityRoleType).Set(FieldName, "driver"),
	} {
		_, err := ms.Create(ctx, rec)
		require.NoError(t, err)
	}
	ms.Creates = 0
	return ms
}

func preparedResolver(t *testing.T, ms *store.MemoryStore, tpl *template.Template) *Resolver {
	t.Helper()
	r := New(ms, tpl, nil)
	require.NoError(t, r.Prepare(context.Background()))
	return r
}

func TestPrepareRejectsUnknownBroker(t *testing.T) {
	ms := store.NewMemoryStore()
	r := New(ms, motorTemplate(t), nil)
	err := r.Prepare(context.Background())
	require.Error(t, err)
	assert.Equal(t, faults.ClassTemplate, faults.Classify(err))
}

func TestProcessRowCreatesFullGraph(t *testing.T) {
	ctx := context.Background()
	ms := seededStore(t)
	tpl := motorTemplate(t)
	r := preparedResolver(t, ms, tpl)

	m := attribute.Map(motorRow(2,
		"POL-77", "New business", "01/06/2024", "1.000,00",
		"Ada", "Lovelace", "1000", "Main Street", "5", "CH123",
		"Max", "Driver"), tpl)

	out, err := r.ProcessRow(ctx, m)
	require.NoError(t, err)

	// postal code, address, holder, folder, version, risk entity,
	// insured risk, driver, driver role
	assert.Len(t, out.Created, 9)

	assert.Equal(t, 1, ms.Count(EntityPolicyFolder))
	assert.Equal(t, 1, ms.Count(EntityPolicyVersion))
	assert.Equal(t, 2, ms.Count(EntityIndividual))
	assert.Equal(t, 1, ms.Count(EntityInsuredRisk))
	assert.Equal(t, 1, ms.Count(EntityRole))

	versions, err := ms.RetrieveMany(ctx, store.Query{Entity: EntityPolicyVersion})
	require.NoError(t, err)
	v := versions[0]
	assert.Equal(t, "POL-77-001", v.GetString(FieldName))
	assert.Equal(t, int64(TransactionNew), v.GetInt(FieldTransactionType))
	assert.Equal(t, "CH123", v.GetString(FieldRiskIdentifier))
	assert.True(t, v.GetDecimal("premium").Equal(decimal.NewFromInt(1000)))
	assert.False(t, v.GetRef(FieldPolicyHolder).IsZero())

	addrs, err := ms.RetrieveMany(ctx, store.Query{Entity: EntityAddress})
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, "bulk import", addrs[0].GetString(FieldOrigin))

	risks, err := ms.RetrieveMany(ctx, store.Query{Entity: EntityInsuredRisk})
	require.NoError(t, err)
	assert.False(t, risks[0].GetRef(FieldRiskEntity).IsZero())
}

func TestProcessRowReimportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ms := seededStore(t)
	tpl := motorTemplate(t)
	r := preparedResolver(t, ms, tpl)

	cells := []string{
		"POL-77", "New business", "01/06/2024", "1.000,00",
		"Ada", "Lovelace", "1000", "Main Street", "5", "CH123",
		"Max", "Driver"}

	_, err := r.ProcessRow(ctx, attribute.Map(motorRow(2, cells...), tpl))
	require.NoError(t, err)
	created := ms.Creates

	out, err := r.ProcessRow(ctx, attribute.Map(motorRow(3, cells...), tpl))
	require.NoError(t, err)
	assert.Empty(t, out.Created, "an identical row resolves entirely to existing records")
	assert.Equal(t, created, ms.Creates)
}

func TestProcessRowSecondTransactionAddsVersion(t *testing.T) {
	ctx := context.Background()
	ms := seededStore(t)
	tpl := motorTemplate(t)
	r := preparedResolver(t, ms, tpl)

	_, err := r.ProcessRow(ctx, attribute.Map(motorRow(2,
		"POL-77", "New business", "01/06/2024", "1.000,00",
		"Ada", "Lovelace", "1000", "Main Street", "5", "CH123",
		"Max", "Driver"), tpl))
	require.NoError(t, err)

	_, err = r.ProcessRow(ctx, attribute.Map(motorRow(3,
		"POL-77", "Amendment", "01/09/2024", "1.100,00",
		"Ada", "Lovelace", "1000", "Main Street", "5", "CH123",
		"Max", "Driver"), tpl))
	require.NoError(t, err)

	assert.Equal(t, 1, ms.Count(EntityPolicyFolder))
	assert.Equal(t, 2, ms.Count(EntityPolicyVersion))
	assert.Equal(t, 2, ms.Count(EntityIndividual), "parties are shared across versions")

	versions, err := ms.RetrieveMany(ctx, store.Query{Entity: EntityPolicyVersion})
	require.NoError(t, err)
	assert.Equal(t, "POL-77-001", versions[0].GetString(FieldName))
	assert.Equal(t, "POL-77-002", versions[1].GetString(FieldName))
}

func TestCancellationStampsFolder(t *testing.T) {
	ctx := context.Background()
	ms := seededStore(t)
	tpl := motorTemplate(t)
	r := preparedResolver(t, ms, tpl)

	_, err := r.ProcessRow(ctx, attribute.Map(motorRow(2,
		"POL-9", "Cancellation", "01/06/2024", "",
		"Ada", "Lovelace", "1000", "", "", "CH9",
		"", ""), tpl))
	require.NoError(t, err)

	folders, err := ms.RetrieveMany(ctx, store.Query{Entity: EntityPolicyFolder})
	require.NoError(t, err)
	require.Len(t, folders, 1)
	stamped := folders[0].GetRef(FieldCancellationResponsible)
	require.False(t, stamped.IsZero())
	assert.Equal(t, EntityBroker, stamped.Entity)
}

func TestRowWithoutPolicyNumberSkipsPolicyGraph(t *testing.T) {
	ctx := context.Background()
	ms := seededStore(t)
	tpl := motorTemplate(t)
	r := preparedResolver(t, ms, tpl)

	out, err := r.ProcessRow(ctx, attribute.Map(motorRow(2,
		"", "", "", "",
		"Ada", "Lovelace", "1000", "", "", "",
		"", ""), tpl))
	require.NoError(t, err)

	assert.Equal(t, 0, ms.Count(EntityPolicyFolder))
	assert.Equal(t, 0, ms.Count(EntityPolicyVersion))
	assert.Equal(t, 1, ms.Count(EntityIndividual), "the party still resolves")
	assert.Len(t, out.Created, 2) // postal code and holder
}

func TestAmbiguousVersionAbortsRow(t *testing.T) {
	ctx := context.Background()
	ms := seededStore(t)
	tpl := motorTemplate(t)
	r := preparedResolver(t, ms, tpl)

	// Two stored versions with the same transaction coordinates.
	for i := 0; i < 2; i++ {
		_, err := ms.Create(ctx, store.NewRecord(EntityPolicyVersion).
			Set(FieldPolicyNumber, "POL-2").
			Set(FieldRiskIdentifier, "CHX"))
		require.NoError(t, err)
	}

	_, err := r.ProcessRow(ctx, attribute.Map(motorRow(2,
		"POL-2", "", "", "",
		"", "", "", "", "", "CHX",
		"", ""), tpl))
	require.Error(t, err)
	assert.Equal(t, faults.ClassData, faults.Classify(err))
}

func TestProcessAddressPostalCodeOnly(t *testing.T) {
	ctx := context.Background()
	ms := seededStore(t)
	tpl := motorTemplate(t)
	r := preparedResolver(t, ms, tpl)

	m := attribute.Map(motorRow(2,
		"", "", "", "", "", "", "1000", "", "", "", "", ""), tpl)
	out := &Outcome{}
	addr, err := r.ProcessAddress(ctx, m.ByEntity(EntityPostalCode, EntityCountry, EntityAddress), out)
	require.NoError(t, err)

	assert.True(t, addr.HasPostalCode())
	assert.Nil(t, addr.Address, "no street, number or building means no address record")
	assert.True(t, addr.AddressRef().IsZero())
	assert.Equal(t, 1, ms.Count(EntityPostalCode))
	assert.Equal(t, 0, ms.Count(EntityAddress))
}

func TestProcessAddressSharedPostalCode(t *testing.T) {
	ctx := context.Background()
	ms := seededStore(t)
	tpl := motorTemplate(t)
	r := preparedResolver(t, ms, tpl)
	out := &Outcome{}

	for _, cells := range [][]string{
		{"", "", "", "", "", "", "1000", "Main Street", "1", "", "", ""},
		{"", "", "", "", "", "", "1000", "Main Street", "2", "", "", ""},
	} {
		m := attribute.Map(motorRow(2, cells...), tpl)
		_, err := r.ProcessAddress(ctx, m.ByEntity(EntityPostalCode, EntityCountry, EntityAddress), out)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, ms.Count(EntityPostalCode), "postal codes are shared between addresses")
	assert.Equal(t, 2, ms.Count(EntityAddress))
}

func TestProcessPartyAmbiguousMatchCreatesNew(t *testing.T) {
	ctx := context.Background()
	ms := seededStore(t)
	tpl := motorTemplate(t)
	r := preparedResolver(t, ms, tpl)

	for i := 0; i < 2; i++ {
		_, err := ms.Create(ctx, store.NewRecord(EntityIndividual).
			Set(FieldFirstName, "Ada").Set(FieldLastName, "Lovelace"))
		require.NoError(t, err)
	}

	m := attribute.Map(motorRow(2,
		"", "", "", "", "Ada", "Lovelace", "", "", "", "", "", ""), tpl)
	out := &Outcome{}
	party, err := r.ProcessParty(ctx, m.ByEntity(EntityIndividual, EntityOrganization), CompositeAddress{}, out)
	require.NoError(t, err)

	assert.Equal(t, PartyIndividual, party.Kind)
	assert.Equal(t, 3, ms.Count(EntityIndividual),
		"several candidates means the match is ambiguous; a new record is safer than a wrong merge")
}

func TestRoleNotDuplicatedOnReimport(t *testing.T) {
	ctx := context.Background()
	ms := seededStore(t)
	tpl := motorTemplate(t)
	r := preparedResolver(t, ms, tpl)

	cells := []string{
		"POL-77", "New business", "01/06/2024", "",
		"Ada", "Lovelace", "", "", "", "CH1",
		"Max", "Driver"}
	for n := 2; n <= 3; n++ {
		_, err := r.ProcessRow(ctx, attribute.Map(motorRow(n, cells...), tpl))
		require.NoError(t, err)
	}
	assert.Equal(t, 1, ms.Count(EntityRole))
}

func TestUnknownRoleTypeIsTemplateFault(t *testing.T) {
	ctx := context.Background()
	ms := seededStore(t)
	tpl := motorTemplate(t)
	tpl.Columns[10].Group.RoleTypeID = "beneficiary"
	tpl.Columns[11].Group.RoleTypeID = "beneficiary"
	r := preparedResolver(t, ms, tpl)

	_, err := r.ProcessRow(ctx, attribute.Map(motorRow(2,
		"POL-1", "", "", "",
		"Ada", "Lovelace", "", "", "", "CH1",
		"Max", "Driver"), tpl))
	require.Error(t, err)
	assert.Equal(t, faults.ClassTemplate, faults.Classify(err))
}

func TestLookupByNameResolvesReference(t *testing.T) {
	ctx := context.Background()
	ms := seededStore(t)
	tpl := motorTemplate(t)
	tpl.Columns = append(tpl.Columns, template.Column{
		Label: "Managing broker", TargetEntity: EntityPolicyVersion, TargetField: FieldBroker,
		Format: template.FormatLookup, Lookup: template.LookupByName, LookupEntity: EntityBroker,
	})
	r := preparedResolver(t, ms, tpl)

	_, err := r.ProcessRow(ctx, attribute.Map(motorRow(2,
		"POL-1", "New business", "01/06/2024", "",
		"Ada", "Lovelace", "", "", "", "CH1",
		"", "", "Acme Brokers"), tpl))
	require.NoError(t, err)

	versions, err := ms.RetrieveMany(ctx, store.Query{Entity: EntityPolicyVersion})
	require.NoError(t, err)
	ref := versions[0].GetRef(FieldBroker)
	require.False(t, ref.IsZero())
	assert.Equal(t, EntityBroker, ref.Entity)
}

func TestLookupByNameUnknownValueIsDataFault(t *testing.T) {
	ctx := context.Background()
	ms := seededStore(t)
	tpl := motorTemplate(t)
	tpl.Columns = append(tpl.Columns, template.Column{
		Label: "Managing broker", TargetEntity: EntityPolicyVersion, TargetField: FieldBroker,
		Format: template.FormatLookup, Lookup: template.LookupByName, LookupEntity: EntityBroker,
	})
	r := preparedResolver(t, ms, tpl)

	_, err := r.ProcessRow(ctx, attribute.Map(motorRow(2,
		"POL-1", "", "", "",
		"", "", "", "", "", "CH1",
		"", "", "No Such Broker"), tpl))
	require.Error(t, err)
	assert.Equal(t, faults.ClassData, faults.Classify(err))
}
