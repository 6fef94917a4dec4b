// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resolve

import "bordereau-import/internal/store"

// Entity logical names of the insurance data model the engine writes into.
const (
	EntityCountry       = "country"
	EntityPostalCode    = "postalcode"
	EntityAddress       = "address"
	EntityOrganization  = "organization"
	EntityIndividual    = "individual"
	EntityPolicyFolder  = "policyfolder"
	EntityPolicyVersion = "policyversion"
	EntityInsuredRisk   = "insuredrisk"
	EntityRiskEntity    = "riskentity"
	EntityRole          = "role"
	EntityRoleType      = "roletype"
	EntityClaim         = "claim"
	EntityPayment       = "payment"
	EntityTransaction   = "policytransaction"
	EntityRecovery      = "recovery"
	EntityCommission    = "commission"
	EntityBroker        = "broker"
	EntityProduct       = "product"
	EntityImportJob     = "importjob"
)

// Field names shared across resolution code.
const (
	FieldName    = "name"
	FieldCode    = "code"
	FieldCountry = "country"

	FieldPostalCode = "postalcode"
	FieldStreet     = "street"
	FieldNumber     = "number"
	FieldBuilding   = "building"
	FieldOrigin     = "origin"

	FieldFirstName   = "firstname"
	FieldLastName    = "lastname"
	FieldDateOfBirth = "dateofbirth"
	FieldEmail       = "email"
	FieldMobilePhone = "mobilephone"
	FieldNationalID  = "nationalid"
	FieldAddress     = "address"

	FieldPolicyNumber    = "policynumber"
	FieldFolder          = "folder"
	FieldTransactionType = "transactiontype"
	FieldTransactionDate = "transactiondate"
	FieldRiskIdentifier  = "riskidentifier"
	FieldBroker          = "broker"
	FieldProduct         = "product"
	FieldImportJob       = "importjob"
	FieldPolicyHolder    = "policyholder"
	FieldCancellationResponsible = "cancellationresponsible"

	FieldPolicyVersion = "policyversion"
	FieldRiskEntity    = "riskentity"
	FieldCover         = "cover"
	FieldIdentifier    = "identifier"
	FieldSubClass      = "subclass"

	FieldRoleType   = "roletype"
	FieldParty      = "party"
	FieldRoleNumber = "rolenumber"

	FieldClaim  = "claim"
	FieldOrder  = "order"
	FieldAmount = "amount"
	FieldDate   = "date"
)

// originBulkImport tags address records created by the engine.
const originBulkImport = "bulk import"

// Transaction type option values.
const (
	TransactionNew          = 1
	TransactionRenewal      = 2
	TransactionAmendment    = 3
	TransactionCancellation = 4
)

var transactionTypeOptions = []store.Option{
	{Value: TransactionNew, Code: "new", Label: "New business"},
	{Value: TransactionRenewal, Code: "renewal", Label: "Renewal"},
	{Value: TransactionAmendment, Code: "amendment", Label: "Amendment"},
	{Value: TransactionCancellation, Code: "cancellation", Label: "Cancellation"},
}

func field(label string) store.FieldDescription {
	return store.FieldDescription{Exists: true, Label: label}
}

// DefaultSchema describes the insurance data model for template validation
// and option-set conversion.
func DefaultSchema() *store.StaticSchema {
	return store.NewStaticSchema(map[string]map[string]store.FieldDescription{
		EntityCountry: {
			FieldCode: field("Code"),
			FieldName: field("Name"),
		},
		EntityPostalCode: {
			FieldCode:    field("Code"),
			FieldCountry: field("Country"),
		},
		EntityAddress: {
			FieldPostalCode: field("Postal code"),
			FieldStreet:     field("Street"),
			FieldNumber:     field("Number"),
			FieldBuilding:   field("Building"),
			FieldOrigin:     field("Origin"),
		},
		EntityOrganization: {
			FieldName:    field("Name"),
			FieldEmail:   field("Email"),
			FieldAddress: field("Address"),
		},
		EntityIndividual: {
			FieldFirstName:   field("First name"),
			FieldLastName:    field("Last name"),
			FieldDateOfBirth: field("Date of birth"),
			FieldEmail:       field("Email"),
			FieldMobilePhone: field("Mobile phone"),
			FieldNationalID:  field("National id"),
			FieldAddress:     field("Address"),
			FieldPostalCode:  field("Postal code"),
		},
		EntityPolicyFolder: {
			FieldName:                    field("Name"),
			FieldPolicyNumber:            field("Policy number"),
			FieldBroker:                  field("Broker"),
			FieldCancellationResponsible: field("Cancellation responsible"),
		},
		EntityPolicyVersion: {
			FieldName:         field("Name"),
			FieldFolder:       field("Policy folder"),
			FieldTransactionType: {Exists: true, Label: "Transaction type", Options: transactionTypeOptions},
			FieldTransactionDate: field("Transaction date"),
			FieldPolicyNumber:    field("Policy number"),
			FieldRiskIdentifier:  field("Risk identifier"),
			FieldBroker:          field("Broker"),
			FieldProduct:         field("Product"),
			FieldImportJob:       field("Import job"),
			FieldPolicyHolder:    field("Policy holder"),
			"premium":            field("Premium"),
			"inceptiondate":      field("Inception date"),
			"expirydate":         field("Expiry date"),
		},
		EntityInsuredRisk: {
			FieldPolicyVersion: field("Policy version"),
			FieldRiskEntity:    field("Risk entity"),
			FieldAddress:       field("Address"),
			FieldPostalCode:    field("Postal code"),
			FieldCountry:       field("Country"),
			FieldCover:         field("Cover"),
		},
		EntityRiskEntity: {
			FieldName:       field("Name"),
			FieldIdentifier: field("Identifier"),
			FieldSubClass:   field("Sub class"),
			FieldAddress:    field("Address"),
			"make":          field("Make"),
			"model":         field("Model"),
			"year":          field("Year"),
		},
		EntityRole: {
			FieldPolicyVersion: field("Policy version"),
			FieldRoleType:      field("Role type"),
			FieldParty:         field("Party"),
			FieldRoleNumber:    field("Role number"),
		},
		EntityRoleType: {
			FieldName: field("Name"),
		},
		EntityClaim: {
			FieldName:   field("Name"),
			FieldFolder: field("Policy folder"),
			FieldOrder:  field("Order"),
			FieldDate:   field("Claim date"),
			FieldAmount: field("Amount"),
		},
		EntityPayment: {
			FieldName:   field("Name"),
			FieldClaim:  field("Claim"),
			FieldAmount: field("Amount"),
			FieldDate:   field("Date"),
		},
		EntityTransaction: {
			FieldName:   field("Name"),
			FieldClaim:  field("Claim"),
			FieldAmount: field("Amount"),
			FieldDate:   field("Date"),
		},
		EntityRecovery: {
			FieldName:   field("Name"),
			FieldClaim:  field("Claim"),
			FieldAmount: field("Amount"),
			FieldDate:   field("Date"),
		},
		EntityCommission: {
			FieldName:   field("Name"),
			FieldFolder: field("Policy folder"),
			FieldAmount: field("Amount"),
		},
		EntityBroker: {
			FieldName: field("Name"),
		},
		EntityProduct: {
			FieldName: field("Name"),
		},
		EntityImportJob: {
			FieldName: field("Name"),
			FieldDate: field("Date"),
		},
	})
}
