package models

// Table names. Every config entity table has an audit companion named by AuditTable.
const (
	TableAssetClasses    = "asset_classes"
	TableCalendars       = "calendars"
	TableExchanges       = "exchanges"
	TableInterestTypes   = "interest_types"
	TableQuotes          = "quotes"
	TableParties         = "parties"
	TableReferenceRates  = "reference_rates"
	TableBondSecurities  = "bond_securities"
	TableProcessRequests = "process_requests"
	TableSequences       = "sequences"
)

// All returns every model managed by AutoMigrate.
func All() []any {
	return []any{
		&AssetClass{},
		&Calendar{},
		&Exchange{},
		&InterestType{},
		&Quote{},
		&Party{},
		&ReferenceRate{},
		&BondSecurity{},
		&ProcessRequest{},
		&Sequence{},
	}
}

// AuditedTables lists the tables whose mutations are mirrored into an audit table.
func AuditedTables() []string {
	return []string{
		TableAssetClasses,
		TableCalendars,
		TableExchanges,
		TableInterestTypes,
		TableQuotes,
		TableParties,
		TableReferenceRates,
		TableBondSecurities,
	}
}
