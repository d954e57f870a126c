package services

import (
	"gorm.io/gorm"

	"refdata/internal/models"
	"refdata/internal/sequence"
)

// Catalog holds every service of the API, sharing one sequencer and one
// audit writer.
type Catalog struct {
	AssetClasses   ConfigServicer[models.AssetClass]
	Calendars      ConfigServicer[models.Calendar]
	Exchanges      ConfigServicer[models.Exchange]
	InterestTypes  ConfigServicer[models.InterestType]
	Quotes         ConfigServicer[models.Quote]
	Parties        ConfigServicer[models.Party]
	ReferenceRates ConfigServicer[models.ReferenceRate]
	Bonds          BondServicer
	Imports        ImportServicer
	Processes      ProcessServicer
}

// NewCatalog wires all services against db.
func NewCatalog(db *gorm.DB) *Catalog {
	seq := sequence.New()
	audit := NewAuditService(db)

	assetClasses := NewResource[models.AssetClass](db, AssetClassEntity, seq, audit)
	calendars := NewResource[models.Calendar](db, CalendarEntity, seq, audit)
	exchanges := NewResource[models.Exchange](db, ExchangeEntity, seq, audit)
	interestTypes := NewResource[models.InterestType](db, InterestTypeEntity, seq, audit)
	quotes := NewResource[models.Quote](db, QuoteEntity, seq, audit)
	parties := NewResource[models.Party](db, PartyEntity, seq, audit)
	referenceRates := NewResource[models.ReferenceRate](db, ReferenceRateEntity, seq, audit)
	bonds := NewBondService(db, seq, audit)

	creators := map[string]RowCreator{
		AssetClassEntity.Slug:    assetClasses,
		CalendarEntity.Slug:      calendars,
		ExchangeEntity.Slug:      exchanges,
		InterestTypeEntity.Slug:  interestTypes,
		QuoteEntity.Slug:         quotes,
		PartyEntity.Slug:         parties,
		ReferenceRateEntity.Slug: referenceRates,
		BondSecurityEntity.Slug:  bonds,
	}

	return &Catalog{
		AssetClasses:   assetClasses,
		Calendars:      calendars,
		Exchanges:      exchanges,
		InterestTypes:  interestTypes,
		Quotes:         quotes,
		Parties:        parties,
		ReferenceRates: referenceRates,
		Bonds:          bonds,
		Imports:        NewImportService(db, seq, creators),
		Processes:      NewProcessService(db),
	}
}
