package services

import (
	"refdata/internal/models"
	"refdata/internal/schema"
)

const countryRule = "iso3166_1_alpha2"

// AssetClassEntity describes asset classes.
var AssetClassEntity = &Entity{
	Name:       "assetClass",
	Slug:       "asset-class",
	Permission: "ASSET_CLASS",
	Table:      models.TableAssetClasses,
	Schema: schema.New("assetClass",
		schema.Field{Name: "assetClass", Kind: schema.KindString, Required: true, Rules: "max=100"},
		schema.Field{Name: "assetClassDescription", Kind: schema.KindString, Required: true, Rules: "max=255"},
	),
	SequenceField: "assetClassId",
	NaturalKey:    []string{"assetClass", "assetClassDescription"},
	DisplayKey:    []string{"assetClass"},
	SearchFields:  []string{"assetClass", "assetClassDescription"},
	PerPage:       5,
}

// CalendarEntity describes holiday calendars.
var CalendarEntity = &Entity{
	Name:       "calendar",
	Slug:       "calendar",
	Permission: "CALENDAR",
	Table:      models.TableCalendars,
	Schema: schema.New("calendar",
		schema.Field{Name: "calendarName", Kind: schema.KindString, Required: true, Rules: "max=100"},
		schema.Field{Name: "country", Kind: schema.KindString, Required: true, Upper: true, Rules: countryRule},
		schema.Field{Name: "description", Kind: schema.KindString, Rules: "max=255"},
		schema.Field{Name: "weekendDays", Kind: schema.KindStrings, Rules: "oneof=Mon Tue Wed Thu Fri Sat Sun"},
	),
	SequenceField: "calendarId",
	NaturalKey:    []string{"calendarName", "country"},
	DisplayKey:    []string{"calendarName"},
	SearchFields:  []string{"calendarName", "country"},
	PerPage:       20,
}

// ExchangeEntity describes trading venues.
var ExchangeEntity = &Entity{
	Name:       "exchange",
	Slug:       "exchange",
	Permission: "EXCHANGE",
	Table:      models.TableExchanges,
	Schema: schema.New("exchange",
		schema.Field{Name: "exchangeCode", Kind: schema.KindString, Required: true, Upper: true, Rules: "max=20"},
		schema.Field{Name: "name", Kind: schema.KindString, Required: true, Rules: "max=255"},
		schema.Field{Name: "country", Kind: schema.KindString, Required: true, Upper: true, Rules: countryRule},
		schema.Field{Name: "micCode", Kind: schema.KindString, Upper: true, Rules: "len=4,alphanum"},
		schema.Field{Name: "calendar", Kind: schema.KindRef, Required: true, Ref: models.TableCalendars},
	),
	SequenceField: "exchangeId",
	NaturalKey:    []string{"exchangeCode", "name", "country"},
	DisplayKey:    []string{"exchangeCode"},
	SearchFields:  []string{"exchangeCode", "name"},
	PerPage:       20,
	Preloads:      []string{"Calendar"},
}

// InterestTypeEntity describes interest types.
var InterestTypeEntity = &Entity{
	Name:       "interestType",
	Slug:       "interest-type",
	Permission: "INTEREST_TYPE",
	Table:      models.TableInterestTypes,
	Schema: schema.New("interestType",
		schema.Field{Name: "interestType", Kind: schema.KindString, Required: true, Rules: "max=100"},
		schema.Field{Name: "description", Kind: schema.KindString, Rules: "max=255"},
		schema.Field{Name: "assetClass", Kind: schema.KindRef, Required: true, Ref: models.TableAssetClasses},
	),
	SequenceField: "interestTypeId",
	NaturalKey:    []string{"interestType", "assetClass"},
	DisplayKey:    []string{"interestType"},
	SearchFields:  []string{"interestType"},
	PerPage:       20,
	Preloads:      []string{"AssetClass"},
}

// QuoteEntity describes quotation conventions.
var QuoteEntity = &Entity{
	Name:       "quote",
	Slug:       "quote",
	Permission: "QUOTE",
	Table:      models.TableQuotes,
	Schema: schema.New("quote",
		schema.Field{Name: "quoteType", Kind: schema.KindString, Required: true, Rules: "max=50"},
		schema.Field{Name: "quoteName", Kind: schema.KindString, Required: true, Rules: "max=100"},
		schema.Field{Name: "description", Kind: schema.KindString, Rules: "max=255"},
	),
	SequenceField: "quoteId",
	NaturalKey:    []string{"quoteType", "quoteName"},
	DisplayKey:    []string{"quoteName"},
	SearchFields:  []string{"quoteName"},
	PerPage:       20,
}

// PartyEntity describes legal entities.
var PartyEntity = &Entity{
	Name:       "party",
	Slug:       "party",
	Permission: "PARTY",
	Table:      models.TableParties,
	Schema: schema.New("party",
		schema.Field{Name: "partyCode", Kind: schema.KindString, Required: true, Upper: true, Rules: "max=50"},
		schema.Field{Name: "partyName", Kind: schema.KindString, Required: true, Rules: "max=255"},
		schema.Field{Name: "partyType", Kind: schema.KindString, Required: true, Rules: "oneof=Issuer Broker Custodian Counterparty Agent"},
		schema.Field{Name: "country", Kind: schema.KindString, Upper: true, Rules: countryRule},
		schema.Field{Name: "lei", Kind: schema.KindString, Upper: true, Rules: "len=20,alphanum"},
	),
	SequenceField: "partyId",
	NaturalKey:    []string{"partyCode"},
	DisplayKey:    []string{"partyCode"},
	SearchFields:  []string{"partyCode", "partyName"},
	PerPage:       20,
}

// ReferenceRateEntity describes benchmark rates.
var ReferenceRateEntity = &Entity{
	Name:       "referenceRate",
	Slug:       "reference-rate",
	Permission: "REFERENCE_RATE",
	Table:      models.TableReferenceRates,
	Schema: schema.New("referenceRate",
		schema.Field{Name: "rateCode", Kind: schema.KindString, Required: true, Upper: true, Rules: "max=50"},
		schema.Field{Name: "description", Kind: schema.KindString, Required: true, Rules: "max=255"},
		schema.Field{Name: "currency", Kind: schema.KindString, Required: true, Upper: true, Rules: "currency"},
		schema.Field{Name: "tenor", Kind: schema.KindString, Upper: true, Rules: "max=10"},
		schema.Field{Name: "calendar", Kind: schema.KindRef, Ref: models.TableCalendars},
	),
	SequenceField: "referenceRateId",
	NaturalKey:    []string{"rateCode", "currency"},
	DisplayKey:    []string{"rateCode"},
	SearchFields:  []string{"rateCode"},
	PerPage:       20,
	Preloads:      []string{"Calendar"},
}

// Entities lists every served config entity.
var Entities = []*Entity{
	AssetClassEntity,
	CalendarEntity,
	ExchangeEntity,
	InterestTypeEntity,
	QuoteEntity,
	PartyEntity,
	ReferenceRateEntity,
	BondSecurityEntity,
}

// EntityBySlug returns the entity served under slug.
func EntityBySlug(slug string) (*Entity, bool) {
	for _, e := range Entities {
		if e.Slug == slug {
			return e, true
		}
	}
	return nil, false
}
