package services

import (
	"time"

	"refdata/internal/models"
	"refdata/internal/schema"
)

// Stage is a state of the bond builder. A create walks every section stage in
// order and reaches StageCommitted only when the last one succeeds.
type Stage int

const (
	StageGeneral Stage = iota
	StageMarketConvention
	StageReferenceRate
	StageAlternativeID
	StagePutCall
	StageClientFields
	StageComments
	StageCommitted
	StageAborted
)

var stageNames = map[Stage]string{
	StageGeneral:          "GeneralPending",
	StageMarketConvention: "MarketConventionPending",
	StageReferenceRate:    "ReferenceRatePending",
	StageAlternativeID:    "AlternativeIdPending",
	StagePutCall:          "PutCallPending",
	StageClientFields:     "ClientFieldsPending",
	StageComments:         "CommentsPending",
	StageCommitted:        "Committed",
	StageAborted:          "Aborted",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Section slugs, as used by the per-section update routes.
const (
	SectionGeneral          = "general"
	SectionMarketConvention = "market-conversion"
	SectionReferenceRate    = "reference-rate"
	SectionAlternativeID    = "alternative-security-id"
	SectionPutCalls         = "put-calls"
	SectionClientFields     = "client-specific-fields"
	SectionComments         = "comments-and-attachments"
)

type section struct {
	stage  Stage
	slug   string
	schema *schema.Schema
}

const (
	frequencyRule = "oneof=Annual SemiAnnual Quarterly Monthly AtMaturity"
	dayCountRule  = "oneof=ACT/360 ACT/365 ACT/ACT 30/360 30E/360"
)

var putCallSchema = func() *schema.Schema {
	s := schema.New("bondSecurity.putCalls",
		schema.Field{Name: "type", Kind: schema.KindString, Required: true, Rules: "oneof=Put Call"},
		schema.Field{Name: "startDate", Kind: schema.KindDate, Required: true},
		schema.Field{Name: "endDate", Kind: schema.KindDate, Required: true},
		schema.Field{Name: "strikePrice", Kind: schema.KindDecimal, Required: true, Positive: true},
		schema.Field{Name: "dayCount", Kind: schema.KindString, Rules: dayCountRule},
	)
	s.Check = func(v schema.Values) (string, string) {
		start, _ := v["startDate"].(time.Time)
		end, _ := v["endDate"].(time.Time)
		if end.Before(start) {
			return "endDate", "must not be before startDate"
		}
		return "", ""
	}
	return s
}()

var clientFieldSchema = schema.New("bondSecurity.clientSpecificFields",
	schema.Field{Name: "key", Kind: schema.KindString, Required: true, Rules: "max=100"},
	schema.Field{Name: "value", Kind: schema.KindString, Rules: "max=500"},
)

var bondSections = []section{
	{
		stage: StageGeneral,
		slug:  SectionGeneral,
		schema: schema.New("bondSecurity",
			schema.Field{Name: "securityId", Kind: schema.KindString, Required: true, Rules: "max=50"},
			schema.Field{Name: "userDefinedSecurityId", Kind: schema.KindString, Rules: "max=50"},
			schema.Field{Name: "name", Kind: schema.KindString, Required: true, Rules: "max=255"},
			schema.Field{Name: "securityCode", Kind: schema.KindString, Required: true, Rules: "max=50"},
			schema.Field{Name: "assetClass", Kind: schema.KindRef, Required: true, Ref: models.TableAssetClasses},
			schema.Field{Name: "issuer", Kind: schema.KindRef, Ref: models.TableParties},
			schema.Field{Name: "currency", Kind: schema.KindString, Required: true, Upper: true, Rules: "currency"},
			schema.Field{Name: "issueDate", Kind: schema.KindDate, Required: true},
			schema.Field{Name: "maturityDate", Kind: schema.KindDate, Required: true},
			schema.Field{Name: "couponType", Kind: schema.KindString, Required: true, Rules: "oneof=Fixed Floating Zero"},
			schema.Field{Name: "couponRate", Kind: schema.KindDecimal},
			schema.Field{Name: "paymentFrequency", Kind: schema.KindString, Required: true, Rules: frequencyRule},
			schema.Field{Name: "paymentHolidayCalender", Kind: schema.KindRef, Required: true, Ref: models.TableCalendars},
			schema.Field{Name: "exchange", Kind: schema.KindRef, Ref: models.TableExchanges},
			schema.Field{Name: "quoted", Kind: schema.KindRef, Ref: models.TableQuotes},
			schema.Field{Name: "faceValue", Kind: schema.KindDecimal, Positive: true},
			schema.Field{Name: "issuePrice", Kind: schema.KindDecimal, Positive: true},
			schema.Field{Name: "isActive", Kind: schema.KindBool},
		),
	},
	{
		stage: StageMarketConvention,
		slug:  SectionMarketConvention,
		schema: schema.New("bondSecurity",
			schema.Field{Name: "dayCountConvention", Kind: schema.KindString, Required: true, Rules: dayCountRule},
			schema.Field{Name: "businessDayConvention", Kind: schema.KindString, Rules: "oneof=Following ModifiedFollowing Preceding Unadjusted"},
			schema.Field{Name: "settlementDays", Kind: schema.KindInt, Rules: "min=0,max=30"},
			schema.Field{Name: "accrualStartDate", Kind: schema.KindDate},
			schema.Field{Name: "firstCouponDate", Kind: schema.KindDate},
			schema.Field{Name: "lastCouponDate", Kind: schema.KindDate},
			schema.Field{Name: "exCouponDays", Kind: schema.KindInt, Rules: "min=0,max=30"},
			schema.Field{Name: "endOfMonth", Kind: schema.KindBool},
			schema.Field{Name: "quoteConvention", Kind: schema.KindString, Rules: "oneof=Clean Dirty Yield"},
		),
	},
	{
		stage: StageReferenceRate,
		slug:  SectionReferenceRate,
		schema: schema.New("bondSecurity",
			schema.Field{Name: "referenceRate", Kind: schema.KindRef, Ref: models.TableReferenceRates},
			schema.Field{Name: "interestType", Kind: schema.KindRef, Ref: models.TableInterestTypes},
			schema.Field{Name: "spread", Kind: schema.KindDecimal},
			schema.Field{Name: "resetFrequency", Kind: schema.KindString, Rules: frequencyRule},
			schema.Field{Name: "fixingDays", Kind: schema.KindInt, Rules: "min=0,max=10"},
			schema.Field{Name: "rateCap", Kind: schema.KindDecimal},
			schema.Field{Name: "rateFloor", Kind: schema.KindDecimal},
		),
	},
	{
		stage: StageAlternativeID,
		slug:  SectionAlternativeID,
		schema: schema.New("bondSecurity",
			schema.Field{Name: "isin", Kind: schema.KindString, Upper: true, Rules: "isin_code"},
			schema.Field{Name: "cusip", Kind: schema.KindString, Upper: true, Rules: "len=9,alphanum"},
			schema.Field{Name: "sedol", Kind: schema.KindString, Upper: true, Rules: "len=7,alphanum"},
			schema.Field{Name: "figi", Kind: schema.KindString, Upper: true, Rules: "len=12,alphanum"},
			schema.Field{Name: "ticker", Kind: schema.KindString, Upper: true, Rules: "max=20"},
			schema.Field{Name: "bloombergId", Kind: schema.KindString, Rules: "max=50"},
			schema.Field{Name: "reutersRic", Kind: schema.KindString, Rules: "max=50"},
		),
	},
	{
		stage: StagePutCall,
		slug:  SectionPutCalls,
		schema: schema.New("bondSecurity",
			schema.Field{Name: "putCalls", Kind: schema.KindObjects, Elem: putCallSchema},
		),
	},
	{
		stage: StageClientFields,
		slug:  SectionClientFields,
		schema: schema.New("bondSecurity",
			schema.Field{Name: "clientSpecificFields", Kind: schema.KindObjects, Elem: clientFieldSchema, UniqueBy: "key"},
		),
	},
	{
		stage: StageComments,
		slug:  SectionComments,
		schema: schema.New("bondSecurity",
			schema.Field{Name: "comments", Kind: schema.KindString, Rules: "max=2000"},
			schema.Field{Name: "attachments", Kind: schema.KindStrings, Rules: "max=500"},
		),
	},
}

// BondSections returns the section slugs in stage order.
func BondSections() []string {
	slugs := make([]string, 0, len(bondSections))
	for _, s := range bondSections {
		slugs = append(slugs, s.slug)
	}
	return slugs
}

func sectionBySlug(slug string) (section, bool) {
	for _, s := range bondSections {
		if s.slug == slug {
			return s, true
		}
	}
	return section{}, false
}

func bondSchema() *schema.Schema {
	parts := make([]*schema.Schema, 0, len(bondSections))
	for _, s := range bondSections {
		parts = append(parts, s.schema)
	}
	return schema.Merge("bondSecurity", parts...)
}

// BondSecurityEntity describes bond securities.
var BondSecurityEntity = &Entity{
	Name:          "bondSecurity",
	Slug:          "bond-security",
	Permission:    "BOND_SECURITY",
	Table:         models.TableBondSecurities,
	Schema:        bondSchema(),
	SequenceField: "bondId",
	NaturalKey: []string{
		"securityId", "userDefinedSecurityId", "name", "securityCode",
		"currency", "paymentHolidayCalender", "exchange", "quoted",
	},
	DisplayKey:   []string{"securityId", "name"},
	SearchFields: []string{"securityId", "name", "isin"},
	PerPage:      20,
	Preloads: []string{
		"AssetClass", "Issuer", "PaymentHolidayCalender", "Exchange",
		"Quoted", "ReferenceRate", "InterestType",
	},
}
