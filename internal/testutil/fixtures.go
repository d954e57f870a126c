package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"refdata/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

func create(t *testing.T, db *gorm.DB, rec any, what string) {
	t.Helper()
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("failed to create test %s: %v", what, err)
	}
}

// CreateTestAssetClass creates a live asset class with a unique name.
func CreateTestAssetClass(t *testing.T, db *gorm.DB) *models.AssetClass {
	t.Helper()
	n := nextID()
	ac := &models.AssetClass{
		AssetClassID:          1000 + n,
		AssetClass:            fmt.Sprintf("CLASS-%d", n),
		AssetClassDescription: "Test asset class",
	}
	create(t, db, ac, "asset class")
	return ac
}

// CreateTestCalendar creates a live calendar.
func CreateTestCalendar(t *testing.T, db *gorm.DB) *models.Calendar {
	t.Helper()
	n := nextID()
	cal := &models.Calendar{
		CalendarID:   1000 + n,
		CalendarName: fmt.Sprintf("Calendar %d", n),
		Country:      "GB",
		WeekendDays:  datatypes.JSONSlice[string]{"Sat", "Sun"},
	}
	create(t, db, cal, "calendar")
	return cal
}

// CreateTestExchange creates a live exchange using the given calendar.
func CreateTestExchange(t *testing.T, db *gorm.DB, calendarID string) *models.Exchange {
	t.Helper()
	n := nextID()
	ex := &models.Exchange{
		ExchangeID:   1000 + n,
		ExchangeCode: fmt.Sprintf("EX%d", n),
		Name:         fmt.Sprintf("Exchange %d", n),
		Country:      "GB",
		MICCode:      "XLON",
		CalendarRef:  calendarID,
	}
	create(t, db, ex, "exchange")
	return ex
}

// CreateTestInterestType creates a live interest type under an asset class.
func CreateTestInterestType(t *testing.T, db *gorm.DB, assetClassID string) *models.InterestType {
	t.Helper()
	n := nextID()
	it := &models.InterestType{
		InterestTypeID: 1000 + n,
		InterestType:   fmt.Sprintf("Interest %d", n),
		AssetClassRef:  assetClassID,
	}
	create(t, db, it, "interest type")
	return it
}

// CreateTestQuote creates a live quote.
func CreateTestQuote(t *testing.T, db *gorm.DB) *models.Quote {
	t.Helper()
	n := nextID()
	q := &models.Quote{
		QuoteID:   1000 + n,
		QuoteType: "Price",
		QuoteName: fmt.Sprintf("Quote %d", n),
	}
	create(t, db, q, "quote")
	return q
}

// CreateTestParty creates a live issuer party.
func CreateTestParty(t *testing.T, db *gorm.DB) *models.Party {
	t.Helper()
	n := nextID()
	p := &models.Party{
		PartyID:   1000 + n,
		PartyCode: fmt.Sprintf("P%d", n),
		PartyName: fmt.Sprintf("Party %d", n),
		PartyType: models.PartyTypeIssuer,
		Country:   "GB",
	}
	create(t, db, p, "party")
	return p
}

// CreateTestReferenceRate creates a live reference rate using the given calendar.
func CreateTestReferenceRate(t *testing.T, db *gorm.DB, calendarID string) *models.ReferenceRate {
	t.Helper()
	n := nextID()
	rr := &models.ReferenceRate{
		ReferenceRateID: 1000 + n,
		RateCode:        fmt.Sprintf("RATE%d", n),
		Description:     "Test reference rate",
		Currency:        "GBP",
		Tenor:           "3M",
		CalendarRef:     calendarID,
	}
	create(t, db, rr, "reference rate")
	return rr
}

// BondRefs holds the live records a bond security points at.
type BondRefs struct {
	AssetClass    *models.AssetClass
	Calendar      *models.Calendar
	Issuer        *models.Party
	Exchange      *models.Exchange
	Quote         *models.Quote
	ReferenceRate *models.ReferenceRate
	InterestType  *models.InterestType
}

// CreateTestBondRefs creates every record a bond security may reference.
func CreateTestBondRefs(t *testing.T, db *gorm.DB) BondRefs {
	t.Helper()
	refs := BondRefs{
		AssetClass: CreateTestAssetClass(t, db),
		Calendar:   CreateTestCalendar(t, db),
		Issuer:     CreateTestParty(t, db),
		Quote:      CreateTestQuote(t, db),
	}
	refs.Exchange = CreateTestExchange(t, db, refs.Calendar.ID)
	refs.ReferenceRate = CreateTestReferenceRate(t, db, refs.Calendar.ID)
	refs.InterestType = CreateTestInterestType(t, db, refs.AssetClass.ID)
	return refs
}

// BondInput returns a complete, valid bond create payload. securityID keeps
// the natural key unique between calls.
func BondInput(refs BondRefs, securityID string) map[string]any {
	return map[string]any{
		"securityId":             securityID,
		"name":                   "Test Bond " + securityID,
		"securityCode":           "TB-" + securityID,
		"assetClass":             refs.AssetClass.ID,
		"issuer":                 refs.Issuer.ID,
		"currency":               "gbp",
		"issueDate":              "2024-01-15",
		"maturityDate":           "2034-01-15",
		"couponType":             "Fixed",
		"couponRate":             "4.25",
		"paymentFrequency":       "SemiAnnual",
		"paymentHolidayCalender": refs.Calendar.ID,
		"exchange":               refs.Exchange.ID,
		"quoted":                 refs.Quote.ID,
		"faceValue":              "100",
		"isActive":               true,
		"dayCountConvention":     "ACT/365",
		"settlementDays":         2,
		"isin":                   "GB00B03MLX29",
		"putCalls": []any{
			map[string]any{"type": "Call", "startDate": "2029-01-15", "endDate": "2029-02-15", "strikePrice": "101.5"},
		},
		"clientSpecificFields": []any{
			map[string]any{"key": "desk", "value": "rates"},
		},
		"comments": "created by test",
	}
}
