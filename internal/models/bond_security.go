package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PutCall is one option-exercise window of a bond.
type PutCall struct {
	Type        string          `json:"type"`
	StartDate   time.Time       `json:"startDate"`
	EndDate     time.Time       `json:"endDate"`
	StrikePrice decimal.Decimal `json:"strikePrice"`
	DayCount    string          `json:"dayCount,omitempty"`
}

// ClientField is a client-specific key/value extension of a bond.
type ClientField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// BondSecurity is the bond master record. Its columns are grouped into the
// sections that the staged builder validates and persists one at a time.
type BondSecurity struct {
	Base
	BondID int64 `gorm:"uniqueIndex;not null" json:"bondId"`

	// General
	SecurityID                string              `gorm:"size:50;not null" json:"securityId"`
	UserDefinedSecurityID     string              `gorm:"size:50" json:"userDefinedSecurityId"`
	Name                      string              `gorm:"size:255;not null" json:"name"`
	SecurityCode              string              `gorm:"size:50;not null" json:"securityCode"`
	AssetClassRef             string              `gorm:"column:asset_class;size:36" json:"assetClass"`
	IssuerRef                 string              `gorm:"column:issuer;size:36" json:"issuer"`
	Currency                  string              `gorm:"size:3;not null" json:"currency"`
	IssueDate                 *time.Time          `json:"issueDate"`
	MaturityDate              *time.Time          `json:"maturityDate"`
	CouponType                string              `gorm:"size:20" json:"couponType"`
	CouponRate                decimal.NullDecimal `gorm:"type:numeric(20,8)" json:"couponRate"`
	PaymentFrequency          string              `gorm:"size:20" json:"paymentFrequency"`
	PaymentHolidayCalenderRef string              `gorm:"column:payment_holiday_calender;size:36" json:"paymentHolidayCalender"`
	ExchangeRef               string              `gorm:"column:exchange;size:36" json:"exchange"`
	QuotedRef                 string              `gorm:"column:quoted;size:36" json:"quoted"`
	FaceValue                 decimal.NullDecimal `gorm:"type:numeric(20,8)" json:"faceValue"`
	IssuePrice                decimal.NullDecimal `gorm:"type:numeric(20,8)" json:"issuePrice"`
	IsActive                  bool                `gorm:"not null;default:false" json:"isActive"`

	// Market conventions
	DayCountConvention    string     `gorm:"size:10" json:"dayCountConvention"`
	BusinessDayConvention string     `gorm:"size:20" json:"businessDayConvention"`
	SettlementDays        int        `gorm:"not null;default:0" json:"settlementDays"`
	AccrualStartDate      *time.Time `json:"accrualStartDate"`
	FirstCouponDate       *time.Time `json:"firstCouponDate"`
	LastCouponDate        *time.Time `json:"lastCouponDate"`
	ExCouponDays          int        `gorm:"not null;default:0" json:"exCouponDays"`
	EndOfMonth            bool       `gorm:"not null;default:false" json:"endOfMonth"`
	QuoteConvention       string     `gorm:"size:10" json:"quoteConvention"`

	// Reference rate
	ReferenceRateRef string              `gorm:"column:reference_rate;size:36" json:"referenceRate"`
	InterestTypeRef  string              `gorm:"column:interest_type;size:36" json:"interestType"`
	Spread           decimal.NullDecimal `gorm:"type:numeric(20,8)" json:"spread"`
	ResetFrequency   string              `gorm:"size:20" json:"resetFrequency"`
	FixingDays       int                 `gorm:"not null;default:0" json:"fixingDays"`
	RateCap          decimal.NullDecimal `gorm:"type:numeric(20,8)" json:"rateCap"`
	RateFloor        decimal.NullDecimal `gorm:"type:numeric(20,8)" json:"rateFloor"`

	// Alternative identifiers
	ISIN        string `gorm:"column:isin;size:12" json:"isin"`
	CUSIP       string `gorm:"column:cusip;size:9" json:"cusip"`
	SEDOL       string `gorm:"column:sedol;size:7" json:"sedol"`
	FIGI        string `gorm:"column:figi;size:12" json:"figi"`
	Ticker      string `gorm:"size:20" json:"ticker"`
	BloombergID string `gorm:"column:bloomberg_id;size:50" json:"bloombergId"`
	ReutersRIC  string `gorm:"column:reuters_ric;size:50" json:"reutersRic"`

	PutCalls     datatypes.JSONSlice[PutCall]     `gorm:"column:put_calls" json:"putCalls"`
	ClientFields datatypes.JSONSlice[ClientField] `gorm:"column:client_specific_fields" json:"clientSpecificFields"`

	Comments    string                      `gorm:"type:text" json:"comments"`
	Attachments datatypes.JSONSlice[string] `gorm:"column:attachments" json:"attachments"`

	AssetClass             *AssetClass    `gorm:"foreignKey:AssetClassRef" json:"assetClassDetail,omitempty"`
	Issuer                 *Party         `gorm:"foreignKey:IssuerRef" json:"issuerDetail,omitempty"`
	PaymentHolidayCalender *Calendar      `gorm:"foreignKey:PaymentHolidayCalenderRef" json:"paymentHolidayCalenderDetail,omitempty"`
	Exchange               *Exchange      `gorm:"foreignKey:ExchangeRef" json:"exchangeDetail,omitempty"`
	Quoted                 *Quote         `gorm:"foreignKey:QuotedRef" json:"quotedDetail,omitempty"`
	ReferenceRate          *ReferenceRate `gorm:"foreignKey:ReferenceRateRef" json:"referenceRateDetail,omitempty"`
	InterestType           *InterestType  `gorm:"foreignKey:InterestTypeRef" json:"interestTypeDetail,omitempty"`
}

// TableName overrides the table name used by BondSecurity to `bond_securities`
func (BondSecurity) TableName() string {
	return TableBondSecurities
}

// HasAttachment reports whether the exact attachment value is stored.
func (b *BondSecurity) HasAttachment(value string) bool {
	for _, a := range b.Attachments {
		if a == value {
			return true
		}
	}
	return false
}
