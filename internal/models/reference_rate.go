package models

// ReferenceRate is a benchmark rate such as SOFR or EURIBOR 3M.
type ReferenceRate struct {
	Base
	ReferenceRateID int64  `gorm:"uniqueIndex;not null" json:"referenceRateId"`
	RateCode        string `gorm:"size:50;not null" json:"rateCode"`
	Description     string `gorm:"size:255;not null" json:"description"`
	Currency        string `gorm:"size:3;not null" json:"currency"`
	Tenor           string `gorm:"size:10" json:"tenor"`
	CalendarRef     string `gorm:"column:calendar;size:36" json:"calendar"`

	Calendar *Calendar `gorm:"foreignKey:CalendarRef" json:"calendarDetail,omitempty"`
}

// TableName overrides the table name used by ReferenceRate to `reference_rates`
func (ReferenceRate) TableName() string {
	return TableReferenceRates
}
