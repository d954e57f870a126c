package models

// Exchange is a trading venue. It references the Calendar it trades on.
type Exchange struct {
	Base
	ExchangeID   int64  `gorm:"uniqueIndex;not null" json:"exchangeId"`
	ExchangeCode string `gorm:"size:20;not null" json:"exchangeCode"`
	Name         string `gorm:"size:255;not null" json:"name"`
	Country      string `gorm:"size:2;not null" json:"country"`
	MICCode      string `gorm:"column:mic_code;size:4" json:"micCode"`
	CalendarRef  string `gorm:"column:calendar;size:36" json:"calendar"`

	Calendar *Calendar `gorm:"foreignKey:CalendarRef" json:"calendarDetail,omitempty"`
}

// TableName overrides the table name used by Exchange to `exchanges`
func (Exchange) TableName() string {
	return TableExchanges
}
