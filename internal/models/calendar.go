package models

import "gorm.io/datatypes"

// Calendar is a holiday calendar used for payment and settlement date rolling.
type Calendar struct {
	Base
	CalendarID   int64                       `gorm:"uniqueIndex;not null" json:"calendarId"`
	CalendarName string                      `gorm:"size:100;not null" json:"calendarName"`
	Country      string                      `gorm:"size:2;not null" json:"country"`
	Description  string                      `gorm:"size:255" json:"description"`
	WeekendDays  datatypes.JSONSlice[string] `json:"weekendDays"`
}

// TableName overrides the table name used by Calendar to `calendars`
func (Calendar) TableName() string {
	return TableCalendars
}
