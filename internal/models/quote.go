package models

// Quote describes a price quotation convention.
type Quote struct {
	Base
	QuoteID     int64  `gorm:"uniqueIndex;not null" json:"quoteId"`
	QuoteType   string `gorm:"size:50;not null" json:"quoteType"`
	QuoteName   string `gorm:"size:100;not null" json:"quoteName"`
	Description string `gorm:"size:255" json:"description"`
}

// TableName overrides the table name used by Quote to `quotes`
func (Quote) TableName() string {
	return TableQuotes
}
