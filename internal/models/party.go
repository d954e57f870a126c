package models

// PartyType is the role a party plays.
type PartyType string

const (
	PartyTypeIssuer       PartyType = "Issuer"
	PartyTypeBroker       PartyType = "Broker"
	PartyTypeCustodian    PartyType = "Custodian"
	PartyTypeCounterparty PartyType = "Counterparty"
	PartyTypeAgent        PartyType = "Agent"
)

// Party is a legal entity: issuer, broker, custodian, counterparty or agent.
type Party struct {
	Base
	PartyID   int64     `gorm:"uniqueIndex;not null" json:"partyId"`
	PartyCode string    `gorm:"size:50;not null" json:"partyCode"`
	PartyName string    `gorm:"size:255;not null" json:"partyName"`
	PartyType PartyType `gorm:"size:20;not null" json:"partyType"`
	Country   string    `gorm:"size:2" json:"country"`
	LEI       string    `gorm:"column:lei;size:20" json:"lei"`
}

// TableName overrides the table name used by Party to `parties`
func (Party) TableName() string {
	return TableParties
}
