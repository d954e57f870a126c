package models

// InterestType classifies how interest accrues within an asset class.
type InterestType struct {
	Base
	InterestTypeID int64  `gorm:"uniqueIndex;not null" json:"interestTypeId"`
	InterestType   string `gorm:"size:100;not null" json:"interestType"`
	Description    string `gorm:"size:255" json:"description"`
	AssetClassRef  string `gorm:"column:asset_class;size:36" json:"assetClass"`

	AssetClass *AssetClass `gorm:"foreignKey:AssetClassRef" json:"assetClassDetail,omitempty"`
}

// TableName overrides the table name used by InterestType to `interest_types`
func (InterestType) TableName() string {
	return TableInterestTypes
}
