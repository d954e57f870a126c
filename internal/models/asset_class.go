package models

// AssetClass is a broad instrument category such as BOND or EQUITY.
type AssetClass struct {
	Base
	AssetClassID          int64  `gorm:"uniqueIndex;not null" json:"assetClassId"`
	AssetClass            string `gorm:"size:100;not null" json:"assetClass"`
	AssetClassDescription string `gorm:"size:255;not null" json:"assetClassDescription"`
}

// TableName overrides the table name used by AssetClass to `asset_classes`
func (AssetClass) TableName() string {
	return TableAssetClasses
}
