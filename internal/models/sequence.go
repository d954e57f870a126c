package models

// Sequence holds the last numeric id handed out for one entity type.
type Sequence struct {
	EntityType string `gorm:"primaryKey;size:64"`
	Counter    int64  `gorm:"not null"`
}

// TableName overrides the table name used by Sequence to `sequences`
func (Sequence) TableName() string {
	return TableSequences
}
