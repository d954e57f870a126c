package models

import "gorm.io/datatypes"

// ProcessType is the kind of background job a ProcessRequest tracks.
type ProcessType string

const (
	ProcessTypeBulkInsert ProcessType = "BulkInsert"
)

// ProcessStatus is the lifecycle state of a ProcessRequest.
type ProcessStatus string

const (
	ProcessStatusInitialised ProcessStatus = "Initialised"
	ProcessStatusRunning     ProcessStatus = "Running"
	ProcessStatusCompleted   ProcessStatus = "Completed"
	ProcessStatusFailed      ProcessStatus = "Failed"
)

// ProcessRequest tracks one run of the bulk importer. Payload holds the
// per-row report once the run finishes.
type ProcessRequest struct {
	Base
	ProcessID int64          `gorm:"uniqueIndex;not null" json:"processId"`
	Type      ProcessType    `gorm:"size:32;not null" json:"type"`
	Entity    string         `gorm:"size:64;not null" json:"entity"`
	Status    ProcessStatus  `gorm:"size:20;not null" json:"status"`
	FileName  string         `gorm:"size:255" json:"fileName"`
	Total     int            `gorm:"not null;default:0" json:"total"`
	Succeeded int            `gorm:"not null;default:0" json:"succeeded"`
	Failed    int            `gorm:"not null;default:0" json:"failed"`
	Payload   datatypes.JSON `json:"payload"`
	Message   string         `gorm:"size:500" json:"message"`
}

// TableName overrides the table name used by ProcessRequest to `process_requests`
func (ProcessRequest) TableName() string {
	return TableProcessRequests
}
