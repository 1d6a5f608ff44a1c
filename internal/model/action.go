package model

import (
	"time"

	"gorm.io/gorm"
)

type ActionStatus string

const (
	StatusSuccess ActionStatus = "SUCCESS"
	StatusFailed  ActionStatus = "FAILED"
)

// Action is one operator request sent to the daemon. It records what was
// asked and how it ended, never the job's state.
type Action struct {
	gorm.Model
	OperationID string       `gorm:"uniqueIndex;not null" json:"operation_id"`
	Operation   string       `gorm:"index;not null" json:"operation"`
	Target      string       `json:"target"`
	Status      ActionStatus `gorm:"not null" json:"status"`
	ErrMsg      string       `json:"error,omitempty"`
	PerformedAt time.Time    `gorm:"index;not null" json:"performed_at"`
}
