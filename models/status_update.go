package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StatusUpdate records one lifecycle step of a repair request
type StatusUpdate struct {
	ID              string         `gorm:"primaryKey;size:36" json:"id"`
	RepairRequestID string         `gorm:"not null;index;size:36" json:"repair_request_id"`
	FromStatus      *RepairStatus  `json:"from_status"` // nil for the creation entry
	Status          RepairStatus   `gorm:"not null" json:"status"`
	UpdatedBy       string         `gorm:"not null;size:36" json:"updated_by"`
	Message         *string        `gorm:"type:text" json:"message"`
	Details         datatypes.JSON `json:"details"` // fields written by the transition (costs, technician)
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the StatusUpdate model
func (StatusUpdate) TableName() string {
	return "status_updates"
}

// BeforeCreate assigns the primary key
func (s *StatusUpdate) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
