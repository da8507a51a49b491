package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is a customer's rating of the technician who completed their repair
type Review struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	RepairRequestID string    `gorm:"uniqueIndex;not null;size:36" json:"repair_request_id"` // one review per request
	CustomerID      string    `gorm:"not null;index;size:36" json:"customer_id"`
	Customer        Profile   `gorm:"foreignKey:CustomerID" json:"customer"`
	TechnicianID    string    `gorm:"not null;index;size:36" json:"technician_id"`
	Rating          int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	Comment         *string   `gorm:"type:text" json:"comment"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName specifies the table name for the Review model
func (Review) TableName() string {
	return "reviews"
}

// BeforeCreate assigns the primary key
func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
