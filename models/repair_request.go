package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RepairRequest is a customer's device repair tracked from submission to completion
type RepairRequest struct {
	ID                 string         `gorm:"primaryKey;size:36" json:"id"`
	TrackingCode       string         `gorm:"uniqueIndex;size:16;not null" json:"tracking_code"`
	CustomerID         string         `gorm:"not null;index;size:36" json:"customer_id"` // foreign key to profiles table
	Customer           Profile        `gorm:"foreignKey:CustomerID" json:"customer"`
	TechnicianID       *string        `gorm:"index;size:36" json:"technician_id"` // nullable until an admin assigns one
	Technician         *Profile       `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
	DeviceTypeID       string         `gorm:"not null;index;size:36" json:"device_type_id"`
	DeviceType         DeviceType     `gorm:"foreignKey:DeviceTypeID" json:"device_type"`
	DeviceBrand        string         `gorm:"not null" json:"device_brand"`
	DeviceModel        *string        `json:"device_model"`
	ProblemDescription string         `gorm:"type:text;not null" json:"problem_description"`
	Priority           Priority       `gorm:"not null;default:'medium'" json:"priority"`
	Status             RepairStatus   `gorm:"not null;default:'submitted';index" json:"status"`
	EstimatedCost      *float64       `json:"estimated_cost"` // set when the technician sends an estimate
	FinalCost          *float64       `json:"final_cost"`     // set when the repair is ready for pickup
	TechnicianNotes    *string        `gorm:"type:text" json:"technician_notes"`
	PickupAddress      *string        `json:"pickup_address"`
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the RepairRequest model
func (RepairRequest) TableName() string {
	return "repair_requests"
}

// BeforeCreate assigns the primary key and tracking code
func (r *RepairRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.TrackingCode == "" {
		r.TrackingCode = NewTrackingCode()
	}
	if r.Status == "" {
		r.Status = StatusSubmitted
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	return nil
}

// NewTrackingCode returns a short code customers can type in to look up a request
func NewTrackingCode() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "RR-" + strings.ToUpper(hex[:8])
}

// IsAssignedTo reports whether profileID is the request's technician
func (r *RepairRequest) IsAssignedTo(profileID string) bool {
	return r.TechnicianID != nil && *r.TechnicianID == profileID
}

// Revenue returns the final cost, falling back to the estimate.
// The second result is false when neither is set.
func (r *RepairRequest) Revenue() (float64, bool) {
	if r.FinalCost != nil {
		return *r.FinalCost, true
	}
	if r.EstimatedCost != nil {
		return *r.EstimatedCost, true
	}
	return 0, false
}
