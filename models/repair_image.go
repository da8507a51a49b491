package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RepairImage is a photo of the device attached to a repair request
type RepairImage struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	RepairRequestID string    `gorm:"not null;index;size:36" json:"repair_request_id"`
	UploadedBy      string    `gorm:"not null;size:36" json:"uploaded_by"`
	StorageKey      string    `gorm:"not null" json:"storage_key"`  // S3 key or local file name
	ImageURL        string    `gorm:"-" json:"image_url,omitempty"` // computed field, presigned or local URL
	Description     *string   `json:"description"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName specifies the table name for the RepairImage model
func (RepairImage) TableName() string {
	return "repair_images"
}

// BeforeCreate assigns the primary key
func (i *RepairImage) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
