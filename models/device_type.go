package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeviceType is a lookup entry describing what kind of device is being repaired
type DeviceType struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"not null;size:100;uniqueIndex:idx_device_types_category_name" json:"name"`
	Category  string    `gorm:"not null;size:100;uniqueIndex:idx_device_types_category_name" json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the DeviceType model
func (DeviceType) TableName() string {
	return "device_types"
}

// BeforeCreate assigns the primary key
func (d *DeviceType) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
