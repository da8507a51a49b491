package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile represents any actor in the system (customer, technician or admin)
type Profile struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;size:255;not null" json:"auth0_id"` // identity provider subject ('sub' claim)
	FullName  string         `gorm:"not null" json:"full_name"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone     *string        `json:"phone"`
	Address   *string        `json:"address"`
	Role      Role           `gorm:"not null;default:'customer'" json:"role"`
	AvatarURL *string        `json:"avatar_url"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Profile model
func (Profile) TableName() string {
	return "profiles"
}

// BeforeCreate assigns the primary key
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
