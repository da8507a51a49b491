package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatMessage represents a message in a repair request conversation
type ChatMessage struct {
	ID              string        `gorm:"primaryKey;size:36" json:"id"`
	RepairRequestID string        `gorm:"not null;index;size:36" json:"repair_request_id"` // foreign key to repair_requests table
	RepairRequest   RepairRequest `gorm:"foreignKey:RepairRequestID" json:"-"`             // don't include full request in JSON
	SenderID        string        `gorm:"not null;index;size:36" json:"sender_id"`         // foreign key to profiles table
	Sender          Profile       `gorm:"foreignKey:SenderID" json:"sender"`
	Message         string        `gorm:"type:text;not null" json:"message"`
	AttachmentURL   *string       `json:"attachment_url"`
	CreatedAt       time.Time     `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the ChatMessage model
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// BeforeCreate assigns the primary key
func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
