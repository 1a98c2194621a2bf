package models

import (
	"time"

	"gorm.io/gorm"
)

// Contact is the lightweight per-phone registry entry, independent of the
// session lifecycle. Updated on every inbound message.
type Contact struct {
	gorm.Model
	Phone         string     `gorm:"uniqueIndex;not null" json:"phone"`
	Name          string     `json:"name,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}
