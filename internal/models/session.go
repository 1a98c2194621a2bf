package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Session status values
const (
	SessionWaitingMenu = "waiting_menu"
	SessionActive      = "active"
	SessionClosed      = "closed"
)

// QueuePrefix marks attendant ids that are queue buckets with no individual
// owner (e.g. QUEUE_FIN). They must never feed the round-robin cursor.
const QueuePrefix = "QUEUE_"

// ChatSession is the current conversation state for one phone number.
// The storage layer keeps exactly one row per phone; re-entry after a
// closed session resets the row via upsert.
type ChatSession struct {
	gorm.Model
	PhoneNumber             string     `gorm:"uniqueIndex;not null" json:"phone_number"`
	Status                  string     `gorm:"default:'waiting_menu'" json:"status"`
	AttendantID             string     `gorm:"index" json:"attendant_id,omitempty"`
	Category                string     `json:"category,omitempty"`
	LastInteractionAt       time.Time  `json:"last_interaction_at"`
	LastClientInteractionAt *time.Time `json:"last_client_interaction_at,omitempty"`
}

// IsQueue reports whether the session is parked on a queue bucket
// instead of an individual attendant.
func (s *ChatSession) IsQueue() bool {
	return strings.HasPrefix(s.AttendantID, QueuePrefix)
}

// IsOpen reports whether the session still accepts inbound routing.
func (s *ChatSession) IsOpen() bool {
	return s.Status == SessionWaitingMenu || s.Status == SessionActive
}

// Clone returns an independent copy. Stores and caches hand out clones so
// callers mutating a session never alias shared state.
func (s *ChatSession) Clone() *ChatSession {
	clone := *s
	if s.LastClientInteractionAt != nil {
		ts := *s.LastClientInteractionAt
		clone.LastClientInteractionAt = &ts
	}
	return &clone
}

// SectorCursor persists the round-robin position per sector: the id of the
// attendant who received the last assignment for that sector.
type SectorCursor struct {
	Sector      string    `gorm:"primaryKey" json:"sector"`
	AttendantID string    `json:"attendant_id"`
	UpdatedAt   time.Time `json:"updated_at"`
}
