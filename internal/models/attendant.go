package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Permission levels for attendants
const (
	PermissionUser  = "user"
	PermissionAdmin = "admin"
)

// WorkInterval is a closed wall-clock interval in HH:MM, inclusive bounds.
type WorkInterval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WorkingHours maps weekday index (0=Monday .. 6=Sunday) to the intervals the
// attendant is on shift. Intervals may be unsorted and may overlap.
type WorkingHours map[int][]WorkInterval

func (wh WorkingHours) Value() (driver.Value, error) {
	if wh == nil {
		return nil, nil
	}
	return json.Marshal(wh)
}

func (wh *WorkingHours) Scan(value interface{}) error {
	if value == nil {
		*wh = nil
		return nil
	}
	data, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			data = []byte(s)
		} else {
			return fmt.Errorf("cannot scan %T into WorkingHours", value)
		}
	}
	return json.Unmarshal(data, wh)
}

// StringList is a JSON-encoded list column (sectors, client bindings).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	data, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			data = []byte(s)
		} else {
			return fmt.Errorf("cannot scan %T into StringList", value)
		}
	}
	return json.Unmarshal(data, l)
}

// Contains reports whether the list holds the exact value.
func (l StringList) Contains(value string) bool {
	for _, v := range l {
		if v == value {
			return true
		}
	}
	return false
}

// Attendant is a human operator that can be assigned conversations.
type Attendant struct {
	gorm.Model
	AttendantID    string       `gorm:"uniqueIndex;not null" json:"attendant_id"`
	Name           string       `json:"name"`
	Login          string       `gorm:"uniqueIndex;not null" json:"login"`
	Password       string       `json:"-"` // bcrypt hash, never exposed
	Permission     string       `gorm:"default:'user'" json:"permission"`
	Sectors        StringList   `gorm:"type:jsonb" json:"sectors"`
	Clients        StringList   `gorm:"type:jsonb" json:"clients"`
	WorkingHours   WorkingHours `gorm:"type:jsonb" json:"working_hours"`
	WelcomeMessage string       `json:"welcome_message,omitempty"`
}

func (a *Attendant) BeforeCreate(tx *gorm.DB) error {
	if a.AttendantID == "" {
		a.AttendantID = "ATD-" + uuid.NewString()
	}
	if a.Permission == "" {
		a.Permission = PermissionUser
	}
	return nil
}

// ServesSector reports whether the attendant belongs to the given sector.
func (a *Attendant) ServesSector(sector string) bool {
	return a.Sectors.Contains(sector)
}

// DisplayName returns the name used in client-facing messages.
func (a *Attendant) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Login
}
