package storage

import (
	"errors"
	"sync"
	"time"

	"github.com/atendezap/atende-backend/internal/models"
)

// ErrNotFound is returned when a lookup matches no record. Callers must treat
// it as a definite answer only when it comes from the durable store, never
// from a cache.
var ErrNotFound = errors.New("record not found")

var storeInstance Store

var storeMu sync.RWMutex

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeMu.Lock()
	defer storeMu.Unlock()
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	storeMu.RLock()
	defer storeMu.RUnlock()
	return storeInstance
}

// Store defines the interface for storage operations
type Store interface {
	// Session operations. UpsertSession must be atomic per phone number:
	// concurrent calls for the same phone resolve to a single row.
	UpsertSession(session *models.ChatSession) (*models.ChatSession, error)
	GetSessionByPhone(phone string) (*models.ChatSession, error)
	UpdateSession(session *models.ChatSession) error
	CloseSession(phone string) error
	ListOpenSessions() ([]*models.ChatSession, error)
	ListSessions(limit, offset int) ([]*models.ChatSession, error)
	ListSessionsByAttendant(attendantID string) ([]*models.ChatSession, error)

	// Round-robin rotation state
	GetSectorCursor(sector string) (string, error)
	SetSectorCursor(sector, attendantID string) error
	LastAssignedAttendant(sector string) (string, error)

	// Attendant operations
	CreateAttendant(attendant *models.Attendant) (*models.Attendant, error)
	GetAttendantByID(attendantID string) (*models.Attendant, error)
	GetAttendantByLogin(login string) (*models.Attendant, error)
	GetAttendantByClientAndSector(phone, sector string) (*models.Attendant, error)
	ListAttendantsBySector(sector string) ([]*models.Attendant, error)
	ListAttendants() ([]*models.Attendant, error)
	UpdateAttendant(attendant *models.Attendant) error

	// Contact operations
	UpsertContact(phone, name string, lastMessageAt time.Time) (*models.Contact, error)
	GetContactByPhone(phone string) (*models.Contact, error)
	ListContacts(limit, offset int) ([]*models.Contact, error)

	// Configuration (singleton)
	GetChatConfig() (*models.ChatConfig, error)
	SaveChatConfig(config *models.ChatConfig) (*models.ChatConfig, error)
}
