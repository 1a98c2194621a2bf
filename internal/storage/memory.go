package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/atendezap/atende-backend/internal/models"
)

// MemoryStore holds all data in memory. Used for tests and local development
// (USE_MEMORY_STORE=true); not for production.
type MemoryStore struct {
	sessions   map[string]*models.ChatSession // keyed by phone
	attendants map[string]*models.Attendant   // keyed by attendant id
	contacts   map[string]*models.Contact     // keyed by phone
	cursors    map[string]string              // sector -> attendant id
	config     *models.ChatConfig

	// Mutexes for thread safety
	sessionMu   sync.RWMutex
	attendantMu sync.RWMutex
	contactMu   sync.RWMutex
	cursorMu    sync.RWMutex
	configMu    sync.RWMutex

	// Counters for ID generation
	sessionCounter uint
	contactCounter uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:   make(map[string]*models.ChatSession),
		attendants: make(map[string]*models.Attendant),
		contacts:   make(map[string]*models.Contact),
		cursors:    make(map[string]string),
	}
}

// Session operations

func (m *MemoryStore) UpsertSession(session *models.ChatSession) (*models.ChatSession, error) {
	if session.PhoneNumber == "" {
		return nil, fmt.Errorf("session without phone number")
	}

	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	if existing, ok := m.sessions[session.PhoneNumber]; ok {
		// Single current row per phone: the upsert replaces the business
		// fields in place, which is how re-entry after close resets state.
		incoming := session.Clone()
		existing.Status = incoming.Status
		existing.AttendantID = incoming.AttendantID
		existing.Category = incoming.Category
		existing.LastInteractionAt = incoming.LastInteractionAt
		existing.LastClientInteractionAt = incoming.LastClientInteractionAt
		existing.UpdatedAt = time.Now()
		return existing.Clone(), nil
	}

	m.sessionCounter++
	stored := session.Clone()
	stored.ID = m.sessionCounter
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	stored.UpdatedAt = time.Now()
	m.sessions[session.PhoneNumber] = stored
	return stored.Clone(), nil
}

func (m *MemoryStore) GetSessionByPhone(phone string) (*models.ChatSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	session, ok := m.sessions[phone]
	if !ok {
		return nil, ErrNotFound
	}
	// Rows are handed out as copies, matching database semantics: callers
	// mutate their copy and persist through UpdateSession.
	return session.Clone(), nil
}

func (m *MemoryStore) UpdateSession(session *models.ChatSession) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	existing, ok := m.sessions[session.PhoneNumber]
	if !ok {
		return ErrNotFound
	}
	incoming := session.Clone()
	existing.Status = incoming.Status
	existing.AttendantID = incoming.AttendantID
	existing.Category = incoming.Category
	existing.LastInteractionAt = incoming.LastInteractionAt
	existing.LastClientInteractionAt = incoming.LastClientInteractionAt
	existing.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) CloseSession(phone string) error {
	m.sessionMu.Lock()
	defer m.sessionMu.Unlock()

	session, ok := m.sessions[phone]
	if !ok {
		return ErrNotFound
	}
	session.Status = models.SessionClosed
	session.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) ListOpenSessions() ([]*models.ChatSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	var sessions []*models.ChatSession
	for _, s := range m.sessions {
		if s.IsOpen() {
			sessions = append(sessions, s.Clone())
		}
	}
	sortSessionsByActivity(sessions)
	return sessions, nil
}

func (m *MemoryStore) ListSessions(limit, offset int) ([]*models.ChatSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	sessions := make([]*models.ChatSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s.Clone())
	}
	sortSessionsByActivity(sessions)
	return paginateSessions(sessions, limit, offset), nil
}

func (m *MemoryStore) ListSessionsByAttendant(attendantID string) ([]*models.ChatSession, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	var sessions []*models.ChatSession
	for _, s := range m.sessions {
		if s.AttendantID == attendantID {
			sessions = append(sessions, s.Clone())
		}
	}
	sortSessionsByActivity(sessions)
	return sessions, nil
}

// Round-robin rotation state

func (m *MemoryStore) GetSectorCursor(sector string) (string, error) {
	m.cursorMu.RLock()
	defer m.cursorMu.RUnlock()

	id, ok := m.cursors[sector]
	if !ok {
		return "", ErrNotFound
	}
	return id, nil
}

func (m *MemoryStore) SetSectorCursor(sector, attendantID string) error {
	m.cursorMu.Lock()
	defer m.cursorMu.Unlock()

	m.cursors[sector] = attendantID
	return nil
}

// LastAssignedAttendant infers the rotation position from session history:
// the most recently touched session of the sector that is bound to an
// individual attendant. Queue sentinels are excluded.
func (m *MemoryStore) LastAssignedAttendant(sector string) (string, error) {
	m.sessionMu.RLock()
	defer m.sessionMu.RUnlock()

	var best *models.ChatSession
	for _, s := range m.sessions {
		if s.Category != sector || s.AttendantID == "" || s.IsQueue() {
			continue
		}
		if best == nil || s.LastInteractionAt.After(best.LastInteractionAt) {
			best = s
		}
	}
	if best == nil {
		return "", ErrNotFound
	}
	return best.AttendantID, nil
}

// Attendant operations

func (m *MemoryStore) CreateAttendant(attendant *models.Attendant) (*models.Attendant, error) {
	m.attendantMu.Lock()
	defer m.attendantMu.Unlock()

	for _, a := range m.attendants {
		if a.Login == attendant.Login {
			return nil, fmt.Errorf("login already registered")
		}
	}

	stored := *attendant
	if stored.AttendantID == "" {
		stored.AttendantID = fmt.Sprintf("ATD%05d", len(m.attendants)+1)
	}
	if stored.Permission == "" {
		stored.Permission = models.PermissionUser
	}
	stored.ID = uint(len(m.attendants) + 1)
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = time.Now()
	m.attendants[stored.AttendantID] = &stored
	return &stored, nil
}

func (m *MemoryStore) GetAttendantByID(attendantID string) (*models.Attendant, error) {
	m.attendantMu.RLock()
	defer m.attendantMu.RUnlock()

	attendant, ok := m.attendants[attendantID]
	if !ok {
		return nil, ErrNotFound
	}
	return attendant, nil
}

func (m *MemoryStore) GetAttendantByLogin(login string) (*models.Attendant, error) {
	m.attendantMu.RLock()
	defer m.attendantMu.RUnlock()

	for _, a := range m.attendants {
		if a.Login == login {
			return a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) GetAttendantByClientAndSector(phone, sector string) (*models.Attendant, error) {
	m.attendantMu.RLock()
	defer m.attendantMu.RUnlock()

	for _, a := range m.attendants {
		if a.Clients.Contains(phone) && a.ServesSector(sector) {
			return a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListAttendantsBySector(sector string) ([]*models.Attendant, error) {
	m.attendantMu.RLock()
	defer m.attendantMu.RUnlock()

	var attendants []*models.Attendant
	for _, a := range m.attendants {
		if a.ServesSector(sector) {
			attendants = append(attendants, a)
		}
	}
	sortAttendantsByID(attendants)
	return attendants, nil
}

func (m *MemoryStore) ListAttendants() ([]*models.Attendant, error) {
	m.attendantMu.RLock()
	defer m.attendantMu.RUnlock()

	attendants := make([]*models.Attendant, 0, len(m.attendants))
	for _, a := range m.attendants {
		attendants = append(attendants, a)
	}
	sortAttendantsByID(attendants)
	return attendants, nil
}

func (m *MemoryStore) UpdateAttendant(attendant *models.Attendant) error {
	m.attendantMu.Lock()
	defer m.attendantMu.Unlock()

	existing, ok := m.attendants[attendant.AttendantID]
	if !ok {
		return ErrNotFound
	}
	*existing = *attendant
	existing.UpdatedAt = time.Now()
	return nil
}

// Contact operations

func (m *MemoryStore) UpsertContact(phone, name string, lastMessageAt time.Time) (*models.Contact, error) {
	m.contactMu.Lock()
	defer m.contactMu.Unlock()

	contact, ok := m.contacts[phone]
	if !ok {
		m.contactCounter++
		contact = &models.Contact{Phone: phone}
		contact.ID = m.contactCounter
		contact.CreatedAt = time.Now()
		m.contacts[phone] = contact
	}
	if name != "" {
		contact.Name = name
	}
	ts := lastMessageAt
	contact.LastMessageAt = &ts
	contact.UpdatedAt = time.Now()
	return contact, nil
}

func (m *MemoryStore) GetContactByPhone(phone string) (*models.Contact, error) {
	m.contactMu.RLock()
	defer m.contactMu.RUnlock()

	contact, ok := m.contacts[phone]
	if !ok {
		return nil, ErrNotFound
	}
	return contact, nil
}

func (m *MemoryStore) ListContacts(limit, offset int) ([]*models.Contact, error) {
	m.contactMu.RLock()
	defer m.contactMu.RUnlock()

	contacts := make([]*models.Contact, 0, len(m.contacts))
	for _, c := range m.contacts {
		contacts = append(contacts, c)
	}
	sort.Slice(contacts, func(i, j int) bool {
		var ti, tj time.Time
		if contacts[i].LastMessageAt != nil {
			ti = *contacts[i].LastMessageAt
		}
		if contacts[j].LastMessageAt != nil {
			tj = *contacts[j].LastMessageAt
		}
		return ti.After(tj)
	})
	if offset >= len(contacts) {
		return nil, nil
	}
	contacts = contacts[offset:]
	if limit > 0 && limit < len(contacts) {
		contacts = contacts[:limit]
	}
	return contacts, nil
}

// Configuration

func (m *MemoryStore) GetChatConfig() (*models.ChatConfig, error) {
	m.configMu.RLock()
	defer m.configMu.RUnlock()

	if m.config == nil {
		return nil, ErrNotFound
	}
	return m.config, nil
}

func (m *MemoryStore) SaveChatConfig(config *models.ChatConfig) (*models.ChatConfig, error) {
	m.configMu.Lock()
	defer m.configMu.Unlock()

	stored := *config
	if stored.ID == 0 {
		stored.ID = 1
		stored.CreatedAt = time.Now()
	}
	stored.UpdatedAt = time.Now()
	m.config = &stored
	return &stored, nil
}

// helpers

func sortSessionsByActivity(sessions []*models.ChatSession) {
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastInteractionAt.After(sessions[j].LastInteractionAt)
	})
}

func sortAttendantsByID(attendants []*models.Attendant) {
	sort.Slice(attendants, func(i, j int) bool {
		return attendants[i].AttendantID < attendants[j].AttendantID
	})
}

func paginateSessions(sessions []*models.ChatSession, limit, offset int) []*models.ChatSession {
	if offset >= len(sessions) {
		return nil
	}
	sessions = sessions[offset:]
	if limit > 0 && limit < len(sessions) {
		sessions = sessions[:limit]
	}
	return sessions
}
