package cache

import (
	"sync"
	"time"

	"github.com/atendezap/atende-backend/internal/models"
	"github.com/atendezap/atende-backend/internal/storage"
)

// CachedStore is a write-through cache in front of a storage.Store. Hot keys
// (session by phone, per-attendant chat lists, contact by phone, the config
// singleton) are answered from memory; everything else passes through.
//
// A cache miss is never an answer: misses always fall back to the underlying
// store, and only positive results are cached.
type CachedStore struct {
	store storage.Store

	mu                sync.RWMutex
	sessions          map[string]*models.ChatSession
	attendantSessions map[string][]*models.ChatSession
	contacts          map[string]*models.Contact
	config            *models.ChatConfig
}

// NewCachedStore wraps the given store with an in-process cache
func NewCachedStore(store storage.Store) *CachedStore {
	return &CachedStore{
		store:             store,
		sessions:          make(map[string]*models.ChatSession),
		attendantSessions: make(map[string][]*models.ChatSession),
		contacts:          make(map[string]*models.Contact),
	}
}

// Session operations
//
// The cache holds its own clones and hands out clones: a caller mutating a
// session it read never reaches the cached copy, and the cache is only
// published after the durable write succeeded. A failed write leaves the
// cache on the last persisted state.

func (c *CachedStore) UpsertSession(session *models.ChatSession) (*models.ChatSession, error) {
	stored, err := c.store.UpsertSession(session)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.sessions[stored.PhoneNumber] = stored.Clone()
	c.attendantSessions = make(map[string][]*models.ChatSession)
	c.mu.Unlock()
	return stored, nil
}

func (c *CachedStore) GetSessionByPhone(phone string) (*models.ChatSession, error) {
	c.mu.RLock()
	session, ok := c.sessions[phone]
	c.mu.RUnlock()
	if ok {
		return session.Clone(), nil
	}

	session, err := c.store.GetSessionByPhone(phone)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.sessions[phone] = session.Clone()
	c.mu.Unlock()
	return session, nil
}

func (c *CachedStore) UpdateSession(session *models.ChatSession) error {
	if err := c.store.UpdateSession(session); err != nil {
		return err
	}
	c.mu.Lock()
	c.sessions[session.PhoneNumber] = session.Clone()
	c.attendantSessions = make(map[string][]*models.ChatSession)
	c.mu.Unlock()
	return nil
}

func (c *CachedStore) CloseSession(phone string) error {
	if err := c.store.CloseSession(phone); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.sessions, phone)
	c.attendantSessions = make(map[string][]*models.ChatSession)
	c.mu.Unlock()
	return nil
}

func (c *CachedStore) ListOpenSessions() ([]*models.ChatSession, error) {
	return c.store.ListOpenSessions()
}

func (c *CachedStore) ListSessions(limit, offset int) ([]*models.ChatSession, error) {
	return c.store.ListSessions(limit, offset)
}

func (c *CachedStore) ListSessionsByAttendant(attendantID string) ([]*models.ChatSession, error) {
	c.mu.RLock()
	sessions, ok := c.attendantSessions[attendantID]
	c.mu.RUnlock()
	if ok {
		return cloneSessions(sessions), nil
	}

	sessions, err := c.store.ListSessionsByAttendant(attendantID)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.attendantSessions[attendantID] = cloneSessions(sessions)
	c.mu.Unlock()
	return sessions, nil
}

func cloneSessions(sessions []*models.ChatSession) []*models.ChatSession {
	clones := make([]*models.ChatSession, len(sessions))
	for i, s := range sessions {
		clones[i] = s.Clone()
	}
	return clones
}

// Round-robin rotation state (pass-through)

func (c *CachedStore) GetSectorCursor(sector string) (string, error) {
	return c.store.GetSectorCursor(sector)
}

func (c *CachedStore) SetSectorCursor(sector, attendantID string) error {
	return c.store.SetSectorCursor(sector, attendantID)
}

func (c *CachedStore) LastAssignedAttendant(sector string) (string, error) {
	return c.store.LastAssignedAttendant(sector)
}

// Attendant operations (pass-through, directory reads are rare)

func (c *CachedStore) CreateAttendant(attendant *models.Attendant) (*models.Attendant, error) {
	return c.store.CreateAttendant(attendant)
}

func (c *CachedStore) GetAttendantByID(attendantID string) (*models.Attendant, error) {
	return c.store.GetAttendantByID(attendantID)
}

func (c *CachedStore) GetAttendantByLogin(login string) (*models.Attendant, error) {
	return c.store.GetAttendantByLogin(login)
}

func (c *CachedStore) GetAttendantByClientAndSector(phone, sector string) (*models.Attendant, error) {
	return c.store.GetAttendantByClientAndSector(phone, sector)
}

func (c *CachedStore) ListAttendantsBySector(sector string) ([]*models.Attendant, error) {
	return c.store.ListAttendantsBySector(sector)
}

func (c *CachedStore) ListAttendants() ([]*models.Attendant, error) {
	return c.store.ListAttendants()
}

func (c *CachedStore) UpdateAttendant(attendant *models.Attendant) error {
	return c.store.UpdateAttendant(attendant)
}

// Contact operations

func (c *CachedStore) UpsertContact(phone, name string, lastMessageAt time.Time) (*models.Contact, error) {
	contact, err := c.store.UpsertContact(phone, name, lastMessageAt)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.contacts[phone] = contact
	c.mu.Unlock()
	return contact, nil
}

func (c *CachedStore) GetContactByPhone(phone string) (*models.Contact, error) {
	c.mu.RLock()
	contact, ok := c.contacts[phone]
	c.mu.RUnlock()
	if ok {
		return contact, nil
	}

	contact, err := c.store.GetContactByPhone(phone)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.contacts[phone] = contact
	c.mu.Unlock()
	return contact, nil
}

func (c *CachedStore) ListContacts(limit, offset int) ([]*models.Contact, error) {
	return c.store.ListContacts(limit, offset)
}

// Configuration

func (c *CachedStore) GetChatConfig() (*models.ChatConfig, error) {
	c.mu.RLock()
	config := c.config
	c.mu.RUnlock()
	if config != nil {
		return config, nil
	}

	config, err := c.store.GetChatConfig()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.config = config
	c.mu.Unlock()
	return config, nil
}

func (c *CachedStore) SaveChatConfig(config *models.ChatConfig) (*models.ChatConfig, error) {
	stored, err := c.store.SaveChatConfig(config)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.config = stored
	c.mu.Unlock()
	return stored, nil
}

// InvalidateConfig drops the cached configuration so the next read hits the
// store. Called after out-of-band config changes.
func (c *CachedStore) InvalidateConfig() {
	c.mu.Lock()
	c.config = nil
	c.mu.Unlock()
}

// InvalidateSession drops a single phone from the session cache.
func (c *CachedStore) InvalidateSession(phone string) {
	c.mu.Lock()
	delete(c.sessions, phone)
	c.attendantSessions = make(map[string][]*models.ChatSession)
	c.mu.Unlock()
}
