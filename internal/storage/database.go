package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atendezap/atende-backend/internal/models"
)

// DatabaseStore implements Store backed by PostgreSQL via GORM
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a new database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func translateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Session operations

// UpsertSession inserts the session or, when a row for the phone already
// exists, overwrites its business fields in a single statement. The unique
// index on phone_number makes concurrent upserts collapse into one row.
func (s *DatabaseStore) UpsertSession(session *models.ChatSession) (*models.ChatSession, error) {
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "phone_number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status",
			"attendant_id",
			"category",
			"created_at",
			"last_interaction_at",
			"last_client_interaction_at",
			"updated_at",
			"deleted_at",
		}),
	}).Create(session).Error
	if err != nil {
		return nil, err
	}
	return s.GetSessionByPhone(session.PhoneNumber)
}

func (s *DatabaseStore) GetSessionByPhone(phone string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := s.db.Where("phone_number = ?", phone).First(&session).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &session, nil
}

func (s *DatabaseStore) UpdateSession(session *models.ChatSession) error {
	result := s.db.Model(&models.ChatSession{}).
		Where("phone_number = ?", session.PhoneNumber).
		Updates(map[string]interface{}{
			"status":                     session.Status,
			"attendant_id":               session.AttendantID,
			"category":                   session.Category,
			"last_interaction_at":        session.LastInteractionAt,
			"last_client_interaction_at": session.LastClientInteractionAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DatabaseStore) CloseSession(phone string) error {
	result := s.db.Model(&models.ChatSession{}).
		Where("phone_number = ?", phone).
		Update("status", models.SessionClosed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DatabaseStore) ListOpenSessions() ([]*models.ChatSession, error) {
	var sessions []*models.ChatSession
	err := s.db.Where("status IN ?", []string{models.SessionWaitingMenu, models.SessionActive}).
		Order("last_interaction_at DESC").
		Find(&sessions).Error
	return sessions, err
}

func (s *DatabaseStore) ListSessions(limit, offset int) ([]*models.ChatSession, error) {
	var sessions []*models.ChatSession
	query := s.db.Order("last_interaction_at DESC").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&sessions).Error
	return sessions, err
}

func (s *DatabaseStore) ListSessionsByAttendant(attendantID string) ([]*models.ChatSession, error) {
	var sessions []*models.ChatSession
	err := s.db.Where("attendant_id = ?", attendantID).
		Order("last_interaction_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// Round-robin rotation state

func (s *DatabaseStore) GetSectorCursor(sector string) (string, error) {
	var cursor models.SectorCursor
	err := s.db.Where("sector = ?", sector).First(&cursor).Error
	if err != nil {
		return "", translateErr(err)
	}
	return cursor.AttendantID, nil
}

func (s *DatabaseStore) SetSectorCursor(sector, attendantID string) error {
	cursor := models.SectorCursor{
		Sector:      sector,
		AttendantID: attendantID,
		UpdatedAt:   time.Now(),
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sector"}},
		DoUpdates: clause.AssignmentColumns([]string{"attendant_id", "updated_at"}),
	}).Create(&cursor).Error
}

func (s *DatabaseStore) LastAssignedAttendant(sector string) (string, error) {
	var session models.ChatSession
	err := s.db.Where("category = ? AND attendant_id <> '' AND attendant_id NOT LIKE ?",
		sector, models.QueuePrefix+"%").
		Order("last_interaction_at DESC").
		First(&session).Error
	if err != nil {
		return "", translateErr(err)
	}
	return session.AttendantID, nil
}

// Attendant operations

func (s *DatabaseStore) CreateAttendant(attendant *models.Attendant) (*models.Attendant, error) {
	if err := s.db.Create(attendant).Error; err != nil {
		return nil, err
	}
	return attendant, nil
}

func (s *DatabaseStore) GetAttendantByID(attendantID string) (*models.Attendant, error) {
	var attendant models.Attendant
	err := s.db.Where("attendant_id = ?", attendantID).First(&attendant).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &attendant, nil
}

func (s *DatabaseStore) GetAttendantByLogin(login string) (*models.Attendant, error) {
	var attendant models.Attendant
	err := s.db.Where("login = ?", login).First(&attendant).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &attendant, nil
}

// GetAttendantByClientAndSector scans the directory in Go rather than with
// jsonb operators. The attendant table is small enough that a full load is
// cheaper than maintaining GIN indexes.
func (s *DatabaseStore) GetAttendantByClientAndSector(phone, sector string) (*models.Attendant, error) {
	attendants, err := s.ListAttendants()
	if err != nil {
		return nil, err
	}
	for _, a := range attendants {
		if a.Clients.Contains(phone) && a.ServesSector(sector) {
			return a, nil
		}
	}
	return nil, ErrNotFound
}

func (s *DatabaseStore) ListAttendantsBySector(sector string) ([]*models.Attendant, error) {
	attendants, err := s.ListAttendants()
	if err != nil {
		return nil, err
	}
	var matched []*models.Attendant
	for _, a := range attendants {
		if a.ServesSector(sector) {
			matched = append(matched, a)
		}
	}
	return matched, nil
}

func (s *DatabaseStore) ListAttendants() ([]*models.Attendant, error) {
	var attendants []*models.Attendant
	err := s.db.Order("attendant_id ASC").Find(&attendants).Error
	return attendants, err
}

func (s *DatabaseStore) UpdateAttendant(attendant *models.Attendant) error {
	result := s.db.Save(attendant)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Contact operations

func (s *DatabaseStore) UpsertContact(phone, name string, lastMessageAt time.Time) (*models.Contact, error) {
	assignments := map[string]interface{}{
		"last_message_at": lastMessageAt,
		"updated_at":      time.Now(),
	}
	if name != "" {
		assignments["name"] = name
	}
	contact := models.Contact{
		Phone:         phone,
		Name:          name,
		LastMessageAt: &lastMessageAt,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&contact).Error
	if err != nil {
		return nil, err
	}
	return s.GetContactByPhone(phone)
}

func (s *DatabaseStore) GetContactByPhone(phone string) (*models.Contact, error) {
	var contact models.Contact
	err := s.db.Where("phone = ?", phone).First(&contact).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &contact, nil
}

func (s *DatabaseStore) ListContacts(limit, offset int) ([]*models.Contact, error) {
	var contacts []*models.Contact
	query := s.db.Order("last_message_at DESC NULLS LAST").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&contacts).Error
	return contacts, err
}

// Configuration

func (s *DatabaseStore) GetChatConfig() (*models.ChatConfig, error) {
	var config models.ChatConfig
	err := s.db.Order("id ASC").First(&config).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &config, nil
}

func (s *DatabaseStore) SaveChatConfig(config *models.ChatConfig) (*models.ChatConfig, error) {
	existing, err := s.GetChatConfig()
	if err == nil {
		config.ID = existing.ID
		config.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err := s.db.Save(config).Error; err != nil {
		return nil, err
	}
	return config, nil
}
