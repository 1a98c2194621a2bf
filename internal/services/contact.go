package services

import (
	"time"

	"github.com/atendezap/atende-backend/internal/models"
	"github.com/atendezap/atende-backend/internal/storage"
	"github.com/atendezap/atende-backend/internal/utils"
)

// ContactService is the per-phone contact registry, independent of the
// session lifecycle.
type ContactService struct {
	store storage.Store
}

func NewContactService(store storage.Store) *ContactService {
	return &ContactService{store: store}
}

func (s *ContactService) UpsertContact(phone, name string, lastMessageAt time.Time) (*models.Contact, error) {
	return s.store.UpsertContact(utils.NormalizePhone(phone), name, lastMessageAt)
}

func (s *ContactService) GetByPhone(phone string) (*models.Contact, error) {
	return s.store.GetContactByPhone(utils.NormalizePhone(phone))
}

// ListContacts returns contacts ordered by most recent inbound message.
func (s *ContactService) ListContacts(limit, offset int) ([]*models.Contact, error) {
	if limit <= 0 {
		limit = 300
	}
	return s.store.ListContacts(limit, offset)
}
