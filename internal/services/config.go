package services

import (
	"errors"
	"log"

	"github.com/atendezap/atende-backend/internal/models"
	"github.com/atendezap/atende-backend/internal/storage"
)

// ConfigService manages the singleton chat configuration document.
type ConfigService struct {
	store storage.Store
}

func NewConfigService(store storage.Store) *ConfigService {
	return &ConfigService{store: store}
}

// GetConfig returns the saved configuration, or the built-in defaults when
// none has been saved yet.
func (s *ConfigService) GetConfig() (*models.ChatConfig, error) {
	cfg, err := s.store.GetChatConfig()
	if errors.Is(err, storage.ErrNotFound) {
		return models.DefaultChatConfig(), nil
	}
	return cfg, err
}

// SaveConfig validates and persists the configuration. The write-through
// cache is refreshed by the store itself, so readers see the new menu on the
// next message.
func (s *ConfigService) SaveConfig(cfg *models.ChatConfig) (*models.ChatConfig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	saved, err := s.store.SaveChatConfig(cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("⚙️ Chat configuration updated")
	return saved, nil
}
