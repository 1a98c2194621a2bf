package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/atendezap/atende-backend/internal/models"
	"github.com/atendezap/atende-backend/internal/storage"
	"github.com/atendezap/atende-backend/internal/utils"
)

var ErrInvalidCredentials = errors.New("incorrect login or password")

const tokenTTL = 24 * time.Hour

// AttendantService manages the attendant directory and console authentication.
type AttendantService struct {
	store  storage.Store
	secret []byte
}

func NewAttendantService(store storage.Store) *AttendantService {
	return &AttendantService{
		store:  store,
		secret: []byte(os.Getenv("JWT_SECRET")),
	}
}

// CreateAttendant registers a new attendant. The plaintext password is
// hashed with bcrypt before it ever reaches the store; client phone bindings
// are normalized so routing comparisons always match.
func (s *AttendantService) CreateAttendant(attendant *models.Attendant, password string) (*models.Attendant, error) {
	if attendant.Login == "" || password == "" {
		return nil, fmt.Errorf("login and password are required")
	}
	if _, err := s.store.GetAttendantByLogin(attendant.Login); err == nil {
		return nil, fmt.Errorf("login already registered")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	attendant.Password = string(hash)
	if attendant.Permission == "" {
		attendant.Permission = models.PermissionUser
	}
	for i, phone := range attendant.Clients {
		attendant.Clients[i] = utils.NormalizePhone(phone)
	}

	created, err := s.store.CreateAttendant(attendant)
	if err != nil {
		return nil, err
	}
	log.Printf("👤 Attendant %s (%s) registered", created.AttendantID, created.Login)
	return created, nil
}

// Authenticate verifies login credentials and returns the attendant.
func (s *AttendantService) Authenticate(login, password string) (*models.Attendant, error) {
	attendant, err := s.store.GetAttendantByLogin(login)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(attendant.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return attendant, nil
}

// IssueToken signs a JWT for an authenticated attendant. The permission
// claim is what the route middleware checks.
func (s *AttendantService) IssueToken(attendant *models.Attendant) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("JWT_SECRET not configured")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        attendant.AttendantID,
		"name":       attendant.Name,
		"permission": attendant.Permission,
		"iat":        time.Now().Unix(),
		"exp":        time.Now().Add(tokenTTL).Unix(),
	})
	return token.SignedString(s.secret)
}

func (s *AttendantService) GetAttendant(attendantID string) (*models.Attendant, error) {
	return s.store.GetAttendantByID(attendantID)
}

func (s *AttendantService) ListAttendants() ([]*models.Attendant, error) {
	return s.store.ListAttendants()
}

// UpdateAttendant applies a partial update. A new password, when present,
// is re-hashed; an empty one keeps the stored hash.
func (s *AttendantService) UpdateAttendant(attendantID string, update *models.Attendant, newPassword string) (*models.Attendant, error) {
	attendant, err := s.store.GetAttendantByID(attendantID)
	if err != nil {
		return nil, err
	}

	if update.Name != "" {
		attendant.Name = update.Name
	}
	if update.Permission != "" {
		attendant.Permission = update.Permission
	}
	if update.WelcomeMessage != "" {
		attendant.WelcomeMessage = update.WelcomeMessage
	}
	if update.Sectors != nil {
		attendant.Sectors = update.Sectors
	}
	if update.Clients != nil {
		for i, phone := range update.Clients {
			update.Clients[i] = utils.NormalizePhone(phone)
		}
		attendant.Clients = update.Clients
	}
	if update.WorkingHours != nil {
		attendant.WorkingHours = update.WorkingHours
	}
	if newPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		attendant.Password = string(hash)
	}

	if err := s.store.UpdateAttendant(attendant); err != nil {
		return nil, err
	}
	return attendant, nil
}
