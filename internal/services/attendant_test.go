package services

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/atendezap/atende-backend/internal/models"
	"github.com/atendezap/atende-backend/internal/storage"
)

func TestCreateAttendantAndAuthenticate(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := &AttendantService{store: store, secret: []byte("test-secret")}

	created, err := svc.CreateAttendant(&models.Attendant{
		Login:   "maria",
		Name:    "Maria",
		Sectors: models.StringList{"Comercial"},
		Clients: models.StringList{"whatsapp:+551187654321"},
	}, "s3nha")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if created.Password == "s3nha" {
		t.Error("password stored in plaintext")
	}
	if created.Permission != models.PermissionUser {
		t.Errorf("default permission = %q, want user", created.Permission)
	}
	if created.Clients[0] != "5511987654321" {
		t.Errorf("client phone not normalized: %q", created.Clients[0])
	}

	if _, err := svc.CreateAttendant(&models.Attendant{Login: "maria"}, "outra"); err == nil {
		t.Error("duplicate login accepted")
	}

	if _, err := svc.Authenticate("maria", "errada"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v", err)
	}
	if _, err := svc.Authenticate("ninguem", "s3nha"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown login: got %v", err)
	}
	got, err := svc.Authenticate("maria", "s3nha")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if got.AttendantID != created.AttendantID {
		t.Errorf("authenticated wrong attendant: %s", got.AttendantID)
	}
}

func TestIssueTokenClaims(t *testing.T) {
	svc := &AttendantService{store: storage.NewMemoryStore(), secret: []byte("test-secret")}

	signed, err := svc.IssueToken(&models.Attendant{
		AttendantID: "ATD-1",
		Name:        "Maria",
		Permission:  models.PermissionAdmin,
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(signed, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("token did not parse: %v", err)
	}
	if claims["sub"] != "ATD-1" {
		t.Errorf("sub = %v, want ATD-1", claims["sub"])
	}
	if claims["permission"] != models.PermissionAdmin {
		t.Errorf("permission = %v, want admin", claims["permission"])
	}

	empty := &AttendantService{store: storage.NewMemoryStore()}
	if _, err := empty.IssueToken(&models.Attendant{}); err == nil {
		t.Error("expected error without a signing secret")
	}
}

func TestUpdateAttendantPartial(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := &AttendantService{store: store, secret: []byte("test-secret")}

	created, err := svc.CreateAttendant(&models.Attendant{Login: "joao", Name: "João"}, "antiga")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	oldHash := created.Password

	updated, err := svc.UpdateAttendant(created.AttendantID, &models.Attendant{
		Name:    "João Silva",
		Sectors: models.StringList{"Financeiro"},
	}, "")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != "João Silva" {
		t.Errorf("name not updated: %q", updated.Name)
	}
	if updated.Password != oldHash {
		t.Error("empty password replaced the stored hash")
	}
	if updated.Login != "joao" {
		t.Errorf("login changed: %q", updated.Login)
	}

	updated, err = svc.UpdateAttendant(created.AttendantID, &models.Attendant{}, "nova")
	if err != nil {
		t.Fatalf("password update failed: %v", err)
	}
	if updated.Password == oldHash {
		t.Error("new password did not re-hash")
	}
	if _, err := svc.Authenticate("joao", "nova"); err != nil {
		t.Errorf("new password does not authenticate: %v", err)
	}
}
