package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func signRaw(token, data string) string {
	h := hmac.New(sha256.New, []byte(token))
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func TestCalculateTwilioSignature(t *testing.T) {
	const token = "auth-token"
	const url = "https://example.com/webhook/whatsapp"

	tests := []struct {
		name   string
		params map[string]string
		data   string
	}{
		{
			name:   "no params signs the url alone",
			params: map[string]string{},
			data:   url,
		},
		{
			name: "params concatenated sorted by key",
			params: map[string]string{
				"From": "whatsapp:+5511987654321",
				"Body": "oi",
			},
			data: url + "Bodyoi" + "Fromwhatsapp:+5511987654321",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateTwilioSignature(token, url, tt.params)
			if want := signRaw(token, tt.data); got != want {
				t.Errorf("signature = %q, want %q", got, want)
			}
		})
	}

	same := map[string]string{"Body": "oi"}
	if calculateTwilioSignature("token-a", url, same) == calculateTwilioSignature("token-b", url, same) {
		t.Error("different auth tokens produced the same signature")
	}
}

func TestGetFullURL(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		want      string
	}{
		{"direct http", "", "http://example.com/webhook/whatsapp"},
		{"behind https proxy", "https", "https://example.com/webhook/whatsapp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			var got string
			app.Post("/webhook/whatsapp", func(c *fiber.Ctx) error {
				got = getFullURL(c)
				return c.SendStatus(fiber.StatusOK)
			})

			req := httptest.NewRequest("POST", "http://example.com/webhook/whatsapp", nil)
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-Proto", tt.forwarded)
			}
			if _, err := app.Test(req); err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("url = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateTwilioSignature(t *testing.T) {
	const token = "auth-token"
	t.Setenv("TWILIO_AUTH_TOKEN", token)
	t.Setenv("TWILIO_VALIDATE_SIGNATURE", "true")

	app := fiber.New()
	app.Post("/webhook/whatsapp", ValidateTwilioSignature(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	form := "Body=oi&From=whatsapp%3A%2B5511987654321"
	validSignature := calculateTwilioSignature(token, "http://example.com/webhook/whatsapp", map[string]string{
		"Body": "oi",
		"From": "whatsapp:+5511987654321",
	})

	tests := []struct {
		name       string
		signature  string
		wantStatus int
	}{
		{"valid signature", validSignature, fiber.StatusOK},
		{"tampered signature", "forged", fiber.StatusUnauthorized},
		{"missing signature", "", fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "http://example.com/webhook/whatsapp", strings.NewReader(form))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.signature != "" {
				req.Header.Set("X-Twilio-Signature", tt.signature)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}
