package handlers

import (
	"testing"

	"github.com/atendezap/atende-backend/internal/models"
)

func TestTwilioPayloadToMessage(t *testing.T) {
	tests := []struct {
		name     string
		payload  TwilioWebhookPayload
		wantType string
		wantText string
		wantBtn  string
	}{
		{
			name:     "plain text",
			payload:  TwilioWebhookPayload{From: "whatsapp:+5511987654321", Body: "oi"},
			wantType: models.MessageTypeText,
			wantText: "oi",
		},
		{
			name:     "button reply",
			payload:  TwilioWebhookPayload{From: "whatsapp:+5511987654321", ButtonPayload: "btn_comercial", ButtonText: "Comercial"},
			wantType: models.MessageTypeButton,
			wantBtn:  "btn_comercial",
		},
		{
			name:     "delivery receipt",
			payload:  TwilioWebhookPayload{MessageStatus: "delivered"},
			wantType: models.MessageTypeStatusUpdate,
		},
		{
			name:     "location",
			payload:  TwilioWebhookPayload{From: "whatsapp:+5511987654321", Latitude: "-23.5", Longitude: "-46.6"},
			wantType: models.MessageTypeLocation,
		},
		{
			name:     "image with caption",
			payload:  TwilioWebhookPayload{From: "whatsapp:+5511987654321", Body: "olha isso", NumMedia: "1", MediaContentType0: "image/jpeg"},
			wantType: models.MessageTypeImage,
			wantText: "olha isso",
		},
		{
			name:     "unknown media falls back to document",
			payload:  TwilioWebhookPayload{From: "whatsapp:+5511987654321", NumMedia: "1", MediaContentType0: "application/pdf"},
			wantType: models.MessageTypeDocument,
		},
		{
			name:     "status field with body is still a message",
			payload:  TwilioWebhookPayload{From: "whatsapp:+5511987654321", MessageStatus: "received", Body: "oi"},
			wantType: models.MessageTypeText,
			wantText: "oi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.payload.toMessage()
			if msg.Type != tt.wantType {
				t.Errorf("type = %q, want %q", msg.Type, tt.wantType)
			}
			if msg.Text != tt.wantText {
				t.Errorf("text = %q, want %q", msg.Text, tt.wantText)
			}
			if msg.ButtonID != tt.wantBtn {
				t.Errorf("button id = %q, want %q", msg.ButtonID, tt.wantBtn)
			}
		})
	}
}
