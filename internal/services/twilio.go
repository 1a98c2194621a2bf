package services

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/atendezap/atende-backend/internal/models"
)

// WhatsAppSender abstracts the outbound messaging channel so the routing
// engine can be tested without Twilio.
type WhatsAppSender interface {
	SendText(to, body string) error
	SendButtons(to, header, body string, buttons []models.ButtonOption) error
	SendMedia(to, body, mediaURL string) error
	SendTemplate(to, contentSID string, variables map[string]string) error
}

type TwilioService struct {
	client         *twilio.RestClient
	from           string // Twilio WhatsApp number, format "whatsapp:+14155238886"
	menuContentSID string // approved quick-reply content template for the greeting menu
}

// NewTwilioService creates a new Twilio service instance
func NewTwilioService() (*TwilioService, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_WHATSAPP_FROM")

	if accountSid == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &TwilioService{
		client:         client,
		from:           from,
		menuContentSID: os.Getenv("TWILIO_MENU_CONTENT_SID"),
	}, nil
}

// SendText sends a plain WhatsApp text message
func (t *TwilioService) SendText(to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:+%s", to))
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp message: %v", err)
		return err
	}

	log.Printf("✅ WhatsApp message sent! SID: %s", *resp.Sid)
	return nil
}

// SendButtons sends the interactive greeting menu. WhatsApp caps quick-reply
// buttons at three; extras are dropped rather than rejected.
func (t *TwilioService) SendButtons(to, header, body string, buttons []models.ButtonOption) error {
	if t.client == nil {
		return fmt.Errorf("twilio client not initialized")
	}
	if len(buttons) > models.MaxGreetingButtons {
		buttons = buttons[:models.MaxGreetingButtons]
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:+%s", to))

	if t.menuContentSID != "" {
		// Approved content template: body and button titles are passed as
		// content variables in positional order.
		variables := map[string]string{"1": body}
		if header != "" {
			variables["header"] = header
		}
		for i, btn := range buttons {
			variables[fmt.Sprintf("button_%d", i+1)] = btn.Title
		}
		variablesJSON, err := json.Marshal(variables)
		if err != nil {
			return fmt.Errorf("failed to marshal content variables: %w", err)
		}
		params.SetContentSid(t.menuContentSID)
		params.SetContentVariables(string(variablesJSON))

		actions := make([]string, 0, len(buttons))
		for _, btn := range buttons {
			action, err := json.Marshal(map[string]string{"id": btn.ID, "title": btn.Title})
			if err != nil {
				return fmt.Errorf("failed to marshal persistent action: %w", err)
			}
			actions = append(actions, string(action))
		}
		params.SetPersistentAction(actions)
	} else {
		// No content template configured: degrade to a numbered text menu so
		// the conversation still moves forward.
		text := body
		if header != "" {
			text = fmt.Sprintf("*%s*\n\n%s", header, body)
		}
		for i, btn := range buttons {
			text += fmt.Sprintf("\n%d. %s", i+1, btn.Title)
		}
		params.SetBody(text)
	}

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp menu: %v", err)
		return err
	}
	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		return fmt.Errorf("twilio error %d: %s", *resp.ErrorCode, *resp.ErrorMessage)
	}

	log.Printf("✅ WhatsApp menu sent! SID: %s", *resp.Sid)
	return nil
}

// SendMedia sends a WhatsApp message with a media attachment (image, video,
// audio or document URL).
func (t *TwilioService) SendMedia(to, body, mediaURL string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:+%s", to))
	if body != "" {
		params.SetBody(body)
	}
	params.SetMediaUrl([]string{mediaURL})

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp media: %v", err)
		return err
	}

	log.Printf("✅ WhatsApp media sent! SID: %s", *resp.Sid)
	return nil
}

// SendTemplate sends an approved WhatsApp template message. Templates are
// the only messages allowed outside the 24h customer service window.
func (t *TwilioService) SendTemplate(to, contentSID string, variables map[string]string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(fmt.Sprintf("whatsapp:+%s", to))
	params.SetContentSid(contentSID)

	if len(variables) > 0 {
		variablesJSON, err := json.Marshal(variables)
		if err != nil {
			log.Printf("❌ Failed to marshal content variables: %v", err)
			return err
		}
		params.SetContentVariables(string(variablesJSON))
	}

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send WhatsApp template: %v", err)
		return err
	}

	log.Printf("✅ WhatsApp template sent! SID: %s, Template: %s", *resp.Sid, contentSID)
	return nil
}
