package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// MaxGreetingButtons is the WhatsApp interactive-message button cap.
const MaxGreetingButtons = 3

// ButtonOption is one entry of the greeting menu. A button with a Sector that
// appears in HumanSectors routes to an individual attendant; a button with
// only a QueueID parks the session on that queue bucket.
type ButtonOption struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	QueueID string `json:"queue_id,omitempty"`
	Sector  string `json:"sector,omitempty"`
}

// ButtonList is a JSON-encoded ordered button column.
type ButtonList []ButtonOption

func (b ButtonList) Value() (driver.Value, error) {
	if b == nil {
		return nil, nil
	}
	return json.Marshal(b)
}

func (b *ButtonList) Scan(value interface{}) error {
	if value == nil {
		*b = nil
		return nil
	}
	data, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			data = []byte(s)
		} else {
			return fmt.Errorf("cannot scan %T into ButtonList", value)
		}
	}
	return json.Unmarshal(data, b)
}

// Find returns the button with the given id.
func (b ButtonList) Find(id string) (ButtonOption, bool) {
	for _, btn := range b {
		if btn.ID == id {
			return btn, true
		}
	}
	return ButtonOption{}, false
}

// ChatConfig is the singleton chat configuration document: greeting menu,
// message templates and fallback copy. Placeholders like {attendant_name}
// and {sector} are resolved at send time.
type ChatConfig struct {
	gorm.Model
	GreetingMessage string     `json:"greeting_message"`
	GreetingHeader  string     `json:"greeting_header"`
	GreetingButtons ButtonList `gorm:"type:jsonb" json:"greeting_buttons"`
	HumanSectors    StringList `gorm:"type:jsonb" json:"human_sectors"`

	AttendantAssignedMessage string `json:"attendant_assigned_message"`
	QueueRedirectMessage     string `json:"queue_redirect_message"`
	AbsenceMessage           string `json:"absence_message"`
	NotFoundMessage          string `json:"not_found_message"`
	InvalidOptionMessage     string `json:"invalid_option_message"`
	InactivityClosedMessage  string `json:"inactivity_closed_message"`
}

// DefaultChatConfig returns the configuration used until an admin saves one.
func DefaultChatConfig() *ChatConfig {
	return &ChatConfig{
		GreetingMessage: "Olá! Escolha o setor desejado:",
		GreetingHeader:  "Bem-vindo",
		GreetingButtons: ButtonList{
			{ID: "btn_comercial", Title: "Comercial", Sector: "Comercial"},
			{ID: "btn_financeiro", Title: "Financeiro", QueueID: "QUEUE_FIN", Sector: "Financeiro"},
			{ID: "btn_outros", Title: "Outros", QueueID: "QUEUE_GEN", Sector: "Outros"},
		},
		HumanSectors: StringList{"Comercial"},

		AttendantAssignedMessage: "✅ Você está sendo atendido por *{attendant_name}*.",
		QueueRedirectMessage:     "📝 Encaminhado para {sector}. Aguarde um momento.",
		AbsenceMessage:           "💤 Nenhum atendente disponível no momento. Tente novamente mais tarde.",
		NotFoundMessage:          "🚫 Nenhum atendente vinculado ao seu número.",
		InvalidOptionMessage:     "❌ Opção inválida. Por favor, selecione um dos botões acima.",
		InactivityClosedMessage:  "🕒 Chat encerrado por inatividade.",
	}
}

// RenderTemplate substitutes named {placeholder} values into a template.
func RenderTemplate(template string, values map[string]string) string {
	out := template
	for key, value := range values {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}

// Validate checks the invariants the routing engine relies on.
func (c *ChatConfig) Validate() error {
	seen := make(map[string]bool, len(c.GreetingButtons))
	for _, btn := range c.GreetingButtons {
		if btn.ID == "" {
			return fmt.Errorf("greeting button without id")
		}
		if seen[btn.ID] {
			return fmt.Errorf("duplicate greeting button id: %s", btn.ID)
		}
		seen[btn.ID] = true
	}
	return nil
}
