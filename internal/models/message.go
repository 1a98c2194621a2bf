package models

import (
	"time"
)

// Inbound message types as delivered by the messaging platform.
const (
	MessageTypeText         = "text"
	MessageTypeImage        = "image"
	MessageTypeVideo        = "video"
	MessageTypeAudio        = "audio"
	MessageTypeDocument     = "document"
	MessageTypeLocation     = "location"
	MessageTypeInteractive  = "interactive"
	MessageTypeButton       = "button"
	MessageTypeStatusUpdate = "status_update"
)

// Message is a normalized inbound webhook event. From carries the raw phone
// as delivered; the routing engine normalizes it before any lookup.
type Message struct {
	MessageID   string            `json:"message_id"`
	From        string            `json:"from"`
	Type        string            `json:"type"`
	Text        string            `json:"text,omitempty"`
	ButtonID    string            `json:"button_id,omitempty"`
	ButtonTitle string            `json:"button_title,omitempty"`
	ProfileName string            `json:"profile_name,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
	Raw         map[string]string `json:"raw,omitempty"`
}

// IsStatusUpdate reports whether this event is a delivery/read receipt.
// Status updates must never create or mutate a session.
func (m *Message) IsStatusUpdate() bool {
	return m.Type == MessageTypeStatusUpdate
}

// ReplyID extracts the selected menu option per message variant: interactive
// replies carry the button id, legacy button messages carry a payload.
// Other variants have no selection.
func (m *Message) ReplyID() string {
	switch m.Type {
	case MessageTypeInteractive, MessageTypeButton:
		return m.ButtonID
	default:
		return ""
	}
}
