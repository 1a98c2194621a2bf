package models

import "testing"

func TestMessageReplyID(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"interactive reply", Message{Type: MessageTypeInteractive, ButtonID: "btn_comercial"}, "btn_comercial"},
		{"legacy button payload", Message{Type: MessageTypeButton, ButtonID: "btn_outros"}, "btn_outros"},
		{"plain text has no selection", Message{Type: MessageTypeText, Text: "oi"}, ""},
		{"media has no selection", Message{Type: MessageTypeImage, ButtonID: "ignored"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.ReplyID(); got != tt.want {
				t.Errorf("ReplyID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessageIsStatusUpdate(t *testing.T) {
	if !(&Message{Type: MessageTypeStatusUpdate}).IsStatusUpdate() {
		t.Error("status_update should be a status update")
	}
	if (&Message{Type: MessageTypeText}).IsStatusUpdate() {
		t.Error("text should not be a status update")
	}
}

func TestSessionHelpers(t *testing.T) {
	s := &ChatSession{Status: SessionWaitingMenu}
	if !s.IsOpen() {
		t.Error("waiting_menu should be open")
	}
	s.Status = SessionClosed
	if s.IsOpen() {
		t.Error("closed should not be open")
	}

	s.AttendantID = "QUEUE_FIN"
	if !s.IsQueue() {
		t.Error("QUEUE_FIN should be a queue sentinel")
	}
	s.AttendantID = "ATD-1"
	if s.IsQueue() {
		t.Error("ATD-1 should not be a queue sentinel")
	}
}
