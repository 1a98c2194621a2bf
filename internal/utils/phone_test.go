package utils

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plus prefix stripped", "+5511987654321", "5511987654321"},
		{"whatsapp prefix stripped", "whatsapp:+5511987654321", "5511987654321"},
		{"legacy brazilian number gets ninth digit", "551187654321", "5511987654321"},
		{"plus and legacy combined", "+551187654321", "5511987654321"},
		{"already normalized untouched", "5511987654321", "5511987654321"},
		{"non brazilian untouched", "14155238886", "14155238886"},
		{"whitespace trimmed", "  5511987654321 ", "5511987654321"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.input); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePhoneIdempotent(t *testing.T) {
	inputs := []string{"+551187654321", "whatsapp:+5511987654321", "5511987654321"}
	for _, input := range inputs {
		once := NormalizePhone(input)
		twice := NormalizePhone(once)
		if once != twice {
			t.Errorf("normalizing %q twice gave %q, want %q", input, twice, once)
		}
	}
}
