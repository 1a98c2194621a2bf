package models

import "testing"

func TestChatConfigValidate(t *testing.T) {
	cfg := DefaultChatConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid, got %v", err)
	}

	cfg.GreetingButtons = append(cfg.GreetingButtons, ButtonOption{ID: "btn_comercial", Title: "Dup"})
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for duplicate button id")
	}

	cfg.GreetingButtons = ButtonList{{Title: "Sem ID"}}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for button without id")
	}
}

func TestButtonListFind(t *testing.T) {
	buttons := DefaultChatConfig().GreetingButtons

	btn, ok := buttons.Find("btn_financeiro")
	if !ok {
		t.Fatal("expected to find btn_financeiro")
	}
	if btn.QueueID != "QUEUE_FIN" {
		t.Errorf("expected queue QUEUE_FIN, got %q", btn.QueueID)
	}

	if _, ok := buttons.Find("btn_unknown"); ok {
		t.Error("expected btn_unknown to be missing")
	}
}

func TestRenderTemplate(t *testing.T) {
	got := RenderTemplate("✅ Você está sendo atendido por *{attendant_name}*.", map[string]string{
		"attendant_name": "Maria",
	})
	want := "✅ Você está sendo atendido por *Maria*."
	if got != want {
		t.Errorf("RenderTemplate = %q, want %q", got, want)
	}

	got = RenderTemplate("sem placeholder", map[string]string{"attendant_name": "Maria"})
	if got != "sem placeholder" {
		t.Errorf("template without placeholder changed: %q", got)
	}
}
