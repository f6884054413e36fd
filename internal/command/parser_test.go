package command

import (
	"testing"

	"github.com/go-telegram/bot/models"
)

func TestParseSlashCommand(t *testing.T) {
	update := &models.Update{
		Message: &models.Message{
			Text: "/Report services week",
			Chat: models.Chat{ID: 42, Title: "Oficina Central"},
			From: &models.User{ID: 7},
		},
	}

	parsed, ok := Parse(update)
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if parsed.Command.Name != "report" {
		t.Fatalf("expected normalized name, got %q", parsed.Command.Name)
	}
	if got := parsed.Command.Param("args", ""); got != "services week" {
		t.Fatalf("expected joined args, got %q", got)
	}
	if parsed.ChatID != 42 || parsed.UserID != 7 {
		t.Fatalf("unexpected routing metadata: %+v", parsed)
	}
	if parsed.ChatTitle != "Oficina Central" {
		t.Fatalf("expected chat title, got %q", parsed.ChatTitle)
	}
	if parsed.IsCallback {
		t.Fatalf("message update must not be a callback")
	}
}

func TestParseStripsBotMention(t *testing.T) {
	update := &models.Update{
		Message: &models.Message{
			Text: "/status@oficina_bot",
			Chat: models.Chat{ID: 42},
		},
	}

	parsed, ok := Parse(update)
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if parsed.Command.Name != "status" {
		t.Fatalf("expected mention stripped, got %q", parsed.Command.Name)
	}
}

func TestParsePlainTextCommand(t *testing.T) {
	update := &models.Update{
		Message: &models.Message{
			Text: "status",
			Chat: models.Chat{ID: 42, FirstName: "Ana", LastName: "Souza"},
		},
	}

	parsed, ok := Parse(update)
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if parsed.Command.Name != "status" {
		t.Fatalf("expected plain text command, got %q", parsed.Command.Name)
	}
	if parsed.ChatTitle != "Ana Souza" {
		t.Fatalf("expected composed private-chat title, got %q", parsed.ChatTitle)
	}
}

func TestParseCallbackData(t *testing.T) {
	update := &models.Update{
		CallbackQuery: &models.CallbackQuery{
			ID:   "cb-1",
			From: models.User{ID: 7},
			Data: "report:type=general:period=week",
			Message: models.MaybeInaccessibleMessage{
				Type:    models.MaybeInaccessibleMessageTypeMessage,
				Message: &models.Message{Chat: models.Chat{ID: 42}},
			},
		},
	}

	parsed, ok := Parse(update)
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if parsed.Command.Name != "report" {
		t.Fatalf("expected callback command name, got %q", parsed.Command.Name)
	}
	if got := parsed.Command.Param("type", ""); got != "general" {
		t.Fatalf("expected type parameter, got %q", got)
	}
	if got := parsed.Command.Param("period", ""); got != "week" {
		t.Fatalf("expected period parameter, got %q", got)
	}
	if !parsed.IsCallback || parsed.CallbackID != "cb-1" {
		t.Fatalf("expected callback metadata, got %+v", parsed)
	}
	if parsed.ChatID != 42 {
		t.Fatalf("expected chat id from callback message, got %d", parsed.ChatID)
	}
}

func TestParseCallbackSkipsMalformedSegments(t *testing.T) {
	update := &models.Update{
		CallbackQuery: &models.CallbackQuery{
			ID:   "cb-2",
			From: models.User{ID: 7},
			Data: "menu_dashboard:noequals:=empty: type =general",
			Message: models.MaybeInaccessibleMessage{
				Type:    models.MaybeInaccessibleMessageTypeMessage,
				Message: &models.Message{Chat: models.Chat{ID: 42}},
			},
		},
	}

	parsed, ok := Parse(update)
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if parsed.Command.Name != "menu_dashboard" {
		t.Fatalf("unexpected name %q", parsed.Command.Name)
	}
	if _, exists := parsed.Command.Params["noequals"]; exists {
		t.Fatalf("segment without equals must be ignored")
	}
	if _, exists := parsed.Command.Params[""]; exists {
		t.Fatalf("empty keys must be ignored")
	}
	if got := parsed.Command.Param("type", ""); got != "general" {
		t.Fatalf("expected trimmed key and value, got %q", got)
	}
}

func TestParseRejectsEmptyUpdates(t *testing.T) {
	tests := []struct {
		name   string
		update *models.Update
	}{
		{name: "nil update", update: nil},
		{name: "no payload", update: &models.Update{}},
		{name: "blank text", update: &models.Update{Message: &models.Message{Text: "   ", Chat: models.Chat{ID: 1}}}},
		{name: "blank callback data", update: &models.Update{CallbackQuery: &models.CallbackQuery{ID: "x", Data: " "}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := Parse(tt.update); ok {
				t.Fatalf("expected parse to reject update")
			}
		})
	}
}
