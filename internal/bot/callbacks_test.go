package bot

import (
	"strings"
	"testing"
	"unicode/utf8"

	"mint-bot/internal/conversation"
)

func TestChoiceCodec(t *testing.T) {
	choices := []conversation.Choice{
		conversation.Cancel{},
		conversation.PickForDelete{EventID: 5},
		conversation.ConfirmDelete{EventID: 5},
		conversation.PickForEdit{EventID: 12},
		conversation.EditField{Field: conversation.FieldStages},
	}
	for _, choice := range choices {
		data := encodeChoice(choice)
		if len(data) > 64 {
			t.Errorf("callback data %q exceeds Telegram's limit", data)
		}
		got, err := decodeChoice(data)
		if err != nil {
			t.Fatalf("decode %q: %v", data, err)
		}
		if got != choice {
			t.Errorf("decode %q = %#v, want %#v", data, got, choice)
		}
	}
}

func TestDecodeChoiceRejectsGarbage(t *testing.T) {
	for _, data := range []string{"", "delete_pick", "delete_pick:abc", "delete_confirm:-3", "edit_field:price", "settings"} {
		if _, err := decodeChoice(data); err == nil {
			t.Errorf("expected error for %q", data)
		}
	}
}

func TestSplitMessage(t *testing.T) {
	short := "hello"
	if got := splitMessage(short, 10); len(got) != 1 || got[0] != short {
		t.Errorf("short text must not be split, got %q", got)
	}

	text := "line one\nline two\nline three\n"
	chunks := splitMessage(text, 12)
	if strings.Join(chunks, "") != text {
		t.Errorf("chunks lost content: %q", chunks)
	}
	for _, chunk := range chunks {
		if len(chunk) > 12 {
			t.Errorf("chunk %q exceeds limit", chunk)
		}
	}

	arabic := strings.Repeat("م", 10)
	for _, chunk := range splitMessage(arabic, 5) {
		if !utf8.ValidString(chunk) {
			t.Errorf("chunk %q splits a rune", chunk)
		}
	}
}
