package keyboard

import "testing"

func TestReplyButtons(t *testing.T) {
	m := ReplyButtons([]string{"Request access"})
	if len(m.ReplyKeyboard) != 1 || len(m.ReplyKeyboard[0]) != 1 {
		t.Fatalf("unexpected layout: %+v", m.ReplyKeyboard)
	}
	if m.ReplyKeyboard[0][0].Text != "Request access" {
		t.Fatalf("label = %q", m.ReplyKeyboard[0][0].Text)
	}
	if m.IsPersistent {
		t.Fatal("plain reply keyboard must not be persistent")
	}
}

func TestPersistentReplyButtons(t *testing.T) {
	m := PersistentReplyButtons([]string{"Next lesson"})
	if !m.IsPersistent || !m.ResizeKeyboard {
		t.Fatalf("flags: persistent=%v resize=%v", m.IsPersistent, m.ResizeKeyboard)
	}
}

func TestInlineButtons(t *testing.T) {
	m := InlineButtons([]InlineBtn{{Text: "Allow", Unique: "allow", Data: "42"}})
	if len(m.InlineKeyboard) != 1 {
		t.Fatalf("rows = %d", len(m.InlineKeyboard))
	}
	btn := m.InlineKeyboard[0][0]
	if btn.Text != "Allow" || btn.Unique != "allow" || btn.Data != "42" {
		t.Fatalf("button = %+v", btn)
	}
}

func TestRemoveKeyboard(t *testing.T) {
	if !RemoveKeyboard().RemoveKeyboard {
		t.Fatal("remove flag not set")
	}
}
