package delivery

import (
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/lessonbot/internal/store"
)

func newTeleContext(t *testing.T, upd tele.Update) tele.Context {
	t.Helper()
	bot, err := tele.NewBot(tele.Settings{Offline: true, URL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("bot: %v", err)
	}
	return bot.NewContext(upd)
}

func TestFromTele(t *testing.T) {
	if got := FromTele(nil); got.ChatID != 0 || got.Attachment != nil {
		t.Fatalf("nil message = %+v", got)
	}

	m := &tele.Message{
		ID:     4,
		Text:   "Next lesson",
		Chat:   &tele.Chat{ID: 100},
		Sender: &tele.User{ID: 7, Username: "kate", FirstName: "Kate", LastName: "Bell"},
	}
	msg := FromTele(m)
	if msg.ChatID != 100 || msg.MessageID != 4 || msg.Text != "Next lesson" {
		t.Fatalf("message = %+v", msg)
	}
	if msg.From != (Sender{UserID: 7, Username: "kate", FirstName: "Kate", LastName: "Bell"}) {
		t.Fatalf("sender = %+v", msg.From)
	}
	if msg.Attachment != nil {
		t.Fatal("text message has an attachment")
	}

	audio := FromTele(&tele.Message{
		Sender: &tele.User{ID: 8},
		Audio:  &tele.Audio{File: tele.File{FileID: "aud"}, MIME: "audio/mpeg"},
	})
	if audio.ChatID != 8 {
		t.Fatalf("chat id fallback = %d, want sender id", audio.ChatID)
	}
	if audio.Attachment == nil || audio.Attachment.FileID != "aud" || audio.Attachment.MimeType != "audio/mpeg" {
		t.Fatalf("audio attachment = %+v", audio.Attachment)
	}

	doc := FromTele(&tele.Message{
		Chat:     &tele.Chat{ID: 1},
		Caption:  "Next lesson",
		Document: &tele.Document{File: tele.File{FileID: "doc"}, MIME: "application/pdf"},
	})
	if doc.Attachment == nil || doc.Attachment.FileID != "doc" {
		t.Fatalf("document attachment = %+v", doc.Attachment)
	}
	if doc.Text != "" {
		t.Fatalf("caption leaked into text: %q", doc.Text)
	}
}

func TestResolveRunsController(t *testing.T) {
	f := newFixture(t)
	f.store.put(store.Chat{ID: 9, AllowAccess: true, CurrentLesson: 1})
	f.store.addFile(1, "a", "audio/mpeg")
	h := NewHandlers(f.ctrl)

	upd := func(text string) tele.Update {
		return tele.Update{ID: 1, Message: &tele.Message{
			ID: 5, Text: text, Chat: &tele.Chat{ID: 9}, Sender: &tele.User{ID: 9},
		}}
	}

	name, fn := h.Resolve(newTeleContext(t, upd("hello")))
	if fn != nil || name != EventNone.String() {
		t.Fatalf("plain text resolved to %q", name)
	}

	c := newTeleContext(t, upd("Next lesson"))
	name, fn = h.Resolve(c)
	if fn == nil || name != EventNextLesson.String() {
		t.Fatalf("resolve = %q, %v", name, fn != nil)
	}
	if err := fn(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got := f.store.chat(9).CurrentLesson; got != 2 {
		t.Fatalf("cursor = %d, want 2", got)
	}
}

func TestOnAllowCallback(t *testing.T) {
	f := newFixture(t)
	f.store.put(store.Chat{ID: 1, Admin: true})
	f.store.put(store.Chat{ID: 12345, Username: username("bob")})
	h := NewHandlers(f.ctrl)

	cb := func(data string) tele.Update {
		return tele.Update{ID: 2, Callback: &tele.Callback{
			ID:      "cb",
			Unique:  AllowCallbackKey,
			Data:    data,
			Sender:  &tele.User{ID: 1},
			Message: &tele.Message{ID: 3, Chat: &tele.Chat{ID: 1}},
		}}
	}

	if err := h.OnAllowCallback(newTeleContext(t, cb("garbage"))); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if f.store.chat(12345).AllowAccess {
		t.Fatal("bad payload approved a chat")
	}

	if err := h.OnAllowCallback(newTeleContext(t, cb("12345"))); err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !f.store.chat(12345).AllowAccess {
		t.Fatal("callback did not approve")
	}
	if texts := f.tr.textsTo(1); len(texts) != 1 || texts[0].text != "@bob allowed" {
		t.Fatalf("admin confirmation = %+v", texts)
	}
}

func TestOnLessonCommand(t *testing.T) {
	f := newFixture(t)
	f.store.put(store.Chat{ID: 1, Admin: true})
	h := NewHandlers(f.ctrl)

	cmd := func(payload string) tele.Context {
		return newTeleContext(t, tele.Update{ID: 4, Message: &tele.Message{
			ID: 8, Text: "/lesson " + payload, Payload: payload,
			Chat: &tele.Chat{ID: 1}, Sender: &tele.User{ID: 1},
		}})
	}

	if err := h.OnLessonCommand(cmd("")); err != nil {
		t.Fatalf("report: %v", err)
	}
	if err := h.OnLessonCommand(cmd("3")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := h.OnLessonCommand(cmd("three")); err != nil {
		t.Fatalf("invalid: %v", err)
	}

	var got []string
	for _, c := range f.tr.textsTo(1) {
		got = append(got, c.text)
	}
	want := []string{"Uploads go to lesson 1", "Uploads go to lesson 3", "Usage: /lesson <number>"}
	if len(got) != len(want) {
		t.Fatalf("replies = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("reply %d = %q, want %q", i, got[i], want[i])
		}
	}
	if !h.IsAdmin(cmd("")) {
		t.Fatal("admin chat not recognised")
	}
}
