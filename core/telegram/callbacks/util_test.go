package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		name         string
		cb           *tele.Callback
		key, payload string
	}{
		{name: "nil", cb: nil},
		{name: "unique set", cb: &tele.Callback{Unique: "allow", Data: "42"}, key: "allow", payload: "42"},
		{name: "raw encoded", cb: &tele.Callback{Data: "\fallow|42"}, key: "allow", payload: "42"},
		{name: "no payload", cb: &tele.Callback{Data: "\fping"}, key: "ping"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, payload := ParseCallbackData(tc.cb)
			if key != tc.key || payload != tc.payload {
				t.Fatalf("got (%q, %q), want (%q, %q)", key, payload, tc.key, tc.payload)
			}
		})
	}
}

func TestPayloadInt64(t *testing.T) {
	bot, err := tele.NewBot(tele.Settings{Offline: true})
	if err != nil {
		t.Fatalf("bot: %v", err)
	}
	c := bot.NewContext(tele.Update{Callback: &tele.Callback{Unique: "allow", Data: "1001"}})
	id, err := PayloadInt64(c)
	if err != nil || id != 1001 {
		t.Fatalf("payload = %d, %v", id, err)
	}

	c = bot.NewContext(tele.Update{Callback: &tele.Callback{Unique: "allow", Data: "abc"}})
	if _, err := PayloadInt64(c); err == nil {
		t.Fatal("expected parse error")
	}
}
