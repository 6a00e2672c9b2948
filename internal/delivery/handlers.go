package delivery

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/lessonbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/lessonbot/core/telegram/helpers"
)

// Handlers adapts the controller to telebot handlers.
type Handlers struct {
	ctrl *Controller
}

// NewHandlers returns telebot adapters for ctrl.
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{ctrl: ctrl}
}

// FromTele converts a telebot message. A nil message yields the zero Message.
func FromTele(m *tele.Message) Message {
	if m == nil {
		return Message{}
	}
	msg := Message{MessageID: m.ID, Text: m.Text}
	if m.Chat != nil {
		msg.ChatID = m.Chat.ID
	}
	if m.Sender != nil {
		msg.From = Sender{
			UserID:    m.Sender.ID,
			Username:  m.Sender.Username,
			FirstName: m.Sender.FirstName,
			LastName:  m.Sender.LastName,
		}
		if msg.ChatID == 0 {
			msg.ChatID = m.Sender.ID
		}
	}
	switch {
	case m.Audio != nil:
		msg.Attachment = &Attachment{FileID: m.Audio.FileID, MimeType: m.Audio.MIME}
	case m.Document != nil:
		msg.Attachment = &Attachment{FileID: m.Document.FileID, MimeType: m.Document.MIME}
	}
	return msg
}

// Resolve classifies the message in c and returns the matching handler.
// It has the shape expected by the message router.
func (h *Handlers) Resolve(c tele.Context) (string, tele.HandlerFunc) {
	ev := Classify(FromTele(c.Message()))
	if ev.Kind == EventNone {
		return ev.Kind.String(), nil
	}
	return ev.Kind.String(), func(c tele.Context) error {
		return h.ctrl.Handle(tghelpers.BuildContext(c), ev)
	}
}

// OnMessage resolves and runs the handler for c. Used for command endpoints such as /start.
func (h *Handlers) OnMessage(c tele.Context) error {
	_, fn := h.Resolve(c)
	if fn == nil {
		return nil
	}
	return fn(c)
}

// OnAllowCallback approves the chat carried by the inline button payload.
func (h *Handlers) OnAllowCallback(c tele.Context) error {
	target, err := callbacks.PayloadInt64(c)
	if err != nil {
		return nil
	}
	ev := Event{Kind: EventAllow, Target: target, Message: Message{ChatID: chatOf(c)}}
	return h.ctrl.Handle(tghelpers.BuildContext(c), ev)
}

// OnLessonCommand handles "/lesson [n]" from admins.
func (h *Handlers) OnLessonCommand(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	chatID := chatOf(c)
	var arg string
	if m := c.Message(); m != nil {
		arg = strings.TrimSpace(m.Payload)
	}
	if arg == "" {
		return h.ctrl.ReportUploadLesson(ctx, chatID)
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		n = 0
	}
	return h.ctrl.SetUploadLesson(ctx, chatID, n)
}

// IsAdmin is the admin gate used by command routes. Store errors count as "not admin".
func (h *Handlers) IsAdmin(c tele.Context) bool {
	ok, err := h.ctrl.CheckAdmin(tghelpers.BuildContext(c), chatOf(c))
	return err == nil && ok
}

func chatOf(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if s := c.Sender(); s != nil {
		return s.ID
	}
	return 0
}
