package delivery

import (
	"strconv"
	"strings"
)

// Kind tags a classified inbound message.
type Kind int

// Event kinds. Dispatch switches over all of them.
const (
	EventNone Kind = iota
	EventUpload
	EventStart
	EventRequestAccess
	EventAllow
	EventNextLesson
)

func (k Kind) String() string {
	switch k {
	case EventUpload:
		return "upload"
	case EventStart:
		return "start"
	case EventRequestAccess:
		return "request_access"
	case EventAllow:
		return "allow"
	case EventNextLesson:
		return "next_lesson"
	default:
		return "none"
	}
}

// Sender identifies the author of a message.
type Sender struct {
	UserID    int64
	Username  string
	FirstName string
	LastName  string
}

// Attachment is an audio or document carried by a message.
type Attachment struct {
	FileID   string
	MimeType string
}

// Message is the transport-independent view of an inbound message.
type Message struct {
	ChatID     int64
	MessageID  int
	From       Sender
	Text       string
	Attachment *Attachment
}

// Event is a classified message. Target is set for EventAllow only.
type Event struct {
	Kind    Kind
	Message Message
	Target  int64
}

const (
	cmdStart    = "/start"
	cmdAllowPfx = "/allow_"
)

// Classify maps a message to exactly one event kind.
// Attachments win over text; captions are never classified.
func Classify(m Message) Event {
	ev := Event{Kind: EventNone, Message: m}
	if m.Attachment != nil {
		ev.Kind = EventUpload
		return ev
	}

	text := strings.TrimSpace(m.Text)
	if text == "" {
		return ev
	}

	if strings.HasPrefix(text, "/") {
		cmd := commandToken(text)
		switch {
		case cmd == cmdStart:
			ev.Kind = EventStart
		case strings.HasPrefix(cmd, cmdAllowPfx):
			if target, ok := parseTarget(strings.TrimPrefix(cmd, cmdAllowPfx)); ok {
				ev.Kind = EventAllow
				ev.Target = target
			}
		}
		return ev
	}

	switch text {
	case ButtonRequestAccess:
		ev.Kind = EventRequestAccess
	case ButtonNextLesson:
		ev.Kind = EventNextLesson
	}
	return ev
}

// commandToken returns the first word of text without a trailing @botname.
func commandToken(text string) string {
	cmd := strings.Fields(text)[0]
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	return cmd
}

func parseTarget(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
