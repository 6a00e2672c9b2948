package delivery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/lessonbot/internal/store"
)

type memStore struct {
	mu      sync.Mutex
	chats   map[int64]*store.Chat
	order   []int64
	files   []store.LessonFile
	nextID  int64
	failOn  map[string]error
	inserts int
}

func newMemStore() *memStore {
	return &memStore{chats: make(map[int64]*store.Chat), failOn: make(map[string]error)}
}

func (s *memStore) fail(op string) error {
	return s.failOn[op]
}

func (s *memStore) put(c store.Chat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.CurrentLesson == 0 {
		c.CurrentLesson = 1
	}
	if _, ok := s.chats[c.ID]; !ok {
		s.order = append(s.order, c.ID)
	}
	cp := c
	s.chats[c.ID] = &cp
}

func (s *memStore) addFile(lesson int, fileID, mime string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.files = append(s.files, store.LessonFile{ID: s.nextID, LessonNumber: lesson, FileID: fileID, MimeType: mime})
}

func (s *memStore) chat(id int64) store.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.chats[id]
}

func (s *memStore) ChatByID(_ context.Context, id int64) (*store.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ChatByID"); err != nil {
		return nil, err
	}
	c, ok := s.chats[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) CreateChat(_ context.Context, in store.NewChat) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("CreateChat"); err != nil {
		return false, err
	}
	if _, ok := s.chats[in.ID]; ok {
		return false, nil
	}
	s.chats[in.ID] = &store.Chat{
		ID:            in.ID,
		UserID:        in.UserID,
		Username:      sql.NullString{String: in.Username, Valid: in.Username != ""},
		Admin:         in.Admin,
		CurrentLesson: 1,
	}
	s.order = append(s.order, in.ID)
	return true, nil
}

func (s *memStore) Admins(context.Context) ([]store.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("Admins"); err != nil {
		return nil, err
	}
	var out []store.Chat
	for _, id := range s.order {
		if c := s.chats[id]; c.Admin {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *memStore) AllowAccess(_ context.Context, id int64) (*store.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c.AllowAccess = true
	cp := *c
	return &cp, nil
}

func (s *memStore) AdvanceLesson(_ context.Context, id int64, from int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("AdvanceLesson"); err != nil {
		return false, err
	}
	c, ok := s.chats[id]
	if !ok || c.CurrentLesson != from {
		return false, nil
	}
	c.CurrentLesson++
	return true, nil
}

func (s *memStore) LessonFiles(_ context.Context, lesson int) ([]store.LessonFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.LessonFile
	for _, f := range s.files {
		if f.LessonNumber == lesson {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *memStore) InsertLessonFile(_ context.Context, in store.NewLessonFile) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("InsertLessonFile"); err != nil {
		return 0, err
	}
	s.nextID++
	s.inserts++
	s.files = append(s.files, store.LessonFile{ID: s.nextID, LessonNumber: in.LessonNumber, FileID: in.FileID, MimeType: in.MimeType})
	return s.nextID, nil
}

func (s *memStore) LatestLesson(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := 0
	for _, f := range s.files {
		if f.LessonNumber > max {
			max = f.LessonNumber
		}
	}
	return max, nil
}

type call struct {
	op      string
	chatID  int64
	text    string
	fileID  string
	caption string
	markup  *tele.ReplyMarkup
	msgID   int
}

// recTransport records calls. failAt makes the n-th (1-based) send fail.
type recTransport struct {
	mu       sync.Mutex
	calls    []call
	inFlight int
	maxIn    int
	failAt   int
	failDel  error
	sends    int
	onSend   func()
}

func (t *recTransport) record(c call) error {
	t.mu.Lock()
	t.inFlight++
	if t.inFlight > t.maxIn {
		t.maxIn = t.inFlight
	}
	t.sends++
	n := t.sends
	hook := t.onSend
	t.mu.Unlock()

	if hook != nil {
		hook()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.inFlight--
	if t.failAt != 0 && n == t.failAt {
		return fmt.Errorf("send %d: %w", n, errSend)
	}
	t.calls = append(t.calls, c)
	return nil
}

var errSend = errors.New("transport: bot was blocked by the user")

func (t *recTransport) SendText(_ context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error {
	return t.record(call{op: "text", chatID: chatID, text: text, markup: markup})
}

func (t *recTransport) SendDocument(_ context.Context, chatID int64, fileID, caption string) error {
	return t.record(call{op: "document", chatID: chatID, fileID: fileID, caption: caption})
}

func (t *recTransport) SendAudio(_ context.Context, chatID int64, fileID string) error {
	return t.record(call{op: "audio", chatID: chatID, fileID: fileID})
}

func (t *recTransport) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failDel != nil {
		return t.failDel
	}
	t.calls = append(t.calls, call{op: "delete", chatID: chatID, msgID: messageID})
	return nil
}

func (t *recTransport) ops() []call {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]call(nil), t.calls...)
}

func (t *recTransport) textsTo(chatID int64) []call {
	var out []call
	for _, c := range t.ops() {
		if c.op == "text" && c.chatID == chatID {
			out = append(out, c)
		}
	}
	return out
}
