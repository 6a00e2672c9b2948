package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m3rciful/lessonbot/internal/store"
)

type fakeBackend struct {
	pingErr  error
	statsErr error
	stats    store.Stats
}

func (f *fakeBackend) Ping(context.Context) error { return f.pingErr }

func (f *fakeBackend) Stats(context.Context) (store.Stats, error) { return f.stats, f.statsErr }

func serve(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	s := NewServer(":0", &fakeBackend{pingErr: errors.New("down")})
	if rec := serve(t, s, http.MethodGet, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
	if rec := serve(t, s, http.MethodPost, "/healthz"); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST healthz = %d", rec.Code)
	}
}

func TestReady(t *testing.T) {
	b := &fakeBackend{}
	s := NewServer(":0", b)
	if rec := serve(t, s, http.MethodGet, "/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("readyz = %d", rec.Code)
	}
	b.pingErr = errors.New("connection refused")
	if rec := serve(t, s, http.MethodGet, "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with db down = %d", rec.Code)
	}
}

func TestStats(t *testing.T) {
	b := &fakeBackend{stats: store.Stats{Chats: 5, Approved: 2, Admins: 1, LessonFiles: 7, Lessons: 3}}
	s := NewServer(":0", b)

	rec := serve(t, s, http.MethodGet, "/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("stats = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	var got store.Stats
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != b.stats {
		t.Fatalf("stats = %+v, want %+v", got, b.stats)
	}

	b.statsErr = errors.New("boom")
	if rec := serve(t, s, http.MethodGet, "/stats"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("stats on error = %d", rec.Code)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := NewServer("127.0.0.1:0", &fakeBackend{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}
