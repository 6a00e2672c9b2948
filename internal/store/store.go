package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/lessonbot/core/logger"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("store: not found")

// Queries are written with '?' placeholders and rebound for the driver in use.
const (
	chatColumns = `id, user_id, username, admin, allow_access, current_lesson`

	qChatByID = `SELECT ` + chatColumns + ` FROM chats WHERE id = ?`

	qCreateChat = `INSERT INTO chats (id, user_id, username, admin)
VALUES (?, ?, ?, ?)
ON CONFLICT (id) DO NOTHING`

	qAdmins = `SELECT ` + chatColumns + ` FROM chats WHERE admin = TRUE ORDER BY created_at, id`

	qAllowAccess = `UPDATE chats SET allow_access = TRUE WHERE id = ?
RETURNING ` + chatColumns

	qAdvanceLesson = `UPDATE chats SET current_lesson = current_lesson + 1
WHERE id = ? AND current_lesson = ?`

	qLessonFiles = `SELECT id, lesson_number, file_id, mime_type FROM lesson_files
WHERE lesson_number = ? ORDER BY id`

	qInsertLessonFile = `INSERT INTO lesson_files (lesson_number, file_id, mime_type)
VALUES (?, ?, ?)
RETURNING id`

	qLatestLesson = `SELECT COALESCE(MAX(lesson_number), 0) FROM lesson_files`

	qChatStats = `SELECT
	COUNT(*) AS chats,
	COALESCE(SUM(CASE WHEN allow_access THEN 1 ELSE 0 END), 0) AS approved,
	COALESCE(SUM(CASE WHEN admin THEN 1 ELSE 0 END), 0) AS admins
FROM chats`

	qFileStats = `SELECT
	COUNT(*) AS lesson_files,
	COUNT(DISTINCT lesson_number) AS lessons
FROM lesson_files`
)

// Store is the relational access and lesson store.
// Every mutation is a single statement.
type Store struct {
	db *sqlx.DB
}

// New wraps an open database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) query(q string) string {
	return s.db.Rebind(q)
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ChatByID returns the chat row or ErrNotFound.
func (s *Store) ChatByID(ctx context.Context, id int64) (*Chat, error) {
	var c Chat
	err := s.db.GetContext(ctx, &c, s.query(qChatByID), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: select chat %d: %w", id, err)
	}
	return &c, nil
}

// CreateChat inserts the chat unless a row with the same id exists.
// It reports whether a row was inserted.
func (s *Store) CreateChat(ctx context.Context, in NewChat) (bool, error) {
	start := time.Now()
	username := sql.NullString{String: in.Username, Valid: in.Username != ""}
	res, err := s.db.ExecContext(ctx, s.query(qCreateChat), in.ID, in.UserID, username, in.Admin)
	if err != nil {
		return false, fmt.Errorf("store: insert chat %d: %w", in.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: insert chat %d: %w", in.ID, err)
	}
	logQuery(ctx, "chat.insert", start, slog.Int64("rows", n))
	return n > 0, nil
}

// Admins lists admin chats in creation order.
func (s *Store) Admins(ctx context.Context) ([]Chat, error) {
	var admins []Chat
	if err := s.db.SelectContext(ctx, &admins, s.query(qAdmins)); err != nil {
		return nil, fmt.Errorf("store: select admins: %w", err)
	}
	return admins, nil
}

// AllowAccess grants access to the chat and returns the updated row.
// ErrNotFound means no chat has that id.
func (s *Store) AllowAccess(ctx context.Context, id int64) (*Chat, error) {
	start := time.Now()
	var c Chat
	err := s.db.QueryRowxContext(ctx, s.query(qAllowAccess), id).StructScan(&c)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: allow access %d: %w", id, err)
	}
	logQuery(ctx, "chat.allow", start, slog.Int64("target_chat_id", id))
	return &c, nil
}

// AdvanceLesson moves the cursor from one lesson to the next.
// It returns false when the cursor no longer equals from.
func (s *Store) AdvanceLesson(ctx context.Context, id int64, from int) (bool, error) {
	start := time.Now()
	res, err := s.db.ExecContext(ctx, s.query(qAdvanceLesson), id, from)
	if err != nil {
		return false, fmt.Errorf("store: advance lesson for %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: advance lesson for %d: %w", id, err)
	}
	logQuery(ctx, "chat.advance", start, slog.Int("lesson", from), slog.Int64("rows", n))
	return n == 1, nil
}

// LessonFiles returns the files of a lesson in insertion order.
func (s *Store) LessonFiles(ctx context.Context, lesson int) ([]LessonFile, error) {
	var files []LessonFile
	if err := s.db.SelectContext(ctx, &files, s.query(qLessonFiles), lesson); err != nil {
		return nil, fmt.Errorf("store: select lesson %d files: %w", lesson, err)
	}
	return files, nil
}

// InsertLessonFile appends a file to a lesson and returns its id.
func (s *Store) InsertLessonFile(ctx context.Context, in NewLessonFile) (int64, error) {
	if strings.TrimSpace(in.FileID) == "" {
		return 0, fmt.Errorf("store: insert lesson file: empty file id")
	}
	if in.LessonNumber < 1 {
		return 0, fmt.Errorf("store: insert lesson file: invalid lesson %d", in.LessonNumber)
	}
	start := time.Now()
	var id int64
	err := s.db.QueryRowxContext(ctx, s.query(qInsertLessonFile), in.LessonNumber, in.FileID, in.MimeType).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: insert lesson file: %w", err)
	}
	logQuery(ctx, "lesson_file.insert", start, slog.Int("lesson", in.LessonNumber))
	return id, nil
}

// LatestLesson returns the highest lesson number with files, or 0 when there are none.
func (s *Store) LatestLesson(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, s.query(qLatestLesson)); err != nil {
		return 0, fmt.Errorf("store: latest lesson: %w", err)
	}
	return n, nil
}

// Stats returns aggregate counters.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	row := s.db.QueryRowxContext(ctx, s.query(qChatStats))
	if err := row.Scan(&st.Chats, &st.Approved, &st.Admins); err != nil {
		return Stats{}, fmt.Errorf("store: chat stats: %w", err)
	}
	row = s.db.QueryRowxContext(ctx, s.query(qFileStats))
	if err := row.Scan(&st.LessonFiles, &st.Lessons); err != nil {
		return Stats{}, fmt.Errorf("store: file stats: %w", err)
	}
	return st, nil
}

func logQuery(ctx context.Context, op string, start time.Time, attrs ...slog.Attr) {
	if !logger.ShouldSampleDebug() {
		return
	}
	attrs = append([]slog.Attr{
		slog.String("status", "ok"),
		slog.String("op", op),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}, attrs...)
	logger.LogEvent(ctx, logger.DB, slog.LevelDebug, "db.query", attrs...)
}
