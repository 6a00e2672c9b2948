package store

import "database/sql"

// Chat is one registered conversation.
// Username is a display label only and may be absent.
type Chat struct {
	ID            int64          `db:"id"`
	UserID        int64          `db:"user_id"`
	Username      sql.NullString `db:"username"`
	Admin         bool           `db:"admin"`
	AllowAccess   bool           `db:"allow_access"`
	CurrentLesson int            `db:"current_lesson"`
}

// HasAccess reports whether the chat may receive lessons.
func (c *Chat) HasAccess() bool {
	return c != nil && (c.Admin || c.AllowAccess)
}

// NewChat holds the values captured at first contact.
type NewChat struct {
	ID       int64
	UserID   int64
	Username string
	Admin    bool
}

// LessonFile references a file already stored by Telegram.
type LessonFile struct {
	ID           int64  `db:"id"`
	LessonNumber int    `db:"lesson_number"`
	FileID       string `db:"file_id"`
	MimeType     string `db:"mime_type"`
}

// NewLessonFile is the input of InsertLessonFile.
type NewLessonFile struct {
	LessonNumber int
	FileID       string
	MimeType     string
}

// Stats are aggregate counters exposed by the ops server.
type Stats struct {
	Chats       int `json:"chats"`
	Approved    int `json:"approved"`
	Admins      int `json:"admins"`
	LessonFiles int `json:"lesson_files"`
	Lessons     int `json:"lessons"`
}
