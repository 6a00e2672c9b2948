package delivery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/lessonbot/core/logger"
	"github.com/m3rciful/lessonbot/internal/store"
)

const uploadLessonKey = "upload_lesson"

// Upload stores an admin's attachment as a file of the current upload lesson.
// Attachments from other chats are ignored.
func (c *Controller) Upload(ctx context.Context, msg Message) error {
	if msg.Attachment == nil {
		return nil
	}
	isAdmin, err := c.CheckAdmin(ctx, msg.ChatID)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	if !isAdmin {
		logger.Debug(ctx, logger.CompUpload, "lesson_file.upload",
			slog.String("status", "denied"),
		)
		return nil
	}

	lesson, err := c.UploadLesson(ctx, msg.ChatID)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	id, err := c.store.InsertLessonFile(ctx, store.NewLessonFile{
		LessonNumber: lesson,
		FileID:       msg.Attachment.FileID,
		MimeType:     msg.Attachment.MimeType,
	})
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	logger.Info(ctx, logger.CompUpload, "lesson_file.upload",
		slog.String("status", "ok"),
		slog.Int("lesson", lesson),
		slog.Int64("file", id),
		slog.String("mime", logger.SanitizeLimit(msg.Attachment.MimeType, 64)),
	)
	return c.transport.SendText(ctx, msg.ChatID, msgUploaded, nil)
}

// UploadLesson returns the lesson new uploads from adminChatID are attached to:
// the value chosen with SetUploadLesson, else the latest lesson in the store, else 1.
func (c *Controller) UploadLesson(ctx context.Context, adminChatID int64) (int, error) {
	if v, ok := c.sessions.GetTempInt64(adminChatID, uploadLessonKey); ok && v > 0 {
		return int(v), nil
	}
	latest, err := c.store.LatestLesson(ctx)
	if err != nil {
		return 0, err
	}
	if latest < 1 {
		return 1, nil
	}
	return latest, nil
}

// SetUploadLesson selects the lesson for the admin's following uploads and confirms it.
func (c *Controller) SetUploadLesson(ctx context.Context, adminChatID int64, lesson int) error {
	if lesson < 1 {
		return c.transport.SendText(ctx, adminChatID, msgLessonUsage, nil)
	}
	c.sessions.SetTemp(adminChatID, uploadLessonKey, int64(lesson))
	logger.Info(ctx, logger.CompUpload, "upload_lesson.set",
		slog.String("status", "ok"),
		slog.Int("lesson", lesson),
	)
	return c.transport.SendText(ctx, adminChatID, fmt.Sprintf(msgUploadTarget, lesson), nil)
}

// ReportUploadLesson replies with the current upload lesson.
func (c *Controller) ReportUploadLesson(ctx context.Context, adminChatID int64) error {
	lesson, err := c.UploadLesson(ctx, adminChatID)
	if err != nil {
		return fmt.Errorf("upload lesson: %w", err)
	}
	return c.transport.SendText(ctx, adminChatID, fmt.Sprintf(msgUploadTarget, lesson), nil)
}
