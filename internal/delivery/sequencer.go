package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/lessonbot/core/logger"
	"github.com/m3rciful/lessonbot/internal/locker"
	"github.com/m3rciful/lessonbot/internal/store"
)

type sendMode int

const (
	sendSkip sendMode = iota
	sendDocument
	sendAudio
)

// modeFor picks the send operation by MIME substring. "pdf" is checked first.
func modeFor(mime string) sendMode {
	switch {
	case strings.Contains(mime, "pdf"):
		return sendDocument
	case strings.Contains(mime, "audio"):
		return sendAudio
	default:
		return sendSkip
	}
}

// DeliverNext sends the chat's current lesson and advances its cursor.
//
// Deleting the triggering message is best effort. The rest runs under a per-chat lock;
// a second request while a delivery is in flight is dropped. A failed send aborts the
// remaining files and leaves the cursor where it was.
func (c *Controller) DeliverNext(ctx context.Context, msg Message) error {
	chatID := msg.ChatID
	ok, err := c.CheckAccess(ctx, chatID)
	if err != nil {
		return fmt.Errorf("deliver: access check: %w", err)
	}
	if !ok {
		logger.Debug(ctx, logger.CompDelivery, "lesson.next",
			slog.String("status", "denied"),
		)
		return nil
	}

	if msg.MessageID != 0 {
		if err := c.transport.DeleteMessage(ctx, chatID, msg.MessageID); err != nil {
			logger.Warn(ctx, logger.CompDelivery, "message.delete",
				slog.String("status", "fail"),
				slog.Int("message_id", msg.MessageID),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
		}
	}

	unlock, err := c.locker.TryLock(ctx, locker.ChatKey(chatID))
	if errors.Is(err, locker.ErrLocked) {
		logger.Info(ctx, logger.CompDelivery, "lesson.next",
			slog.String("status", "locked"),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("deliver: lock: %w", err)
	}
	defer unlock()

	return c.deliverLocked(ctx, chatID)
}

func (c *Controller) deliverLocked(ctx context.Context, chatID int64) error {
	start := time.Now()
	chat, err := c.store.ChatByID(ctx, chatID)
	if err != nil {
		return fmt.Errorf("deliver: read cursor: %w", err)
	}
	lesson := chat.CurrentLesson

	files, err := c.store.LessonFiles(ctx, lesson)
	if err != nil {
		return fmt.Errorf("deliver: lesson %d: %w", lesson, err)
	}
	if len(files) == 0 {
		logger.Info(ctx, logger.CompDelivery, "lesson.next",
			slog.String("status", "ok"),
			slog.String("outcome", "empty"),
			slog.Int("lesson", lesson),
		)
		return c.transport.SendText(ctx, chatID, msgNoMoreLessons, nil)
	}

	sent, dropped, err := c.sendFiles(ctx, chatID, lesson, files)
	if err != nil {
		return err
	}

	advanced, err := c.store.AdvanceLesson(ctx, chatID, lesson)
	if err != nil {
		return fmt.Errorf("deliver: advance from lesson %d: %w", lesson, err)
	}
	if !advanced {
		logger.Warn(ctx, logger.CompDelivery, "cursor.advance",
			slog.String("status", "skip"),
			slog.String("reason", "cursor_moved"),
			slog.Int("lesson", lesson),
		)
	}

	logger.Info(ctx, logger.CompDelivery, "lesson.next",
		slog.String("status", "ok"),
		slog.String("outcome", "delivered"),
		slog.Int("lesson", lesson),
		slog.Int("files", len(files)),
		slog.Int("sent", sent),
		slog.Int("dropped", dropped),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

// sendFiles sends files in order and stops at the first failure.
func (c *Controller) sendFiles(ctx context.Context, chatID int64, lesson int, files []store.LessonFile) (sent, dropped int, err error) {
	caption := fmt.Sprintf(lessonCaption, lesson)
	for _, f := range files {
		switch modeFor(f.MimeType) {
		case sendDocument:
			err = c.transport.SendDocument(ctx, chatID, f.FileID, caption)
		case sendAudio:
			err = c.transport.SendAudio(ctx, chatID, f.FileID)
		default:
			dropped++
			logger.Debug(ctx, logger.CompDelivery, "file.skip",
				slog.String("status", "skip"),
				slog.Int64("file", f.ID),
				slog.String("mime", logger.SanitizeLimit(f.MimeType, 64)),
			)
			continue
		}
		if err != nil {
			return sent, dropped, fmt.Errorf("deliver: lesson %d file %d: %w", lesson, f.ID, err)
		}
		sent++
	}
	return sent, dropped, nil
}
