// Package delivery implements the access and lesson progression flow of the bot.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/lessonbot/core/logger"
	"github.com/m3rciful/lessonbot/core/telegram/state"
	"github.com/m3rciful/lessonbot/internal/locker"
	"github.com/m3rciful/lessonbot/internal/store"
)

// Transport sends messages and files to chats.
type Transport interface {
	SendText(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error
	SendDocument(ctx context.Context, chatID int64, fileID, caption string) error
	SendAudio(ctx context.Context, chatID int64, fileID string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// Store is the persistence the controller needs.
type Store interface {
	ChatByID(ctx context.Context, id int64) (*store.Chat, error)
	CreateChat(ctx context.Context, in store.NewChat) (bool, error)
	Admins(ctx context.Context) ([]store.Chat, error)
	AllowAccess(ctx context.Context, id int64) (*store.Chat, error)
	AdvanceLesson(ctx context.Context, id int64, from int) (bool, error)
	LessonFiles(ctx context.Context, lesson int) ([]store.LessonFile, error)
	InsertLessonFile(ctx context.Context, in store.NewLessonFile) (int64, error)
	LatestLesson(ctx context.Context) (int, error)
}

// Options wires a Controller.
type Options struct {
	Store     Store
	Transport Transport
	Admins    AdminList
	// Locker defaults to an in-process locker.
	Locker locker.Locker
	// Sessions defaults to an in-memory manager.
	Sessions state.Manager
}

// Controller runs the registration, access, delivery and upload paths.
type Controller struct {
	store     Store
	transport Transport
	admins    AdminList
	locker    locker.Locker
	sessions  state.Manager
}

// NewController validates options and fills defaults.
func NewController(opts Options) (*Controller, error) {
	if opts.Store == nil {
		return nil, errors.New("delivery: store is required")
	}
	if opts.Transport == nil {
		return nil, errors.New("delivery: transport is required")
	}
	lk := opts.Locker
	if lk == nil {
		lk = locker.NewMemory()
	}
	sessions := opts.Sessions
	if sessions == nil {
		sessions = state.NewMemoryManager()
	}
	return &Controller{
		store:     opts.Store,
		transport: opts.Transport,
		admins:    opts.Admins,
		locker:    lk,
		sessions:  sessions,
	}, nil
}

// Handle dispatches ev and notifies the chat when the path fails.
// The original error is returned for the caller to log.
func (c *Controller) Handle(ctx context.Context, ev Event) error {
	err := c.Dispatch(ctx, ev)
	if err == nil {
		return nil
	}
	logger.Error(ctx, componentFor(ev.Kind), "path.failed",
		slog.String("status", "fail"),
		slog.String("handler", ev.Kind.String()),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
	if sendErr := c.transport.SendText(ctx, ev.Message.ChatID, msgFailure, nil); sendErr != nil {
		logger.Warn(ctx, componentFor(ev.Kind), "failure_notice",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(sendErr.Error(), 256)),
		)
	}
	return err
}

// Dispatch runs the path for ev.
func (c *Controller) Dispatch(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case EventUpload:
		return c.Upload(ctx, ev.Message)
	case EventStart:
		return c.Register(ctx, ev.Message)
	case EventRequestAccess:
		return c.RequestAccess(ctx, ev.Message)
	case EventAllow:
		return c.Allow(ctx, ev.Message.ChatID, ev.Target)
	case EventNextLesson:
		return c.DeliverNext(ctx, ev.Message)
	case EventNone:
		return nil
	default:
		return fmt.Errorf("delivery: unknown event kind %d", ev.Kind)
	}
}

// CheckAdmin reports whether the chat is registered as admin.
// An unknown chat is not an admin and is not an error.
func (c *Controller) CheckAdmin(ctx context.Context, chatID int64) (bool, error) {
	chat, err := c.lookup(ctx, chatID)
	if err != nil || chat == nil {
		return false, err
	}
	return chat.Admin, nil
}

// CheckAccess reports whether the chat is an admin or was approved.
func (c *Controller) CheckAccess(ctx context.Context, chatID int64) (bool, error) {
	chat, err := c.lookup(ctx, chatID)
	if err != nil {
		return false, err
	}
	return chat.HasAccess(), nil
}

func (c *Controller) lookup(ctx context.Context, chatID int64) (*store.Chat, error) {
	chat, err := c.store.ChatByID(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return chat, nil
}

func componentFor(k Kind) string {
	switch k {
	case EventNextLesson:
		return logger.CompDelivery
	case EventUpload:
		return logger.CompUpload
	default:
		return logger.CompAccess
	}
}
