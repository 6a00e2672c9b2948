package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/m3rciful/lessonbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// ErrTransportUnbound is returned when a transport is used before the bot started.
var ErrTransportUnbound = errors.New("telegram: transport is not bound to a bot")

// Sender is the subset of *tele.Bot used for outbound calls.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
}

// BotTransport sends messages and files on behalf of services.
// It is created before the bot and bound to it from the OnStart hook.
type BotTransport struct {
	mu     sync.RWMutex
	sender Sender
}

// NewBotTransport returns an unbound transport.
func NewBotTransport() *BotTransport {
	return &BotTransport{}
}

// Bind attaches the sender used for all subsequent calls.
func (t *BotTransport) Bind(s Sender) {
	t.mu.Lock()
	t.sender = s
	t.mu.Unlock()
}

func (t *BotTransport) current() (Sender, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.sender == nil {
		return nil, ErrTransportUnbound
	}
	return t.sender, nil
}

// SendText sends a text message with an optional reply markup.
func (t *BotTransport) SendText(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error {
	s, err := t.current()
	if err != nil {
		return err
	}
	opts := &tele.SendOptions{}
	if markup != nil {
		opts.ReplyMarkup = markup
	}
	_, err = s.Send(tele.ChatID(chatID), text, opts)
	logSend(ctx, "send.text", chatID, err)
	return err
}

// SendDocument sends a previously uploaded document by file id without a notification.
func (t *BotTransport) SendDocument(ctx context.Context, chatID int64, fileID, caption string) error {
	s, err := t.current()
	if err != nil {
		return err
	}
	doc := &tele.Document{File: tele.File{FileID: fileID}, Caption: caption}
	_, err = s.Send(tele.ChatID(chatID), doc, &tele.SendOptions{DisableNotification: true})
	logSend(ctx, "send.document", chatID, err)
	return err
}

// SendAudio sends a previously uploaded audio by file id without a notification.
func (t *BotTransport) SendAudio(ctx context.Context, chatID int64, fileID string) error {
	s, err := t.current()
	if err != nil {
		return err
	}
	audio := &tele.Audio{File: tele.File{FileID: fileID}}
	_, err = s.Send(tele.ChatID(chatID), audio, &tele.SendOptions{DisableNotification: true})
	logSend(ctx, "send.audio", chatID, err)
	return err
}

// DeleteMessage removes a message from a chat.
func (t *BotTransport) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	s, err := t.current()
	if err != nil {
		return err
	}
	err = s.Delete(&tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: chatID})
	logSend(ctx, "delete.message", chatID, err)
	return err
}

func logSend(ctx context.Context, event string, chatID int64, err error) {
	if err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelDebug, event,
			slog.String("status", "fail"),
			slog.Int64("target_chat_id", chatID),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return
	}
	if logger.ShouldSampleDebug() {
		logger.LogEvent(ctx, logger.TG, slog.LevelDebug, event,
			slog.String("status", "ok"),
			slog.Int64("target_chat_id", chatID),
		)
	}
}
