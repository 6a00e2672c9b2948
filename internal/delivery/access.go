package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/lessonbot/core/logger"
	"github.com/m3rciful/lessonbot/core/telegram/keyboard"
	"github.com/m3rciful/lessonbot/internal/store"
)

// Register creates the chat row on first /start. Repeated calls do nothing.
// Admin is decided once, from the allow-list, at creation.
func (c *Controller) Register(ctx context.Context, msg Message) error {
	admin := c.admins.Contains(msg.From.Username)
	created, err := c.store.CreateChat(ctx, store.NewChat{
		ID:       msg.ChatID,
		UserID:   msg.From.UserID,
		Username: msg.From.Username,
		Admin:    admin,
	})
	if err != nil {
		return fmt.Errorf("register chat %d: %w", msg.ChatID, err)
	}
	if !created {
		logger.Debug(ctx, logger.CompAccess, "chat.exists",
			slog.String("status", "skip"),
		)
		return nil
	}
	logger.Info(ctx, logger.CompAccess, "chat.registered",
		slog.String("status", "ok"),
		slog.Bool("admin", admin),
	)
	if admin {
		return nil
	}
	return c.transport.SendText(ctx, msg.ChatID, msgPleaseRequest,
		keyboard.ReplyButtons([]string{ButtonRequestAccess}))
}

// RequestAccess notifies every admin, one at a time in row order, then tells the requester to wait.
// The first failed notification aborts the rest.
func (c *Controller) RequestAccess(ctx context.Context, msg Message) error {
	admins, err := c.store.Admins(ctx)
	if err != nil {
		return fmt.Errorf("request access: %w", err)
	}

	text := fmt.Sprintf(msgAccessRequest, displayName(msg.From, msg.ChatID), msg.ChatID)
	markup := keyboard.InlineButtons([]keyboard.InlineBtn{{
		Text:   ButtonAllow,
		Unique: AllowCallbackKey,
		Data:   strconv.FormatInt(msg.ChatID, 10),
	}})
	for i, admin := range admins {
		if err := c.transport.SendText(ctx, admin.ID, text, markup); err != nil {
			return fmt.Errorf("request access: notify admin %d (%d of %d): %w", admin.ID, i+1, len(admins), err)
		}
	}
	logger.Info(ctx, logger.CompAccess, "access.requested",
		slog.String("status", "ok"),
		slog.Int("admins", len(admins)),
	)

	return c.transport.SendText(ctx, msg.ChatID, msgRequestSent, keyboard.RemoveKeyboard())
}

// Allow approves target on behalf of adminChatID.
// Non-admin senders, unknown targets and targets without a username are ignored.
func (c *Controller) Allow(ctx context.Context, adminChatID, target int64) error {
	isAdmin, err := c.CheckAdmin(ctx, adminChatID)
	if err != nil {
		return fmt.Errorf("allow %d: %w", target, err)
	}
	if !isAdmin {
		logger.Info(ctx, logger.CompAccess, "access.allow",
			slog.String("status", "denied"),
			slog.Int64("target_chat_id", target),
		)
		return nil
	}

	chat, err := c.store.AllowAccess(ctx, target)
	if errors.Is(err, store.ErrNotFound) {
		logger.Info(ctx, logger.CompAccess, "access.allow",
			slog.String("status", "skip"),
			slog.String("reason", "not_found"),
			slog.Int64("target_chat_id", target),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("allow %d: %w", target, err)
	}
	username := strings.TrimSpace(chat.Username.String)
	if !chat.Username.Valid || username == "" {
		logger.Info(ctx, logger.CompAccess, "access.allow",
			slog.String("status", "skip"),
			slog.String("reason", "no_username"),
			slog.Int64("target_chat_id", target),
		)
		return nil
	}

	if err := c.transport.SendText(ctx, adminChatID, fmt.Sprintf(msgAllowed, username), nil); err != nil {
		return fmt.Errorf("allow %d: confirm to admin: %w", target, err)
	}
	if err := c.transport.SendText(ctx, chat.ID, msgWelcome,
		keyboard.PersistentReplyButtons([]string{ButtonNextLesson})); err != nil {
		return fmt.Errorf("allow %d: welcome: %w", target, err)
	}
	logger.Info(ctx, logger.CompAccess, "access.allow",
		slog.String("status", "ok"),
		slog.Int64("target_chat_id", target),
	)
	return nil
}

// displayName is @username, else the full name, else the numeric id.
func displayName(s Sender, chatID int64) string {
	if s.Username != "" {
		return "@" + s.Username
	}
	if name := strings.TrimSpace(s.FirstName + " " + s.LastName); name != "" {
		return name
	}
	if s.UserID != 0 {
		return strconv.FormatInt(s.UserID, 10)
	}
	return strconv.FormatInt(chatID, 10)
}
