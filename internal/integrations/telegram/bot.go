// Package telegram adapts the Telegram Bot API to the engine's transport
// interfaces: it turns updates into events, sends replies, posts to the admin
// channel and stages uploaded documents on disk.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"intake-agent/internal/domain"
)

const pollTimeout = 30 // seconds, long-poll window

// Bot is the chat transport. Conversation IDs are Telegram chat IDs in
// decimal form.
type Bot struct {
	api        *tgbotapi.BotAPI
	adminChat  int64
	stagingDir string
	client     *http.Client
}

func New(token string, adminChat int64, stagingDir string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: authorize bot: %w", err)
	}
	return &Bot{
		api:        api,
		adminChat:  adminChat,
		stagingDir: stagingDir,
		client:     &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

// Run long-polls for updates and hands each mapped event to handle until ctx
// is cancelled.
func (b *Bot) Run(ctx context.Context, handle func(context.Context, domain.Event)) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeout
	updates := b.api.GetUpdatesChan(cfg)

	slog.Info("telegram bot polling", "username", b.api.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			ev, ok := eventFromUpdate(update)
			if !ok {
				continue
			}
			handle(ctx, ev)
		}
	}
}

// eventFromUpdate maps one Telegram update to a domain event. Updates that
// carry no message are dropped.
func eventFromUpdate(u tgbotapi.Update) (domain.Event, bool) {
	m := u.Message
	if m == nil {
		return domain.Event{}, false
	}
	conversationID := strconv.FormatInt(m.Chat.ID, 10)

	if m.IsCommand() && m.Command() == "start" {
		return domain.Event{ConversationID: conversationID, Kind: domain.EventStart}, true
	}
	if m.Document != nil {
		return domain.Event{
			ConversationID: conversationID,
			Kind:           domain.EventFile,
			File: &domain.FileMeta{
				FileID:    m.Document.FileID,
				FileName:  m.Document.FileName,
				MimeType:  m.Document.MimeType,
				SizeBytes: int64(m.Document.FileSize),
			},
		}, true
	}
	return domain.Event{ConversationID: conversationID, Kind: domain.EventText, Text: m.Text}, true
}

// SendMessage delivers one text message to a conversation.
func (b *Bot) SendMessage(_ context.Context, conversationID, text string) error {
	chatID, err := strconv.ParseInt(conversationID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: bad conversation ID %q: %w", conversationID, err)
	}
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	return nil
}

// SendAdminMessage posts to the configured admin group chat.
func (b *Bot) SendAdminMessage(_ context.Context, text string) error {
	if _, err := b.api.Send(tgbotapi.NewMessage(b.adminChat, text)); err != nil {
		return fmt.Errorf("telegram: send admin message: %w", err)
	}
	return nil
}

// Download fetches the document behind fileID into the staging directory and
// returns the local path. The staged name is uuid-prefixed so simultaneous
// uploads of equally named files cannot collide.
func (b *Bot) Download(ctx context.Context, fileID, fileName string) (string, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("telegram: resolve file link: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("telegram: build download request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("telegram: download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("telegram: download file: unexpected status %s", resp.Status)
	}

	if err := os.MkdirAll(b.stagingDir, 0o755); err != nil {
		return "", fmt.Errorf("telegram: create staging dir: %w", err)
	}
	dest := filepath.Join(b.stagingDir, uuid.NewString()+"_"+sanitizeName(fileName))

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("telegram: create staged file: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("telegram: write staged file: %w", err)
	}
	return dest, nil
}

// sanitizeName strips any path components from a transport-supplied filename.
func sanitizeName(name string) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "upload"
	}
	return base
}
