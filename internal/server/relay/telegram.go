package relay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramRelay forwards uploaded files to a Telegram channel used as
// object storage, and resolves stored file references back into
// time-limited delivery URLs. It holds no state beyond the bot session.
type TelegramRelay struct {
	bot     *tgbotapi.BotAPI
	apiBase string
	token   string

	// Exactly one of chatID / channelUsername is set.
	chatID          int64
	channelUsername string
}

// NewTelegramRelay connects the bot session. channel is either a numeric
// chat id (e.g. "-1001234567890") or a public channel "@username".
// All Telegram calls share a single bounded-timeout HTTP client; there are
// no retries.
func NewTelegramRelay(token, channel, apiBase string, timeout time.Duration) (*TelegramRelay, error) {
	client := &http.Client{Timeout: timeout}

	endpoint := strings.TrimSuffix(apiBase, "/") + "/bot%s/%s"
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to connect bot session: %w", err)
	}

	r := &TelegramRelay{
		bot:     bot,
		apiBase: strings.TrimSuffix(apiBase, "/"),
		token:   token,
	}

	if strings.HasPrefix(channel, "@") {
		r.channelUsername = channel
	} else {
		var id int64
		if _, err := fmt.Sscanf(channel, "%d", &id); err != nil {
			return nil, fmt.Errorf("invalid channel identifier %q: %w", channel, err)
		}
		r.chatID = id
	}

	slog.Info("telegram relay ready", "bot", bot.Self.UserName, "channel", channel)
	return r, nil
}

// Send posts the file as a document to the configured channel and returns
// the channel's file reference (and unique reference) for later resolution.
// Any transport error or non-success response aborts the whole operation.
func (r *TelegramRelay) Send(ctx context.Context, name, caption string, data io.Reader) (fileRef, uniqueRef string, err error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	doc := tgbotapi.NewDocument(r.chatID, tgbotapi.FileReader{
		Name:   name,
		Reader: data,
	})
	doc.ChannelUsername = r.channelUsername
	doc.Caption = caption

	msg, err := r.bot.Send(doc)
	if err != nil {
		return "", "", fmt.Errorf("sendDocument failed: %w", err)
	}
	if msg.Document == nil {
		return "", "", fmt.Errorf("sendDocument response carried no document")
	}

	return msg.Document.FileID, msg.Document.FileUniqueID, nil
}

// Resolve translates a stored file reference into the relative delivery
// path Telegram currently serves it under. The path expires; callers must
// not cache it.
func (r *TelegramRelay) Resolve(ctx context.Context, fileRef string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	file, err := r.bot.GetFile(tgbotapi.FileConfig{FileID: fileRef})
	if err != nil {
		return "", fmt.Errorf("getFile failed: %w", err)
	}
	if file.FilePath == "" {
		return "", fmt.Errorf("getFile response carried no file path")
	}
	return file.FilePath, nil
}

// FileURL composes the final delivery URL for a resolved relative path.
// The URL embeds the bot token and is time-limited.
func (r *TelegramRelay) FileURL(filePath string) string {
	return fmt.Sprintf("%s/file/bot%s/%s", r.apiBase, r.token, filePath)
}
