// Package alerting dispatches a notification when a refreshed source
// publishes rates with a new effective date.
package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
)

// RateChange describes a source whose published effective date moved.
type RateChange struct {
	SourceID      string
	SourceName    string
	PreviousDate  civil.Date
	EffectiveDate civil.Date
	SourceURL     string
	NullLeaves    int
	Leaves        int
}

// Notifier delivers rate-change notifications.
type Notifier interface {
	Notify(ctx context.Context, change RateChange) error
}

// TelegramNotifier pushes messages through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram notifier.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify posts the rendered change through the sendMessage API.
func (n *TelegramNotifier) Notify(ctx context.Context, change RateChange) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(change),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	n.logger.Info().
		Str("source", change.SourceID).
		Stringer("effective_date", change.EffectiveDate).
		Msg("rate change alert sent (telegram)")
	return nil
}

func renderMessage(change RateChange) string {
	builder := strings.Builder{}
	builder.WriteString("[Bank Rate Update]\n")
	builder.WriteString(fmt.Sprintf("Bank: %s (%s)\n", change.SourceName, change.SourceID))
	builder.WriteString(fmt.Sprintf("Effective date: %s (was %s)\n", change.EffectiveDate, change.PreviousDate))
	if change.Leaves > 0 {
		builder.WriteString(fmt.Sprintf("Extracted: %d/%d rates\n", change.Leaves-change.NullLeaves, change.Leaves))
	}
	if change.SourceURL != "" {
		builder.WriteString(fmt.Sprintf("Source: %s\n", change.SourceURL))
	}
	return builder.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
