package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// TelegramNotifier sends messages via the Telegram Bot API. Announcements
// go to the duty chat, operational alerts to the admin chat, and fines are
// additionally delivered as direct messages.
type TelegramNotifier struct {
	BotToken       string
	AnnounceChatID string
	AdminChatID    string
	Client         *http.Client
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, announceChatID, adminChatID, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken:       botToken,
		AnnounceChatID: announceChatID,
		AdminChatID:    adminChatID,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// SendTo sends a message to an arbitrary chat (group or a user's DM).
func (t *TelegramNotifier) SendTo(chatID, text string) error {
	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.BotToken)
	payload := map[string]string{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	resp, err := t.Client.Post(apiURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, chatID, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := t.SendTo(chatID, text); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(i)) * time.Second
			log.Printf("[WARN] Telegram send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

// Announce posts to the duty announcement chat.
func (t *TelegramNotifier) Announce(ctx context.Context, text string) error {
	return t.SendWithRetry(ctx, t.AnnounceChatID, text, 3)
}

// Alert posts to the admin/operations chat.
func (t *TelegramNotifier) Alert(ctx context.Context, text string) error {
	return t.SendWithRetry(ctx, t.AdminChatID, text, 3)
}

// Direct sends a best-effort DM to a participant. Single attempt; DM
// delivery failures are the caller's to log and swallow.
func (t *TelegramNotifier) Direct(_ context.Context, userID, text string) error {
	return t.SendTo(userID, text)
}
