package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Update is one inbound event from long polling, flattened to what the
// duty router needs: who spoke, where, what they said, and the file id of
// any photo or document they attached.
type Update struct {
	UserID     string
	ChatID     string
	Text       string
	Attachment string
}

// UpdateHandler processes one update and returns the reply text, or ""
// for no reply. The reply goes back to the chat the update came from.
type UpdateHandler func(upd Update) string

type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		From *struct {
			ID int64 `json:"id"`
		} `json:"from"`
		Chat *struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text  string `json:"text"`
		Photo []struct {
			FileID string `json:"file_id"`
		} `json:"photo"`
		Document *struct {
			FileID string `json:"file_id"`
		} `json:"document"`
	} `json:"message"`
}

// StartPolling begins long-polling for updates. Blocks until ctx is
// cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler UpdateHandler) {
	offset := 0
	client := &http.Client{Timeout: 35 * time.Second}

	for {
		select {
		case <-ctx.Done():
			log.Println("[INFO] Telegram polling stopped")
			return
		default:
		}

		apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/getUpdates?offset=%d&timeout=30", t.BotToken, offset)
		req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
		if err != nil {
			log.Printf("[ERROR] create polling request: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[WARN] polling request failed: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			log.Printf("[WARN] read polling response: %v", err)
			continue
		}

		var result struct {
			OK     bool             `json:"ok"`
			Result []telegramUpdate `json:"result"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			log.Printf("[WARN] decode polling response: %v", err)
			continue
		}

		for _, raw := range result.Result {
			offset = raw.UpdateID + 1
			upd, ok := flatten(raw)
			if !ok {
				continue
			}
			if upd.Text != "" {
				log.Printf("[INFO] received command from %s: %s", upd.UserID, upd.Text)
			}
			reply := handler(upd)
			if reply != "" {
				if err := t.SendTo(upd.ChatID, reply); err != nil {
					log.Printf("[ERROR] send reply: %v", err)
				}
			}
		}
	}
}

func flatten(raw telegramUpdate) (Update, bool) {
	msg := raw.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return Update{}, false
	}
	upd := Update{
		UserID: strconv.FormatInt(msg.From.ID, 10),
		ChatID: strconv.FormatInt(msg.Chat.ID, 10),
		Text:   strings.TrimSpace(msg.Text),
	}
	// Telegram lists photo sizes ascending; take the largest.
	if n := len(msg.Photo); n > 0 {
		upd.Attachment = msg.Photo[n-1].FileID
	} else if msg.Document != nil {
		upd.Attachment = msg.Document.FileID
	}
	if upd.Text == "" && upd.Attachment == "" {
		return Update{}, false
	}
	return upd, true
}
