package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultAPIURL = "https://api.telegram.org"

type Bot struct {
	baseURL string
	chatID  string
	client  *http.Client
}

// NewBot creates a bot that posts to one administrators' chat.
func NewBot(token, chatID string) *Bot {
	return newBot(defaultAPIURL, token, chatID)
}

func newBot(apiURL, token, chatID string) *Bot {
	return &Bot{
		baseURL: strings.TrimRight(apiURL, "/") + "/bot" + token,
		chatID:  chatID,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *Bot) SendMessage(ctx context.Context, chatID, text string) error {
	endpoint := b.baseURL + "/sendMessage"

	params := url.Values{}
	params.Add("chat_id", chatID)
	params.Add("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API error: %s", resp.Status)
	}

	return nil
}

// NotifyAdmins posts text to the configured administrators' chat.
func (b *Bot) NotifyAdmins(ctx context.Context, text string) error {
	return b.SendMessage(ctx, b.chatID, text)
}
