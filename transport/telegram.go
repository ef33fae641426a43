// Package transport is the messaging edge of the bot: a thin Telegram Bot
// API client over plain HTTP and a long-poll loop that turns updates into
// intake events.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultAPIBaseURL = "https://api.telegram.org"

// Update is one entry from getUpdates.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is the subset of the Bot API message the bot cares about.
type Message struct {
	MessageID int64     `json:"message_id"`
	Chat      Chat      `json:"chat"`
	Text      string    `json:"text"`
	Document  *Document `json:"document"`
}

type Chat struct {
	ID int64 `json:"id"`
}

// Document carries the attachment reference and the declared media type.
type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

// BotClient talks to the Telegram Bot API.
type BotClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *zap.Logger
}

// NewBotClient builds a client whose HTTP timeout leaves headroom over the
// long-poll timeout.
func NewBotClient(token string, pollTimeout time.Duration, logger *zap.Logger) *BotClient {
	return &BotClient{
		httpClient: &http.Client{
			Timeout: pollTimeout + 10*time.Second,
		},
		baseURL: defaultAPIBaseURL,
		token:   token,
		logger:  logger,
	}
}

// call posts one Bot API method and decodes its result.
func (c *BotClient) call(ctx context.Context, method string, payload any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", method, err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return fmt.Errorf("parsing %s response: %w", method, err)
	}
	if !apiResp.OK {
		c.logger.Warn("telegram api call rejected",
			zap.String("method", method),
			zap.String("description", apiResp.Description),
		)
		return fmt.Errorf("%s rejected: %s", method, apiResp.Description)
	}
	if result != nil {
		if err := json.Unmarshal(apiResp.Result, result); err != nil {
			return fmt.Errorf("parsing %s result: %w", method, err)
		}
	}
	return nil
}

// GetUpdates long-polls for new updates starting at offset.
func (c *BotClient) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	payload := map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message"},
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendText sends a plain text message to a chat.
func (c *BotClient) SendText(ctx context.Context, chatID int64, text string) error {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	return c.call(ctx, "sendMessage", payload, nil)
}

// SendDocument forwards a previously uploaded document by its file id.
func (c *BotClient) SendDocument(ctx context.Context, chatID int64, fileID, caption string) error {
	payload := map[string]any{
		"chat_id":  chatID,
		"document": fileID,
		"caption":  caption,
	}
	return c.call(ctx, "sendDocument", payload, nil)
}
