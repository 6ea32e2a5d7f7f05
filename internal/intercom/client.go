// Package intercom provides a minimal client for the chat platform REST API.
package intercom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ReplyTypeNote marks a reply as an internal note, invisible to the end user.
const ReplyTypeNote = "note"

// Client is a chat platform API client.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL, accessToken string) (*Client, error) {
	if accessToken == "" {
		return nil, errors.New("access token is required")
	}

	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

// Reply is the payload for posting a reply to a conversation.
type Reply struct {
	MessageType string `json:"message_type"`
	Type        string `json:"type"`
	AdminID     string `json:"admin_id"`
	Body        string `json:"body"`
}

// ReplyToConversation posts a reply or note to a conversation.
func (c *Client) ReplyToConversation(ctx context.Context, conversationID string, reply Reply) error {
	payload, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to encode reply: %w", err)
	}

	url := fmt.Sprintf("%s/conversations/%s/reply", c.baseURL, conversationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reply request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("reply request returned %d: %s", resp.StatusCode, body)
	}

	return nil
}
