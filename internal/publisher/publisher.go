// Package publisher sends the outbound publish request and builds the
// share-intent link the user completes manually. The outbound call is a
// demo-grade fire-and-forget POST: success is any 2xx status and nothing
// in the response body is relied on.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Keys inside the UGC payload. The receiving side expects these exact
// fully-qualified names.
const (
	shareContentKey = "com.linkedin.ugc.ShareContent"
	visibilityKey   = "com.linkedin.ugc.MemberNetworkVisibility"
)

const defaultTimeout = 15 * time.Second

// ShareCommentary carries the post body inside the UGC payload.
type ShareCommentary struct {
	Text string `json:"text"`
}

// ShareContent nests the commentary with its media category.
type ShareContent struct {
	ShareCommentary    ShareCommentary `json:"shareCommentary"`
	ShareMediaCategory string          `json:"shareMediaCategory"`
}

// Payload is the UGC-shaped body POSTed to the publish endpoint.
type Payload struct {
	Author          string                  `json:"author"`
	LifecycleState  string                  `json:"lifecycleState"`
	SpecificContent map[string]ShareContent `json:"specificContent"`
	Visibility      map[string]string       `json:"visibility"`
}

// NewPayload builds the publish body for one post's content.
func NewPayload(author, visibility, content string) Payload {
	return Payload{
		Author:         author,
		LifecycleState: "PUBLISHED",
		SpecificContent: map[string]ShareContent{
			shareContentKey: {
				ShareCommentary:    ShareCommentary{Text: content},
				ShareMediaCategory: "NONE",
			},
		},
		Visibility: map[string]string{
			visibilityKey: visibility,
		},
	}
}

// Client POSTs publish payloads to a fixed endpoint.
type Client struct {
	endpoint   string
	author     string
	visibility string
	httpClient *http.Client
}

// NewClient creates a publish client. visibility must be "PUBLIC" or
// "CONNECTIONS"; the caller's config layer defaults it.
func NewClient(endpoint, author, visibility string) *Client {
	return &Client{
		endpoint:   endpoint,
		author:     author,
		visibility: visibility,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// Publish POSTs the UGC payload for content. Any non-2xx status is a
// failure; there is no retry.
func (c *Client) Publish(ctx context.Context, content string) error {
	body, err := json.Marshal(NewPayload(c.author, c.visibility, content))
	if err != nil {
		return fmt.Errorf("marshalling publish payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating publish request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("publish request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("publish endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
