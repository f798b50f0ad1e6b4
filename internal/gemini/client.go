package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Part is a single piece of content in the Generative Language API format.
type Part struct {
	Text string `json:"text"`
}

// Content groups parts under an optional role.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Tool enables a provider-side capability on a request. Only the web search
// tool is used here; the empty object is the API's on-switch.
type Tool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

// Client communicates with the Google Generative Language API over HTTP.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the given API key and model. Request deadlines
// are the caller's responsibility via context.
func New(apiKey, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 0,
		},
	}
}

// NewWithBaseURL creates a Client pointing at a custom base URL (for testing).
func NewWithBaseURL(apiKey, model, baseURL string) *Client {
	c := New(apiKey, model)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// generateRequest is the JSON body for POST models/{model}:generateContent.
type generateRequest struct {
	Contents []Content `json:"contents"`
	Tools    []Tool    `json:"tools,omitempty"`
}

// generateResponse is the subset of the generateContent response we consume.
type generateResponse struct {
	Candidates []struct {
		Content Content `json:"content"`
	} `json:"candidates"`
}

// apiError mirrors the error envelope the API returns on non-200 statuses.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GenerateContent sends a single-turn prompt to the configured model and
// returns the concatenated text of the first candidate. When withSearch is
// true the google_search tool is enabled, which lets the model ground its
// answer in current web results but disables strict structured output.
func (c *Client) GenerateContent(ctx context.Context, prompt string, withSearch bool) (string, error) {
	gr := generateRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: prompt}}}},
	}
	if withSearch {
		gr.Tools = []Tool{{GoogleSearch: &struct{}{}}}
	}

	body, err := json.Marshal(gr)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var ae apiError
		if json.Unmarshal(data, &ae) == nil && ae.Error.Message != "" {
			return "", fmt.Errorf("generate: status %d: %s", resp.StatusCode, ae.Error.Message)
		}
		return "", fmt.Errorf("generate: unexpected status %d", resp.StatusCode)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding generate response: %w", err)
	}

	if len(result.Candidates) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// CheckModel verifies the configured model is visible to the API key.
// Used by the status command for a cheap reachability probe.
func (c *Client) CheckModel(ctx context.Context) error {
	url := fmt.Sprintf("%s/v1beta/models/%s", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating model request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("model request: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model %s: unexpected status %d", c.model, resp.StatusCode)
	}
	return nil
}
