package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateContent(t *testing.T) {
	var gotPath, gotKey, gotContentType string
	var gotBody generateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		gotContentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{
					"parts": []map[string]string{{"text": "Hello "}, {"text": "world"}},
				}},
			},
		})
	}))
	defer srv.Close()

	c := NewWithBaseURL("secret-key", "gemini-2.5-flash", srv.URL)
	got, err := c.GenerateContent(context.Background(), "say hello", false)
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if got != "Hello world" {
		t.Errorf("text = %q, want concatenated parts", got)
	}
	if gotPath != "/v1beta/models/gemini-2.5-flash:generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "secret-key" {
		t.Errorf("api key header = %q", gotKey)
	}
	if gotContentType != "application/json" {
		t.Errorf("content type = %q", gotContentType)
	}
	if len(gotBody.Contents) != 1 || gotBody.Contents[0].Parts[0].Text != "say hello" {
		t.Errorf("request contents = %+v", gotBody.Contents)
	}
	if len(gotBody.Tools) != 0 {
		t.Errorf("tools present without search: %+v", gotBody.Tools)
	}
}

func TestGenerateContentWithSearch(t *testing.T) {
	var raw map[string]json.RawMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &raw)
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer srv.Close()

	c := NewWithBaseURL("k", "m", srv.URL)
	if _, err := c.GenerateContent(context.Background(), "p", true); err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}

	tools, ok := raw["tools"]
	if !ok {
		t.Fatal("tools field missing from request")
	}
	if !strings.Contains(string(tools), "google_search") {
		t.Errorf("tools = %s, want google_search on-switch", tools)
	}
}

func TestGenerateContentNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer srv.Close()

	c := NewWithBaseURL("k", "m", srv.URL)
	got, err := c.GenerateContent(context.Background(), "p", false)
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if got != "" {
		t.Errorf("text = %q, want empty for no candidates", got)
	}
}

func TestGenerateContentAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "quota exceeded", "status": "RESOURCE_EXHAUSTED"},
		})
	}))
	defer srv.Close()

	c := NewWithBaseURL("k", "m", srv.URL)
	_, err := c.GenerateContent(context.Background(), "p", false)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("error should surface the API message: %v", err)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error should include the status code: %v", err)
	}
}

func TestGenerateContentOpaqueError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream gone"))
	}))
	defer srv.Close()

	c := NewWithBaseURL("k", "m", srv.URL)
	_, err := c.GenerateContent(context.Background(), "p", false)
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("error = %v, want unexpected status 502", err)
	}
}

func TestGenerateContentContextCancel(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewWithBaseURL("k", "m", srv.URL)
	if _, err := c.GenerateContent(ctx, "p", false); err == nil {
		t.Error("expected error from cancelled context")
	}
}

func TestCheckModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.5-flash" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"name": "models/gemini-2.5-flash"})
	}))
	defer srv.Close()

	ok := NewWithBaseURL("k", "gemini-2.5-flash", srv.URL)
	if err := ok.CheckModel(context.Background()); err != nil {
		t.Errorf("CheckModel: %v", err)
	}

	missing := NewWithBaseURL("k", "nope", srv.URL)
	if err := missing.CheckModel(context.Background()); err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestNewWithBaseURLTrimsSlash(t *testing.T) {
	c := NewWithBaseURL("k", "m", "https://example.com/")
	if c.baseURL != "https://example.com" {
		t.Errorf("baseURL = %q", c.baseURL)
	}
}
