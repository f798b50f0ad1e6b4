package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pulsedesk/internal/dashboard"
	"pulsedesk/internal/feed"
)

const testToken = "test-token"

type stubIngester struct {
	articles []feed.Article
	err      error
	composed string
}

func (s *stubIngester) Discover(ctx context.Context) ([]feed.Article, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.articles, nil
}

func (s *stubIngester) Compose(ctx context.Context, article feed.Article) string {
	return s.composed
}

type stubPublisher struct {
	err error
}

func (s *stubPublisher) Publish(ctx context.Context, content string) error { return s.err }

type stubStore struct {
	articles []feed.Article
	posts    []feed.GeneratedPost
}

func (s *stubStore) LoadArticles() []feed.Article { return s.articles }

func (s *stubStore) SaveArticles(articles []feed.Article) error {
	s.articles = articles
	return nil
}

func (s *stubStore) LoadPosts() []feed.GeneratedPost { return s.posts }

func (s *stubStore) SavePosts(posts []feed.GeneratedPost) error {
	s.posts = posts
	return nil
}

func (s *stubStore) Clear() error {
	s.articles = nil
	s.posts = nil
	return nil
}

func newTestHandler(ing *stubIngester, pub *stubPublisher, store *stubStore) http.Handler {
	if ing == nil {
		ing = &stubIngester{}
	}
	if pub == nil {
		pub = &stubPublisher{}
	}
	if store == nil {
		store = &stubStore{}
	}
	c := dashboard.New(ing, pub, store, "https://example.com/feed/")
	c.Initialize()
	return NewAppHandler(AppDeps{Controller: c, Token: testToken})
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	r.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHealthIsOpen(t *testing.T) {
	h := newTestHandler(nil, nil, nil)

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", w.Code)
	}
}

func TestMissingTokenRejected(t *testing.T) {
	h := newTestHandler(nil, nil, nil)

	for _, tc := range []struct {
		name  string
		token string
	}{
		{"no header", ""},
		{"wrong token", "Bearer nope"},
		{"wrong scheme", "Basic " + testToken},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/articles", nil)
			if tc.token != "" {
				r.Header.Set("Authorization", tc.token)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestRefreshNews(t *testing.T) {
	ing := &stubIngester{articles: []feed.Article{{ID: "a1", Title: "Cloud region"}}}
	h := newTestHandler(ing, nil, nil)

	w := doRequest(t, h, http.MethodPost, "/news/refresh", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var got []feed.Article
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a1" {
		t.Errorf("articles = %+v", got)
	}
}

func TestRefreshNewsProviderError(t *testing.T) {
	ing := &stubIngester{err: &feed.ProviderError{Op: "discover", Err: context.DeadlineExceeded}}
	h := newTestHandler(ing, nil, nil)

	w := doRequest(t, h, http.MethodPost, "/news/refresh", "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}

	var body struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if body.Error.Type != "provider_error" {
		t.Errorf("error type = %q", body.Error.Type)
	}
}

func TestListArticlesEmpty(t *testing.T) {
	h := newTestHandler(nil, nil, nil)

	w := doRequest(t, h, http.MethodGet, "/articles", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("empty collection must encode as [], got %s", w.Body.String())
	}
}

func TestAddArticleValidation(t *testing.T) {
	h := newTestHandler(nil, nil, nil)

	for _, tc := range []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"id":"b1","title":"Briefing"}`, http.StatusCreated},
		{"missing id", `{"title":"Briefing"}`, http.StatusBadRequest},
		{"missing title", `{"id":"b1"}`, http.StatusBadRequest},
		{"malformed", `{not json`, http.StatusBadRequest},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(t, h, http.MethodPost, "/articles", tc.body)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestGenerateDraft(t *testing.T) {
	ing := &stubIngester{composed: "Draft body"}
	store := &stubStore{articles: []feed.Article{{ID: "a1", Title: "Pipeline deal"}}}
	h := newTestHandler(ing, nil, store)

	w := doRequest(t, h, http.MethodPost, "/posts", `{"article_id":"a1"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var post feed.GeneratedPost
	if err := json.NewDecoder(w.Body).Decode(&post); err != nil {
		t.Fatalf("decoding post: %v", err)
	}
	if post.Content != "Draft body" || post.Status != feed.StatusDraft {
		t.Errorf("post = %+v", post)
	}
}

func TestGenerateDraftUnknownArticle(t *testing.T) {
	h := newTestHandler(nil, nil, nil)

	w := doRequest(t, h, http.MethodPost, "/posts", `{"article_id":"missing"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestSavePost(t *testing.T) {
	store := &stubStore{posts: []feed.GeneratedPost{{ID: "p1", Content: "old"}}}
	h := newTestHandler(nil, nil, store)

	w := doRequest(t, h, http.MethodPatch, "/posts/p1", `{"content":"new"}`)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if store.posts[0].Content != "new" {
		t.Errorf("content = %q", store.posts[0].Content)
	}
}

func TestSavePostUnknownIDStillNoContent(t *testing.T) {
	h := newTestHandler(nil, nil, nil)

	w := doRequest(t, h, http.MethodPatch, "/posts/missing", `{"content":"x"}`)
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204 for silent no-op", w.Code)
	}
}

func TestPublishPost(t *testing.T) {
	store := &stubStore{posts: []feed.GeneratedPost{
		{ID: "p1", Content: "Ready to ship", Status: feed.StatusDraft},
	}}
	h := newTestHandler(nil, nil, store)

	w := doRequest(t, h, http.MethodPost, "/posts/p1/publish", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Post     feed.GeneratedPost `json:"post"`
		ShareURL string             `json:"share_url"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Post.Status != feed.StatusPublished {
		t.Errorf("post status = %q", resp.Post.Status)
	}
	if !strings.Contains(resp.ShareURL, "shareActive=true") {
		t.Errorf("share URL = %q", resp.ShareURL)
	}
}

func TestPublishPostEndpointFailure(t *testing.T) {
	pub := &stubPublisher{err: context.DeadlineExceeded}
	store := &stubStore{posts: []feed.GeneratedPost{{ID: "p1", Status: feed.StatusDraft}}}
	h := newTestHandler(nil, pub, store)

	w := doRequest(t, h, http.MethodPost, "/posts/p1/publish", "")
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	if store.posts[0].Status == feed.StatusPublished {
		t.Error("status must not flip on failed publish")
	}
}

func TestPublishPostUnknown(t *testing.T) {
	h := newTestHandler(nil, nil, nil)

	w := doRequest(t, h, http.MethodPost, "/posts/missing/publish", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestListPostsStatusFilter(t *testing.T) {
	store := &stubStore{posts: []feed.GeneratedPost{
		{ID: "p1", Status: feed.StatusDraft},
		{ID: "p2", Status: feed.StatusPublished},
		{ID: "p3", Status: feed.StatusDraft},
	}}
	h := newTestHandler(nil, nil, store)

	w := doRequest(t, h, http.MethodGet, "/posts?status=draft", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got []feed.GeneratedPost
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decoding posts: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("filtered posts = %d, want 2", len(got))
	}
	for _, p := range got {
		if p.Status != feed.StatusDraft {
			t.Errorf("post %s has status %q", p.ID, p.Status)
		}
	}
}

func TestStatusEndpoint(t *testing.T) {
	store := &stubStore{
		articles: []feed.Article{{ID: "a1"}},
		posts:    []feed.GeneratedPost{{ID: "p1"}, {ID: "p2"}},
	}
	h := newTestHandler(nil, nil, store)

	w := doRequest(t, h, http.MethodGet, "/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Generating bool   `json:"generating"`
		Publishing bool   `json:"publishing"`
		View       string `json:"view"`
		Articles   int    `json:"articles"`
		Posts      int    `json:"posts"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if resp.Generating || resp.Publishing {
		t.Error("idle controller reported busy")
	}
	if resp.View != "news" || resp.Articles != 1 || resp.Posts != 2 {
		t.Errorf("status = %+v", resp)
	}
}

func TestClearStorage(t *testing.T) {
	store := &stubStore{
		articles: []feed.Article{{ID: "a1"}},
		posts:    []feed.GeneratedPost{{ID: "p1"}},
	}
	h := newTestHandler(nil, nil, store)

	w := doRequest(t, h, http.MethodDelete, "/storage", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if store.articles != nil || store.posts != nil {
		t.Error("store not cleared")
	}

	w = doRequest(t, h, http.MethodGet, "/articles", "")
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("articles after clear = %s", w.Body.String())
	}
}
