// Package api exposes the dashboard controller over two local surfaces:
// a bearer-token-protected chi router for the CLI client, and an MCP tool
// server for agent use.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pulsedesk/internal/dashboard"
	"pulsedesk/internal/feed"
)

const maxRequestBodySize = 1 << 20 // 1MB

// AppDeps holds dependencies for the management handler.
type AppDeps struct {
	Controller *dashboard.Controller
	Token      string
}

// NewAppHandler builds the management router. /health is open; everything
// else requires the bearer token.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/news/refresh", handleRefreshNews(deps))
		r.Get("/articles", handleListArticles(deps))
		r.Post("/articles", handleAddArticle(deps))
		r.Get("/posts", handleListPosts(deps))
		r.Post("/posts", handleGenerateDraft(deps))
		r.Patch("/posts/{id}", handleSavePost(deps))
		r.Post("/posts/{id}/publish", handlePublishPost(deps))
		r.Get("/status", handleStatus(deps))
		r.Delete("/storage", handleClear(deps))
	})

	return r
}

func handleRefreshNews(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		articles, err := deps.Controller.RefreshNews(r.Context())
		if err != nil {
			var pe *feed.ProviderError
			if errors.As(err, &pe) {
				httpError(w, http.StatusBadGateway, "provider_error", "discovery failed: %v", pe.Err)
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "refresh failed: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, articles)
	}
}

func handleListArticles(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		articles := deps.Controller.Articles()
		if articles == nil {
			articles = []feed.Article{}
		}
		writeJSON(w, http.StatusOK, articles)
	}
}

func handleAddArticle(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var article feed.Article
		if err := json.NewDecoder(r.Body).Decode(&article); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if article.ID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "article id is required")
			return
		}
		if article.Title == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "article title is required")
			return
		}

		if err := deps.Controller.AddArticle(article); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "adding article: %v", err)
			return
		}
		writeJSON(w, http.StatusCreated, article)
	}
}

func handleListPosts(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts := deps.Controller.Posts()

		if status := r.URL.Query().Get("status"); status != "" {
			filtered := posts[:0]
			for _, p := range posts {
				if p.Status == status {
					filtered = append(filtered, p)
				}
			}
			posts = filtered
		}
		if posts == nil {
			posts = []feed.GeneratedPost{}
		}
		writeJSON(w, http.StatusOK, posts)
	}
}

type generateDraftRequest struct {
	ArticleID string `json:"article_id"`
}

func handleGenerateDraft(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var req generateDraftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.ArticleID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "article_id is required")
			return
		}

		post, err := deps.Controller.GenerateDraft(r.Context(), req.ArticleID)
		if err != nil {
			if errors.Is(err, dashboard.ErrArticleNotFound) {
				httpError(w, http.StatusNotFound, "not_found", "article %s not found", req.ArticleID)
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "generating draft: %v", err)
			return
		}
		writeJSON(w, http.StatusCreated, post)
	}
}

type savePostRequest struct {
	Content string `json:"content"`
}

func handleSavePost(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var req savePostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		// Unknown ids are a silent no-op, matching the controller contract.
		if err := deps.Controller.SavePost(chi.URLParam(r, "id"), req.Content); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "saving post: %v", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type publishResponse struct {
	Post     feed.GeneratedPost `json:"post"`
	ShareURL string             `json:"share_url"`
}

func handlePublishPost(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		shareURL, err := deps.Controller.PublishPost(r.Context(), id)
		if err != nil {
			if errors.Is(err, dashboard.ErrPostNotFound) {
				httpError(w, http.StatusNotFound, "not_found", "post %s not found", id)
				return
			}
			httpError(w, http.StatusBadGateway, "publish_error", "publish failed: %v", err)
			return
		}

		var post feed.GeneratedPost
		for _, p := range deps.Controller.Posts() {
			if p.ID == id {
				post = p
				break
			}
		}
		writeJSON(w, http.StatusOK, publishResponse{Post: post, ShareURL: shareURL})
	}
}

type statusResponse struct {
	Generating bool   `json:"generating"`
	Publishing bool   `json:"publishing"`
	Message    string `json:"message,omitempty"`
	View       string `json:"view"`
	Articles   int    `json:"articles"`
	Posts      int    `json:"posts"`
}

func handleStatus(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		generating, publishing := deps.Controller.Busy()
		writeJSON(w, http.StatusOK, statusResponse{
			Generating: generating,
			Publishing: publishing,
			Message:    deps.Controller.BusyMessage(),
			View:       string(deps.Controller.View()),
			Articles:   len(deps.Controller.Articles()),
			Posts:      len(deps.Controller.Posts()),
		})
	}
}

func handleClear(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if err := deps.Controller.ClearAll(); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "clearing storage: %v", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
