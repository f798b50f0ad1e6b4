// Package dashboard holds the desk's in-memory state and keeps it in sync
// with the persisted store. Every mutating method ends with an explicit
// persist of the collection it touched; nothing is written reactively.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"pulsedesk/internal/feed"
	"pulsedesk/internal/publisher"
)

// View selects which collection the presentation surface is showing.
type View string

const (
	ViewNews      View = "news"
	ViewDrafts    View = "drafts"
	ViewPublished View = "published"
)

// Busy-overlay messages. When both operations are in flight the generating
// message wins.
const (
	generatingMessage = "Drafting your post..."
	publishingMessage = "Publishing to endpoint..."
)

var (
	// ErrArticleNotFound is returned by GenerateDraft for an unknown article id.
	ErrArticleNotFound = errors.New("article not found")
	// ErrPostNotFound is returned by PublishPost for an unknown post id.
	ErrPostNotFound = errors.New("post not found")
)

// Ingester is the AI adapter surface the controller drives.
type Ingester interface {
	Discover(ctx context.Context) ([]feed.Article, error)
	Compose(ctx context.Context, article feed.Article) string
}

// Publisher sends the outbound publish request for a post body.
type Publisher interface {
	Publish(ctx context.Context, content string) error
}

// Store is the persistence surface. Loads never fail; saves can.
type Store interface {
	LoadArticles() []feed.Article
	SaveArticles(articles []feed.Article) error
	LoadPosts() []feed.GeneratedPost
	SavePosts(posts []feed.GeneratedPost) error
	Clear() error
}

// Controller owns the article and post collections plus the view and busy
// flags. The flags are independent: a draft generation in flight does not
// block a publish. Overlapping generate/publish calls for the same id are
// coalesced so the duplicate caller shares the in-flight result instead of
// firing a second provider or endpoint call.
type Controller struct {
	ingester  Ingester
	publisher Publisher
	store     Store
	shareBase string

	mu       sync.Mutex
	articles []feed.Article
	posts    []feed.GeneratedPost
	view     View

	generating atomic.Bool
	publishing atomic.Bool

	inflight singleflight.Group
	initOnce sync.Once

	now func() time.Time
}

// New creates a Controller. shareBase is the share-intent base URL the
// publish flow appends the encoded post content to.
func New(ingester Ingester, pub Publisher, store Store, shareBase string) *Controller {
	return &Controller{
		ingester:  ingester,
		publisher: pub,
		store:     store,
		shareBase: shareBase,
		view:      ViewNews,
		now:       time.Now,
	}
}

// Initialize loads both collections from the store. It runs exactly once;
// later calls are no-ops.
func (c *Controller) Initialize() {
	c.initOnce.Do(func() {
		articles := c.store.LoadArticles()
		posts := c.store.LoadPosts()

		c.mu.Lock()
		c.articles = articles
		c.posts = posts
		c.mu.Unlock()
	})
}

// Articles returns a copy of the current article collection.
func (c *Controller) Articles() []feed.Article {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]feed.Article, len(c.articles))
	copy(out, c.articles)
	return out
}

// Posts returns a copy of the current post collection, newest drafts first.
func (c *Controller) Posts() []feed.GeneratedPost {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]feed.GeneratedPost, len(c.posts))
	copy(out, c.posts)
	return out
}

// View returns the active view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// SetView switches the active view.
func (c *Controller) SetView(v View) {
	c.mu.Lock()
	c.view = v
	c.mu.Unlock()
}

// Busy reports the two independent in-flight flags.
func (c *Controller) Busy() (generating, publishing bool) {
	return c.generating.Load(), c.publishing.Load()
}

// BusyMessage collapses the two flags into one overlay message. Generation
// wins ties; an empty string means idle.
func (c *Controller) BusyMessage() string {
	if c.generating.Load() {
		return generatingMessage
	}
	if c.publishing.Load() {
		return publishingMessage
	}
	return ""
}

// RefreshNews runs discovery and replaces the article collection with the
// result. Replacement is wholesale: no merging or deduplication against
// previously seen items. On a provider error the existing collection is
// left untouched and the error propagates.
func (c *Controller) RefreshNews(ctx context.Context) ([]feed.Article, error) {
	articles, err := c.ingester.Discover(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.articles = articles
	c.view = ViewNews
	c.mu.Unlock()

	if err := c.store.SaveArticles(articles); err != nil {
		return nil, fmt.Errorf("persisting articles: %w", err)
	}
	return articles, nil
}

// AddArticle appends one article (e.g. an imported briefing) to the
// collection. Unlike discovery this is additive.
func (c *Controller) AddArticle(article feed.Article) error {
	c.mu.Lock()
	c.articles = append(c.articles, article)
	snapshot := make([]feed.Article, len(c.articles))
	copy(snapshot, c.articles)
	c.mu.Unlock()

	if err := c.store.SaveArticles(snapshot); err != nil {
		return fmt.Errorf("persisting articles: %w", err)
	}
	return nil
}

// GenerateDraft composes a post body for the given article and prepends
// the new draft to the post collection; new drafts always land at index 0.
// The view switches to drafts and the returned post is the editor target.
// The generating flag is cleared on every exit path. Compose itself never
// fails (it degrades to placeholder text), so the only error paths are an
// unknown article id and a failed persist.
func (c *Controller) GenerateDraft(ctx context.Context, articleID string) (feed.GeneratedPost, error) {
	c.mu.Lock()
	article, ok := c.findArticle(articleID)
	c.mu.Unlock()
	if !ok {
		return feed.GeneratedPost{}, ErrArticleNotFound
	}

	v, err, _ := c.inflight.Do("draft:"+articleID, func() (any, error) {
		c.generating.Store(true)
		defer c.generating.Store(false)

		content := c.ingester.Compose(ctx, article)

		now := c.now().UnixMilli()
		post := feed.GeneratedPost{
			ID:                   uuid.New().String(),
			ArticleID:            article.ID,
			OriginalArticleTitle: article.Title,
			Content:              content,
			Status:               feed.StatusDraft,
			CreatedAt:            now,
			LastEditedAt:         now,
		}

		c.mu.Lock()
		c.posts = append([]feed.GeneratedPost{post}, c.posts...)
		snapshot := make([]feed.GeneratedPost, len(c.posts))
		copy(snapshot, c.posts)
		c.view = ViewDrafts
		c.mu.Unlock()

		if err := c.store.SavePosts(snapshot); err != nil {
			return post, fmt.Errorf("persisting posts: %w", err)
		}
		return post, nil
	})
	if err != nil {
		return feed.GeneratedPost{}, err
	}
	return v.(feed.GeneratedPost), nil
}

// SavePost replaces the content of the identified post and refreshes its
// last-edited time. An unknown id is a silent no-op, not an error.
func (c *Controller) SavePost(id, content string) error {
	c.mu.Lock()
	found := false
	for i := range c.posts {
		if c.posts[i].ID == id {
			c.posts[i].Content = content
			c.posts[i].LastEditedAt = c.now().UnixMilli()
			found = true
			break
		}
	}
	snapshot := make([]feed.GeneratedPost, len(c.posts))
	copy(snapshot, c.posts)
	c.mu.Unlock()

	if !found {
		return nil
	}
	if err := c.store.SavePosts(snapshot); err != nil {
		return fmt.Errorf("persisting posts: %w", err)
	}
	return nil
}

// PublishPost sends the outbound publish call for the post's last saved
// content and, on success, flips its status to published and returns the
// share-intent URL for the caller to open. On failure the status stays
// draft. The existence check happens before the publishing flag is set, and
// the flag clears on every exit path. Publishing an already-published post
// is allowed and re-runs the whole flow, including the outbound call; the
// resend is the documented behavior, not an accident.
func (c *Controller) PublishPost(ctx context.Context, id string) (string, error) {
	c.mu.Lock()
	post, ok := c.findPost(id)
	c.mu.Unlock()
	if !ok {
		return "", ErrPostNotFound
	}

	v, err, _ := c.inflight.Do("publish:"+id, func() (any, error) {
		c.publishing.Store(true)
		defer c.publishing.Store(false)

		if err := c.publisher.Publish(ctx, post.Content); err != nil {
			return "", fmt.Errorf("publishing post: %w", err)
		}

		c.mu.Lock()
		for i := range c.posts {
			if c.posts[i].ID == id {
				c.posts[i].Status = feed.StatusPublished
				break
			}
		}
		snapshot := make([]feed.GeneratedPost, len(c.posts))
		copy(snapshot, c.posts)
		c.mu.Unlock()

		if err := c.store.SavePosts(snapshot); err != nil {
			return "", fmt.Errorf("persisting posts: %w", err)
		}
		return publisher.ShareURL(c.shareBase, post.Content), nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// ClearAll wipes both collections, persisted and in-memory, and resets the
// view to news.
func (c *Controller) ClearAll() error {
	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("clearing store: %w", err)
	}

	c.mu.Lock()
	c.articles = nil
	c.posts = nil
	c.view = ViewNews
	c.mu.Unlock()
	return nil
}

// findArticle requires c.mu held.
func (c *Controller) findArticle(id string) (feed.Article, bool) {
	for _, a := range c.articles {
		if a.ID == id {
			return a, true
		}
	}
	return feed.Article{}, false
}

// findPost requires c.mu held.
func (c *Controller) findPost(id string) (feed.GeneratedPost, bool) {
	for _, p := range c.posts {
		if p.ID == id {
			return p, true
		}
	}
	return feed.GeneratedPost{}, false
}
