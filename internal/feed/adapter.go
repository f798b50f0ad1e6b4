package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Per-call deadlines. The provider offers no cancellation of its own, so an
// unresponsive call is converted into the operation's normal failure mode.
const (
	discoverTimeout = 60 * time.Second
	composeTimeout  = 45 * time.Second
)

// Fallback bodies for composition. Compose never returns an error: an empty
// response and a failed call each degrade to a fixed string so the editor
// workflow always has something to open.
const (
	composeEmptyFallback = "Failed to generate post."
	composeErrorFallback = "Error generating post content."
)

// ProviderError reports a discovery failure: either the provider call
// itself failed or its response could not be parsed as a JSON array after
// fence stripping. Discovery is all-or-nothing; no partial list survives.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Generator is the text-generation surface the adapter needs.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string, withSearch bool) (string, error)
}

// Adapter turns free-form provider responses into domain shapes. It is the
// only place raw provider text is handled; callers see []Article or a
// post body string, never the wire format.
type Adapter struct {
	client Generator
	logger *slog.Logger
}

// NewAdapter creates an Adapter over the given generation client.
func NewAdapter(client Generator) *Adapter {
	return &Adapter{client: client, logger: slog.Default()}
}

// Discover requests a bounded list of recent stories and normalizes them
// into Articles. Each article gets a freshly generated id (any id the
// provider emitted is ignored) and url defaults to the empty string.
// Successive calls do not deduplicate; the caller treats every result as a
// full replacement of its article collection.
func (a *Adapter) Discover(ctx context.Context) ([]Article, error) {
	ctx, cancel := context.WithTimeout(ctx, discoverTimeout)
	defer cancel()

	raw, err := a.client.GenerateContent(ctx, DiscoverPrompt(), true)
	if err != nil {
		return nil, &ProviderError{Op: "discover", Err: err}
	}

	cleaned := stripFences(raw)

	var articles []Article
	if err := json.Unmarshal([]byte(cleaned), &articles); err != nil {
		a.logger.Warn("discovery response not parseable", "error", err)
		return nil, &ProviderError{Op: "discover", Err: fmt.Errorf("parsing article list: %w", err)}
	}

	for i := range articles {
		articles[i].ID = uuid.New().String()
		normalizeArticle(&articles[i])
	}
	return articles, nil
}

// Compose drafts a post body for one article. It always returns a usable
// string: provider errors and empty responses degrade to fixed fallback
// text instead of propagating, in deliberate contrast to Discover.
func (a *Adapter) Compose(ctx context.Context, article Article) string {
	ctx, cancel := context.WithTimeout(ctx, composeTimeout)
	defer cancel()

	text, err := a.client.GenerateContent(ctx, ComposePrompt(article), false)
	if err != nil {
		a.logger.Warn("compose failed", "article_id", article.ID, "error", err)
		return composeErrorFallback
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return composeEmptyFallback
	}
	return text
}
