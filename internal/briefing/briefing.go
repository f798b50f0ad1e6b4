// Package briefing turns local PDF press briefings into feed articles so
// they can sit alongside discovered stories and feed the same drafting flow.
package briefing

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"pulsedesk/internal/feed"
)

// summaryLimit bounds the excerpt used as the article summary, in runes.
const summaryLimit = 480

// FromPDF extracts the plain text of a PDF at path and shapes it into an
// Article. The filename (without extension) becomes the title; the summary
// is a bounded excerpt of the extracted text.
func FromPDF(path, region, sector string) (feed.Article, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return feed.Article{}, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return feed.Article{}, fmt.Errorf("extracting text: %w", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, reader); err != nil {
		return feed.Article{}, fmt.Errorf("reading extracted text: %w", err)
	}

	text := collapseWhitespace(sb.String())
	if text == "" {
		return feed.Article{}, fmt.Errorf("no extractable text in %s", filepath.Base(path))
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return feed.Article{
		ID:      uuid.New().String(),
		Title:   title,
		Summary: excerpt(text, summaryLimit),
		Source:  "briefing",
		Date:    time.Now().Format("2006-01-02"),
		Region:  region,
		Sector:  sector,
	}, nil
}

// collapseWhitespace squashes runs of whitespace into single spaces.
// PDF text extraction tends to preserve layout spacing that reads badly
// as a summary.
func collapseWhitespace(s string) string {
	var sb strings.Builder
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && sb.Len() > 0 {
			sb.WriteRune(' ')
		}
		inSpace = false
		sb.WriteRune(r)
	}
	return sb.String()
}

// excerpt cuts s to at most limit runes, on a word boundary where possible.
func excerpt(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	cut := string(runes[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > limit/2 {
		cut = cut[:i]
	}
	return cut + "…"
}
