package feed

import (
	"strings"

	"golang.org/x/net/html"
)

// stripFences removes markdown code-fence artifacts from a provider
// response. With the search tool enabled the model cannot be held to strict
// structured output, so responses arrive with zero, one, or mismatched
// ```json / ``` markers in any order and with arbitrary surrounding
// whitespace. All fence markers are removed wherever they appear; the
// payload between them is untouched.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// stripTags removes HTML tags from a display string. Search-grounded
// responses occasionally leak markup from source pages into titles and
// summaries. Text content is preserved; entities are decoded by the
// tokenizer.
func stripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}

	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			sb.Write(z.Text())
		}
	}
	return strings.TrimSpace(sb.String())
}

// normalizeArticle cleans provider-supplied display fields in place.
// No field-level schema validation happens here: shape is trusted, only
// known transport artifacts are removed.
func normalizeArticle(a *Article) {
	a.Title = stripTags(a.Title)
	a.Summary = stripTags(a.Summary)
	a.Source = stripTags(a.Source)
}
