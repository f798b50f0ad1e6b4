package briefing

import (
	"strings"
	"testing"
)

func TestCollapseWhitespace(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "one two", "one two"},
		{"runs of spaces", "one    two", "one two"},
		{"mixed whitespace", "one\t\ntwo \r\n three", "one two three"},
		{"leading and trailing", "  padded  ", "padded"},
		{"empty", "", ""},
		{"only whitespace", " \n\t ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := collapseWhitespace(tt.in); got != tt.want {
				t.Errorf("collapseWhitespace(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExcerpt(t *testing.T) {
	short := "brief text"
	if got := excerpt(short, 480); got != short {
		t.Errorf("short text must pass through, got %q", got)
	}

	long := strings.Repeat("word ", 200)
	got := excerpt(long, 100)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated excerpt missing ellipsis: %q", got)
	}
	if len([]rune(got)) > 101 {
		t.Errorf("excerpt too long: %d runes", len([]rune(got)))
	}
	if strings.HasSuffix(strings.TrimSuffix(got, "…"), "wor") {
		t.Errorf("excerpt cut mid-word: %q", got)
	}
}

func TestExcerptWordBoundary(t *testing.T) {
	// A space just past the halfway mark is a usable boundary.
	in := "alpha beta gamma delta epsilon"
	got := excerpt(in, 12)
	if got != "alpha beta…" {
		t.Errorf("excerpt = %q, want cut at word boundary", got)
	}
}

func TestFromPDFMissingFile(t *testing.T) {
	if _, err := FromPDF("testdata/does-not-exist.pdf", "GCC", "IT"); err == nil {
		t.Error("expected error for missing file")
	}
}
