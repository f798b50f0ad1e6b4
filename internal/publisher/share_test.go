package publisher

import (
	"net/url"
	"strings"
	"testing"
)

func TestShareURL(t *testing.T) {
	got := ShareURL("https://www.linkedin.com/feed/", "Big news & bold moves!")

	if !strings.HasPrefix(got, "https://www.linkedin.com/feed/?shareActive=true&text=") {
		t.Fatalf("unexpected prefix: %q", got)
	}
	if strings.Contains(got, "+") {
		t.Errorf("spaces must be percent-encoded, not plus-encoded: %q", got)
	}
	if !strings.Contains(got, "%20") {
		t.Errorf("expected %%20 for spaces: %q", got)
	}

	// The text must survive a round trip through URL parsing.
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("parsing share URL: %v", err)
	}
	if text := u.Query().Get("text"); text != "Big news & bold moves!" {
		t.Errorf("decoded text = %q", text)
	}
	if u.Query().Get("shareActive") != "true" {
		t.Error("shareActive parameter missing")
	}
}

func TestShareURL_EmptyContent(t *testing.T) {
	got := ShareURL("https://example.com/share", "")
	if got != "https://example.com/share?shareActive=true&text=" {
		t.Errorf("ShareURL with empty content = %q", got)
	}
}
