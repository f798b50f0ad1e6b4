package publisher

import (
	"net/url"
	"strings"
)

// ShareURL returns the share-intent link for content: the share composer
// opens prefilled and the user confirms the post manually. Spaces are
// percent-encoded (not "+") to match what the composer expects in the
// text parameter.
func ShareURL(base, content string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(content), "+", "%20")
	return base + "?shareActive=true&text=" + encoded
}
