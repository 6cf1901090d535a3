package extract

import (
	"regexp"
	"strings"
)

var (
	dataURI     = regexp.MustCompile(`(?i)^data:`)
	absoluteURL = regexp.MustCompile(`(?i)^https?://`)
)

// NormalizeURL resolves raw against origin. Absolute and data: URIs pass
// through, protocol-relative URLs get https, anything else is joined onto
// origin. Blank input yields "".
func NormalizeURL(raw, origin string) string {
	trimmed := strings.TrimSpace(raw)
	switch {
	case trimmed == "":
		return ""
	case dataURI.MatchString(trimmed), absoluteURL.MatchString(trimmed):
		return trimmed
	case strings.HasPrefix(trimmed, "//"):
		return "https:" + trimmed
	}
	return strings.TrimRight(origin, "/") + "/" + strings.TrimLeft(trimmed, "/")
}
