package utils

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"
)

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// FileNameFromURL derives an upload name from the last path segment of rawURL,
// dropping any query string. When no usable segment exists the name falls back
// to a timestamp with a default image extension.
func FileNameFromURL(rawURL string, now time.Time) string {
	segment := rawURL
	if i := strings.LastIndex(segment, "/"); i >= 0 {
		segment = segment[i+1:]
	}
	if i := strings.IndexAny(segment, "?#"); i >= 0 {
		segment = segment[:i]
	}
	if decoded, err := url.PathUnescape(segment); err == nil {
		segment = decoded
	}

	segment = strings.TrimSpace(SanitizeString(segment))
	if segment == "" || segment == "." || segment == ".." {
		return fallbackFileName(now)
	}
	return path.Base(segment)
}

func fallbackFileName(now time.Time) string {
	return fmt.Sprintf("url_upload_%d.jpg", now.UnixMilli())
}
