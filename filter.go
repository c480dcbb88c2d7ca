package twitterguess

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// RedactionMarker replaces every t.co link.
const RedactionMarker = "[url redacted]"

const (
	// @ followed by a screen name of 1-15 word characters
	userTagPattern = `@[\p{L}\p{N}_]{1,15}`
	// Twitter rewrites every link into its t.co shortener
	shortLinkPattern = `https://t\.co/[\p{L}\p{N}_]{1,10}`
)

// Filter decides whether a tweet text is kept and sanitizes it.
type Filter struct {
	tagPattern  *regexp.Regexp
	linkPattern *regexp.Regexp
	marker      string
}

// NewFilter compiles the patterns once. An empty marker means RedactionMarker.
func NewFilter(marker string) *Filter {
	if marker == "" {
		marker = RedactionMarker
	}
	return &Filter{
		tagPattern:  regexp.MustCompile(userTagPattern),
		linkPattern: regexp.MustCompile(shortLinkPattern),
		marker:      marker,
	}
}

// HasUserTag reports whether text mentions another user.
func (f *Filter) HasUserTag(text string) bool {
	return f.tagPattern.MatchString(text)
}

// Redact replaces every short link with the marker and trims the result.
func (f *Filter) Redact(text string) string {
	return strings.TrimSpace(f.linkPattern.ReplaceAllLiteralString(text, f.marker))
}

// Apply returns the sanitized text and whether the tweet is kept. Tweets
// that tag a user or consist of a single link are dropped; HTML entities
// are decoded last.
func (f *Filter) Apply(text string) (string, bool) {
	if f.HasUserTag(text) {
		return "", false
	}
	text = f.Redact(text)
	if text == f.marker {
		return "", false
	}

	decoded := html.UnescapeString(text)
	if decoded != text {
		// entities may hide a tag or a link, e.g. &#64;name
		if f.HasUserTag(decoded) {
			return "", false
		}
		decoded = f.Redact(decoded)
		if decoded == f.marker {
			return "", false
		}
	}
	return decoded, true
}
