// Package markup extracts wiki links and embedded media references from raw page source.
package markup

import (
	"regexp"
	"strings"
)

var (
	// Lazy body up to the first "]]"; "." never crosses a line break.
	linkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	// Only the media name before the first "|", "?" or "}" is captured.
	mediaRe = regexp.MustCompile(`\{\{([^|?}\n]*)(?:[|?][^\n]*?)?\}\}`)
)

// RawLink is an unresolved link body split into its target and display title.
type RawLink struct {
	Link  string
	Title string
}

// Result holds the output of scanning one page source.
type Result struct {
	Links map[RawLink]struct{}
	Media map[string]struct{}
}

// Extractor scans page sources for link and media markup.
type Extractor struct {
	exclusion string
}

// NewExtractor returns an Extractor. Link candidates whose remaining line
// contains exclusion are ignored; an empty exclusion disables the check.
func NewExtractor(exclusion string) *Extractor {
	return &Extractor{exclusion: exclusion}
}

// Extract returns the deduplicated links and media found in src. It never fails.
func (e *Extractor) Extract(src string) *Result {
	return &Result{
		Links: e.links(src),
		Media: media(src),
	}
}

// links finds every [[...]] body. A candidate that is followed on its line by
// the exclusion substring is skipped one byte at a time, so a later "[[" on the
// same line still gets its own chance to match.
func (e *Extractor) links(src string) map[RawLink]struct{} {
	out := make(map[RawLink]struct{})
	pos := 0
	for pos < len(src) {
		m := linkRe.FindStringSubmatchIndex(src[pos:])
		if m == nil {
			break
		}
		start := pos + m[0]
		if e.excluded(src, start+2) {
			pos = start + 1
			continue
		}
		body := src[pos+m[2] : pos+m[3]]
		link, title, _ := strings.Cut(body, "|")
		out[RawLink{Link: link, Title: title}] = struct{}{}
		pos += m[1]
	}
	return out
}

func (e *Extractor) excluded(src string, from int) bool {
	if e.exclusion == "" {
		return false
	}
	rest := src[from:]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}
	return strings.Contains(rest, e.exclusion)
}

func media(src string) map[string]struct{} {
	matches := mediaRe.FindAllStringSubmatch(src, -1)
	out := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		out[m[1]] = struct{}{}
	}
	return out
}
