package ingest

import (
	"regexp"

	"github.com/tinytelemetry/httop/internal/model"
)

// Extractor maps a log line to its grouping key.
type Extractor struct {
	pattern Pattern
	re      *regexp.Regexp
}

// NewExtractor compiles p. The pattern must contain at least one capture group.
func NewExtractor(p Pattern) (*Extractor, error) {
	re, err := compile(p)
	if err != nil {
		return nil, err
	}
	return &Extractor{pattern: p, re: re}, nil
}

// Key returns the first capture group of the pattern's leftmost match in
// line. Lines without a match, or whose first group did not participate in
// the match, map to model.ParseErrorKey. An empty capture is never returned
// as an empty key: a custom pattern such as `^(\d*) ` that captures nothing
// is counted as a parse miss too. The pattern's Normalize hook, if any, is
// applied to the captured text.
func (e *Extractor) Key(line string) string {
	m := e.re.FindStringSubmatchIndex(line)
	if m == nil || m[2] < 0 || m[2] == m[3] {
		return model.ParseErrorKey
	}
	key := line[m[2]:m[3]]
	if e.pattern.Normalize != nil {
		key = e.pattern.Normalize(key)
	}
	return key
}
