package ingest

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tinytelemetry/httop/internal/logparse"
)

// CustomFormatName names the effective pattern when a custom pattern is given.
const CustomFormatName = "custom"

// ErrInvalidPattern is returned for patterns that cannot be used as a key
// extractor: compile failures and patterns without a capture group.
var ErrInvalidPattern = errors.New("invalid key pattern")

// Pattern is a resolved key-extraction pattern. The key is the text captured
// by the first group; any further groups are ignored.
type Pattern struct {
	Name  string
	Expr  string
	Label string // column header for the extracted key
	// Normalize, when set, rewrites every captured key.
	Normalize func(string) string
}

var builtinFormats = map[string]Pattern{
	"apache": {Name: "apache", Expr: `^(\S+)`, Label: "IP"},
	"vhosts": {Name: "vhosts", Expr: `^\S+\s(\S+)`, Label: "IP"},

	"severity": {
		Name:      "severity",
		Expr:      logparse.SeverityPattern,
		Label:     "Level",
		Normalize: logparse.NormalizeSeverity,
	},
}

// FormatNames returns the names of the built-in formats, sorted.
func FormatNames() []string {
	names := make([]string, 0, len(builtinFormats))
	for name := range builtinFormats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve picks the effective pattern for a run. A non-empty custom pattern
// overrides format. The built-in table is never modified.
func Resolve(format, custom string) (Pattern, error) {
	if strings.TrimSpace(custom) != "" {
		p := Pattern{Name: CustomFormatName, Expr: custom, Label: "Key"}
		if _, err := compile(p); err != nil {
			return Pattern{}, err
		}
		return p, nil
	}

	name := strings.ToLower(strings.TrimSpace(format))
	p, ok := builtinFormats[name]
	if !ok {
		return Pattern{}, fmt.Errorf("unknown log format %q (choose one of: %s)", format, strings.Join(FormatNames(), ", "))
	}
	return p, nil
}

func compile(p Pattern) (*regexp.Regexp, error) {
	re, err := regexp.Compile(p.Expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPattern, p.Name, err)
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("%w: %s pattern %q has no capture group", ErrInvalidPattern, p.Name, p.Expr)
	}
	return re, nil
}
