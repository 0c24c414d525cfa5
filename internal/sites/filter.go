package sites

import (
	"regexp"
	"strings"

	"github.com/brogergvhs/mangameta/internal/scrapeerr"
)

type FilterKind int

const (
	StartsWith FilterKind = iota
	EndsWith
	Contains
	Regex
)

// Filter is one URL matching rule from a .filter file.
type Filter struct {
	Kind  FilterKind
	Value string
	re    *regexp.Regexp
}

func (f Filter) Match(url string) bool {
	switch f.Kind {
	case StartsWith:
		return strings.HasPrefix(url, f.Value)
	case EndsWith:
		return strings.HasSuffix(url, f.Value)
	case Contains:
		return strings.Contains(url, f.Value)
	default:
		return f.re != nil && f.re.MatchString(url)
	}
}

var filterPrefixes = []struct {
	prefix string
	kind   FilterKind
}{
	{"starts_with ", StartsWith},
	{"ends_with ", EndsWith},
	{"contains ", Contains},
	{"regex ", Regex},
}

// ParseFilters reads one rule per line:
//
//	starts_with https://example.com/manga/
//	contains example.org
//	regex ^https://(www\.)?example\.net/title/\d+
//
// Other lines are ignored.
func ParseFilters(text string) ([]Filter, error) {
	var out []Filter
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		for _, p := range filterPrefixes {
			value, ok := strings.CutPrefix(line, p.prefix)
			if !ok {
				continue
			}

			f := Filter{Kind: p.kind, Value: value}
			if p.kind == Regex {
				re, err := regexp.Compile(value)
				if err != nil {
					return nil, scrapeerr.Wrap(scrapeerr.KindConfiguration, err, "filter regex "+value)
				}
				f.re = re
			}
			out = append(out, f)

			break
		}
	}

	return out, nil
}
