package chapters

import (
	"strconv"
	"strings"

	"github.com/brogergvhs/mangameta/internal/scrapeerr"
)

// Selection picks chapters by episode number. At most one field is used,
// in the order Chapter, Range, List; an empty Selection keeps everything.
type Selection struct {
	Chapter string
	Range   string
	List    string
}

func (s Selection) Empty() bool {
	return s.Chapter == "" && s.Range == "" && s.List == ""
}

func Filter(all []Chapter, sel Selection) ([]Chapter, error) {
	switch {
	case sel.Chapter != "":
		return FilterByNumber(all, sel.Chapter)
	case sel.Range != "":
		return FilterRange(all, sel.Range)
	case sel.List != "":
		return FilterList(all, sel.List)
	default:
		return all, nil
	}
}

// FilterByNumber matches the episode number first, then the chapter title.
func FilterByNumber(all []Chapter, number string) ([]Chapter, error) {
	number = strings.TrimSpace(number)
	if ep, err := parseNumber(number); err == nil {
		for _, ch := range all {
			if sameEpisode(ch.Episode, ep) {
				return []Chapter{ch}, nil
			}
		}
	}

	var out []Chapter
	for _, ch := range all {
		if strings.EqualFold(ch.Title(), number) {
			out = append(out, ch)
		}
	}
	if len(out) == 0 {
		return nil, scrapeerr.Input("chapter %q not found", number)
	}

	return out, nil
}

// FilterRange keeps chapters whose episode lies in "from-to", inclusive.
func FilterRange(all []Chapter, rng string) ([]Chapter, error) {
	from, to, ok := strings.Cut(rng, "-")
	if !ok {
		return nil, scrapeerr.Input("invalid range %q, want from-to", rng)
	}

	start, err1 := parseNumber(from)
	end, err2 := parseNumber(to)
	if err1 != nil || err2 != nil || start <= 0 || start > end {
		return nil, scrapeerr.Input("invalid range %q", rng)
	}

	var out []Chapter
	for _, ch := range all {
		if ch.Episode >= start-epsilon && ch.Episode <= end+epsilon {
			out = append(out, ch)
		}
	}

	return out, nil
}

// FilterList keeps the chapters named in a comma separated list, in list
// order. Unknown numbers are skipped.
func FilterList(all []Chapter, list string) ([]Chapter, error) {
	out := []Chapter{}
	for _, n := range strings.Split(list, ",") {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		ep, err := parseNumber(n)
		if err != nil {
			return nil, scrapeerr.Input("invalid chapter number %q in list", n)
		}
		for _, ch := range all {
			if sameEpisode(ch.Episode, ep) {
				out = append(out, ch)
				break
			}
		}
	}

	return out, nil
}

const epsilon = 0.001

func sameEpisode(a, b float64) bool {
	d := a - b

	return d < epsilon && d > -epsilon
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
