// Package reconcile assigns canonical, unique chapter numbers to a batch of
// scraped chapter entries and splits them into entries readable now and
// entries scheduled for later.
package reconcile

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/brogergvhs/mangameta/internal/scrapeerr"
)

// Info is one chapter (or episode) of a series on one site.
type Info struct {
	Site    string   `json:"site"`
	URL     string   `json:"url"`
	Titles  []string `json:"titles"`
	Episode float64  `json:"episode"`
	Account *int64   `json:"account,omitempty"`
}

// WithTitle returns a copy of i with title appended when it is not empty.
func (i Info) WithTitle(title string) Info {
	if title != "" {
		i.Titles = append(append([]string(nil), i.Titles...), title)
	}

	return i
}

type Policy int

const (
	// Strict fails on any entry without a chapter number and on any duplicate.
	Strict Policy = iota
	// Permissive gives an entry without a chapter number the previous
	// entry's number, bumped by 0.01 until it is free.
	Permissive
)

func (p Policy) String() string {
	if p == Permissive {
		return "permissive"
	}

	return "strict"
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "permissive":
		return Permissive, nil
	default:
		return Strict, fmt.Errorf("unknown episode policy %q", s)
	}
}

type Result struct {
	Now   []Info `json:"now"`
	Later []Info `json:"later"`
}

const (
	errNoEpisode = "failed to parse episode"
	errDuplicate = "episode does already exist"
	errRange     = "episode out of range"
)

// Reconcile resolves episode numbers in now under policy, then checks later
// against everything already assigned. The inputs are not modified. Any
// failure aborts the whole call.
func Reconcile(now, later []Info, policy Policy) (Result, error) {
	res := Result{
		Now:   make([]Info, len(now)),
		Later: make([]Info, len(later)),
	}
	copy(res.Now, now)
	copy(res.Later, later)

	seen := make(map[string]struct{}, len(now)+len(later))
	last := 0.0

	for i := range res.Now {
		info := &res.Now[i]
		bump := false

		if info.Episode == 0 {
			if policy != Permissive {
				return Result{}, entryErr(info, errNoEpisode)
			}
			bump = true
			info.Episode = last
		}

		for {
			if _, dup := seen[key(info.Episode)]; !dup {
				break
			}
			if !bump {
				return Result{}, entryErr(info, errDuplicate)
			}
			next, ok := nextHundredth(info.Episode)
			if !ok {
				return Result{}, entryErr(info, errRange)
			}
			info.Episode = next
		}

		info.Episode = cut(info.Episode)
		last = info.Episode
		seen[key(info.Episode)] = struct{}{}
	}

	for i := range res.Later {
		info := &res.Later[i]
		if info.Episode == 0 {
			return Result{}, entryErr(info, errNoEpisode)
		}
		if _, dup := seen[key(info.Episode)]; dup {
			return Result{}, entryErr(info, errDuplicate)
		}
		seen[key(info.Episode)] = struct{}{}
	}

	return res, nil
}

// nextHundredth steps ep up by 0.01 in whole hundredths. ok is false once
// floats are too coarse for the step to change the key.
func nextHundredth(ep float64) (float64, bool) {
	next := (math.Round(ep*100) + 1) / 100
	if key(next) == key(ep) {
		return ep, false
	}

	return next, true
}

func entryErr(info *Info, msg string) error {
	return fmt.Errorf("%s (episode %s): %w", info.URL, key(info.Episode), scrapeerr.Input("%s", msg))
}

// FromLabels builds entries from parallel url and label arrays. Labels
// without a recognisable chapter number get episode 0, which Reconcile
// treats according to its policy.
func FromLabels(site string, urls, labels []string) ([]Info, error) {
	if err := checkPairs(len(urls), len(labels)); err != nil {
		return nil, err
	}

	out := make([]Info, 0, len(urls))
	for i, u := range urls {
		ep, err := ParseEpisode(labels[i])
		if err != nil {
			ep = 0
		}
		out = append(out, Info{
			Site:    site,
			URL:     u,
			Titles:  []string{labels[i]},
			Episode: ep,
		})
	}

	return out, nil
}

// FromEpisodes builds entries from parallel url and episode-token arrays.
// Tokens use '-' or '.' as decimal separator ("12-5" is 12.5).
func FromEpisodes(site string, urls, episodes []string) ([]Info, error) {
	if err := checkPairs(len(urls), len(episodes)); err != nil {
		return nil, err
	}

	out := make([]Info, 0, len(urls))
	for i, u := range urls {
		title := strings.ReplaceAll(strings.TrimSpace(episodes[i]), "-", ".")
		ep, err := strconv.ParseFloat(title, 64)
		if err != nil {
			return nil, scrapeerr.Wrap(scrapeerr.KindInput, err, fmt.Sprintf("episode %q", episodes[i]))
		}
		out = append(out, Info{
			Site:    site,
			URL:     u,
			Titles:  []string{title},
			Episode: ep,
		})
	}

	return out, nil
}

func checkPairs(urls, other int) error {
	if urls != other || urls == 0 {
		return scrapeerr.Input("invalid labels/urls: %d urls, %d labels", urls, other)
	}

	return nil
}

// Entry is one scraped (url, label) pair.
type Entry struct {
	URL   string
	Label string
}

// ReconcileLabels parses the chapter number out of every label and
// reconciles the entries as readable now.
func ReconcileLabels(site string, entries []Entry, policy Policy) (Result, error) {
	urls := make([]string, len(entries))
	labels := make([]string, len(entries))
	for i, e := range entries {
		urls[i] = e.URL
		labels[i] = e.Label
	}

	now, err := FromLabels(site, urls, labels)
	if err != nil {
		return Result{}, err
	}

	return Reconcile(now, nil, policy)
}
