package sites

import (
	"sort"

	"github.com/brogergvhs/mangameta/internal/scrapeerr"
)

// Site is a known external site: the filters that recognise its URLs and
// the path of its icon file, if any.
type Site struct {
	Name    string
	Filters []Filter
	Icon    string
}

func (s Site) Match(url string) bool {
	for _, f := range s.Filters {
		if f.Match(url) {
			return true
		}
	}

	return false
}

// Registry maps URLs to site names. It is read-only after construction.
type Registry struct {
	sites []Site
}

func NewRegistry(sites []Site) *Registry {
	sorted := append([]Site(nil), sites...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	return &Registry{sites: sorted}
}

// Lookup returns the name of the first site, in name order, whose filters
// accept url.
func (r *Registry) Lookup(url string) (string, error) {
	for _, s := range r.sites {
		if s.Match(url) {
			return s.Name, nil
		}
	}

	return "", scrapeerr.Input("couldn't find uri for %s", url)
}

func (r *Registry) Site(name string) (Site, bool) {
	for _, s := range r.sites {
		if s.Name == name {
			return s, true
		}
	}

	return Site{}, false
}

func (r *Registry) Sites() []Site {
	return append([]Site(nil), r.sites...)
}
