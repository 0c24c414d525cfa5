package services

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/brogergvhs/mangameta/internal/scrapeerr"
	"github.com/brogergvhs/mangameta/internal/sites"
	"github.com/brogergvhs/mangameta/internal/util"
)

type SearchResult struct {
	Title  string  `json:"title"`
	URL    string  `json:"url"`
	Cover  string  `json:"cover"`
	Type   *string `json:"type,omitempty"`
	Status *string `json:"status,omitempty"`
}

// Search runs a site's search page, either through a .search definition or
// through a registered adapter.
type Search struct {
	defs     map[string]*sites.SearchDef
	adapters map[string]Adapter
	fetcher  Fetcher
	log      Logger
}

// Sites lists every searchable site name, sorted.
func (s *Search) Sites() []string {
	seen := map[string]bool{}
	var out []string
	for name := range s.defs {
		seen[name] = true
		out = append(out, name)
	}
	for name := range s.adapters {
		if !seen[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)

	return out
}

// Search queries site for query. Pages start at 1.
func (s *Search) Search(ctx context.Context, site, query string, page int) ([]SearchResult, error) {
	if page < 1 {
		return nil, scrapeerr.Input("page must be at least 1, got %d", page)
	}

	def, ok := s.defs[site]
	if !ok {
		if a, ok := s.adapters[site]; ok {
			return a.Search(ctx, query, page)
		}

		return nil, scrapeerr.Input("uri does not exist: %s", site)
	}

	target := searchURL(def, query, page)
	s.log.Debugf("search %s: %s", site, target)

	body, err := s.fetcher.Fetch(ctx, util.Request{
		Method: def.Request.Method(),
		URL:    target,
		Header: def.Request.Headers(),
	})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, scrapeerr.Wrap(scrapeerr.KindExtraction, err, "parse search page")
	}

	return searchResults(doc, def, target)
}

func searchURL(def *sites.SearchDef, query string, page int) string {
	tmpl := def.URL
	if query == "" && def.URLEmpty != "" {
		tmpl = def.URLEmpty
	}

	r := strings.NewReplacer(
		"{query}", strings.ReplaceAll(url.QueryEscape(query), "+", "%20"),
		"{page}", strconv.Itoa(page),
		"{offset}", strconv.Itoa((page-1)*def.Offset),
	)

	return r.Replace(tmpl)
}

func searchResults(doc *goquery.Document, def *sites.SearchDef, pageURL string) ([]SearchResult, error) {
	links := doc.FindMatcher(def.Selector)

	covers := doc.FindMatcher(def.Cover).Map(func(_ int, s *goquery.Selection) string {
		src := s.AttrOr("src", "")
		if src == "" {
			src = s.AttrOr("data-src", "")
		}
		if _, rest, ok := strings.Cut(src, "/https://"); ok {
			src = "https://" + rest
		}

		return src
	})

	labelSel := def.Label
	if labelSel == nil {
		labelSel = def.Selector
	}
	labels := texts(doc, labelSel)

	var types, statuses []string
	if def.Type != nil {
		types = texts(doc, def.Type)
	}
	if def.Status != nil {
		statuses = texts(doc, def.Status)
	}

	out := make([]SearchResult, 0, links.Length())
	for i := range links.Nodes {
		if i >= len(labels) || i >= len(covers) {
			return nil, scrapeerr.Extraction("search result %d has no label or cover (%d labels, %d covers)",
				i, len(labels), len(covers))
		}

		r := SearchResult{
			Title: labels[i],
			URL:   resolveURL(pageURL, links.Eq(i).AttrOr("href", "")),
			Cover: covers[i],
		}
		if def.Type != nil {
			v, err := at(types, i, "type")
			if err != nil {
				return nil, err
			}
			r.Type = &v
		}
		if def.Status != nil {
			v, err := at(statuses, i, "status")
			if err != nil {
				return nil, err
			}
			r.Status = &v
		}
		out = append(out, r)
	}

	return out, nil
}

func texts(doc *goquery.Document, sel cascadia.Selector) []string {
	return doc.FindMatcher(sel).Map(func(_ int, s *goquery.Selection) string {
		return s.Text()
	})
}

func at(values []string, i int, field string) (string, error) {
	if i >= len(values) {
		return "", scrapeerr.Extraction("search result %d has no %s", i, field)
	}

	return values[i], nil
}
