// Package services routes URLs to the right site definition, fetches the
// page and turns the extracted fields into chapters, page images, metadata
// and search results.
package services

import (
	"context"
	"net/url"
	"strings"

	"github.com/brogergvhs/mangameta/internal/extractor"
	"github.com/brogergvhs/mangameta/internal/reconcile"
	"github.com/brogergvhs/mangameta/internal/scrapeerr"
	"github.com/brogergvhs/mangameta/internal/sites"
	"github.com/brogergvhs/mangameta/internal/util"
)

// Fetcher downloads a page as text. Retrying is the fetcher's business.
type Fetcher interface {
	Fetch(ctx context.Context, r util.Request) (string, error)
}

// Logger is the subset of ui.Logger the services use.
type Logger interface {
	Debugf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}

// Adapter is a hardcoded client for a site that is not described by field
// definitions, usually a JSON API.
type Adapter interface {
	Search(ctx context.Context, query string, page int) ([]SearchResult, error)
	GetData(ctx context.Context, url string) (map[string]Value, error)
}

type Options struct {
	Policy   reconcile.Policy
	Adapters map[string]Adapter
	Log      Logger
}

// Engine bundles the services built from one catalog. All of them are
// safe for concurrent use.
type Engine struct {
	Registry *sites.Registry
	Multi    *MultiSite
	Single   *SingleSite
	Metadata *Metadata
	Search   *Search
}

func New(cat *sites.Catalog, f Fetcher, opts Options) *Engine {
	log := opts.Log
	if log == nil {
		log = nopLogger{}
	}
	adapters := opts.Adapters
	if adapters == nil {
		adapters = map[string]Adapter{}
	}

	return &Engine{
		Registry: cat.Registry,
		Multi:    &MultiSite{registry: cat.Registry, services: cat.Multi, fetcher: f, policy: opts.Policy, log: log},
		Single:   &SingleSite{registry: cat.Registry, services: cat.Single, fetcher: f, log: log},
		Metadata: &Metadata{registry: cat.Registry, services: cat.Metadata, adapters: adapters, fetcher: f, log: log},
		Search:   &Search{defs: cat.Search, adapters: adapters, fetcher: f, log: log},
	}
}

// process fetches pageURL with the service's request config and evaluates
// its fields.
func process(ctx context.Context, f Fetcher, log Logger, svc *sites.Service, pageURL string) (map[string]string, error) {
	log.Debugf("fetching %s for %s", pageURL, svc.Name)

	body, err := f.Fetch(ctx, util.Request{
		Method: svc.Request.Method(),
		URL:    pageURL,
		Header: svc.Request.Headers(),
	})
	if err != nil {
		return nil, err
	}

	fields, err := svc.Process(body)
	if err != nil {
		return nil, err
	}
	log.Debugf("%s: extracted %d/%d fields", svc.Name, len(fields), len(svc.Fields))

	return fields, nil
}

func array(fields map[string]string, name string) ([]string, bool, error) {
	raw, ok := fields[name]
	if !ok {
		return nil, false, nil
	}

	values, err := extractor.DecodeArray(raw)
	if err != nil {
		return nil, true, scrapeerr.Wrap(scrapeerr.KindInput, err, "field "+name)
	}

	return values, true, nil
}

func resolveURL(baseURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return u.String()
	}

	b, err := url.Parse(baseURL)
	if err != nil {
		return href
	}

	return b.ResolveReference(u).String()
}

var urlJunk = strings.NewReplacer("\t", "", "\n", "")

func cleanURL(s string) string {
	return urlJunk.Replace(s)
}
