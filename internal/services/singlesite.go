package services

import (
	"context"

	"github.com/brogergvhs/mangameta/internal/scrapeerr"
	"github.com/brogergvhs/mangameta/internal/sites"
)

// SingleSite serves sites where one URL is one chapter.
type SingleSite struct {
	registry *sites.Registry
	services map[string]*sites.Service
	fetcher  Fetcher
	log      Logger
}

func (s *SingleSite) GetPages(ctx context.Context, url string) ([]string, error) {
	site, err := s.registry.Lookup(url)
	if err != nil {
		return nil, err
	}

	svc, ok := s.services[site]
	if !ok {
		return nil, scrapeerr.Input("uri not registered: %s", site)
	}

	fields, err := process(ctx, s.fetcher, s.log, svc, url)
	if err != nil {
		return nil, err
	}

	return pages(url, fields, false)
}
