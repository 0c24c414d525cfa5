package services

import (
	"context"

	"github.com/brogergvhs/mangameta/internal/reconcile"
	"github.com/brogergvhs/mangameta/internal/scrapeerr"
	"github.com/brogergvhs/mangameta/internal/sites"
)

// MultiSite serves sites that list many chapters on one series page.
type MultiSite struct {
	registry *sites.Registry
	services map[string]*sites.Service
	fetcher  Fetcher
	policy   reconcile.Policy
	log      Logger
}

func (m *MultiSite) service(url string) (*sites.Service, error) {
	site, err := m.registry.Lookup(url)
	if err != nil {
		return nil, err
	}

	svc, ok := m.services[site]
	if !ok {
		return nil, scrapeerr.Input("uri not registered: %s", site)
	}

	return svc, nil
}

// GetChapters scrapes the chapter list behind url and reconciles it.
func (m *MultiSite) GetChapters(ctx context.Context, url string) (reconcile.Result, error) {
	svc, err := m.service(url)
	if err != nil {
		return reconcile.Result{}, err
	}

	fields, err := process(ctx, m.fetcher, m.log, svc, url)
	if err != nil {
		return reconcile.Result{}, err
	}

	now, err := chapterInfos(svc.Name, url, fields, "urls", "labels", "episodes")
	if err != nil {
		return reconcile.Result{}, err
	}

	var later []reconcile.Info
	if laterURLs, _, err := array(fields, "later_urls"); err != nil {
		return reconcile.Result{}, err
	} else if len(laterURLs) > 0 {
		later, err = chapterInfos(svc.Name, url, fields, "later_urls", "later_labels", "later_episodes")
		if err != nil {
			return reconcile.Result{}, err
		}
	}

	res, err := reconcile.Reconcile(now, later, m.policy)
	if err != nil {
		return reconcile.Result{}, err
	}
	m.log.Debugf("%s: %d chapters now, %d later (%s)", svc.Name, len(res.Now), len(res.Later), m.policy)

	return res, nil
}

func chapterInfos(site, pageURL string, fields map[string]string, urlsKey, labelsKey, episodesKey string) ([]reconcile.Info, error) {
	urls, ok, err := array(fields, urlsKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, scrapeerr.Input("invalid labels/urls: no %s field", urlsKey)
	}
	for i, u := range urls {
		urls[i] = resolveURL(pageURL, u)
	}

	if labels, ok, err := array(fields, labelsKey); err != nil {
		return nil, err
	} else if ok {
		return reconcile.FromLabels(site, urls, labels)
	}

	if episodes, ok, err := array(fields, episodesKey); err != nil {
		return nil, err
	} else if ok {
		return reconcile.FromEpisodes(site, urls, episodes)
	}

	return nil, scrapeerr.Input("invalid labels/urls: neither %s nor %s present", labelsKey, episodesKey)
}

// GetPages returns the page image URLs of one chapter.
func (m *MultiSite) GetPages(ctx context.Context, info reconcile.Info) ([]string, error) {
	svc, ok := m.services[info.Site]
	if !ok {
		var err error
		if svc, err = m.service(info.URL); err != nil {
			return nil, err
		}
	}

	fields, err := process(ctx, m.fetcher, m.log, svc, info.URL)
	if err != nil {
		return nil, err
	}

	return pages(info.URL, fields, true)
}

// pages reads the imgs array. With fallback, an empty entry is replaced by
// the entry at the same index of imgs_back.
func pages(pageURL string, fields map[string]string, fallback bool) ([]string, error) {
	imgs, ok, err := array(fields, "imgs")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, scrapeerr.Extraction("no imgs field on %s", pageURL)
	}

	var back []string
	if fallback {
		if back, _, err = array(fields, "imgs_back"); err != nil {
			return nil, err
		}
	}

	out := make([]string, 0, len(imgs))
	for i, img := range imgs {
		if img == "" && back != nil {
			if i >= len(back) {
				return nil, scrapeerr.Extraction("imgs_back has no entry %d on %s", i, pageURL)
			}
			img = back[i]
		}
		out = append(out, resolveURL(pageURL, cleanURL(img)))
	}

	return out, nil
}
