// Package kitsu reads series metadata and search results from the Kitsu
// JSON:API.
package kitsu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/brogergvhs/mangameta/internal/scrapeerr"
	"github.com/brogergvhs/mangameta/internal/services"
	"github.com/brogergvhs/mangameta/internal/util"
)

const (
	DefaultAPI  = "https://kitsu.io/api/edge"
	siteURL     = "https://kitsu.io/manga/"
	pageLimit   = 20
	slugMarker  = "kitsu.io/manga/"
	searchField = "slug,canonicalTitle,titles,posterImage,description,averageRating,startDate,popularityRank,ratingRank"
)

type Client struct {
	API     string
	fetcher services.Fetcher
}

func New(f services.Fetcher) *Client {
	return &Client{API: DefaultAPI, fetcher: f}
}

var _ services.Adapter = (*Client)(nil)

type image struct {
	Original string `json:"original"`
}

type mangaResponse struct {
	Data []struct {
		Type       string `json:"type"`
		Attributes struct {
			Description       string            `json:"description"`
			Titles            map[string]string `json:"titles"`
			CanonicalTitle    string            `json:"canonicalTitle"`
			AbbreviatedTitles []string          `json:"abbreviatedTitles"`
			StartDate         string            `json:"startDate"`
			AgeRating         string            `json:"ageRating"`
			Subtype           string            `json:"subtype"`
			Status            string            `json:"status"`
			PosterImage       image             `json:"posterImage"`
			CoverImage        image             `json:"coverImage"`
			Serialization     string            `json:"serialization"`
		} `json:"attributes"`
	} `json:"data"`
	Included []struct {
		Attributes struct {
			Name  *string `json:"name"`
			Slug  string  `json:"slug"`
			Title *string `json:"title"`
		} `json:"attributes"`
	} `json:"included"`
}

type searchResponse struct {
	Data []struct {
		Type       string `json:"type"`
		Attributes struct {
			Slug           string `json:"slug"`
			CanonicalTitle string `json:"canonicalTitle"`
			PosterImage    image  `json:"posterImage"`
		} `json:"attributes"`
	} `json:"data"`
}

func slug(pageURL string) (string, error) {
	_, rest, ok := strings.Cut(pageURL, slugMarker)
	if !ok || rest == "" {
		return "", scrapeerr.Input("not a valid kitsu url: %s", pageURL)
	}
	s, _, _ := strings.Cut(rest, "/")
	s, _, _ = strings.Cut(s, "?")

	return s, nil
}

func (c *Client) get(ctx context.Context, target string, v any) error {
	body, err := c.fetcher.Fetch(ctx, util.Request{
		URL:    target,
		Header: map[string]string{"Accept": "application/vnd.api+json"},
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(body), v); err != nil {
		return scrapeerr.Wrap(scrapeerr.KindExtraction, err, "decode kitsu response")
	}

	return nil
}

// GetData returns the metadata of the series behind a kitsu.io/manga/<slug> URL.
func (c *Client) GetData(ctx context.Context, pageURL string) (map[string]services.Value, error) {
	s, err := slug(pageURL)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("fields[categories]", "slug,title")
	q.Set("filter[slug]", s)
	q.Set("include", "categories,genres")

	var resp mangaResponse
	if err := c.get(ctx, c.API+"/manga?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, scrapeerr.Extraction("kitsu has no manga %q", s)
	}

	data := resp.Data[0]
	attrs := data.Attributes

	titles := []string{"canonical_title: " + attrs.CanonicalTitle}
	keys := make([]string, 0, len(attrs.Titles))
	for k := range attrs.Titles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		titles = append(titles, fmt.Sprintf("%s: %s", k, attrs.Titles[k]))
	}
	for _, t := range attrs.AbbreviatedTitles {
		titles = append(titles, "unknown: "+t)
	}

	seen := map[string]bool{}
	tags := []string{}
	for _, inc := range resp.Included {
		name := inc.Attributes.Slug
		switch {
		case inc.Attributes.Name != nil:
			name = *inc.Attributes.Name
		case inc.Attributes.Title != nil:
			name = *inc.Attributes.Title
		}
		if !seen[name] {
			seen[name] = true
			tags = append(tags, name)
		}
	}

	return map[string]services.Value{
		"description":   services.Item(attrs.Description),
		"type":          services.Item(data.Type),
		"subtype":       services.Item(attrs.Subtype),
		"cover":         services.Item(attrs.CoverImage.Original),
		"poster":        services.Item(attrs.PosterImage.Original),
		"age_rating":    services.Item(attrs.AgeRating),
		"status":        services.Item(attrs.Status),
		"start_date":    services.Item(attrs.StartDate),
		"serialization": services.Item(attrs.Serialization),
		"tags":          services.Array(tags),
		"titles":        services.Array(titles),
	}, nil
}

// Search pages through the manga index, pageLimit results at a time.
func (c *Client) Search(ctx context.Context, query string, page int) ([]services.SearchResult, error) {
	if page < 1 {
		return nil, scrapeerr.Input("page must be at least 1, got %d", page)
	}

	q := url.Values{}
	q.Set("fields[manga]", searchField)
	q.Set("page[limit]", fmt.Sprint(pageLimit))
	q.Set("page[offset]", fmt.Sprint((page-1)*pageLimit))
	if query != "" {
		q.Set("filter[text]", query)
	}

	var resp searchResponse
	if err := c.get(ctx, c.API+"/manga?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	out := make([]services.SearchResult, 0, len(resp.Data))
	for _, d := range resp.Data {
		typ := d.Type
		out = append(out, services.SearchResult{
			Title: d.Attributes.CanonicalTitle,
			URL:   siteURL + d.Attributes.Slug,
			Cover: d.Attributes.PosterImage.Original,
			Type:  &typ,
		})
	}

	return out, nil
}
