package kitsu

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/mangameta/internal/scrapeerr"
	"github.com/brogergvhs/mangameta/internal/services"
	"github.com/brogergvhs/mangameta/internal/util"
)

const mangaJSON = `{
  "data": [{
    "type": "manga",
    "attributes": {
      "description": "A mercenary.",
      "titles": {"en": "Berserk", "ja_jp": "ベルセルク"},
      "canonicalTitle": "Berserk",
      "abbreviatedTitles": ["BSK"],
      "startDate": "1989-08-25",
      "ageRating": "R",
      "subtype": "manga",
      "status": "current",
      "posterImage": {"original": "https://media.kitsu.io/poster.jpg"},
      "coverImage": {"original": "https://media.kitsu.io/cover.jpg"},
      "serialization": "Young Animal"
    }
  }],
  "included": [
    {"attributes": {"slug": "action", "title": "Action"}},
    {"attributes": {"slug": "dark-fantasy", "name": "Dark Fantasy"}},
    {"attributes": {"slug": "action", "title": "Action"}},
    {"attributes": {"slug": "seinen"}}
  ]
}`

const searchJSON = `{"data": [
  {"type": "manga", "attributes": {"slug": "berserk", "canonicalTitle": "Berserk", "posterImage": {"original": "https://media.kitsu.io/b.jpg"}}},
  {"type": "manga", "attributes": {"slug": "berserk-gluttony", "canonicalTitle": "Berserk of Gluttony", "posterImage": {"original": "https://media.kitsu.io/g.jpg"}}}
]}`

func newClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(util.NewFetcher(srv.Client(), 1))
	c.API = srv.URL

	return c
}

func TestGetData(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/manga" || r.URL.Query().Get("filter[slug]") != "berserk" {
			http.NotFound(w, r)
			return
		}
		_, _ = fmt.Fprint(w, mangaJSON)
	})

	got, err := c.GetData(context.Background(), "https://kitsu.io/manga/berserk/chapters?page=2")
	require.NoError(t, err)

	assert.Equal(t, services.Item("A mercenary."), got["description"])
	assert.Equal(t, services.Item("manga"), got["type"])
	assert.Equal(t, services.Item("current"), got["status"])
	assert.Equal(t, services.Item("https://media.kitsu.io/cover.jpg"), got["cover"])
	assert.Equal(t, services.Array([]string{"Action", "Dark Fantasy", "seinen"}), got["tags"])
	assert.Equal(t, services.Array([]string{
		"canonical_title: Berserk",
		"en: Berserk",
		"ja_jp: ベルセルク",
		"unknown: BSK",
	}), got["titles"])
}

func TestGetDataErrors(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"data": [], "included": []}`)
	})
	ctx := context.Background()

	_, err := c.GetData(ctx, "https://example.com/manga/berserk")
	assert.ErrorIs(t, err, scrapeerr.ErrInput)

	_, err = c.GetData(ctx, "https://kitsu.io/manga/missing")
	assert.ErrorIs(t, err, scrapeerr.ErrExtraction)
}

func TestSearch(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("filter[text]") != "berserk" || q.Get("page[offset]") != "20" || q.Get("page[limit]") != "20" {
			http.Error(w, "unexpected query "+r.URL.RawQuery, http.StatusBadRequest)
			return
		}
		_, _ = fmt.Fprint(w, searchJSON)
	})

	got, err := c.Search(context.Background(), "berserk", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Berserk", got[0].Title)
	assert.Equal(t, "https://kitsu.io/manga/berserk", got[0].URL)
	assert.Equal(t, "https://media.kitsu.io/b.jpg", got[0].Cover)
	require.NotNil(t, got[0].Type)
	assert.Equal(t, "manga", *got[0].Type)
	assert.Nil(t, got[1].Status)
}

func TestSearchFetchError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Search(context.Background(), "", 1)
	assert.ErrorIs(t, err, scrapeerr.ErrFetch)
}
