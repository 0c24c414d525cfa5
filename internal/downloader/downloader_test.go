package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/mangameta/internal/scrapeerr"
)

type recorder struct {
	mu    sync.Mutex
	done  int
	total int
	bytes int64
	final bool
}

func (r *recorder) Update(done, total int, bytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done, r.total, r.bytes = done, total, bytes
}

func (r *recorder) MarkDone() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.final = true
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Referer") != "https://example.com/ch/1" {
			http.Error(w, "no referer", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("PNGDATA"))
	})
	mux.HandleFunc("/html/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func newDownloader(srv *httptest.Server, opts Options) *Downloader {
	opts.Attempts = 1
	opts.Backoff = time.Millisecond

	return New(srv.Client(), opts, nil)
}

func TestDownloadPages(t *testing.T) {
	srv := imageServer(t)
	d := newDownloader(srv, Options{})
	dir := filepath.Join(t.TempDir(), "ch_0001_tmp")
	rec := &recorder{}

	res, err := d.DownloadPages(context.Background(), []string{
		srv.URL + "/img/a.png",
		srv.URL + "/img/b.webp?token=1",
		srv.URL + "/img/c",
	}, dir, "https://example.com/ch/1", 2, rec)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "page_001.png"),
		filepath.Join(dir, "page_002.webp"),
		filepath.Join(dir, "page_003.jpg"),
	}, res.Files)
	assert.Equal(t, int64(3*len("PNGDATA")), res.Bytes)

	data, err := os.ReadFile(res.Files[0])
	require.NoError(t, err)
	assert.Equal(t, "PNGDATA", string(data))

	assert.Equal(t, 3, rec.done)
	assert.Equal(t, 3, rec.total)
	assert.True(t, rec.final)
}

func TestDownloadPagesFailures(t *testing.T) {
	srv := imageServer(t)
	urls := []string{srv.URL + "/img/a.png", srv.URL + "/html/b.png", srv.URL + "/missing/c.png"}

	_, err := newDownloader(srv, Options{}).
		DownloadPages(context.Background(), urls, t.TempDir(), "https://example.com/ch/1", 3, nil)
	require.ErrorIs(t, err, scrapeerr.ErrFetch)
	assert.Contains(t, err.Error(), "failed 2/3 pages")

	res, err := newDownloader(srv, Options{SkipBroken: true}).
		DownloadPages(context.Background(), urls, t.TempDir(), "https://example.com/ch/1", 3, nil)
	require.NoError(t, err)
	assert.Len(t, res.Files, 1)
	assert.Equal(t, 2, res.Failed)
}

func TestDownloadPagesAllowExt(t *testing.T) {
	srv := imageServer(t)
	d := newDownloader(srv, Options{AllowExt: []string{"png"}})

	res, err := d.DownloadPages(context.Background(), []string{
		srv.URL + "/img/a.PNG",
		srv.URL + "/img/anim.gif",
	}, t.TempDir(), "https://example.com/ch/1", 1, nil)
	require.NoError(t, err)
	assert.Len(t, res.Files, 1)
	assert.Equal(t, 1, res.Skipped)
}

func TestDownloadPagesCancelled(t *testing.T) {
	srv := imageServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newDownloader(srv, Options{}).
		DownloadPages(ctx, []string{srv.URL + "/img/a.png"}, t.TempDir(), "", 1, nil)
	assert.Error(t, err)
}
