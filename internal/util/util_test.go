package util

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/mangameta/internal/scrapeerr"
)

type logSink struct {
	infos, errors []string
}

func (l *logSink) Infof(format string, args ...any) {
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}

func (l *logSink) Errorf(format string, args ...any) {
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "https://example.com/", r.Header.Get("Referer"))
		_, _ = fmt.Fprint(w, "<html>ok</html>")
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), 3)
	f.Backoff = time.Millisecond

	body, err := f.Fetch(context.Background(), Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		Header: map[string]string{"Referer": "https://example.com/"},
	})
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", body)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), 2)
	f.Backoff = time.Millisecond
	ctx := context.Background()

	_, err := f.Fetch(ctx, Request{URL: srv.URL + "/gone"})
	require.ErrorIs(t, err, scrapeerr.ErrFetch)
	assert.Contains(t, err.Error(), "HTTP 404")

	_, err = f.Fetch(ctx, Request{URL: srv.URL + "/down"})
	require.ErrorIs(t, err, scrapeerr.ErrFetch)
	assert.Contains(t, err.Error(), "HTTP 502 after 2 attempts")

	_, err = f.Fetch(ctx, Request{URL: "://bad"})
	assert.ErrorIs(t, err, scrapeerr.ErrInput)
}

func TestFetchRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	assert.Nil(t, PerSecond(0))

	f := NewFetcher(srv.Client(), 1)
	f.Limiter = PerSecond(20)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), Request{URL: srv.URL})
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.Limiter = PerSecond(0.001)
	_, err := f.Fetch(ctx, Request{URL: srv.URL})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchRateLimitsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client(), 3)
	f.Backoff = time.Nanosecond
	f.Limiter = PerSecond(20)

	start := time.Now()
	_, err := f.Fetch(context.Background(), Request{URL: srv.URL})
	require.ErrorIs(t, err, scrapeerr.ErrFetch)
	assert.Equal(t, int32(3), calls.Load())
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestHTTPClientHeaders(t *testing.T) {
	cookieFile := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(cookieFile, []byte("\n  session=abc  \nignored=1\n"), 0o600))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, "%s|%s", r.Header.Get("User-Agent"), r.Header.Get("Cookie"))
	}))
	defer srv.Close()

	c, err := NewHTTPClient(HTTPClientOptions{
		Timeout:    5 * time.Second,
		UserAgent:  "mangameta-test",
		Cookie:     "lang=en",
		CookieFile: cookieFile,
	})
	require.NoError(t, err)

	f := NewFetcher(c, 1)
	body, err := f.Fetch(context.Background(), Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "mangameta-test|lang=en; session=abc", body)

	body, err = f.Fetch(context.Background(), Request{URL: srv.URL, Header: map[string]string{"User-Agent": "site-ua"}})
	require.NoError(t, err)
	assert.Equal(t, "site-ua|lang=en; session=abc", body)
}

func TestCreateCBZ(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for _, name := range []string{"page_002.jpg", "page_001.jpg"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(name), 0o644))
		files = append(files, p)
	}

	out := filepath.Join(dir, "ch.cbz")
	require.NoError(t, CreateCBZ(files, out, &ComicInfo{Series: "One Piece", Number: "1", Manga: "YesAndRightToLeft"}))

	r, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"page_001.jpg", "page_002.jpg", "ComicInfo.xml"}, names)

	rc, err := r.File[2].Open()
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	xml, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Contains(t, string(xml), "<Series>One Piece</Series>")
	assert.Contains(t, string(xml), "<PageCount>2</PageCount>")
}

func TestCleanup(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(out, "ch_0001"+TempSuffix), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(out, "keep"), 0o755))

	log := &logSink{}
	CleanupUnfinishedTempFolders(out, log)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keep", entries[0].Name())
	assert.Len(t, log.infos, 1)

	empty := filepath.Join(out, "keep")
	RemoveIfEmpty(empty, log)
	assert.NoDirExists(t, empty)
}

func TestHuman(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{n: 512, want: "512 B"},
		{n: 2048, want: "2.00 KB"},
		{n: 5 << 20, want: "5.00 MB"},
		{n: 3 << 30, want: "3.00 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Human(tt.n))
	}
}
