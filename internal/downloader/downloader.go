package downloader

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/brogergvhs/mangameta/internal/scrapeerr"
)

// Progress receives per-chapter updates. ui.ProgressHandle implements it.
type Progress interface {
	Update(done, total int, bytes int64)
	MarkDone()
}

type nopProgress struct{}

func (nopProgress) Update(int, int, int64) {}
func (nopProgress) MarkDone() {}

type Logger interface {
	Debugf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}

type Options struct {
	Attempts   int
	Backoff    time.Duration
	Timeout    time.Duration
	SkipBroken bool
	// AllowExt lists the lowercase extensions, without dot, that are fetched.
	// Empty allows everything.
	AllowExt []string
}

type Downloader struct {
	client *http.Client
	opts   Options
	log    Logger
}

func New(c *http.Client, opts Options, log Logger) *Downloader {
	if opts.Attempts < 1 {
		opts.Attempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if log == nil {
		log = nopLogger{}
	}

	return &Downloader{client: c, opts: opts, log: log}
}

// Result is what one chapter download produced.
type Result struct {
	Files   []string
	Bytes   int64
	Skipped int
	Failed  int
}

type chapterState struct {
	mu          sync.Mutex
	doneImages  int
	totalImages int
	doneBytes   int64
}

func (cs *chapterState) step(ph Progress, bytes int64, finished bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.doneBytes += bytes
	if finished {
		cs.doneImages++
	}
	ph.Update(cs.doneImages, cs.totalImages, cs.doneBytes)
}

func (d *Downloader) allowed(u string) bool {
	if len(d.opts.AllowExt) == 0 {
		return true
	}

	ext := strings.TrimPrefix(strings.ToLower(imageExt(u)), ".")
	for _, a := range d.opts.AllowExt {
		if ext == a {
			return true
		}
	}

	return false
}

// imageExt reads the extension from the URL path, ignoring any query.
func imageExt(u string) string {
	p := u
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}

	return path.Ext(p)
}

// DownloadPages fetches every page of one chapter into folder using up to
// maxParallel workers. Files are named page_NNN so they sort in page order.
func (d *Downloader) DownloadPages(
	ctx context.Context,
	urls []string,
	folder string,
	referer string,
	maxParallel int,
	ph Progress,
) (Result, error) {
	if ph == nil {
		ph = nopProgress{}
	}
	if err := os.MkdirAll(folder, 0755); err != nil {
		return Result{}, err
	}

	total := len(urls)
	if maxParallel < 1 {
		maxParallel = 1
	}
	if maxParallel > total && total > 0 {
		maxParallel = total
	}

	cs := &chapterState{totalImages: total}
	ph.Update(0, total, 0)

	var mu sync.Mutex
	var res Result
	files := make([]string, total)
	var errs []error

	jobs := make(chan int)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for i := range jobs {
			u := urls[i]

			if !d.allowed(u) {
				d.log.Debugf("skipping page %d (%s): extension not allowed", i+1, u)
				mu.Lock()
				res.Skipped++
				mu.Unlock()
				cs.step(ph, 0, true)
				continue
			}

			ext := imageExt(u)
			if ext == "" {
				ext = ".jpg"
			}
			out := filepath.Join(folder, fmt.Sprintf("page_%03d%s", i+1, ext))

			var last int64
			progress := func(done int64) {
				delta := done - last
				if delta <= 0 {
					return
				}
				last = done
				cs.step(ph, delta, false)
			}

			err := d.downloadWithRetry(ctx, u, out, referer, progress)

			mu.Lock()
			if err != nil {
				errs = append(errs, fmt.Errorf("page %d: %w", i+1, err))
				res.Failed++
			} else {
				files[i] = out
			}
			mu.Unlock()
			cs.step(ph, 0, true)
		}
	}

	wg.Add(maxParallel)
	for w := 0; w < maxParallel; w++ {
		go worker()
	}

	cancelled := false
feed:
	for i := range urls {
		select {
		case <-ctx.Done():
			cancelled = true
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	ph.MarkDone()

	for _, f := range files {
		if f != "" {
			res.Files = append(res.Files, f)
		}
	}
	res.Bytes = cs.doneBytes

	if cancelled {
		return res, ctx.Err()
	}
	if len(errs) > 0 && !d.opts.SkipBroken {
		return res, scrapeerr.Wrap(scrapeerr.KindFetch, errors.Join(errs...),
			fmt.Sprintf("failed %d/%d pages (use --skip-broken to continue)", len(errs), total))
	}

	return res, nil
}

func (d *Downloader) downloadWithRetry(
	ctx context.Context,
	url string,
	output string,
	referer string,
	progress func(done int64),
) error {
	var err error
	for attempt := 1; attempt <= d.opts.Attempts; attempt++ {
		err = d.download(ctx, url, output, referer, progress)
		if err == nil {
			return nil
		}
		d.log.Debugf("page %s attempt %d/%d: %v", url, attempt, d.opts.Attempts, err)

		if attempt == d.opts.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * d.opts.Backoff):
		}
	}

	return err
}

func (d *Downloader) download(
	ctx context.Context,
	u, output, referer string,
	progress func(done int64),
) (err error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, _ := mime.ParseMediaType(ct); !strings.HasPrefix(mt, "image/") {
			return fmt.Errorf("unexpected MIME: %s", ct)
		}
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	written, err := copyWithProgress(f, resp.Body, progress)
	if err != nil {
		return err
	}

	if progress != nil && resp.ContentLength > 0 && written < resp.ContentLength {
		progress(resp.ContentLength)
	}

	return nil
}
