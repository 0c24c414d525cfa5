package util

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/brogergvhs/mangameta/internal/scrapeerr"
)

type HTTPClientOptions struct {
	Timeout     time.Duration
	UserAgent   string
	Cookie      string
	CookieFile  string
	Transport   http.RoundTripper
	DebugLogger interface {
		Debugf(string, ...any)
	}
}

func NewHTTPClient(opts HTTPClientOptions) (*http.Client, error) {
	jar, _ := cookiejar.New(nil)

	var baseTransport http.RoundTripper
	if opts.Transport != nil {
		baseTransport = opts.Transport
	} else {
		baseTransport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DisableCompression:  false,
			MaxIdleConns:        100,
			MaxConnsPerHost:     100,
			MaxIdleConnsPerHost: 100,
			ForceAttemptHTTP2:   true,
		}
	}

	client := &http.Client{
		Timeout: opts.Timeout,
		Transport: roundTripper{
			base:         baseTransport,
			ua:           opts.UserAgent,
			cookieHeader: joinCookies(opts.Cookie, opts.CookieFile),
			log:          opts.DebugLogger,
		},
		Jar: jar,
	}

	if opts.DebugLogger != nil {
		opts.DebugLogger.Debugf("HTTP client initialized (timeout=%s, ua=%q, cookieFile=%q)",
			opts.Timeout, opts.UserAgent, opts.CookieFile)
	}

	return client, nil
}

type roundTripper struct {
	base         http.RoundTripper
	ua           string
	cookieHeader string
	log          interface{ Debugf(string, ...any) }
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if rt.ua != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", rt.ua)
	}

	if rt.cookieHeader != "" {
		if req.Header.Get("Cookie") == "" {
			req.Header.Set("Cookie", rt.cookieHeader)
		}
	}

	if rt.log != nil {
		rt.log.Debugf("HTTP %s %s", req.Method, req.URL.String())
	}

	return rt.base.RoundTrip(req)
}

func joinCookies(inline, file string) string {
	s := strings.TrimSpace(inline)
	if file != "" {
		if b, err := os.ReadFile(file); err == nil {
			// first non-empty line
			sc := bufio.NewScanner(strings.NewReader(string(b)))
			for sc.Scan() {
				line := strings.TrimSpace(sc.Text())
				if line != "" {
					if s == "" {
						s = line
					} else {
						s = s + "; " + line
					}
					break
				}
			}
		}
	}

	return s
}

// DoWithRetry executes req with a linear backoff between attempts. Server
// errors and transport failures are retried; anything below 500 is returned.
// A non-nil lim is waited on before every attempt, retries included.
func DoWithRetry(c *http.Client, req *http.Request, attempts int, backoff time.Duration, lim *rate.Limiter) (*http.Response, error) {
	var resp *http.Response
	var err error

	if attempts < 1 {
		attempts = 1
	}

	for i := 1; i <= attempts; i++ {
		if lim != nil {
			if err := lim.Wait(req.Context()); err != nil {
				return nil, err
			}
		}
		resp, err = c.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}

		if i == attempts {
			break
		}

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(backoff * time.Duration(i)):
		}
	}

	if err == nil && resp != nil {
		return nil, fmt.Errorf("HTTP %d after %d attempts", resp.StatusCode, attempts)
	}

	return nil, err
}

// Request describes one page fetch.
type Request struct {
	Method string
	URL    string
	Header map[string]string
}

// Fetcher downloads page bodies as text, retrying failed attempts. A non-nil
// Limiter spaces out requests across every goroutine sharing the Fetcher.
type Fetcher struct {
	Client   *http.Client
	Attempts int
	Backoff  time.Duration
	Limiter  *rate.Limiter
}

func NewFetcher(c *http.Client, attempts int) *Fetcher {
	return &Fetcher{Client: c, Attempts: attempts, Backoff: 500 * time.Millisecond}
}

// PerSecond builds a limiter allowing n requests per second. n <= 0 means
// no limit.
func PerSecond(n float64) *rate.Limiter {
	if n <= 0 {
		return nil
	}

	return rate.NewLimiter(rate.Limit(n), 1)
}

func (f *Fetcher) Fetch(ctx context.Context, r Request) (string, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, nil)
	if err != nil {
		return "", scrapeerr.Wrap(scrapeerr.KindInput, err, "build request")
	}
	for k, v := range r.Header {
		req.Header.Set(k, v)
	}

	resp, err := DoWithRetry(f.Client, req, f.Attempts, f.Backoff, f.Limiter)
	if err != nil {
		return "", scrapeerr.Wrap(scrapeerr.KindFetch, err, method+" "+r.URL)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return "", scrapeerr.Wrap(scrapeerr.KindFetch, fmt.Errorf("HTTP %d", resp.StatusCode), method+" "+r.URL)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", scrapeerr.Wrap(scrapeerr.KindFetch, err, "read "+r.URL)
	}

	return string(data), nil
}

func PickUserAgent(override string) string {
	if override != "" {
		return override
	}

	return "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
}
