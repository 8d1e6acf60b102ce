// Package fetch retrieves page bodies over HTTP with bounded concurrency,
// falling back to an archived snapshot when the live page is unreachable
// or not HTML.
package fetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"mwi/internal/logging"
)

// Config controls fetcher behavior.
type Config struct {
	Parallelism    int
	UserAgent      string
	TotalTimeout   time.Duration
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	ArchiveURL     string
}

// Result is the outcome of fetching a single URL.
type Result struct {
	URL        string
	FinalURL   string
	Status     string
	Body       string
	FromCache  bool // served from the archive fallback rather than live
	Err        error
}

// Fetcher issues bounded-concurrency batches of HTTP GETs.
type Fetcher struct {
	cfg    Config
	client *http.Client
	sem    *semaphore.Weighted
}

// New builds a Fetcher from cfg. Parallelism below 1 is treated as 1.
func New(cfg Config) *Fetcher {
	p := cfg.Parallelism
	if p < 1 {
		p = 1
	}
	return &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.TotalTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
			},
		},
		sem: semaphore.NewWeighted(int64(p)),
	}
}

// FetchBatch fetches a window of URLs concurrently and awaits all of them
// before returning, per the no-inter-batch-pipelining scheduling model:
// the orchestrator pulls the next window of N ≤ P items, runs them
// concurrently, awaits all, then advances.
func (f *Fetcher) FetchBatch(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))
	done := make(chan int, len(urls))

	for i, url := range urls {
		i, url := i, url
		go func() {
			if err := f.sem.Acquire(ctx, 1); err != nil {
				results[i] = Result{URL: url, Status: "000", Err: err}
				done <- i
				return
			}
			defer f.sem.Release(1)
			results[i] = f.fetchOne(ctx, url)
			done <- i
		}()
	}

	for range urls {
		<-done
	}
	return results
}

// fetchOne implements the per-item fetch(url) operation: live GET, then
// archival fallback on any failure or non-HTML response.
func (f *Fetcher) fetchOne(ctx context.Context, url string) Result {
	status, body, finalURL, err := f.get(ctx, url)
	if err == nil {
		return Result{URL: url, FinalURL: finalURL, Status: status, Body: body}
	}

	logging.FetchDebug("live fetch failed for %s: %v — attempting archive fallback", url, err)
	archiveURL, aerr := f.lookupArchive(ctx, url)
	if aerr != nil || archiveURL == "" {
		return Result{URL: url, Status: statusOr000(status), Err: err}
	}

	_, archBody, archFinal, aerr := f.get(ctx, archiveURL)
	if aerr != nil {
		return Result{URL: url, Status: statusOr000(status), Err: err}
	}
	return Result{
		URL: url, FinalURL: archFinal, Status: statusOr000(status),
		Body: archBody, FromCache: true,
	}
}

// get issues a single HTTP GET and validates the response is HTML.
func (f *Fetcher) get(ctx context.Context, url string) (status, body, finalURL string, err error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.TotalTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", url, err
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", url, err
	}
	defer resp.Body.Close()

	status = strconv.Itoa(resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return status, "", resp.Request.URL.String(), errNonSuccess(resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(ct), "html") {
		return status, "", resp.Request.URL.String(), errNotHTML(ct)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return status, "", resp.Request.URL.String(), err
	}
	return status, string(data), resp.Request.URL.String(), nil
}

const maxBodyBytes = 32 << 20 // 32 MiB

func statusOr000(status string) string {
	if status == "" {
		return "000"
	}
	return status
}
