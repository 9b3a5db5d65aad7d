// Package linkcheck verifies that navigation links resolve: internal routes
// against the docs tree and external URLs over HTTP.
package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/docnav/internal/config"
	ferrors "git.home.luguber.info/inful/docnav/internal/foundation/errors"
	"git.home.luguber.info/inful/docnav/internal/logfields"
	"git.home.luguber.info/inful/docnav/internal/metrics"
	"git.home.luguber.info/inful/docnav/internal/retry"
	"git.home.luguber.info/inful/docnav/internal/site"
	"git.home.luguber.info/inful/docnav/internal/version"
)

// RouteChecker reports whether a site-relative route has a page.
type RouteChecker interface {
	RouteExists(route string) bool
}

// Options configures a Checker.
type Options struct {
	External      bool // request external URLs; otherwise they are skipped
	Timeout       time.Duration
	MaxConcurrent int
	Policy        retry.Policy
	TTL           TTL
	Cache         Cache     // optional
	Publisher     Publisher // optional
	Recorder      metrics.Recorder
	HTTPClient    *http.Client
}

// OptionsFromConfig maps the linkcheck configuration section onto Options.
// Cache and Publisher are left for the caller to attach.
func OptionsFromConfig(l config.LinkCheckConfig) Options {
	return Options{
		External:      l.External,
		Timeout:       config.Duration(l.Timeout, 10*time.Second),
		MaxConcurrent: l.MaxConcurrent,
		Policy:        retry.FromLinkCheck(l),
		TTL: TTL{
			Valid:   config.Duration(l.CacheTTL, 24*time.Hour),
			Failure: config.Duration(l.CacheTTLFailures, time.Hour),
		},
	}
}

// Result is the outcome for one declared link.
type Result struct {
	Ref      site.LinkRef `json:"ref"`
	Kind     string       `json:"kind"`
	OK       bool         `json:"ok"`
	Skipped  bool         `json:"skipped,omitempty"`
	Cached   bool         `json:"cached,omitempty"`
	Status   int          `json:"status,omitempty"`
	Error    string       `json:"error,omitempty"`
	Attempts int          `json:"attempts,omitempty"`
}

// Report collects the results of one check run in declaration order.
type Report struct {
	Results  []Result      `json:"results"`
	Duration time.Duration `json:"duration"`
}

// Broken returns the failed results.
func (r *Report) Broken() []Result {
	var broken []Result
	for _, res := range r.Results {
		if !res.OK && !res.Skipped {
			broken = append(broken, res)
		}
	}
	return broken
}

// Err returns a classified link check error when any link is broken.
func (r *Report) Err() error {
	broken := r.Broken()
	if len(broken) == 0 {
		return nil
	}
	return ferrors.LinkCheckError(fmt.Sprintf("%d broken navigation link(s)", len(broken))).
		WithContext("first", broken[0].Ref.Path+": "+broken[0].Ref.Link).
		Build()
}

// Checker verifies navigation links.
type Checker struct {
	routes RouteChecker
	opts   Options
	client *http.Client
	sem    chan struct{}
	now    func() time.Time
}

// New creates a Checker. routes may be nil, in which case internal links
// are skipped.
func New(routes RouteChecker, opts Options) *Checker {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = config.DefaultMaxConcurrent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	client := opts.HTTPClient
	if client == nil {
		// Respects HTTP_PROXY, HTTPS_PROXY and NO_PROXY.
		client = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	return &Checker{
		routes: routes,
		opts:   opts,
		client: client,
		sem:    make(chan struct{}, opts.MaxConcurrent),
		now:    time.Now,
	}
}

// Check verifies every nav link and explicit sidebar page of s. Each
// distinct external URL is requested once.
func (c *Checker) Check(ctx context.Context, s *site.Site, buildID string) (*Report, error) {
	start := c.now()
	refs := append(s.Links(), sidebarRefs(s)...)
	report := &Report{Results: make([]Result, len(refs))}

	slog.Info("Starting link check", slog.Int("links", len(refs)), slog.Bool("external", c.opts.External))

	external := make(map[string][]int)
	for i, ref := range refs {
		kind := ref.Kind()
		res := Result{Ref: ref, Kind: kind.String()}
		switch kind {
		case site.LinkInternal:
			if c.routes == nil {
				res.Skipped = true
			} else {
				res.OK = c.routes.RouteExists(ref.Link)
				if !res.OK {
					res.Error = "no page for route"
				}
			}
		case site.LinkExternal:
			if !c.opts.External || !isHTTP(ref.Link) {
				res.Skipped = true
			} else {
				external[ref.Link] = append(external[ref.Link], i)
			}
		default:
			res.Error = "not a valid link"
		}
		report.Results[i] = res
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for url, idxs := range external {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		case c.sem <- struct{}{}:
		}
		wg.Add(1)
		go func(url string, idxs []int) {
			defer wg.Done()
			defer func() { <-c.sem }()
			outcome := c.checkExternal(ctx, url)
			mu.Lock()
			defer mu.Unlock()
			for _, i := range idxs {
				res := &report.Results[i]
				res.OK, res.Status, res.Error = outcome.OK, outcome.Status, outcome.Error
				res.Cached, res.Attempts = outcome.Cached, outcome.Attempts
			}
		}(url, idxs)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, res := range report.Results {
		if res.Skipped {
			continue
		}
		c.opts.Recorder.IncLinkCheck(res.Kind, res.OK)
		if !res.OK {
			c.reportBroken(ctx, s, res, buildID)
		}
	}

	report.Duration = c.now().Sub(start)
	c.opts.Recorder.ObserveLinkCheckDuration(report.Duration)
	slog.Info("Link check completed",
		slog.Int("links", len(refs)),
		slog.Int("broken", len(report.Broken())),
		logfields.DurationMS(float64(report.Duration.Milliseconds())))
	return report, nil
}

func sidebarRefs(s *site.Site) []site.LinkRef {
	var refs []site.LinkRef
	for _, prefix := range site.SortedPrefixes(s.ThemeConfig.Sidebar) {
		spec := s.ThemeConfig.Sidebar[prefix]
		if spec.IsAuto() {
			continue
		}
		for i, page := range spec.Pages {
			refs = append(refs, site.LinkRef{
				Path: fmt.Sprintf("themeConfig.sidebar[%q][%d]", prefix, i),
				Link: page,
			})
		}
	}
	return refs
}

type externalOutcome struct {
	OK       bool
	Status   int
	Error    string
	Cached   bool
	Attempts int
}

// statusError is an HTTP response that marks the link broken.
type statusError struct{ code int }

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.code, http.StatusText(e.code))
}

func (c *Checker) checkExternal(ctx context.Context, url string) externalOutcome {
	var cached *CacheEntry
	if c.opts.Cache != nil {
		entry, err := c.opts.Cache.Get(ctx, url)
		if err != nil {
			slog.Debug("Cache lookup error", logfields.URL(url), logfields.Error(err))
		} else if c.opts.TTL.Fresh(entry, c.now()) {
			return externalOutcome{OK: entry.IsValid, Status: entry.Status, Error: entry.Error, Cached: true}
		}
		cached = entry
	}

	var (
		status   int
		attempts int
	)
	err := c.opts.Policy.Do(ctx, retryable, func(int) error {
		attempts++
		var err error
		status, err = c.request(ctx, url)
		return err
	})

	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusTooManyRequests {
		// Still rate limited after retries: the server answered, so the URL exists.
		err = nil
	}

	entry := &CacheEntry{URL: url, Status: status, IsValid: err == nil, LastChecked: c.now()}
	if err != nil {
		entry.Error = err.Error()
		entry.FailureCount = 1
		entry.FirstFailedAt = entry.LastChecked
		if cached != nil && !cached.IsValid {
			entry.FailureCount = cached.FailureCount + 1
			if !cached.FirstFailedAt.IsZero() {
				entry.FirstFailedAt = cached.FirstFailedAt
			}
		}
	}
	if c.opts.Cache != nil && ctx.Err() == nil {
		if err := c.opts.Cache.Set(ctx, entry); err != nil {
			slog.Warn("Failed to update link cache", logfields.URL(url), logfields.Error(err))
		}
	}
	return externalOutcome{OK: entry.IsValid, Status: status, Error: entry.Error, Attempts: attempts}
}

// request issues HEAD and falls back to GET for servers that reject or
// mishandle HEAD.
func (c *Checker) request(ctx context.Context, url string) (int, error) {
	status, err := c.do(ctx, http.MethodHead, url)
	if err != nil {
		return 0, err
	}
	switch status {
	case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
		if status, err = c.do(ctx, http.MethodGet, url); err != nil {
			return 0, err
		}
	}

	// Authentication errors mean the URL exists but requires credentials.
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return status, nil
	}
	if status >= 400 {
		return status, &statusError{code: status}
	}
	return status, nil
}

func (c *Checker) do(ctx context.Context, method, url string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "docnav-linkcheck/"+version.Version)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	return resp.StatusCode, nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	return true
}

func (c *Checker) reportBroken(ctx context.Context, s *site.Site, res Result, buildID string) {
	slog.Warn("Broken link detected",
		logfields.URL(res.Ref.Link),
		logfields.Path(res.Ref.Path),
		logfields.Status(res.Status),
		slog.String("error", res.Error))

	if c.opts.Publisher == nil {
		return
	}
	event := &BrokenLinkEvent{
		URL:         res.Ref.Link,
		Kind:        res.Kind,
		Status:      res.Status,
		Error:       res.Error,
		Path:        res.Ref.Path,
		Text:        res.Ref.Text,
		Group:       res.Ref.Group,
		Site:        s.Title,
		LastChecked: c.now(),
		BuildID:     buildID,
	}
	if c.opts.Cache != nil && res.Kind == site.LinkExternal.String() {
		if entry, err := c.opts.Cache.Get(ctx, res.Ref.Link); err == nil && entry != nil {
			event.FailureCount = entry.FailureCount
			event.FirstFailedAt = entry.FirstFailedAt
			event.LastChecked = entry.LastChecked
		}
	}
	if err := c.opts.Publisher.PublishBrokenLink(ctx, event); err != nil {
		slog.Error("Failed to publish broken link event", logfields.URL(res.Ref.Link), logfields.Error(err))
	}
}

func isHTTP(link string) bool {
	l := strings.ToLower(link)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}
