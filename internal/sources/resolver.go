package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/ppiankov/wikimend/internal/cache"
	"github.com/ppiankov/wikimend/internal/model"
	"github.com/ppiankov/wikimend/internal/ratelimit"
	"github.com/ppiankov/wikimend/internal/util"
)

const resolveMaxRetries = 3

// resolveSleepFunc is the sleep used between retries (injectable for tests)
var resolveSleepFunc = time.Sleep

// Resolver checks source identifiers for reachability and registry
// status ahead of validation. Results are plain data; the guardrail
// rules consume them without suspending on the network.
type Resolver struct {
	httpClient *http.Client
	registry   *Registry
	robots     *util.RobotsChecker
	limiter    *ratelimit.DomainLimiter
	userAgent  string
	maxWorkers int
	cache      cache.Cache
	cacheTTL   time.Duration
}

// NewResolver creates a resolver with the given outbound settings
func NewResolver(cfg model.HTTPConfig, conc model.ConcurrencyConfig, registry *Registry) *Resolver {
	maxWorkers := conc.ResolverWorkers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	return &Resolver{
		httpClient: util.NewHTTPClient(cfg.Timeout, cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
		registry:   registry,
		robots:     util.NewRobotsChecker(cfg.UserAgent, cfg.Timeout),
		limiter:    ratelimit.NewLimiter(conc.RequestsPerSecond, conc.Burst),
		userAgent:  cfg.UserAgent,
		maxWorkers: maxWorkers,
	}
}

// SetCache enables resolution caching. Only settled results are
// cached; transient failures are always retried on the next run.
func (r *Resolver) SetCache(c cache.Cache, ttl time.Duration) {
	r.cache = c
	r.cacheTTL = ttl
}

// ResolveAll resolves a set of URLs concurrently, bounded by the worker
// limit and per-domain politeness. The result map is keyed by URL.
func (r *Resolver) ResolveAll(ctx context.Context, urls []string) map[string]*model.Resolution {
	results := make(map[string]*model.Resolution, len(urls))
	if len(urls) == 0 {
		return results
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, r.maxWorkers)

	seen := make(map[string]bool, len(urls))
	for _, rawURL := range urls {
		if rawURL == "" || seen[rawURL] {
			continue
		}
		seen[rawURL] = true

		wg.Add(1)
		go func(u string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				mu.Lock()
				results[u] = &model.Resolution{URL: u, Transient: true, Error: "context cancelled"}
				mu.Unlock()
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			res := r.resolveWithRetry(ctx, u)
			mu.Lock()
			results[u] = res
			mu.Unlock()
		}(rawURL)
	}

	wg.Wait()
	return results
}

// Resolve checks a single URL. Registry classification happens even
// when the network check fails: a deprecated origin stays deprecated.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) *model.Resolution {
	return r.resolveWithRetry(ctx, rawURL)
}

func (r *Resolver) resolveWithRetry(ctx context.Context, rawURL string) *model.Resolution {
	if r.cache != nil {
		var cached model.Resolution
		if cache.GetJSON(r.cache, cache.ResolutionKey(rawURL), &cached) {
			return &cached
		}
	}

	var res *model.Resolution
	for attempt := 0; attempt < resolveMaxRetries; attempt++ {
		res = r.resolveOnce(ctx, rawURL)
		if !res.Transient {
			if r.cache != nil {
				_ = cache.SetJSON(r.cache, cache.ResolutionKey(rawURL), res, r.cacheTTL)
			}
			return res
		}
		if attempt < resolveMaxRetries-1 {
			resolveSleepFunc(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}
	return res
}

func (r *Resolver) resolveOnce(ctx context.Context, rawURL string) *model.Resolution {
	res := &model.Resolution{
		URL:      rawURL,
		Registry: r.registry.Classify(rawURL),
	}

	if !r.robots.Allowed(ctx, rawURL) {
		// Disallowed by robots: treat as unreachable rather than probing anyway.
		res.Error = "fetch disallowed by robots.txt"
		return res
	}

	if err := r.limiter.Wait(ctx, rawURL); err != nil {
		res.Transient = true
		res.Error = fmt.Sprintf("rate limit wait: %v", err)
		return res
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		res.Error = fmt.Sprintf("create request: %v", err)
		return res
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		res.Transient = isTransientNetworkError(err.Error())
		res.Error = fmt.Sprintf("request failed: %v", err)
		return res
	}
	defer func() { _ = resp.Body.Close() }()

	res.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		res.Reachable = !r.isSoftNotFound(ctx, rawURL, resp.Header.Get("Content-Type"))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		res.Transient = true
		res.Error = fmt.Sprintf("transient status %d", resp.StatusCode)
	default:
		res.Error = fmt.Sprintf("status %d", resp.StatusCode)
	}

	return res
}

// isSoftNotFound catches pages that answer 200 but render an error
// shell: the HEAD check passes, yet the page title says "not found".
func (r *Resolver) isSoftNotFound(ctx context.Context, rawURL, contentType string) bool {
	if !strings.Contains(contentType, "text/html") {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	title := pageTitle(io.LimitReader(resp.Body, 32*1024))
	title = strings.ToLower(title)
	return strings.Contains(title, "not found") ||
		strings.Contains(title, "404") ||
		strings.Contains(title, "page does not exist")
}

// pageTitle extracts the <title> text from an HTML stream
func pageTitle(body io.Reader) string {
	tokenizer := html.NewTokenizer(body)
	inTitle := false
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			inTitle = string(name) == "title"
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(tokenizer.Text()))
			}
		case html.EndTagToken:
			inTitle = false
		}
	}
}

func isTransientNetworkError(msg string) bool {
	s := strings.ToLower(msg)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "deadline exceeded") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
