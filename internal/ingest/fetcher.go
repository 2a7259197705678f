package ingest

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/styx8114/threatlens/internal/cache"
	"github.com/styx8114/threatlens/internal/model"
	"github.com/styx8114/threatlens/internal/util"
	"github.com/styx8114/threatlens/internal/worker"
	"go.uber.org/zap"
)

// Fetcher retrieves a report page over HTTP and reduces it to raw text.
// Fetches respect robots.txt, are rate limited per host, and are cached so
// re-analysis of the same URL does not re-download the page.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	cache      cache.Cache // nil disables caching
	logger     *zap.Logger
}

// NewFetcher creates a fetcher from HTTP configuration. Pass a nil cache to
// disable fetch caching.
func NewFetcher(cfg model.HTTPConfig, c cache.Cache, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := &http.Transport{
		Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
	}
	if cfg.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		robots:    util.NewRobotsChecker(cfg.UserAgent, cfg.Timeout),
		limiter:   worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		cache:     c,
		logger:    logger,
	}
}

// FetchText downloads the URL and returns its visible text. HTML responses
// are reduced to visible text; anything else is returned as-is.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	key := cache.URLKey(rawURL)
	if f.cache != nil {
		if data, found := f.cache.Get(key); found {
			f.logger.Debug("fetch cache hit", zap.String("url", rawURL))
			return string(data), nil
		}
	}

	allowed, crawlDelay, err := f.robots.CanFetch(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("robots check: %w", err)
	}
	if !allowed {
		return "", fmt.Errorf("fetch disallowed by robots.txt: %s", rawURL)
	}

	if err := f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	text := string(body)
	if strings.Contains(resp.Header.Get("Content-Type"), "html") {
		text, err = VisibleText(text)
		if err != nil {
			return "", fmt.Errorf("extract text: %w", err)
		}
	}

	f.logger.Debug("fetched report page",
		zap.String("url", rawURL),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)))

	if f.cache != nil {
		if err := f.cache.Set(key, []byte(text), 0); err != nil {
			f.logger.Warn("fetch cache write failed", zap.Error(err))
		}
	}

	return text, nil
}

// FetchBytes downloads a URL without text reduction. The taxonomy updater
// uses this for the upstream STIX bundle.
func (f *Fetcher) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	// Reference bundles run far larger than report pages.
	limit := f.maxBytes
	if limit < 256_000_000 {
		limit = 256_000_000
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}
