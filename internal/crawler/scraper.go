// Package crawler fetches source payloads over HTTP and expands sources into fetch targets.
package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"regscan/internal/config"
	"regscan/internal/logger"
	"regscan/internal/models"
	"regscan/pkg/utils"
)

// Fetch errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrNoURL                = errors.New("no url to fetch")
	ErrBodyTooLarge         = errors.New("response body exceeds buffer size")
	ErrUnsupportedURL       = errors.New("url is neither http(s) nor an existing local file")
)

// Fetcher retrieves the payload of one URL for a source. Failures are
// reported as a FetchError sentinel payload, never as a Go error.
type Fetcher interface {
	Fetch(ctx context.Context, source, url string) models.RawContent
}

// Scraper handles HTTP fetching with config-driven retry and rate limiting.
type Scraper struct {
	client       *http.Client
	retryPolicy  config.RetryPolicy
	limiter      *rate.Limiter
	headers      *utils.HTTPHelper
	attempts     *AttemptLog
	logger       *logger.Logger
	bufferSizeKb int
}

// NewScraper creates a scraper with default fetch and retry settings.
func NewScraper(log *logger.Logger) *Scraper {
	return NewScraperWithConfig(
		config.FetchConfig{
			TimeoutSec:   config.DefaultTimeoutSec,
			BufferSizeKb: config.DefaultBufferSizeKb,
		},
		config.RetryPolicy{
			MaxAttempts:       config.DefaultMaxAttempts,
			InitialDelayMs:    config.DefaultInitialDelayMs,
			MaxDelayMs:        config.DefaultMaxDelayMs,
			BackoffMultiplier: config.DefaultBackoffMultiplier,
		},
		log,
	)
}

// NewScraperWithConfig creates a scraper from fetch and retry configuration.
// A zero requests_per_second disables rate limiting.
func NewScraperWithConfig(fetch config.FetchConfig, retry config.RetryPolicy, log *logger.Logger) *Scraper {
	var limiter *rate.Limiter

	if fetch.RequestsPerSecond > 0 {
		burst := fetch.Burst
		if burst < 1 {
			burst = 1
		}

		limiter = rate.NewLimiter(rate.Limit(fetch.RequestsPerSecond), burst)
	}

	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}

	bufferSizeKb := fetch.BufferSizeKb
	if bufferSizeKb <= 0 {
		bufferSizeKb = config.DefaultBufferSizeKb
	}

	timeout := fetch.GetTimeout()
	if timeout <= 0 {
		timeout = config.DefaultTimeoutSec * time.Second
	}

	return &Scraper{
		client:       &http.Client{Timeout: timeout},
		retryPolicy:  retry,
		limiter:      limiter,
		headers:      utils.NewHTTPHelper(fetch.UserAgent),
		attempts:     NewAttemptLog(),
		logger:       log,
		bufferSizeKb: bufferSizeKb,
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (s *Scraper) WithHTTPClient(client *http.Client) *Scraper {
	s.client = client
	return s
}

// Attempts returns the log of every attempt made by this scraper.
func (s *Scraper) Attempts() *AttemptLog {
	return s.attempts
}

// Fetch implements Fetcher. file:// URLs and bare paths are read from disk.
func (s *Scraper) Fetch(ctx context.Context, source, rawURL string) models.RawContent {
	if rawURL == "" {
		return models.FetchError(rawURL, ErrNoURL)
	}

	if path, ok := localPath(rawURL); ok {
		return s.fetchLocal(source, rawURL, path)
	}

	if !isHTTP(rawURL) {
		s.logger.Warn("Fetch skipped", "source", source, "url", rawURL, "error", ErrUnsupportedURL)
		return models.FetchError(rawURL, fmt.Errorf("%w: %s", ErrUnsupportedURL, rawURL))
	}

	body, contentType, status, duration, err := s.ScrapeWithMetrics(ctx, source, rawURL)
	if err != nil {
		s.logger.Warn("Fetch failed", "source", source, "url", rawURL, "status", status, "error", err)
		return models.FetchError(rawURL, err)
	}

	s.logger.Debug("Fetched", "source", source, "url", rawURL, "bytes", len(body), "duration", duration)

	return models.RawContent{
		URL:         rawURL,
		Payload:     body,
		ContentType: DetectContentType(contentType, body),
	}
}

// ScrapeWithMetrics returns (content, contentType header, statusCode, duration, error).
func (s *Scraper) ScrapeWithMetrics(ctx context.Context, source, rawURL string) (string, string, int, time.Duration, error) {
	var (
		lastErr        error
		lastStatusCode int
		totalDuration  time.Duration
	)

	for attempt := 1; attempt <= s.retryPolicy.MaxAttempts; attempt++ {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return "", "", lastStatusCode, totalDuration, fmt.Errorf("rate limiter: %w", err)
			}
		}

		startTime := time.Now()
		body, contentType, status, err := s.do(ctx, rawURL)
		duration := time.Since(startTime)
		totalDuration += duration
		lastStatusCode = status

		s.attempts.Record(source, AttemptResult{
			Timestamp:  startTime,
			URL:        rawURL,
			Attempt:    attempt,
			Duration:   duration,
			StatusCode: status,
			Success:    err == nil,
			Error:      errorString(err),
		})

		if err == nil {
			return body, contentType, status, totalDuration, nil
		}

		lastErr = fmt.Errorf("attempt %d/%d: %w", attempt, s.retryPolicy.MaxAttempts, err)

		// Only network errors and temporary statuses are retried.
		if status != 0 && !isRetryableStatus(status) {
			break
		}

		if attempt < s.retryPolicy.MaxAttempts {
			if err := sleep(ctx, s.retryPolicy.GetRetryDelay(attempt)); err != nil {
				return "", "", lastStatusCode, totalDuration, err
			}
		}
	}

	return "", "", lastStatusCode, totalDuration, lastErr
}

func (s *Scraper) do(ctx context.Context, rawURL string) (string, string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = s.headers.BuildHeaders(nil)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", "", 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return "", "", resp.StatusCode, fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	limit := int64(s.bufferSizeKb) * 1024

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return "", "", resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > limit {
		return "", "", resp.StatusCode, fmt.Errorf("%w: more than %d KB", ErrBodyTooLarge, s.bufferSizeKb)
	}

	return string(body), resp.Header.Get("Content-Type"), resp.StatusCode, nil
}

func (s *Scraper) fetchLocal(source, rawURL, path string) models.RawContent {
	content, size, duration, err := s.ReadLocalFileWithMetrics(path)

	s.attempts.Record(source, AttemptResult{
		Timestamp: time.Now(),
		URL:       rawURL,
		Attempt:   1,
		Duration:  duration,
		Success:   err == nil,
		Error:     errorString(err),
	})

	if err != nil {
		s.logger.Warn("Local read failed", "source", source, "path", path, "error", err)
		return models.FetchError(rawURL, err)
	}

	s.logger.Debug("Read local file", "source", source, "path", path, "bytes", size)

	contentType := mime.TypeByExtension(filepath.Ext(path))

	return models.RawContent{
		URL:         rawURL,
		Payload:     content,
		ContentType: DetectContentType(contentType, content),
	}
}

// ReadLocalFileWithMetrics returns (content, fileSize, duration, error).
func (s *Scraper) ReadLocalFileWithMetrics(filePath string) (string, int64, time.Duration, error) {
	startTime := time.Now()

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return "", 0, time.Since(startTime), fmt.Errorf("failed to stat file %s: %w", filePath, err)
	}

	content, err := os.ReadFile(filePath)
	duration := time.Since(startTime)

	if err != nil {
		return "", 0, duration, fmt.Errorf("failed to read local file %s: %w", filePath, err)
	}

	return string(content), fileInfo.Size(), duration, nil
}

// FetchWithFallback fetches the primary URL of t and then each backup URL until
// one succeeds. The last failure sentinel is returned when all fail.
func FetchWithFallback(ctx context.Context, f Fetcher, t Target) models.RawContent {
	urls := t.URLs()
	if len(urls) == 0 {
		return models.FetchError("", ErrNoURL)
	}

	var last models.RawContent

	for _, u := range urls {
		last = f.Fetch(ctx, t.Source, u)
		if !last.IsFetchError() {
			return last
		}

		if ctx.Err() != nil {
			break
		}
	}

	return last
}

// DetectContentType tags a payload from its Content-Type header, sniffing the
// body when the header is missing or generic.
func DetectContentType(header, body string) models.ContentType {
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(header))
	}

	switch {
	case strings.Contains(mediaType, "rss"), strings.Contains(mediaType, "atom"), strings.Contains(mediaType, "xml"):
		return models.ContentXML
	case strings.Contains(mediaType, "json"):
		return models.ContentJSON
	case mediaType == "" || mediaType == "text/plain" || mediaType == "application/octet-stream":
		return sniffContentType(body)
	}

	return models.ContentHTML
}

func sniffContentType(body string) models.ContentType {
	head := bytes.TrimSpace([]byte(body[:min(len(body), 512)]))

	switch {
	case bytes.HasPrefix(head, []byte("<?xml")), bytes.HasPrefix(head, []byte("<rss")),
		bytes.HasPrefix(head, []byte("<feed")), bytes.HasPrefix(head, []byte("<rdf:RDF")):
		return models.ContentXML
	case bytes.HasPrefix(head, []byte("{")), bytes.HasPrefix(head, []byte("[")):
		return models.ContentJSON
	}

	return models.ContentHTML
}

// localPath returns the filesystem path for file:// URLs and for scheme-less
// values that name an existing file.
func localPath(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	switch u.Scheme {
	case "file":
		return u.Path, true
	case "":
		if info, err := os.Stat(rawURL); err == nil && !info.IsDir() {
			return rawURL, true
		}
	}

	return "", false
}

func isHTTP(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func errorString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusServiceUnavailable: // 503
		return true
	case http.StatusGatewayTimeout: // 504
		return true
	case http.StatusTooManyRequests: // 429
		return true
	case http.StatusRequestTimeout: // 408
		return true
	}

	return false
}
