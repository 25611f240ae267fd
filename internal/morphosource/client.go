// Package morphosource implements the MorphoSource media registry lookup client.
package morphosource

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/morphotools/morphoverify/internal/errors"
	"github.com/morphotools/morphoverify/internal/logging"
)

// Package-level logger specific to the morphosource service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	// Define log file path relative to working directory
	logFilePath := filepath.Join("logs", "morphosource.log")
	initialLevel := slog.LevelDebug
	serviceLevelVar.Set(initialLevel)

	// Initialize the service-specific file logger
	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "morphosource", serviceLevelVar)
	if err != nil {
		// Fallback: Log error to standard log and disable service logging
		log.Printf("FATAL: Failed to initialize morphosource file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "morphosource")
		closeLogger = func() error { return nil } // No-op closer
	}
}

// Client provides methods for searching the MorphoSource media registry
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
	sink       DumpSink
	dumpLimit  int
	dumpCount  int
	debug      bool
}

// Option configures optional client behavior.
type Option func(*Client)

// WithDumpSink enables raw response persistence for the first limit searches.
// A dump failure is logged and swallowed, it never fails the lookup.
func WithDumpSink(sink DumpSink, limit int) Option {
	return func(c *Client) {
		c.sink = sink
		c.dumpLimit = limit
	}
}

// WithDebug enables debug logging of requests and responses.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// NewClient creates a new MorphoSource registry client
func NewClient(config Config, opts ...Option) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.Newf("MorphoSource API key is required").
			Category(errors.CategoryConfiguration).
			Component("morphosource").
			Build()
	}

	// Use defaults for missing config values
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.PerPage == 0 {
		config.PerPage = DefaultConfig().PerPage
	}

	// The registry enforces rate limits, so the pause between calls is part of
	// the contract. A zero RateLimit (tests) means no waiting.
	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Every(config.RateLimit), 1)
	}

	client := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: limiter,
	}

	for _, opt := range opts {
		opt(client)
	}

	logger.Info("MorphoSource client initialized",
		"base_url", config.BaseURL,
		"rate_limit", config.RateLimit.String(),
		"per_page", config.PerPage,
		"dump_enabled", client.sink != nil,
		"api_key_configured", config.APIKey != "")

	return client, nil
}

// Close cleans up client resources
func (c *Client) Close() {
	logger.Info("Closing MorphoSource client")

	if closeLogger != nil {
		logger.Debug("Closing morphosource service log file")
		if err := closeLogger(); err != nil {
			// Use standard log since our logger might be closing
			log.Printf("Error closing morphosource logger: %v", err)
		}
	}
}

// Search queries the registry for media records whose physical object title
// matches the specimen identifier exactly (case-insensitive). An empty slice
// means the specimen is not in the registry. Any transport, status or parsing
// failure is returned as a categorized error and affects only the current row.
func (c *Client) Search(ctx context.Context, specimenID string) ([]Media, error) {
	reqID := uuid.New().String()[:8] // Using first 8 chars for brevity
	reqLogger := logger.With("request_id", reqID, "specimen_id", specimenID)

	// Mandatory pause between successive registry calls
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryLimit).
			Context("specimen_id", specimenID).
			Context("operation", "rate_limiter_wait").
			Component("morphosource").
			Build()
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	searchURL := c.searchURL(specimenID)

	if c.debug {
		reqLogger.Debug("MorphoSource search request", "url", searchURL)
	}

	body, err := c.doRequest(reqCtx, searchURL, reqLogger)
	if err != nil {
		return nil, err
	}

	// Persist the first few raw responses to aid troubleshooting. This is a
	// side channel, a failing dump never fails the row.
	c.maybeDump(specimenID, body, reqLogger)

	items, err := parseSearchResponse(body)
	if err != nil {
		reqLogger.Error("Failed to parse MorphoSource response",
			"error", err,
			"response_size", len(body))
		return nil, errors.New(err).
			Category(errors.CategoryFileParsing).
			Context("specimen_id", specimenID).
			Context("response_size", len(body)).
			Component("morphosource").
			Build()
	}

	matches := filterExactMatches(items, specimenID)

	reqLogger.Info("MorphoSource search completed",
		"candidates", len(items),
		"exact_matches", len(matches))

	return matches, nil
}

// searchURL builds the registry search URL for a specimen identifier.
func (c *Client) searchURL(specimenID string) string {
	params := url.Values{}
	params.Set("locale", "en")
	params.Set("per_page", strconv.Itoa(c.config.PerPage))
	params.Set("q", specimenID)
	params.Set("search_field", "all_fields")
	return c.config.BaseURL + "?" + params.Encode()
}

// doRequest performs the HTTP request with auth and returns the raw body.
func (c *Client) doRequest(ctx context.Context, searchURL string, reqLogger *slog.Logger) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, http.NoBody)
	if err != nil {
		return nil, errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", searchURL).
			Component("morphosource").
			Build()
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		reqLogger.Error("MorphoSource request failed", "error", err, "url", searchURL)
		return nil, errors.Newf("HTTP request failed: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", searchURL).
			Component("morphosource").
			Build()
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			// Log error but don't propagate it
			_ = err
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		reqLogger.Error("Failed to read response body",
			"error", err,
			"status_code", resp.StatusCode)
		return nil, errors.Newf("failed to read response body: %w", err).
			Category(errors.CategoryNetwork).
			Context("url", searchURL).
			Context("status_code", resp.StatusCode).
			Component("morphosource").
			Build()
	}

	if resp.StatusCode != http.StatusOK {
		// Log authentication failures specially
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			reqLogger.Error("MorphoSource authentication failed",
				"status_code", resp.StatusCode,
				"has_api_key", c.config.APIKey != "",
				"message", "Check your MorphoSource API key")
		} else {
			reqLogger.Warn("MorphoSource error response",
				"status_code", resp.StatusCode,
				"response_preview", preview(body))
		}

		return nil, errors.Newf("MorphoSource search failed with status %d", resp.StatusCode).
			Category(errorCategoryForStatus(resp.StatusCode)).
			Context("status_code", resp.StatusCode).
			Context("url", searchURL).
			Component("morphosource").
			Build()
	}

	duration := time.Since(start)
	if c.debug {
		reqLogger.Debug("MorphoSource response",
			"status_code", resp.StatusCode,
			"duration_ms", duration.Milliseconds(),
			"response_size", len(body))
	}

	return body, nil
}

// maybeDump writes the raw payload through the dump sink while under the limit.
func (c *Client) maybeDump(specimenID string, body []byte, reqLogger *slog.Logger) {
	if c.sink == nil || c.dumpCount >= c.dumpLimit {
		return
	}
	c.dumpCount++

	name := "debug_response_" + strings.ReplaceAll(specimenID, ":", "_") + ".json"
	if err := c.sink.Dump(name, body); err != nil {
		reqLogger.Warn("Failed to persist raw response, continuing",
			"dump_name", name,
			"error", err)
		return
	}
	reqLogger.Debug("Saved raw response for troubleshooting", "dump_name", name)
}

// errorCategoryForStatus determines the error category based on HTTP status code
func errorCategoryForStatus(statusCode int) errors.ErrorCategory {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		// Authentication errors point at configuration
		return errors.CategoryConfiguration
	case http.StatusTooManyRequests:
		return errors.CategoryLimit
	default:
		return errors.CategoryHTTP
	}
}

// preview truncates a response body for log output.
func preview(body []byte) string {
	const max = 500
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
