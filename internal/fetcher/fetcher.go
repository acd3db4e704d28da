package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xaenox/member-qa/internal/models"
)

// IncompleteError reports a fetch that exhausted its retry budget before the
// upstream was drained. Fetched is the number of records obtained before the
// failing page.
type IncompleteError struct {
	Fetched int
	Err     error
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("fetch incomplete after %d records: %v", e.Fetched, e.Err)
}

func (e *IncompleteError) Unwrap() error { return e.Err }

// transientError marks an upstream response worth retrying on the same offset.
type transientError struct {
	status int
}

func (e *transientError) Error() string {
	return fmt.Sprintf("transient upstream error: HTTP %d", e.status)
}

type Config struct {
	BaseURL        string
	PageSize       int
	MaxAttempts    int // retries per page on top of the first try
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	RequestTimeout time.Duration
	RateLimit      float64 // upstream requests per second, 0 disables
}

// Client drains a paginated upstream that intermittently fails on valid
// offsets.
type Client struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return &Client{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		limiter: limiter,
		logger:  logger,
	}
}

// FetchAll requests pages with a skip/limit cursor until the upstream is
// drained. The only trusted end-of-data signal is a page shorter than the
// requested limit; error statuses on a valid offset are retried on the same
// cursor. On retry-budget exhaustion the records obtained so far are
// returned along with an *IncompleteError, so the caller can choose to run
// degraded.
func (c *Client) FetchAll(ctx context.Context) ([]models.Message, error) {
	var records []models.Message
	skip := 0
	for {
		page, err := c.fetchPage(ctx, skip)
		if err != nil {
			return records, &IncompleteError{Fetched: len(records), Err: err}
		}

		records = append(records, page...)
		c.logger.Info("fetched page",
			zap.Int("skip", skip),
			zap.Int("page_size", len(page)),
			zap.Int("total", len(records)))

		if len(page) < c.cfg.PageSize {
			c.logger.Info("upstream drained", zap.Int("records", len(records)))
			return records, nil
		}
		skip += c.cfg.PageSize
	}
}

// fetchPage retries one offset with capped exponential backoff and jitter
// until it succeeds, a permanent error occurs, or the per-page budget runs
// out.
func (c *Client) fetchPage(ctx context.Context, skip int) ([]models.Message, error) {
	attempt := 0
	op := func() ([]models.Message, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, backoff.Permanent(err)
			}
		}
		attempt++
		page, err := c.doRequest(ctx, skip)
		if err != nil {
			c.logger.Warn("page request failed",
				zap.Int("skip", skip),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		return page, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialBackoff
	b.MaxInterval = c.cfg.MaxBackoff
	b.MaxElapsedTime = 0 // bounded by the attempt count instead

	return backoff.RetryWithData(op,
		backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.MaxAttempts)), ctx))
}

func (c *Client) doRequest(ctx context.Context, skip int) ([]models.Message, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("parse base url: %w", err))
	}
	q := u.Query()
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(c.cfg.PageSize))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// Transport errors are retried until the budget runs out.
		return nil, fmt.Errorf("request skip=%d: %w", skip, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case isTransientStatus(resp.StatusCode):
		io.Copy(io.Discard, resp.Body)
		return nil, &transientError{status: resp.StatusCode}
	default:
		return nil, backoff.Permanent(fmt.Errorf("upstream returned HTTP %d for skip=%d", resp.StatusCode, skip))
	}

	var page []models.Message
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode page at skip=%d: %w", skip, err)
	}
	return page, nil
}

// The upstream intermittently answers valid offsets with 403/404/405; only a
// short or empty page marks the end of data, so these statuses are retried
// on the same offset.
func isTransientStatus(code int) bool {
	switch code {
	case http.StatusForbidden, http.StatusNotFound, http.StatusMethodNotAllowed:
		return true
	}
	return code >= 500
}

// IsTransient reports whether err would be retried by the fetch loop.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}
