package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/fenilmodi00/market-snapshot-bot/models"
	"github.com/fenilmodi00/market-snapshot-bot/shared"
	"github.com/sirupsen/logrus"
)

const (
	fetchMaxAttempts = 3
	fetchBaseDelay   = 1 * time.Second
	maxResponseBytes = 4 << 20
)

// ErrInvalidMarketResponse is returned when the payload lacks a boolean isMarketOpen flag
var ErrInvalidMarketResponse = errors.New("invalid API response format")

// MarketFetcher pulls the market-band snapshot from the market data API
type MarketFetcher struct {
	apiURL  string
	client  *http.Client
	metrics *shared.HTTPMetrics
	sleep   shared.SleepFunc
	logger  *logrus.Entry
}

// MarketFetcherOption customises a MarketFetcher
type MarketFetcherOption func(*MarketFetcher)

// WithFetchSleep replaces the backoff wait, mainly for tests
func WithFetchSleep(sleep shared.SleepFunc) MarketFetcherOption {
	return func(f *MarketFetcher) {
		f.sleep = sleep
	}
}

// WithFetchMetrics records every attempt in metrics
func WithFetchMetrics(metrics *shared.HTTPMetrics) MarketFetcherOption {
	return func(f *MarketFetcher) {
		f.metrics = metrics
	}
}

// NewMarketFetcher creates a fetcher for apiURL using client
func NewMarketFetcher(apiURL string, client *http.Client, opts ...MarketFetcherOption) *MarketFetcher {
	f := &MarketFetcher{
		apiURL:  apiURL,
		client:  client,
		metrics: shared.NewHTTPMetrics(),
		sleep:   shared.TimerSleep,
		logger:  logrus.WithField("component", "MarketFetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Metrics returns the per-attempt HTTP metrics of the fetcher
func (f *MarketFetcher) Metrics() *shared.HTTPMetrics {
	return f.metrics
}

// FetchMarketSnapshot fetches and shallow-validates a snapshot, retrying with exponential backoff
func (f *MarketFetcher) FetchMarketSnapshot(ctx context.Context) (*models.MarketSnapshot, error) {
	policy := shared.RetryPolicy{
		Operation:   "fetch_market_snapshot",
		MaxAttempts: fetchMaxAttempts,
		Delay:       shared.ExponentialDelay(fetchBaseDelay),
		Sleep:       f.sleep,
	}

	snapshot, err := shared.Retry(ctx, policy, func(ctx context.Context, attempt int) (*models.MarketSnapshot, error) {
		f.logger.Infof("Fetching market data (attempt %d/%d)", attempt, fetchMaxAttempts)
		if attempt > 1 {
			f.metrics.RecordRetryAttempt()
		}

		snapshot, err := f.fetchOnce(ctx)
		if err != nil {
			f.logger.Errorf("Market fetch attempt %d failed: %v", attempt, err)
			return nil, err
		}
		return snapshot, nil
	})
	if err != nil {
		var exhausted *shared.RetryExhaustedError
		if errors.As(err, &exhausted) {
			return nil, shared.NewFetchError(exhausted.Attempts, exhausted)
		}
		return nil, shared.WrapError(err, shared.ErrorCategoryTimeout, shared.CodeFetchFailed, "MarketFetcher", "FetchMarketSnapshot", true)
	}

	f.logger.WithFields(logrus.Fields{
		"is_market_open": snapshot.IsMarketOpen,
		"indices_count":  len(snapshot.Indices),
		"gainers_count":  len(snapshot.TopGainers),
		"losers_count":   len(snapshot.TopLosers),
	}).Info("Market data fetched successfully")

	return snapshot, nil
}

func (f *MarketFetcher) fetchOnce(ctx context.Context) (*models.MarketSnapshot, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	shared.SetJSONHeaders(req)

	resp, err := f.client.Do(req)
	if err != nil {
		f.metrics.RecordHTTPRequest(false, 0, time.Since(start), "network", isTimeout(err))
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.metrics.RecordHTTPRequest(false, resp.StatusCode, time.Since(start), "status", false)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		f.metrics.RecordHTTPRequest(false, resp.StatusCode, time.Since(start), "read", isTimeout(err))
		return nil, fmt.Errorf("read body: %w", err)
	}

	snapshot, err := f.decodeSnapshot(body)
	if err != nil {
		f.metrics.RecordHTTPRequest(false, resp.StatusCode, time.Since(start), "validation", false)
		return nil, err
	}

	f.metrics.RecordHTTPRequest(true, resp.StatusCode, time.Since(start), "", false)
	return snapshot, nil
}

// decodeSnapshot checks only the isMarketOpen flag; the movers and indices
// arrays degrade to empty when absent or malformed
func (f *MarketFetcher) decodeSnapshot(body []byte) (*models.MarketSnapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, ErrInvalidMarketResponse
	}

	var isOpen bool
	flag, ok := raw["isMarketOpen"]
	if !ok {
		return nil, ErrInvalidMarketResponse
	}
	if err := json.Unmarshal(flag, &isOpen); err != nil || string(flag) == "null" {
		return nil, ErrInvalidMarketResponse
	}

	snapshot := &models.MarketSnapshot{IsMarketOpen: isOpen}
	snapshot.Indices = decodeList[models.IndexPoint](f.logger, raw, "indices")
	snapshot.TopGainers = decodeList[models.Mover](f.logger, raw, "topGainers")
	snapshot.TopLosers = decodeList[models.Mover](f.logger, raw, "topLosers")
	return snapshot, nil
}

func decodeList[T any](logger *logrus.Entry, raw map[string]json.RawMessage, key string) []T {
	data, ok := raw[key]
	if !ok || string(data) == "null" {
		return nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		logger.WithField("field", key).WithError(err).Warn("Ignoring malformed market data field")
		return nil
	}
	return items
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
