package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/fenilmodi00/market-snapshot-bot/models"
	"github.com/fenilmodi00/market-snapshot-bot/shared"
	"github.com/sirupsen/logrus"
)

const (
	publishMaxAttempts = 3
	publishDelayStep   = 2 * time.Second
)

// TwitterCredentials are the OAuth 1.0a user-context keys of the posting account
type TwitterCredentials struct {
	AppKey       string
	AppSecret    string
	AccessToken  string
	AccessSecret string
}

// TwitterClient posts to the X v2 API
type TwitterClient struct {
	baseURL string
	client  *http.Client
	metrics *shared.HTTPMetrics
	sleep   shared.SleepFunc
	logger  *logrus.Entry
}

// TwitterClientOption customises a TwitterClient
type TwitterClientOption func(*TwitterClient)

// WithPublishSleep replaces the backoff wait, mainly for tests
func WithPublishSleep(sleep shared.SleepFunc) TwitterClientOption {
	return func(c *TwitterClient) {
		c.sleep = sleep
	}
}

// WithPublishMetrics records every attempt in metrics
func WithPublishMetrics(metrics *shared.HTTPMetrics) TwitterClientOption {
	return func(c *TwitterClient) {
		c.metrics = metrics
	}
}

// NewTwitterClient returns a client whose requests are signed with creds.
// base supplies the underlying transport; its timeout is kept.
func NewTwitterClient(baseURL string, creds TwitterCredentials, base *http.Client, opts ...TwitterClientOption) *TwitterClient {
	if base == nil {
		base = http.DefaultClient
	}

	config := oauth1.NewConfig(creds.AppKey, creds.AppSecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	ctx := context.WithValue(context.Background(), oauth1.HTTPClient, base)
	signed := config.Client(ctx, token)
	signed.Timeout = base.Timeout

	c := &TwitterClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  signed,
		metrics: shared.NewHTTPMetrics(),
		sleep:   shared.TimerSleep,
		logger:  logrus.WithField("component", "TwitterClient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Metrics returns the per-attempt HTTP metrics of the client
func (c *TwitterClient) Metrics() *shared.HTTPMetrics {
	return c.metrics
}

type tweetRequest struct {
	Text string `json:"text"`
}

type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

type userResponse struct {
	Data struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"data"`
}

type apiErrorResponse struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// PostTweet creates one post, retrying with linear backoff. A retried attempt
// whose earlier request actually reached the API can publish twice.
func (c *TwitterClient) PostTweet(ctx context.Context, content string) (*models.PostResult, error) {
	policy := shared.RetryPolicy{
		Operation:   "post_tweet",
		MaxAttempts: publishMaxAttempts,
		Delay:       shared.LinearDelay(publishDelayStep),
		Sleep:       c.sleep,
	}

	result, err := shared.Retry(ctx, policy, func(ctx context.Context, attempt int) (*models.PostResult, error) {
		c.logger.WithField("content_length", TweetLength(content)).
			Infof("Posting tweet (attempt %d/%d)", attempt, publishMaxAttempts)
		if attempt > 1 {
			c.metrics.RecordRetryAttempt()
		}

		result, err := c.postOnce(ctx, content)
		if err != nil {
			c.logger.Errorf("Tweet post attempt %d failed: %v", attempt, err)
			return nil, err
		}
		return result, nil
	})
	if err != nil {
		var exhausted *shared.RetryExhaustedError
		if errors.As(err, &exhausted) {
			return nil, shared.NewPublishError(exhausted.Attempts, exhausted)
		}
		return nil, shared.WrapError(err, shared.ErrorCategoryTimeout, shared.CodePublishFailed, "TwitterClient", "PostTweet", true)
	}

	c.logger.WithField("tweet_id", result.ID).Info("Tweet posted successfully")
	return result, nil
}

func (c *TwitterClient) postOnce(ctx context.Context, content string) (*models.PostResult, error) {
	body, err := json.Marshal(tweetRequest{Text: content})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var out tweetResponse
	if err := c.do(ctx, http.MethodPost, "/2/tweets", body, &out); err != nil {
		return nil, err
	}
	if out.Data.ID == "" {
		return nil, errors.New("response carried no tweet id")
	}

	return &models.PostResult{ID: out.Data.ID, Text: out.Data.Text}, nil
}

// VerifyCredentials asks the API who the credentials belong to
func (c *TwitterClient) VerifyCredentials(ctx context.Context) bool {
	var out userResponse
	if err := c.do(ctx, http.MethodGet, "/2/users/me", nil, &out); err != nil {
		c.logger.WithError(err).Error("Twitter credentials verification failed")
		return false
	}

	c.logger.WithFields(logrus.Fields{
		"user_id":  out.Data.ID,
		"username": out.Data.Username,
	}).Info("Twitter credentials verified")
	return true
}

func (c *TwitterClient) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	start := time.Now()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	shared.SetJSONHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordHTTPRequest(false, 0, time.Since(start), "network", isTimeout(err))
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.metrics.RecordHTTPRequest(false, resp.StatusCode, time.Since(start), "read", isTimeout(err))
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.RecordHTTPRequest(false, resp.StatusCode, time.Since(start), "status", false)
		return apiError(resp.StatusCode, payload)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		c.metrics.RecordHTTPRequest(false, resp.StatusCode, time.Since(start), "decode", false)
		return fmt.Errorf("decode response: %w", err)
	}

	c.metrics.RecordHTTPRequest(true, resp.StatusCode, time.Since(start), "", false)
	return nil
}

func apiError(status int, payload []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil && (apiErr.Detail != "" || apiErr.Title != "") {
		return fmt.Errorf("request failed with code %d: %s %s", status, apiErr.Title, apiErr.Detail)
	}
	return fmt.Errorf("request failed with code %d: %s", status, http.StatusText(status))
}
