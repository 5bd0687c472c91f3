package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fenilmodi00/market-snapshot-bot/shared"
)

var testCredentials = TwitterCredentials{
	AppKey:       "app-key",
	AppSecret:    "app-secret",
	AccessToken:  "access-token",
	AccessSecret: "access-secret",
}

func newTestTwitterClient(url string, sleeps *recordedSleeps) *TwitterClient {
	return NewTwitterClient(url, testCredentials, &http.Client{Timeout: 5 * time.Second}, WithPublishSleep(sleeps.sleep))
}

func TestPostTweet_SignsAndPosts(t *testing.T) {
	var authorization, method, path string
	var body tweetRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		method = r.Method
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data": {"id": "1765000000000000000", "text": "hello"}}`))
	}))
	defer server.Close()

	client := newTestTwitterClient(server.URL, &recordedSleeps{})

	result, err := client.PostTweet(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ID != "1765000000000000000" || result.Text != "hello" {
		t.Errorf("unexpected result %+v", result)
	}
	if method != http.MethodPost || path != "/2/tweets" {
		t.Errorf("request %s %s", method, path)
	}
	if body.Text != "hello" {
		t.Errorf("posted text = %q", body.Text)
	}
	if !strings.HasPrefix(authorization, "OAuth ") || !strings.Contains(authorization, `oauth_consumer_key="app-key"`) {
		t.Errorf("Authorization = %q", authorization)
	}
	if !strings.Contains(authorization, `oauth_token="access-token"`) {
		t.Errorf("Authorization lacks access token: %q", authorization)
	}
}

func TestPostTweet_ExhaustsRetriesWithLinearBackoff(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"title": "Service Unavailable", "detail": "try later"}`))
	}))
	defer server.Close()

	sleeps := &recordedSleeps{}
	client := newTestTwitterClient(server.URL, sleeps)

	_, err := client.PostTweet(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}

	if hits.Load() != 3 {
		t.Errorf("hits = %d, want 3", hits.Load())
	}
	if len(sleeps.delays) != 2 || sleeps.delays[0] != 2000*time.Millisecond || sleeps.delays[1] != 4000*time.Millisecond {
		t.Errorf("delays = %v, want [2s 4s]", sleeps.delays)
	}
	if !shared.IsPublishError(err) {
		t.Errorf("error %v is not a publish error", err)
	}
	if !strings.Contains(err.Error(), "after 3 attempts") || !strings.Contains(err.Error(), "503") {
		t.Errorf("error message = %q", err.Error())
	}
}

func TestPostTweet_RecoversOnSecondAttempt(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data": {"id": "42", "text": "hello"}}`))
	}))
	defer server.Close()

	sleeps := &recordedSleeps{}
	client := newTestTwitterClient(server.URL, sleeps)

	result, err := client.PostTweet(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ID != "42" {
		t.Errorf("ID = %q", result.ID)
	}
	if len(sleeps.delays) != 1 || sleeps.delays[0] != 2*time.Second {
		t.Errorf("delays = %v, want [2s]", sleeps.delays)
	}
	if got := client.Metrics().GetSnapshot().RetryAttempts; got != 1 {
		t.Errorf("retry attempts = %d, want 1", got)
	}
}

func TestPostTweet_ResponseWithoutIDFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data": {}}`))
	}))
	defer server.Close()

	_, err := newTestTwitterClient(server.URL, &recordedSleeps{}).PostTweet(context.Background(), "hello")
	if !shared.IsPublishError(err) {
		t.Errorf("err = %v, want a publish error", err)
	}
}

func TestVerifyCredentials(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"valid", http.StatusOK, `{"data": {"id": "1", "name": "Bot", "username": "marketbot"}}`, true},
		{"unauthorized", http.StatusUnauthorized, `{"title": "Unauthorized", "detail": "bad token"}`, false},
		{"garbage", http.StatusOK, `not json`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var path string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				path = r.URL.Path
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestTwitterClient(server.URL+"/", &recordedSleeps{})
			if got := client.VerifyCredentials(context.Background()); got != tt.want {
				t.Errorf("VerifyCredentials = %v, want %v", got, tt.want)
			}
			if path != "/2/users/me" {
				t.Errorf("path = %q", path)
			}
		})
	}
}

func TestAPIError(t *testing.T) {
	withDetail := apiError(403, []byte(`{"title": "Forbidden", "detail": "duplicate content"}`))
	if withDetail.Error() != "request failed with code 403: Forbidden duplicate content" {
		t.Errorf("got %q", withDetail.Error())
	}

	plain := apiError(500, []byte(`oops`))
	if plain.Error() != "request failed with code 500: Internal Server Error" {
		t.Errorf("got %q", plain.Error())
	}
}
