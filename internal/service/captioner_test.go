package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestCaptioner(baseURL string) *OpenAICaptioner {
	return NewOpenAICaptioner(&CaptionerConfig{
		Model:   "gpt-4o-mini",
		APIKey:  "test-key",
		BaseURL: baseURL,
		Timeout: 2 * time.Second,
	})
}

func TestDescribeSuccess(t *testing.T) {
	var gotReq chatRequest
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"a red fox in tall grass"}}]}`))
	}))
	defer server.Close()

	captioner := newTestCaptioner(server.URL)
	prompt, err := captioner.Describe(context.Background(), []byte("img"), "image/png")
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if prompt != "a red fox in tall grass" {
		t.Errorf("prompt: got %q", prompt)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization: got %q", gotAuth)
	}
	if gotReq.Model != "gpt-4o-mini" {
		t.Errorf("model: got %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 {
		t.Fatalf("messages: got %d, want 2", len(gotReq.Messages))
	}
	if gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Errorf("roles: got %q, %q", gotReq.Messages[0].Role, gotReq.Messages[1].Role)
	}

	// The image travels as a base64 data URL inside the user message.
	raw, err := json.Marshal(gotReq.Messages[1].Content)
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	if !strings.Contains(string(raw), "data:image/png;base64,") {
		t.Errorf("user content missing data URL: %s", raw)
	}
}

func TestDescribeRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	_, err := newTestCaptioner(server.URL).Describe(context.Background(), []byte("img"), "image/png")
	if !errors.Is(err, ErrCaptionerRateLimited) {
		t.Errorf("got %v, want ErrCaptionerRateLimited", err)
	}
}

func TestDescribeUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"invalid image","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	_, err := newTestCaptioner(server.URL).Describe(context.Background(), []byte("img"), "image/png")

	var cerr *CaptionerError
	if !errors.As(err, &cerr) {
		t.Fatalf("got %v, want CaptionerError", err)
	}
	if cerr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode: got %d, want 400", cerr.StatusCode)
	}
	if cerr.Message != "invalid image" {
		t.Errorf("Message: got %q", cerr.Message)
	}
}

func TestDescribeEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := newTestCaptioner(server.URL).Describe(context.Background(), []byte("img"), "image/png")

	var cerr *CaptionerError
	if !errors.As(err, &cerr) {
		t.Fatalf("got %v, want CaptionerError", err)
	}
}

func TestDescribeUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	_, err := newTestCaptioner(server.URL).Describe(context.Background(), []byte("img"), "image/png")
	if !errors.Is(err, ErrCaptionerUnavailable) {
		t.Errorf("got %v, want ErrCaptionerUnavailable", err)
	}
}
