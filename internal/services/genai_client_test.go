package services

import (
  "context"
  "errors"
  "net/http"
  "net/http/httptest"
  "sync/atomic"
  "testing"
  "time"

  "github.com/yungbote/lessonforge-backend/internal/logger"
)

func testGenAIClient(t *testing.T, baseURL string) *genAIClient {
  t.Helper()
  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("logger: %v", err)
  }
  return NewGenAIClient(log, baseURL, "sk-test", "shared").(*genAIClient)
}

func TestGenerateTextRetriesOnRetryableStatus(t *testing.T) {
  var calls atomic.Int32
  srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    if calls.Add(1) == 1 {
      w.Header().Set("Retry-After", "0")
      w.WriteHeader(http.StatusTooManyRequests)
      return
    }
    w.Header().Set("Content-Type", "application/json")
    _, _ = w.Write([]byte(`{"choices": [{"message": {"content": "hello"}}]}`))
  }))
  defer srv.Close()

  client := testGenAIClient(t, srv.URL)
  got, err := client.GenerateText(context.Background(), "", "hi", "gpt-4o")
  if err != nil {
    t.Fatalf("unexpected error: %v", err)
  }
  if got != "hello" {
    t.Fatalf("content = %q", got)
  }
  if calls.Load() != 2 {
    t.Fatalf("calls = %d, want 2", calls.Load())
  }
}

func TestGenerateTextDoesNotRetryClientErrors(t *testing.T) {
  var calls atomic.Int32
  srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    calls.Add(1)
    w.WriteHeader(http.StatusBadRequest)
  }))
  defer srv.Close()

  client := testGenAIClient(t, srv.URL)
  _, err := client.GenerateText(context.Background(), "", "hi", "gpt-4o")

  var httpErr *GenAIHTTPError
  if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadRequest {
    t.Fatalf("err = %v, want 400 GenAIHTTPError", err)
  }
  if calls.Load() != 1 {
    t.Fatalf("calls = %d, want 1 (no retry on 4xx)", calls.Load())
  }
}

func TestGenerateTextBackoffHonorsCancellation(t *testing.T) {
  srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
    // always retryable, with a long server-directed backoff
    w.Header().Set("Retry-After", "5")
    w.WriteHeader(http.StatusServiceUnavailable)
  }))
  defer srv.Close()

  ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
  defer cancel()

  client := testGenAIClient(t, srv.URL)
  start := time.Now()
  _, err := client.GenerateText(ctx, "", "hi", "gpt-4o")
  elapsed := time.Since(start)

  if !errors.Is(err, context.DeadlineExceeded) {
    t.Fatalf("err = %v, want context.DeadlineExceeded", err)
  }
  if elapsed > 2*time.Second {
    t.Fatalf("cancellation not honored during backoff: took %s", elapsed)
  }
}
