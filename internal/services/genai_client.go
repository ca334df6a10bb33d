package services

import (
  "bytes"
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "io"
  "math/rand"
  "net"
  "net/http"
  "strconv"
  "strings"
  "time"

  "github.com/yungbote/lessonforge-backend/internal/logger"
  "github.com/yungbote/lessonforge-backend/internal/types"
)

// GenAIClient talks to one OpenAI-compatible generation backend. The gateway
// constructs one per backend (shared and direct) and owns the fallback chain;
// this client only owns transport-level retries.
type GenAIClient interface {
  GenerateText(ctx context.Context, systemPrompt, userPrompt, model string) (string, error)
  ListModels(ctx context.Context) ([]types.ModelInfo, error)
}

type genAIClient struct {
  log        *logger.Logger
  baseURL    string
  apiKey     string
  providerID string
  httpClient *http.Client

  maxRetries int
}

// GenAIClientFactory lets tests substitute a fake backend.
type GenAIClientFactory func(log *logger.Logger, baseURL, apiKey, providerID string) GenAIClient

func NewGenAIClient(log *logger.Logger, baseURL, apiKey, providerID string) GenAIClient {
  if baseURL == "" {
    baseURL = "https://api.openai.com"
  }
  return &genAIClient{
    log:        log.With("service", "GenAIClient", "provider", providerID),
    baseURL:    strings.TrimRight(baseURL, "/"),
    apiKey:     apiKey,
    providerID: providerID,
    httpClient: &http.Client{Timeout: 180 * time.Second},
    maxRetries: 3,
  }
}

// GenAIHTTPError carries the backend's HTTP status so callers can distinguish
// quota/availability failures from bad requests.
type GenAIHTTPError struct {
  StatusCode int
  Body       string
}

func (e *GenAIHTTPError) Error() string {
  return fmt.Sprintf("genai http %d: %s", e.StatusCode, e.Body)
}

func isRetryableHTTP(code int) bool {
  if code == 408 || code == 429 {
    return true
  }
  return code >= 500 && code <= 599
}

func isRetryableErr(err error) bool {
  if err == nil {
    return false
  }
  if errors.Is(err, context.DeadlineExceeded) {
    return true
  }
  var netErr net.Error
  if errors.As(err, &netErr) && netErr.Timeout() {
    return true
  }
  var httpErr *GenAIHTTPError
  if errors.As(err, &httpErr) {
    return isRetryableHTTP(httpErr.StatusCode)
  }
  return false
}

func jitterSleep(base time.Duration) time.Duration {
  // +/- 20%
  if base <= 0 {
    return 0
  }
  delta := base.Seconds() * 0.2
  low := base.Seconds() - delta
  v := low + rand.Float64()*(2*delta)
  return time.Duration(v * float64(time.Second))
}

func (c *genAIClient) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
  var buf bytes.Buffer
  if body != nil {
    if err := json.NewEncoder(&buf).Encode(body); err != nil {
      return nil, nil, err
    }
  }

  req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
  if err != nil {
    return nil, nil, err
  }
  req.Header.Set("Authorization", "Bearer "+c.apiKey)
  req.Header.Set("Content-Type", "application/json")

  resp, err := c.httpClient.Do(req)
  if err != nil {
    return nil, nil, err
  }

  raw, readErr := io.ReadAll(resp.Body)
  _ = resp.Body.Close()
  if readErr != nil {
    return resp, nil, readErr
  }

  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    return resp, raw, &GenAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
  }
  return resp, raw, nil
}

func (c *genAIClient) do(ctx context.Context, method, path string, body any, out any) error {
  backoff := 1 * time.Second

  for attempt := 0; attempt <= c.maxRetries; attempt++ {
    if ctx.Err() != nil {
      return ctx.Err()
    }

    resp, raw, err := c.doOnce(ctx, method, path, body)
    if err == nil {
      if out == nil {
        return nil
      }
      if uErr := json.Unmarshal(raw, out); uErr != nil {
        return fmt.Errorf("genai decode error: %w; raw=%s", uErr, string(raw))
      }
      return nil
    }

    if !isRetryableErr(err) {
      return err
    }
    if attempt == c.maxRetries {
      return err
    }

    sleepFor := backoff
    if resp != nil {
      ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
      if ra != "" {
        if secs, parseErr := strconv.Atoi(ra); parseErr == nil && secs > 0 {
          sleepFor = time.Duration(secs) * time.Second
        }
      }
    }
    if sleepFor > 10*time.Second {
      sleepFor = 10 * time.Second
    }
    sleepFor = jitterSleep(sleepFor)

    c.log.Warn("GenAI request retrying",
      "path", path,
      "attempt", attempt+1,
      "max_retries", c.maxRetries,
      "sleep", sleepFor.String(),
      "error", err.Error(),
    )

    select {
    case <-ctx.Done():
      return ctx.Err()
    case <-time.After(sleepFor):
    }
    backoff *= 2
  }

  return fmt.Errorf("unreachable retry loop")
}

type chatRequest struct {
  Model    string `json:"model"`
  Messages []struct {
    Role    string `json:"role"`
    Content string `json:"content"`
  } `json:"messages"`
  Temperature float64 `json:"temperature,omitempty"`
}

type chatResponse struct {
  Choices []struct {
    Message struct {
      Content string `json:"content"`
      Refusal string `json:"refusal,omitempty"`
    } `json:"message"`
  } `json:"choices"`
}

func (c *genAIClient) GenerateText(ctx context.Context, systemPrompt, userPrompt, model string) (string, error) {
  req := chatRequest{Model: model, Temperature: 0.3}
  if systemPrompt != "" {
    req.Messages = append(req.Messages, struct {
      Role    string `json:"role"`
      Content string `json:"content"`
    }{Role: "system", Content: systemPrompt})
  }
  req.Messages = append(req.Messages, struct {
    Role    string `json:"role"`
    Content string `json:"content"`
  }{Role: "user", Content: userPrompt})

  var resp chatResponse
  if err := c.do(ctx, "POST", "/v1/chat/completions", req, &resp); err != nil {
    return "", err
  }
  if len(resp.Choices) == 0 {
    return "", fmt.Errorf("no choices in response")
  }
  if refusal := resp.Choices[0].Message.Refusal; refusal != "" {
    return "", fmt.Errorf("model refused: %s", refusal)
  }
  content := resp.Choices[0].Message.Content
  if strings.TrimSpace(content) == "" {
    return "", fmt.Errorf("empty completion content")
  }
  return content, nil
}

type modelsResponse struct {
  Data []struct {
    ID string `json:"id"`
  } `json:"data"`
}

func (c *genAIClient) ListModels(ctx context.Context) ([]types.ModelInfo, error) {
  var resp modelsResponse
  if err := c.do(ctx, "GET", "/v1/models", nil, &resp); err != nil {
    return nil, err
  }
  out := make([]types.ModelInfo, 0, len(resp.Data))
  for _, m := range resp.Data {
    out = append(out, types.ModelInfo{ID: m.ID, Provider: c.providerID, DisplayName: m.ID})
  }
  return out, nil
}
