package services

import (
  "context"
  "errors"
  "testing"

  "github.com/yungbote/lessonforge-backend/internal/configstore"
  "github.com/yungbote/lessonforge-backend/internal/logger"
  "github.com/yungbote/lessonforge-backend/internal/types"
)

type fakeGenAIClient struct {
  providerID string
  content    string
  err        error
  models     []types.ModelInfo
  calls      *[]string
}

func (f *fakeGenAIClient) GenerateText(ctx context.Context, systemPrompt, userPrompt, model string) (string, error) {
  *f.calls = append(*f.calls, f.providerID+":"+model)
  if f.err != nil {
    return "", f.err
  }
  return f.content, nil
}

func (f *fakeGenAIClient) ListModels(ctx context.Context) ([]types.ModelInfo, error) {
  if f.err != nil {
    return nil, f.err
  }
  return f.models, nil
}

type gatewayFixture struct {
  gateway ProviderGateway
  cfg     *configstore.MemoryConfigStore
  calls   []string
}

// newGatewayFixture builds a gateway whose shared and direct clients are fakes
// with per-provider behavior.
func newGatewayFixture(t *testing.T, sharedErr, directErr error) *gatewayFixture {
  t.Helper()
  t.Setenv("SHARED_GENAI_BASE_URL", "https://shared.example.com")
  t.Setenv("SHARED_GENAI_API_KEY", "sk-shared")
  t.Setenv("DIRECT_GENAI_BASE_URL", "https://direct.example.com")
  t.Setenv("MODEL_CATALOG_PATH", "does-not-exist.yaml")

  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("logger: %v", err)
  }

  fx := &gatewayFixture{cfg: configstore.NewMemoryConfigStore()}
  factory := func(l *logger.Logger, baseURL, apiKey, providerID string) GenAIClient {
    client := &fakeGenAIClient{
      providerID: providerID,
      content:    providerID + " content",
      calls:      &fx.calls,
    }
    switch providerID {
    case "shared":
      client.err = sharedErr
      client.models = []types.ModelInfo{{ID: "shared-model", Provider: "shared"}}
    case "direct":
      client.err = directErr
    }
    return client
  }
  fx.gateway = NewProviderGateway(log, fx.cfg, factory)
  return fx
}

func TestGenerateSharedFirst(t *testing.T) {
  fx := newGatewayFixture(t, nil, nil)

  res, err := fx.gateway.Generate(context.Background(), "hello", "shared:gpt-4o-mini", "caller-key")
  if err != nil {
    t.Fatalf("unexpected error: %v", err)
  }
  if res.ProviderID != "shared" {
    t.Fatalf("provider = %q, want shared", res.ProviderID)
  }
  if res.ModelID != "gpt-4o-mini" {
    t.Fatalf("prefix not stripped: %q", res.ModelID)
  }
  if len(fx.calls) != 1 || fx.calls[0] != "shared:gpt-4o-mini" {
    t.Fatalf("calls = %v", fx.calls)
  }
}

func TestGenerateFallsBackToDirect(t *testing.T) {
  fx := newGatewayFixture(t, errors.New("shared down"), nil)

  res, err := fx.gateway.Generate(context.Background(), "hello", "gpt-4o", "caller-key")
  if err != nil {
    t.Fatalf("fallback should succeed: %v", err)
  }
  if res.ProviderID != "direct" {
    t.Fatalf("provider = %q, want direct", res.ProviderID)
  }
  if len(fx.calls) != 2 || fx.calls[0] != "shared:gpt-4o" || fx.calls[1] != "direct:gpt-4o" {
    t.Fatalf("chain order wrong: %v", fx.calls)
  }
}

func TestGenerateSharedDisabledByConfig(t *testing.T) {
  fx := newGatewayFixture(t, nil, nil)
  if err := fx.cfg.Set(context.Background(), ConfigKeySharedProviderEnabled, "false"); err != nil {
    t.Fatalf("set config: %v", err)
  }

  res, err := fx.gateway.Generate(context.Background(), "hello", "direct:gemini-2.5-flash", "caller-key")
  if err != nil {
    t.Fatalf("unexpected error: %v", err)
  }
  if res.ProviderID != "direct" {
    t.Fatalf("provider = %q, want direct", res.ProviderID)
  }
  if len(fx.calls) != 1 || fx.calls[0] != "direct:gemini-2.5-flash" {
    t.Fatalf("shared should not be attempted: %v", fx.calls)
  }
}

func TestGenerateBothFailing(t *testing.T) {
  fx := newGatewayFixture(t, errors.New("shared down"), errors.New("direct down"))

  _, err := fx.gateway.Generate(context.Background(), "hello", "gpt-4o", "caller-key")
  if !errors.Is(err, ErrNoProviderAvailable) {
    t.Fatalf("err = %v, want ErrNoProviderAvailable", err)
  }
  if len(fx.calls) != 2 {
    t.Fatalf("both backends should be attempted: %v", fx.calls)
  }
}

func TestGenerateNoBackendsAtAll(t *testing.T) {
  fx := newGatewayFixture(t, nil, nil)
  if err := fx.cfg.Set(context.Background(), ConfigKeySharedProviderEnabled, "false"); err != nil {
    t.Fatalf("set config: %v", err)
  }

  // shared disabled, no caller credential
  _, err := fx.gateway.Generate(context.Background(), "hello", "gpt-4o", "")
  if !errors.Is(err, ErrNoProviderAvailable) {
    t.Fatalf("err = %v, want ErrNoProviderAvailable", err)
  }
  if len(fx.calls) != 0 {
    t.Fatalf("no backend should be attempted: %v", fx.calls)
  }
}

func TestStripModelPrefix(t *testing.T) {
  tests := []struct {
    in   string
    want string
  }{
    {"shared:gpt-4o", "gpt-4o"},
    {"primary:gpt-4o", "gpt-4o"},
    {"direct:gemini-2.5-flash", "gemini-2.5-flash"},
    {"gpt-4o", "gpt-4o"},
    {"shared:primary:gpt-4o", "primary:gpt-4o"}, // exactly one prefix stripped
    {"unknown:model", "unknown:model"},
  }
  for _, tt := range tests {
    if got := stripModelPrefix(tt.in); got != tt.want {
      t.Fatalf("stripModelPrefix(%q) = %q, want %q", tt.in, got, tt.want)
    }
  }
}

func TestListModelsPrefersShared(t *testing.T) {
  fx := newGatewayFixture(t, nil, nil)
  models := fx.gateway.ListModels(context.Background())
  if len(models) != 1 || models[0].ID != "shared-model" {
    t.Fatalf("models = %+v", models)
  }
}

func TestListModelsFallsBackToCatalog(t *testing.T) {
  fx := newGatewayFixture(t, errors.New("shared down"), nil)
  models := fx.gateway.ListModels(context.Background())
  if len(models) == 0 {
    t.Fatalf("catalog fallback must never be empty")
  }
  for _, m := range models {
    if m.ID == "shared-model" {
      t.Fatalf("live shared model leaked into fallback: %+v", models)
    }
  }
}
