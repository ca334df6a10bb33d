package services

import (
  "context"
  "errors"
  "fmt"
  "os"
  "strings"

  "gopkg.in/yaml.v3"

  "github.com/yungbote/lessonforge-backend/internal/configstore"
  "github.com/yungbote/lessonforge-backend/internal/logger"
  "github.com/yungbote/lessonforge-backend/internal/types"
  "github.com/yungbote/lessonforge-backend/internal/utils"
)

// ErrNoProviderAvailable is terminal: no backend produced content. Everything
// upstream of it (a shared-backend failure with a direct fallback still to try)
// is logged and swallowed.
var ErrNoProviderAvailable = errors.New("no provider available")

const ConfigKeySharedProviderEnabled = "shared_provider_enabled"

// ProviderGateway resolves which generation backend serves a request and runs
// a single fallback chain: shared (centrally configured, runtime-toggleable)
// first, then a direct backend keyed by the caller-supplied credential.
type ProviderGateway interface {
  Generate(ctx context.Context, prompt, modelID, fallbackCredential string) (*types.ProviderResult, error)
  GenerateWithSystemPrompt(ctx context.Context, systemPrompt, userPrompt, modelID, fallbackCredential string) (*types.ProviderResult, error)
  ListModels(ctx context.Context) []types.ModelInfo
}

type providerGateway struct {
  log *logger.Logger
  cfg configstore.ConfigStore

  sharedBaseURL string
  sharedAPIKey  string
  directBaseURL string
  catalogPath   string

  newClient GenAIClientFactory
}

func NewProviderGateway(log *logger.Logger, cfg configstore.ConfigStore, newClient GenAIClientFactory) ProviderGateway {
  if newClient == nil {
    newClient = NewGenAIClient
  }
  return &providerGateway{
    log:           log.With("service", "ProviderGateway"),
    cfg:           cfg,
    sharedBaseURL: utils.GetEnv("SHARED_GENAI_BASE_URL", "", log),
    sharedAPIKey:  utils.GetEnv("SHARED_GENAI_API_KEY", "", log),
    directBaseURL: utils.GetEnv("DIRECT_GENAI_BASE_URL", "", log),
    catalogPath:   utils.GetEnv("MODEL_CATALOG_PATH", "configs/models.yaml", log),
    newClient:     newClient,
  }
}

// modelPrefixes are source-routing hints callers may put in front of a model id
// (e.g. "shared:gpt-4o-mini"). Exactly one recognized prefix is stripped before
// dispatch; anything else passes through untouched.
var modelPrefixes = []string{"primary:", "shared:", "direct:"}

func stripModelPrefix(modelID string) string {
  for _, p := range modelPrefixes {
    if strings.HasPrefix(modelID, p) {
      return modelID[len(p):]
    }
  }
  return modelID
}

type providerAttempt struct {
  providerID string
  client     GenAIClient
  // terminal attempts abort the chain on failure instead of falling through
  terminal bool
}

func (g *providerGateway) attempts(ctx context.Context, fallbackCredential string) []providerAttempt {
  out := []providerAttempt{}

  sharedEnabled := g.cfg.GetBool(ctx, ConfigKeySharedProviderEnabled, true)
  if sharedEnabled && g.sharedAPIKey != "" {
    out = append(out, providerAttempt{
      providerID: "shared",
      client:     g.newClient(g.log, g.sharedBaseURL, g.sharedAPIKey, "shared"),
    })
  }

  if fallbackCredential != "" {
    out = append(out, providerAttempt{
      providerID: "direct",
      client:     g.newClient(g.log, g.directBaseURL, fallbackCredential, "direct"),
      terminal:   true,
    })
  }

  return out
}

func (g *providerGateway) Generate(ctx context.Context, prompt, modelID, fallbackCredential string) (*types.ProviderResult, error) {
  return g.GenerateWithSystemPrompt(ctx, "", prompt, modelID, fallbackCredential)
}

func (g *providerGateway) GenerateWithSystemPrompt(ctx context.Context, systemPrompt, userPrompt, modelID, fallbackCredential string) (*types.ProviderResult, error) {
  model := stripModelPrefix(modelID)

  attempts := g.attempts(ctx, fallbackCredential)
  if len(attempts) == 0 {
    return nil, ErrNoProviderAvailable
  }

  var lastErr error
  for _, a := range attempts {
    content, err := a.client.GenerateText(ctx, systemPrompt, userPrompt, model)
    if err == nil {
      return &types.ProviderResult{
        Content:    content,
        ProviderID: a.providerID,
        ModelID:    model,
      }, nil
    }
    lastErr = err
    if a.terminal {
      break
    }
    // Non-terminal failure: swallow so the next backend gets its turn.
    g.log.Warn("Provider attempt failed, falling back",
      "provider", a.providerID,
      "model", model,
      "error", err,
    )
  }

  return nil, fmt.Errorf("%w: %v", ErrNoProviderAvailable, lastErr)
}

// ListModels is best-effort and never fails: shared backend when enabled, else
// (or on any error) the static catalog.
func (g *providerGateway) ListModels(ctx context.Context) []types.ModelInfo {
  if g.cfg.GetBool(ctx, ConfigKeySharedProviderEnabled, true) && g.sharedAPIKey != "" {
    client := g.newClient(g.log, g.sharedBaseURL, g.sharedAPIKey, "shared")
    models, err := client.ListModels(ctx)
    if err == nil && len(models) > 0 {
      return models
    }
    if err != nil {
      g.log.Warn("Shared model listing failed, using static catalog", "error", err)
    }
  }
  return g.staticCatalog()
}

type modelCatalogFile struct {
  Models []types.ModelInfo `yaml:"models"`
}

func (g *providerGateway) staticCatalog() []types.ModelInfo {
  raw, err := os.ReadFile(g.catalogPath)
  if err == nil {
    var f modelCatalogFile
    if err := yaml.Unmarshal(raw, &f); err == nil && len(f.Models) > 0 {
      return f.Models
    }
    g.log.Warn("Model catalog file unreadable, using built-in list", "path", g.catalogPath)
  }
  return []types.ModelInfo{
    {ID: "gpt-4o-mini", Provider: "shared", DisplayName: "GPT-4o mini"},
    {ID: "gpt-4o", Provider: "shared", DisplayName: "GPT-4o"},
    {ID: "gemini-2.5-flash", Provider: "direct", DisplayName: "Gemini 2.5 Flash"},
  }
}
