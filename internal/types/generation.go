package types

// Pure JSON contracts for the generation pipeline. Not DB models.

// ProviderResult is the ephemeral output of one provider call. It is always
// routed through extraction before anything derived from it is persisted.
type ProviderResult struct {
  Content    string `json:"content"`
  ProviderID string `json:"provider_id"`
  ModelID    string `json:"model_id"`
}

// SectionRecord is the canonical unit of coverage comparison.
type SectionRecord struct {
  Title string `json:"title"`
}

// Slide is the canonical, in-memory view of one slide extracted from a slide
// script. Index is 0-based and dense within one script.
type Slide struct {
  Index       int      `json:"index"`
  Title       string   `json:"title"`
  SpeakerNote string   `json:"speaker_note"`
  BodyLines   []string `json:"body_lines"`
}

// QuizItem is the canonical view of one extracted quiz question.
type QuizItem struct {
  Index        int      `json:"index"`
  Prompt       string   `json:"prompt"`
  Options      []string `json:"options"`
  CorrectIndex int      `json:"correct_index"`
  Explanation  string   `json:"explanation"`
}

// CoverageReport is a read-only audit artifact attached to a generation
// response. It is advisory and never persisted as source of truth.
type CoverageReport struct {
  CoveragePercent int      `json:"coverage_percent"`
  Covered         []string `json:"covered"`
  Missing         []string `json:"missing"`
  Additional      []string `json:"additional"`
  Warnings        []string `json:"warnings"`
}

// ModelInfo describes one entry in the provider model catalog.
type ModelInfo struct {
  ID          string `json:"id" yaml:"id"`
  Provider    string `json:"provider" yaml:"provider"`
  DisplayName string `json:"display_name" yaml:"display_name"`
}
