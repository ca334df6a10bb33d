package services

import (
  "bytes"
  "context"
  "encoding/json"
  "fmt"
  "io"
  "net/http"
  "strings"
  "time"

  "github.com/yungbote/lessonforge-backend/internal/logger"
  "github.com/yungbote/lessonforge-backend/internal/types"
  "github.com/yungbote/lessonforge-backend/internal/utils"
)

// Speech mapping: canonical slide -> the text a TTS backend should speak.
// Synthesis itself happens in an external service; this file owns only the
// mapping and a thin client for the viTTS-style API.

// SpeechTextForSlide prefers the speaker note; a slide without one falls back
// to its title plus body lines so the narration is never silent.
func SpeechTextForSlide(slide types.Slide) string {
  if note := strings.TrimSpace(slide.SpeakerNote); note != "" {
    return note
  }
  parts := []string{}
  if t := strings.TrimSpace(slide.Title); t != "" {
    parts = append(parts, t)
  }
  for _, line := range slide.BodyLines {
    if l := strings.TrimSpace(line); l != "" {
      parts = append(parts, l)
    }
  }
  return strings.Join(parts, ". ")
}

// BuildAudioPlan maps every slide to an AudioCue. Speed is clamped to the
// synthesizer's accepted 0.5-2.0 range; empty voice ids default to "male"
// (the system voice the original deck pipeline shipped with).
func BuildAudioPlan(slides []types.Slide, voiceID string, speed float64) []types.AudioCue {
  if voiceID == "" {
    voiceID = "male"
  }
  if speed < 0.5 {
    speed = 0.5
  }
  if speed > 2.0 {
    speed = 2.0
  }

  cues := make([]types.AudioCue, 0, len(slides))
  for _, s := range slides {
    text := SpeechTextForSlide(s)
    if text == "" {
      continue
    }
    cues = append(cues, types.AudioCue{
      SlideIndex: s.Index,
      Text:       text,
      VoiceID:    voiceID,
      Speed:      speed,
    })
  }
  return cues
}

// TTSClient synthesizes one cue to audio bytes. Out-of-scope for the pipeline
// itself; the audio stage only persists the cue plan and hands synthesis to
// whoever holds this capability.
type TTSClient interface {
  Synthesize(ctx context.Context, cue types.AudioCue) ([]byte, error)
}

type vittsClient struct {
  log        *logger.Logger
  baseURL    string
  apiKey     string
  httpClient *http.Client
}

func NewVITTSClient(log *logger.Logger) (TTSClient, error) {
  apiKey := utils.GetEnv("VITTS_API_KEY", "", log)
  if apiKey == "" {
    return nil, fmt.Errorf("missing VITTS_API_KEY")
  }
  baseURL := utils.GetEnv("VITTS_BASE_URL", "https://vitts.hoclieu.id.vn", log)
  return &vittsClient{
    log:        log.With("service", "VITTSClient"),
    baseURL:    strings.TrimRight(baseURL, "/"),
    apiKey:     apiKey,
    httpClient: &http.Client{Timeout: 120 * time.Second},
  }, nil
}

func (c *vittsClient) Synthesize(ctx context.Context, cue types.AudioCue) ([]byte, error) {
  body, err := json.Marshal(map[string]any{
    "text":     cue.Text,
    "voice_id": cue.VoiceID,
    "speed":    cue.Speed,
  })
  if err != nil {
    return nil, err
  }

  req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/tts/synthesize", bytes.NewReader(body))
  if err != nil {
    return nil, err
  }
  req.Header.Set("X-API-Key", c.apiKey)
  req.Header.Set("Content-Type", "application/json")

  resp, err := c.httpClient.Do(req)
  if err != nil {
    return nil, err
  }
  defer resp.Body.Close()

  raw, err := io.ReadAll(resp.Body)
  if err != nil {
    return nil, err
  }
  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    return nil, fmt.Errorf("tts http %d: %s", resp.StatusCode, string(raw))
  }
  return raw, nil
}
