package types

// Export handoff contracts. Rendering to a concrete file format happens outside
// this service; the exporter receives the finalized canonical structures below.

type DeckSlide struct {
  SlideIndex  int      `json:"slideIndex"`
  SlideType   string   `json:"slideType"` // title|agenda|content
  Title       string   `json:"title"`
  Content     []string `json:"content"`
  SpeakerNote string   `json:"speakerNote"`
}

type DeckExport struct {
  Title  string      `json:"title"`
  Slides []DeckSlide `json:"slides"`
}

type OutlineExport struct {
  Title    string          `json:"title"`
  Sections []SectionRecord `json:"sections"`
}

// AudioCue maps one slide to the text a TTS backend should synthesize.
type AudioCue struct {
  SlideIndex int     `json:"slideIndex"`
  Text       string  `json:"text"`
  VoiceID    string  `json:"voice_id"`
  Speed      float64 `json:"speed"`
}
