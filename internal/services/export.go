package services

import (
  "github.com/yungbote/lessonforge-backend/internal/types"
)

// Export handoff. Rendering a concrete deck file is an external renderer's job;
// this builds the finalized canonical structure it consumes.

// BuildDeckExport derives slideType from position: slide 0 is the title slide,
// slide 1 the agenda, everything after is content.
func BuildDeckExport(title string, slides []types.Slide) *types.DeckExport {
  out := make([]types.DeckSlide, 0, len(slides))
  for _, s := range slides {
    slideType := "content"
    switch s.Index {
    case 0:
      slideType = "title"
    case 1:
      slideType = "agenda"
    }
    content := s.BodyLines
    if content == nil {
      content = []string{}
    }
    out = append(out, types.DeckSlide{
      SlideIndex:  s.Index,
      SlideType:   slideType,
      Title:       s.Title,
      Content:     content,
      SpeakerNote: s.SpeakerNote,
    })
  }
  return &types.DeckExport{Title: title, Slides: out}
}

// BuildOutlineExport snapshots the detailed outline's sections for consumers
// that want the outline without the deck.
func BuildOutlineExport(title, detailedOutline string) *types.OutlineExport {
  sections := ExtractSections(detailedOutline)
  if sections == nil {
    sections = []types.SectionRecord{}
  }
  return &types.OutlineExport{Title: title, Sections: sections}
}
