package services

import (
  "encoding/json"
  "regexp"
  "strings"

  "github.com/yungbote/lessonforge-backend/internal/types"
)

// Canonical extraction: raw provider output -> ordered structured records.
// The upstream generator is not contractually bound to one format, so every
// operation here runs a cascade (structured JSON first, legacy markup second)
// and degrades to an empty result instead of failing. Callers report a
// diagnostic on empty extraction; nothing in this file returns an error.

const fenceMarker = "```"

// findFencedPayload locates the span strictly between the first opening fence
// (optionally carrying a language tag) and the LAST closing fence after it.
// Taking the last closer is what keeps nested fences inside the payload (slide
// bodies legitimately contain example code blocks) from truncating the parse.
func findFencedPayload(text string) (start, end int, ok bool) {
  open := strings.Index(text, fenceMarker)
  if open < 0 {
    return 0, 0, false
  }
  // payload starts after the opening fence line (fence + optional language tag)
  nl := strings.IndexByte(text[open:], '\n')
  if nl < 0 {
    return 0, 0, false
  }
  start = open + nl + 1

  last := strings.LastIndex(text, fenceMarker)
  if last < start {
    return 0, 0, false
  }
  return start, last, true
}

// jsonPayload returns the candidate JSON body of a blob: the fenced payload if
// fence markers exist, otherwise the whole text.
func jsonPayload(text string) string {
  if start, end, ok := findFencedPayload(text); ok {
    return text[start:end]
  }
  return strings.TrimSpace(text)
}

// ---- structured strategy ----

type sectionShape struct {
  Title       string `json:"title"`
  Subsections []struct {
    Title string `json:"title"`
  } `json:"subsections"`
}

type sectionsShape struct {
  Sections []sectionShape `json:"sections"`
  Agenda   []string       `json:"agenda"`
}

type bulletShape struct {
  Emoji       string `json:"emoji"`
  Point       string `json:"point"`
  Description string `json:"description"`
}

type slideShape struct {
  SlideIndex     *int            `json:"slideIndex"`
  Title          string          `json:"title"`
  SpeakerNote    string          `json:"speakerNote"`
  SpeakerNoteAlt string          `json:"speaker_note"`
  Content        []string        `json:"content"`
  Bullets        []bulletShape   `json:"bullets"`
  Body           json.RawMessage `json:"body"`
}

type slidesShape struct {
  Slides []slideShape `json:"slides"`
}

type quizItemShape struct {
  Prompt          string   `json:"prompt"`
  Question        string   `json:"question"`
  Options         []string `json:"options"`
  CorrectIndex    *int     `json:"correctIndex"`
  CorrectIndexAlt *int     `json:"correct_index"`
  Explanation     string   `json:"explanation"`
}

type quizShape struct {
  Questions []quizItemShape `json:"questions"`
}

// ExtractSections decodes a sections/agenda JSON object out of text. Empty on
// any parse failure or when neither array is present.
func ExtractSections(text string) []types.SectionRecord {
  var shape sectionsShape
  if err := json.Unmarshal([]byte(jsonPayload(text)), &shape); err != nil {
    return []types.SectionRecord{}
  }

  out := []types.SectionRecord{}
  for _, s := range shape.Sections {
    if strings.TrimSpace(s.Title) != "" {
      out = append(out, types.SectionRecord{Title: s.Title})
    }
    for _, sub := range s.Subsections {
      if strings.TrimSpace(sub.Title) != "" {
        out = append(out, types.SectionRecord{Title: sub.Title})
      }
    }
  }
  if len(out) > 0 {
    return out
  }

  for _, a := range shape.Agenda {
    if strings.TrimSpace(a) != "" {
      out = append(out, types.SectionRecord{Title: a})
    }
  }
  return out
}

var (
  headingRe     = regexp.MustCompile(`(?m)^#{1,6}\s+(.+?)\s*$`)
  outlineItemRe = regexp.MustCompile(`(?m)^\s*(?:\d+[\.\)]|[-*+•])\s+(.+?)\s*$`)
)

// ExtractOutlineSections derives input-side sections from a free-form outline:
// structured JSON when present, else markdown headings, else numbered/bulleted
// list items.
func ExtractOutlineSections(text string) []types.SectionRecord {
  if sections := ExtractSections(text); len(sections) > 0 {
    return sections
  }

  out := []types.SectionRecord{}
  for _, m := range headingRe.FindAllStringSubmatch(text, -1) {
    out = append(out, types.SectionRecord{Title: m[1]})
  }
  if len(out) > 0 {
    return out
  }

  for _, m := range outlineItemRe.FindAllStringSubmatch(text, -1) {
    out = append(out, types.SectionRecord{Title: m[1]})
  }
  return out
}

// ExtractSlides runs the full cascade: structured JSON, then bold-header
// markup, then heading-split markup.
func ExtractSlides(text string) []types.Slide {
  if slides := extractSlidesStructured(text); len(slides) > 0 {
    return slides
  }
  return extractSlidesLegacy(text)
}

func extractSlidesStructured(text string) []types.Slide {
  var shape slidesShape
  if err := json.Unmarshal([]byte(jsonPayload(text)), &shape); err != nil {
    return []types.Slide{}
  }

  out := make([]types.Slide, 0, len(shape.Slides))
  for i, s := range shape.Slides {
    idx := i
    if s.SlideIndex != nil {
      idx = *s.SlideIndex
    }
    note := s.SpeakerNote
    if note == "" {
      note = s.SpeakerNoteAlt
    }
    out = append(out, types.Slide{
      Index:       idx,
      Title:       s.Title,
      SpeakerNote: note,
      BodyLines:   slideBodyLines(s),
    })
  }
  return out
}

func slideBodyLines(s slideShape) []string {
  if len(s.Content) > 0 {
    return s.Content
  }
  if len(s.Bullets) > 0 {
    lines := make([]string, 0, len(s.Bullets))
    for _, b := range s.Bullets {
      point := strings.TrimSpace(strings.TrimSpace(b.Emoji) + " " + b.Point)
      if point != "" && b.Description != "" {
        lines = append(lines, point+": "+b.Description)
        continue
      }
      if point != "" {
        lines = append(lines, point)
        continue
      }
      if b.Description != "" {
        lines = append(lines, b.Description)
      }
    }
    return lines
  }
  if len(s.Body) > 0 {
    var one string
    if err := json.Unmarshal(s.Body, &one); err == nil {
      return splitNonEmptyLines(one)
    }
    var many []string
    if err := json.Unmarshal(s.Body, &many); err == nil {
      return many
    }
  }
  return []string{}
}

func splitNonEmptyLines(s string) []string {
  out := []string{}
  for _, line := range strings.Split(s, "\n") {
    if t := strings.TrimSpace(line); t != "" {
      out = append(out, t)
    }
  }
  return out
}

// ExtractQuizItems decodes a questions array out of generated quiz text.
// Structured-only: the legacy slide layouts never carried quizzes.
func ExtractQuizItems(text string) []types.QuizItem {
  var shape quizShape
  if err := json.Unmarshal([]byte(jsonPayload(text)), &shape); err != nil {
    return []types.QuizItem{}
  }

  out := make([]types.QuizItem, 0, len(shape.Questions))
  for i, q := range shape.Questions {
    prompt := q.Prompt
    if prompt == "" {
      prompt = q.Question
    }
    if strings.TrimSpace(prompt) == "" {
      continue
    }
    correct := 0
    if q.CorrectIndex != nil {
      correct = *q.CorrectIndex
    } else if q.CorrectIndexAlt != nil {
      correct = *q.CorrectIndexAlt
    }
    out = append(out, types.QuizItem{
      Index:        i,
      Prompt:       prompt,
      Options:      q.Options,
      CorrectIndex: correct,
      Explanation:  q.Explanation,
    })
  }
  return out
}

// ---- legacy markup strategy ----

// boldSlideHeaderRe matches headers like "**Slide 3: Biến và kiểu dữ liệu**".
var boldSlideHeaderRe = regexp.MustCompile(`(?m)^\s*\*\*Slide\s+(\d+)\s*:\s*(.+?)\*\*`)

type markupRegion struct {
  start, end int // byte offsets into the document
  bodyStart  int // offset just past the header line
  title      string
}

func findBoldSlideRegions(text string) []markupRegion {
  matches := boldSlideHeaderRe.FindAllStringSubmatchIndex(text, -1)
  regions := make([]markupRegion, 0, len(matches))
  for i, m := range matches {
    end := len(text)
    if i+1 < len(matches) {
      end = matches[i+1][0]
    }
    bodyStart := m[1]
    if nl := strings.IndexByte(text[m[1]:end], '\n'); nl >= 0 {
      bodyStart = m[1] + nl + 1
    } else {
      bodyStart = end
    }
    regions = append(regions, markupRegion{
      start:     m[0],
      end:       end,
      bodyStart: bodyStart,
      title:     strings.TrimSpace(text[m[4]:m[5]]),
    })
  }
  return regions
}

func findHeadingRegions(text string) []markupRegion {
  matches := headingRe.FindAllStringSubmatchIndex(text, -1)
  regions := make([]markupRegion, 0, len(matches))
  for i, m := range matches {
    end := len(text)
    if i+1 < len(matches) {
      end = matches[i+1][0]
    }
    bodyStart := m[1]
    if bodyStart < end {
      bodyStart++ // past the trailing newline of the heading line
    }
    regions = append(regions, markupRegion{
      start:     m[0],
      end:       end,
      bodyStart: bodyStart,
      title:     strings.TrimSpace(text[m[2]:m[3]]),
    })
  }
  return regions
}

// speakerNoteLabels are tried in priority order; generators have emitted all of
// these bold/colon placements at one time or another.
var speakerNoteLabels = []string{
  "**[Speaker Notes]:**",
  "**[Speaker Notes]**:",
  "**[Speaker Note]:**",
  "[Speaker Notes]:",
  "[Speaker Note]:",
}

// speakerNoteSpan locates the note text inside a region: the span between the
// first recognized label and the next region-ending token ("---" line, a new
// "[" -prefixed bold label, or the region end). Offsets are document-absolute.
func speakerNoteSpan(text string, r markupRegion) (noteStart, noteEnd int, ok bool) {
  region := text[r.bodyStart:r.end]
  labelAt := -1
  labelLen := 0
  for _, label := range speakerNoteLabels {
    if at := strings.Index(region, label); at >= 0 {
      labelAt = at
      labelLen = len(label)
      break
    }
  }
  if labelAt < 0 {
    return 0, 0, false
  }

  noteStart = r.bodyStart + labelAt + labelLen
  noteEnd = r.end
  rest := text[noteStart:r.end]
  if at := strings.Index(rest, "---"); at >= 0 && noteStart+at < noteEnd {
    noteEnd = noteStart + at
  }
  if at := strings.Index(rest, "**["); at >= 0 && noteStart+at < noteEnd {
    noteEnd = noteStart + at
  }
  return noteStart, noteEnd, true
}

var quotedNoteLineRe = regexp.MustCompile(`(?m)^\s*>\s*"(.*)"\s*$`)

// extractNoteText reduces a captured note span to the note itself: prefer one
// quoted block-quote line, else all block-quote lines joined, else the full
// trimmed span.
func extractNoteText(span string) string {
  if m := quotedNoteLineRe.FindStringSubmatch(span); m != nil {
    return m[1]
  }

  quoted := []string{}
  for _, line := range strings.Split(span, "\n") {
    t := strings.TrimSpace(line)
    if strings.HasPrefix(t, ">") {
      quoted = append(quoted, strings.TrimSpace(strings.TrimPrefix(t, ">")))
    }
  }
  if len(quoted) > 0 {
    return strings.Join(quoted, " ")
  }
  return strings.TrimSpace(span)
}

func extractSlidesLegacy(text string) []types.Slide {
  regions := findBoldSlideRegions(text)
  if len(regions) == 0 {
    regions = findHeadingRegions(text)
  }
  if len(regions) == 0 {
    return []types.Slide{}
  }

  out := make([]types.Slide, 0, len(regions))
  for i, r := range regions {
    note := ""
    noteStart, noteEnd := r.end, r.end
    if ns, ne, ok := speakerNoteSpan(text, r); ok {
      note = extractNoteText(text[ns:ne])
      noteStart, noteEnd = ns, ne
    }
    out = append(out, types.Slide{
      Index:       i,
      Title:       r.title,
      SpeakerNote: note,
      BodyLines:   legacyBodyLines(text, r, noteStart, noteEnd),
    })
  }
  return out
}

func legacyBodyLines(text string, r markupRegion, noteStart, noteEnd int) []string {
  body := text[r.bodyStart:r.end]
  if noteStart > r.bodyStart {
    // drop the label line and everything after it
    labelLineStart := strings.LastIndexByte(text[r.bodyStart:noteStart], '\n')
    if labelLineStart >= 0 {
      body = text[r.bodyStart : r.bodyStart+labelLineStart]
    } else {
      body = ""
    }
  }

  out := []string{}
  for _, line := range strings.Split(body, "\n") {
    t := strings.TrimSpace(line)
    if t == "" || t == "---" {
      continue
    }
    if strings.HasPrefix(t, ">") || strings.HasPrefix(t, "**[") || strings.HasPrefix(t, "[") {
      continue
    }
    t = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(t, "-"), "*"))
    if t != "" {
      out = append(out, t)
    }
  }
  return out
}

// ReindexSlides forces dense 0..N-1 indices in document order, deduplicating
// whatever the generator claimed in slideIndex fields.
func ReindexSlides(slides []types.Slide) []types.Slide {
  out := make([]types.Slide, len(slides))
  copy(out, slides)
  for i := range out {
    out[i].Index = i
  }
  return out
}

// SlideTitles projects slides onto coverage-comparison records.
func SlideTitles(slides []types.Slide) []types.SectionRecord {
  out := make([]types.SectionRecord, 0, len(slides))
  for _, s := range slides {
    out = append(out, types.SectionRecord{Title: s.Title})
  }
  return out
}

// QuizPrompts projects quiz items onto coverage-comparison records.
func QuizPrompts(items []types.QuizItem) []types.SectionRecord {
  out := make([]types.SectionRecord, 0, len(items))
  for _, q := range items {
    out = append(out, types.SectionRecord{Title: q.Prompt})
  }
  return out
}
