package services

import (
  "encoding/json"
  "strings"
)

// Document synchronizer: writes one slide's speaker note back into the original
// raw slide-script blob without re-authoring the rest of it. The structured
// path re-serializes only the fenced JSON payload (everything literally outside
// the fence is preserved byte-for-byte, language tag included); the legacy path
// splices a quoted block-quote line into the matching markup region. Applying
// the same patch twice yields byte-identical output.
//
// A miss (slide not located by either path) returns the input unchanged with
// ok=false. Callers treat that as a loggable degradation, not a failure.

func PatchSpeakerNote(rawText string, slideIndex int, newNote string) (string, bool) {
  if updated, ok := patchNoteStructured(rawText, slideIndex, newNote); ok {
    return updated, true
  }
  if updated, ok := patchNoteLegacy(rawText, slideIndex, newNote); ok {
    return updated, true
  }
  return rawText, false
}

func patchNoteStructured(rawText string, slideIndex int, newNote string) (string, bool) {
  start, end, fenced := findFencedPayload(rawText)
  payload := rawText
  if fenced {
    payload = rawText[start:end]
  }

  var obj map[string]any
  if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &obj); err != nil {
    return "", false
  }
  slidesAny, ok := obj["slides"].([]any)
  if !ok {
    return "", false
  }

  target := locateSlideNode(slidesAny, slideIndex)
  if target == nil {
    return "", false
  }

  // mutate only the note field, honoring whichever synonym the document uses
  if _, has := target["speaker_note"]; has {
    target["speaker_note"] = newNote
  } else {
    target["speakerNote"] = newNote
  }

  serialized, err := json.MarshalIndent(obj, "", "  ")
  if err != nil {
    return "", false
  }

  if fenced {
    return rawText[:start] + string(serialized) + "\n" + rawText[end:], true
  }
  return string(serialized), true
}

// locateSlideNode prefers a slideIndex field match; only when no node carries a
// matching field does it fall back to the positional array index.
func locateSlideNode(slides []any, slideIndex int) map[string]any {
  for _, s := range slides {
    node, ok := s.(map[string]any)
    if !ok {
      continue
    }
    if idx, ok := node["slideIndex"].(float64); ok && int(idx) == slideIndex {
      return node
    }
  }
  if slideIndex >= 0 && slideIndex < len(slides) {
    if node, ok := slides[slideIndex].(map[string]any); ok {
      return node
    }
  }
  return nil
}

func patchNoteLegacy(rawText string, slideIndex int, newNote string) (string, bool) {
  regions := findBoldSlideRegions(rawText)
  if slideIndex < 0 || slideIndex >= len(regions) {
    return "", false
  }

  noteStart, noteEnd, ok := speakerNoteSpan(rawText, regions[slideIndex])
  if !ok {
    return "", false
  }

  replacement := "\n> \"" + newNote + "\"\n"
  return rawText[:noteStart] + replacement + rawText[noteEnd:], true
}
