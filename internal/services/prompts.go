package services

import (
  "fmt"
  "strings"
)

// Stage prompts. Every user prompt asks for a fenced JSON payload so the
// extractor's structured strategy gets first shot; the legacy markup strategies
// exist for models that ignore the instruction.

const outlineSystemPrompt = `You are an instructional designer. You expand a raw lesson outline into a detailed teaching outline. Preserve every topic from the input; do not drop or rename sections. Respond with a single fenced JSON code block.`

const slidesSystemPrompt = `You are a presentation author. You turn a detailed teaching outline into a slide script with speaker notes. Every section of the outline must appear as at least one slide. Respond with a single fenced JSON code block.`

const questionsSystemPrompt = `You are an assessment writer. You write multiple-choice review questions for a slide deck. Respond with a single fenced JSON code block.`

func buildOutlinePrompt(title, rawOutline string) string {
  var b strings.Builder
  fmt.Fprintf(&b, "Lesson title: %s\n\n", title)
  b.WriteString("Raw outline:\n")
  b.WriteString(rawOutline)
  b.WriteString("\n\nExpand this into a detailed outline. Output JSON of the form:\n")
  b.WriteString("```json\n{\n  \"sections\": [\n    {\"title\": \"...\", \"subsections\": [{\"title\": \"...\"}]}\n  ]\n}\n```\n")
  return b.String()
}

func buildSlidesPrompt(title, detailedOutline string) string {
  var b strings.Builder
  fmt.Fprintf(&b, "Lesson title: %s\n\n", title)
  b.WriteString("Detailed outline:\n")
  b.WriteString(detailedOutline)
  b.WriteString("\n\nWrite the slide script. Slide 0 is the title slide, slide 1 the agenda. Output JSON of the form:\n")
  b.WriteString("```json\n{\n  \"slides\": [\n    {\"slideIndex\": 0, \"title\": \"...\", \"content\": [\"...\"], \"speakerNote\": \"...\"}\n  ]\n}\n```\n")
  return b.String()
}

func buildQuestionsPrompt(title, slideScript string) string {
  var b strings.Builder
  fmt.Fprintf(&b, "Lesson title: %s\n\n", title)
  b.WriteString("Slide script:\n")
  b.WriteString(slideScript)
  b.WriteString("\n\nWrite review questions covering the deck. Output JSON of the form:\n")
  b.WriteString("```json\n{\n  \"questions\": [\n    {\"question\": \"...\", \"options\": [\"...\", \"...\", \"...\", \"...\"], \"correctIndex\": 0, \"explanation\": \"...\"}\n  ]\n}\n```\n")
  return b.String()
}
