package services

import (
  "fmt"
  "math"
  "regexp"
  "strings"
  "unicode/utf8"

  "github.com/yungbote/lessonforge-backend/internal/types"
)

// FidelityValidator audits how much of the source input is represented in the
// generated output. Pure and side-effect-free: it never mutates its inputs and
// its report is advisory, attached to stage responses, never thrown.
type FidelityValidator struct {
  jaccardThreshold float64
}

const DefaultJaccardThreshold = 0.7

func NewFidelityValidator(jaccardThreshold float64) *FidelityValidator {
  if jaccardThreshold <= 0 || jaccardThreshold >= 1 {
    jaccardThreshold = DefaultJaccardThreshold
  }
  return &FidelityValidator{jaccardThreshold: jaccardThreshold}
}

// titleStripRe removes everything except word characters, whitespace, and the
// extended Latin ranges carrying Vietnamese diacritics.
var titleStripRe = regexp.MustCompile(`[^0-9A-Za-z_\s\x{00C0}-\x{024F}\x{1E00}-\x{1EFF}]`)

var whitespaceRunRe = regexp.MustCompile(`\s+`)

func normalizeTitle(s string) string {
  s = strings.ToLower(s)
  s = titleStripRe.ReplaceAllString(s, "")
  s = whitespaceRunRe.ReplaceAllString(s, " ")
  return strings.TrimSpace(s)
}

// wordsMatch relaxes word equality to a stem-prefix test so abbreviated forms
// ("nets" vs "networks") count as the same word. Short words (under 3 runes)
// only match exactly; "a" vs "b" must stay distinct.
func wordsMatch(a, b string) bool {
  if a == b {
    return true
  }
  a = strings.TrimSuffix(a, "s")
  b = strings.TrimSuffix(b, "s")
  if utf8.RuneCountInString(a) < 3 || utf8.RuneCountInString(b) < 3 {
    return false
  }
  return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}

func uniqueWords(s string) []string {
  seen := map[string]bool{}
  out := []string{}
  for _, w := range strings.Fields(s) {
    if !seen[w] {
      seen[w] = true
      out = append(out, w)
    }
  }
  return out
}

func matchCount(from, to []string) int {
  n := 0
  for _, a := range from {
    for _, b := range to {
      if wordsMatch(a, b) {
        n++
        break
      }
    }
  }
  return n
}

// jaccardIndex over word sets, with wordsMatch as the equality relation. The
// intersection size is the smaller of the two directional match counts, which
// keeps the index symmetric.
func jaccardIndex(a, b string) float64 {
  wordsA := uniqueWords(a)
  wordsB := uniqueWords(b)
  if len(wordsA) == 0 && len(wordsB) == 0 {
    return 0
  }
  inter := matchCount(wordsA, wordsB)
  if back := matchCount(wordsB, wordsA); back < inter {
    inter = back
  }
  union := len(wordsA) + len(wordsB) - inter
  return float64(inter) / float64(union)
}

// isSimilar holds for equal normalized titles, substring containment either
// way, or a word-set Jaccard index above the threshold. Symmetric by
// construction.
func (v *FidelityValidator) isSimilar(a, b string) bool {
  if a == b {
    return true
  }
  if a != "" && b != "" {
    if strings.Contains(a, b) || strings.Contains(b, a) {
      return true
    }
  }
  return jaccardIndex(a, b) > v.jaccardThreshold
}

// Compare scores output sections against input sections and reports covered,
// missing, and generator-added titles (all post-normalization).
func (v *FidelityValidator) Compare(inputSections, outputSections []types.SectionRecord) *types.CoverageReport {
  input := make([]string, 0, len(inputSections))
  for _, s := range inputSections {
    input = append(input, normalizeTitle(s.Title))
  }
  output := make([]string, 0, len(outputSections))
  for _, s := range outputSections {
    output = append(output, normalizeTitle(s.Title))
  }

  report := &types.CoverageReport{
    Covered:    []string{},
    Missing:    []string{},
    Additional: []string{},
    Warnings:   []string{},
  }

  for _, in := range input {
    found := false
    for _, out := range output {
      if v.isSimilar(in, out) {
        found = true
        break
      }
    }
    if found {
      report.Covered = append(report.Covered, in)
    } else {
      report.Missing = append(report.Missing, in)
    }
  }

  for _, out := range output {
    found := false
    for _, in := range input {
      if v.isSimilar(in, out) {
        found = true
        break
      }
    }
    if !found {
      report.Additional = append(report.Additional, out)
    }
  }

  if len(input) == 0 {
    report.CoveragePercent = 100
  } else {
    report.CoveragePercent = int(math.Round(float64(len(report.Covered)) / float64(len(input)) * 100))
  }

  if len(report.Missing) > 0 {
    report.Warnings = append(report.Warnings, coverageWarning("missing from output", report.Missing))
  }
  if len(report.Additional) > 0 {
    report.Warnings = append(report.Warnings, coverageWarning("added by the generator", report.Additional))
  }
  return report
}

func coverageWarning(kind string, items []string) string {
  examples := items
  ellipsis := ""
  if len(examples) > 3 {
    examples = examples[:3]
    ellipsis = ", …"
  }
  return fmt.Sprintf("%d item(s) %s: %s%s", len(items), kind, strings.Join(examples, ", "), ellipsis)
}
