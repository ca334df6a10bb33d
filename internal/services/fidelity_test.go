package services

import (
  "strings"
  "testing"

  "github.com/yungbote/lessonforge-backend/internal/types"
)

func sections(titles ...string) []types.SectionRecord {
  out := make([]types.SectionRecord, 0, len(titles))
  for _, t := range titles {
    out = append(out, types.SectionRecord{Title: t})
  }
  return out
}

func TestNormalizeTitle(t *testing.T) {
  tests := []struct {
    in   string
    want string
  }{
    {"  Biến & Kiểu Dữ Liệu!  ", "biến kiểu dữ liệu"},
    {"Phần 1: Mở đầu", "phần 1 mở đầu"},
    {"Hello,   World?!", "hello world"},
    {"", ""},
  }
  for _, tt := range tests {
    if got := normalizeTitle(tt.in); got != tt.want {
      t.Fatalf("normalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
    }
  }
}

func TestIsSimilarSymmetric(t *testing.T) {
  v := NewFidelityValidator(0)
  pairs := [][2]string{
    {"giới thiệu về go", "giới thiệu"},
    {"vòng lặp for trong go", "vòng lặp for"},
    {"hàm và phương thức", "cấu trúc dữ liệu"},
  }
  for _, p := range pairs {
    a, b := normalizeTitle(p[0]), normalizeTitle(p[1])
    if v.isSimilar(a, b) != v.isSimilar(b, a) {
      t.Fatalf("isSimilar not symmetric for %q / %q", a, b)
    }
  }
}

func TestIsSimilar(t *testing.T) {
  v := NewFidelityValidator(0)
  tests := []struct {
    name string
    a, b string
    want bool
  }{
    {"identical", "vòng lặp", "vòng lặp", true},
    {"substring containment", "giới thiệu", "giới thiệu về ngôn ngữ go", true},
    {"high jaccard", "biến và kiểu dữ liệu trong go", "kiểu dữ liệu và biến trong go", true},
    {"abbreviated words", "neural nets", "neural networks", true},
    {"short suffix words stay distinct", "topic a", "topic b", false},
    {"unrelated", "hàm số", "cơ sở dữ liệu quan hệ", false},
    {"both empty equal", "", "", true},
  }
  for _, tt := range tests {
    t.Run(tt.name, func(t *testing.T) {
      if got := v.isSimilar(normalizeTitle(tt.a), normalizeTitle(tt.b)); got != tt.want {
        t.Fatalf("isSimilar(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
      }
    })
  }
}

func TestCompareSelfIsFullCoverage(t *testing.T) {
  v := NewFidelityValidator(0)
  in := sections("Mở đầu", "Biến và kiểu dữ liệu", "Tổng kết")
  report := v.Compare(in, in)
  if report.CoveragePercent != 100 {
    t.Fatalf("self coverage = %d, want 100", report.CoveragePercent)
  }
  if len(report.Missing) != 0 || len(report.Additional) != 0 || len(report.Warnings) != 0 {
    t.Fatalf("self compare should be clean: %+v", report)
  }
}

func TestCompareEmptyInputIsFullCoverage(t *testing.T) {
  v := NewFidelityValidator(0)
  report := v.Compare(nil, sections("Anything"))
  if report.CoveragePercent != 100 {
    t.Fatalf("empty input coverage = %d, want 100", report.CoveragePercent)
  }
  if len(report.Additional) != 1 {
    t.Fatalf("generator additions should still be reported: %+v", report)
  }
}

func TestComparePartialCoverage(t *testing.T) {
  v := NewFidelityValidator(0)
  in := sections("Giới thiệu", "Vòng lặp for", "Tổng kết")
  out := sections("Giới thiệu về bài học", "Vòng lặp for trong Go", "Chủ đề mới")

  report := v.Compare(in, out)
  if report.CoveragePercent != 67 {
    t.Fatalf("coverage = %d, want 67", report.CoveragePercent)
  }
  if len(report.Covered) != 2 {
    t.Fatalf("covered = %v", report.Covered)
  }
  if len(report.Missing) != 1 || report.Missing[0] != "tổng kết" {
    t.Fatalf("missing = %v", report.Missing)
  }
  if len(report.Additional) != 1 || report.Additional[0] != "chủ đề mới" {
    t.Fatalf("additional = %v", report.Additional)
  }
  if len(report.Warnings) != 2 {
    t.Fatalf("warnings = %v", report.Warnings)
  }
}

func TestCompareAbbreviatedOutputIsFullCoverage(t *testing.T) {
  v := NewFidelityValidator(0)
  in := sections("Introduction", "Neural Networks", "Conclusion")
  out := sections("Intro", "Neural Nets", "Conclusion", "Case Study")

  report := v.Compare(in, out)
  if report.CoveragePercent != 100 {
    t.Fatalf("coverage = %d, want 100", report.CoveragePercent)
  }
  if len(report.Missing) != 0 {
    t.Fatalf("missing = %v, want none", report.Missing)
  }
  if len(report.Additional) != 1 || report.Additional[0] != "case study" {
    t.Fatalf("additional = %v, want [case study]", report.Additional)
  }
}

func TestCompareHalfCoverage(t *testing.T) {
  v := NewFidelityValidator(0)
  report := v.Compare(sections("Topic A", "Topic B"), sections("Topic A"))
  if report.CoveragePercent != 50 {
    t.Fatalf("coverage = %d, want 50", report.CoveragePercent)
  }
  if len(report.Missing) != 1 || report.Missing[0] != "topic b" {
    t.Fatalf("missing = %v, want [topic b]", report.Missing)
  }
}

func TestCoverageWarningTruncation(t *testing.T) {
  w := coverageWarning("missing from output", []string{"a", "b", "c", "d", "e"})
  if !strings.Contains(w, "5 item(s)") {
    t.Fatalf("warning should carry the count: %q", w)
  }
  if !strings.Contains(w, "…") {
    t.Fatalf("warning should mark truncation: %q", w)
  }
  if strings.Contains(w, "d") && strings.Contains(w, "e") {
    t.Fatalf("warning should list at most three examples: %q", w)
  }
}

func TestNewFidelityValidatorClampsThreshold(t *testing.T) {
  for _, bad := range []float64{-1, 0, 1, 3.5} {
    v := NewFidelityValidator(bad)
    if v.jaccardThreshold != DefaultJaccardThreshold {
      t.Fatalf("threshold %v not clamped: got %v", bad, v.jaccardThreshold)
    }
  }
  v := NewFidelityValidator(0.5)
  if v.jaccardThreshold != 0.5 {
    t.Fatalf("valid threshold overridden: %v", v.jaccardThreshold)
  }
}
