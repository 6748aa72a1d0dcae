// Package summary turns report text and parsed lab values into a narrative
// summary, by marker search or by delegating to the generation service.
package summary

import (
	"context"
	"strings"

	"github.com/BerylCAtieno/lab-report-summarizer/internal/llm"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/models"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/utils"
)

// NoTextMessage is the summary of a report with no extractable text.
const NoTextMessage = "No text could be extracted from this report."

// excerptLength is how much text a deterministic summary keeps.
const excerptLength = 1200

// markers are searched in priority order; the first one present anywhere
// in the text wins regardless of where the others appear.
var markers = []string{
	"abnormal result(s) summary",
	"abnormal results summary",
	"impression",
	"conclusion",
	"summary of report",
}

// Deterministic returns the section starting at the highest-priority marker,
// or the beginning of the report when no marker is present.
func Deterministic(text string) string {
	if text == "" {
		return NoTextMessage
	}

	lower := strings.ToLower(text)
	for _, marker := range markers {
		if idx := strings.Index(lower, marker); idx >= 0 {
			return excerpt(text, idx)
		}
	}

	return excerpt(text, 0)
}

// excerpt cuts up to excerptLength characters of text from start. Offsets
// are taken on the lowercased copy, which can differ in byte length for a
// few non-ASCII letters, so start is mapped back by rune count.
func excerpt(text string, start int) string {
	runes := []rune(text)
	from := 0
	if start > 0 {
		from = len([]rune(strings.ToLower(text)[:start]))
		if from > len(runes) {
			from = len(runes)
		}
	}
	to := from + excerptLength
	if to > len(runes) {
		to = len(runes)
	}
	return strings.TrimSpace(string(runes[from:to]))
}

// Builder produces summaries, preferring the generation service.
type Builder struct {
	gen    llm.Generator
	logger *utils.Logger
}

func NewBuilder(gen llm.Generator, logger *utils.Logger) *Builder {
	if gen == nil {
		gen = llm.Unavailable{}
	}
	return &Builder{gen: gen, logger: logger}
}

// Build never fails: any generation problem yields Deterministic(text).
func (b *Builder) Build(ctx context.Context, text string, labs models.LabSet) string {
	fallback := Deterministic(text)

	return llm.WithFallback(ctx, b.gen, b.logger, "summary", SystemPrompt, UserContent(text, labs), func() string {
		return fallback
	})
}
