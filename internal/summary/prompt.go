package summary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BerylCAtieno/lab-report-summarizer/internal/labs"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/models"
)

const SystemPrompt = `You are a careful medical report assistant for hospital staff.
Summarize the lab report using ONLY the text and values provided. Never invent values, ranges or diagnoses that are not in the report.

Structure the answer in exactly these five parts:
1. Key findings
2. Abnormal results (value and why it is flagged)
3. Possible concerns
4. Suggested follow-up
5. Explanation for the patient in simple language

End with this line: "This summary is not a diagnosis. Please consult a qualified doctor."`

// NoLabsLine stands in for the lab listing when nothing was parsed.
const NoLabsLine = "No numeric lab values were parsed from this report."

// UserContent packs the raw report text and parsed labs for the model.
func UserContent(text string, labSet models.LabSet) string {
	var b strings.Builder
	b.WriteString("Report text:\n")
	b.WriteString(text)
	b.WriteString("\n\nParsed lab values:\n")
	b.WriteString(FormatLabs(labSet))
	return b.String()
}

// FormatLabs lists labs one "key: value" per line, in catalog order with
// any unknown keys after, sorted.
func FormatLabs(labSet models.LabSet) string {
	if len(labSet) == 0 {
		return NoLabsLine
	}

	var lines []string
	seen := make(map[string]bool, len(labSet))
	for _, key := range labs.Keys() {
		if v, ok := labSet[key]; ok {
			lines = append(lines, fmt.Sprintf("%s: %s", key, labs.FormatValue(v)))
			seen[key] = true
		}
	}

	var extra []string
	for key := range labSet {
		if !seen[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		lines = append(lines, fmt.Sprintf("%s: %s", key, labs.FormatValue(labSet[key])))
	}

	return strings.Join(lines, "\n")
}
