// Package chat answers general medical questions, through the generation
// service when configured and from a keyword-matched answer table otherwise.
package chat

import (
	"context"
	"strings"

	"github.com/BerylCAtieno/lab-report-summarizer/internal/llm"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/utils"
)

const SystemPrompt = `You are a medical education assistant for hospital staff and patients.
Give general educational information only, never a personal diagnosis or prescription.
Answer in short bullet points. When lab tests are mentioned, explain what the test measures and its typical adult reference range.
Always remind the user to consult a qualified clinician about their own results.`

const Disclaimer = "⚠️ I can share general medical information only. This is not a diagnosis; please consult a qualified doctor about your own results."

type topic struct {
	keywords []string
	answer   string
}

// topics are tried in order; the first topic with a keyword in the
// lowercased message answers. genericAnswer covers everything else.
var topics = []topic{
	{
		keywords: []string{"diabet", "glucose", "sugar", "hba1c", "a1c", "insulin", "fasting"},
		answer: `About blood sugar tests:
• Fasting plasma glucose: normal < 100 mg/dL, 100–125 mg/dL is prediabetes, ≥ 126 mg/dL suggests diabetes.
• Post-prandial (2 h after a meal) glucose: normal < 140 mg/dL, 140–199 mg/dL is prediabetes, ≥ 200 mg/dL suggests diabetes.
• HbA1c reflects average sugar over about 3 months: < 5.7% normal, 5.7–6.4% prediabetes, ≥ 6.5% diabetes range.
• A high value usually needs a repeat test and a doctor's review before any conclusion.`,
	},
	{
		keywords: []string{"hemoglobin", "haemoglobin", "hgb", "anemia", "anaemia", "iron"},
		answer: `About hemoglobin and anemia:
• Hemoglobin carries oxygen in red blood cells. Typical adult range: about 13–17 g/dL for men and 12–15 g/dL for women.
• A low value (anemia) can come from iron, B12 or folate deficiency, blood loss or chronic disease.
• Symptoms include tiredness, breathlessness and pale skin.
• The cause is confirmed with further tests such as iron studies and a peripheral smear.`,
	},
	{
		keywords: []string{"cbc", "blood test", "lft", "rft", "liver", "kidney", "creatinine", "cholesterol", "lipid", "report", "lab"},
		answer: `About common blood test panels:
• CBC (complete blood count): hemoglobin, white cells (4,000–11,000 /µL) and platelets (1.5–4.5 lakh/µL).
• LFT (liver function): bilirubin, SGOT/AST, SGPT/ALT, alkaline phosphatase and albumin.
• RFT (kidney function): urea, creatinine (about 0.6–1.2 mg/dL) and electrolytes such as sodium and potassium.
• Lipid profile: total cholesterol (< 200 mg/dL desirable), LDL, HDL and triglycerides.
• Reference ranges differ between labs, so always compare with the range printed on your report.`,
	},
}

const genericAnswer = `How diagnosis usually works:
• A doctor combines your history, an examination and test results; no single value decides a diagnosis.
• Lab values are compared with the reference range printed on the report.
• Abnormal results are often repeated or confirmed with more specific tests.
• Share your full report with your doctor for a personal interpretation.`

// Responder answers chat messages. It is stateless and never fails.
type Responder struct {
	gen    llm.Generator
	logger *utils.Logger
}

func NewResponder(gen llm.Generator, logger *utils.Logger) *Responder {
	if gen == nil {
		gen = llm.Unavailable{}
	}
	return &Responder{gen: gen, logger: logger}
}

func (r *Responder) Respond(ctx context.Context, message string) string {
	return llm.WithFallback(ctx, r.gen, r.logger, "chat", SystemPrompt, message, func() string {
		return Fallback(message)
	})
}

// Fallback builds the rule-based reply: the echoed question, the
// disclaimer and the matching topic answer.
func Fallback(message string) string {
	var b strings.Builder

	if trimmed := strings.TrimSpace(message); trimmed != "" {
		b.WriteString("You asked: \"" + trimmed + "\"\n\n")
	}
	b.WriteString(Disclaimer)
	b.WriteString("\n\n")
	b.WriteString(answerFor(message))

	return b.String()
}

func answerFor(message string) string {
	lower := strings.ToLower(message)
	for _, t := range topics {
		for _, kw := range t.keywords {
			if strings.Contains(lower, kw) {
				return t.answer
			}
		}
	}
	return genericAnswer
}
