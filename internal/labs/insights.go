package labs

import (
	"fmt"
	"strconv"

	"github.com/BerylCAtieno/lab-report-summarizer/internal/models"
)

const (
	LevelOK      = "ok"
	LevelWarning = "warning"
	LevelHigh    = "high"
)

// band flags values at or above Min (or strictly above, when Strict).
type band struct {
	Min    float64
	Strict bool
	Level  string
	Title  string
	Text   string
}

type insightRule struct {
	Key   string
	Bands []band // highest first; the last band is the catch-all
}

var insightRules = []insightRule{
	{
		Key: KeyHbA1c,
		Bands: []band{
			{Min: 6.5, Level: LevelHigh, Title: "Diabetes-range HbA1c", Text: "HbA1c is %s. This is in the diabetes range (≥ 6.5%%)."},
			{Min: 5.7, Level: LevelWarning, Title: "Prediabetes-range HbA1c", Text: "HbA1c is %s. This is in the prediabetes range (5.7–6.4%%)."},
			{Level: LevelOK, Title: "HbA1c in normal range", Text: "HbA1c is %s. This is within the normal range (< 5.7%%)."},
		},
	},
	{
		Key: KeyFastingGlucose,
		Bands: []band{
			{Min: 126, Level: LevelHigh, Title: "High fasting glucose", Text: "Fasting plasma glucose is %s mg/dL (≥ 126 mg/dL suggests diabetes)."},
			{Min: 100, Level: LevelWarning, Title: "Impaired fasting glucose", Text: "Fasting glucose is %s mg/dL (100–125 mg/dL = prediabetes range)."},
			{Level: LevelOK, Title: "Fasting glucose in normal range", Text: "Fasting glucose is %s mg/dL (normal < 100 mg/dL)."},
		},
	},
	{
		Key: KeyPPGlucose,
		Bands: []band{
			{Min: 200, Level: LevelHigh, Title: "High post-meal glucose", Text: "Post-prandial glucose is %s mg/dL (≥ 200 mg/dL suggests diabetes)."},
			{Min: 140, Level: LevelWarning, Title: "Borderline post-meal glucose", Text: "PP glucose is %s mg/dL (140–199 mg/dL = prediabetes range)."},
			{Level: LevelOK, Title: "PP glucose in normal range", Text: "PP glucose is %s mg/dL (normal < 140 mg/dL)."},
		},
	},
	{
		Key: KeyCreatinine,
		Bands: []band{
			{Min: 1.2, Strict: true, Level: LevelHigh, Title: "Raised creatinine", Text: "Creatinine is %s mg/dL. May indicate reduced kidney function. Must be interpreted by a doctor."},
			{Level: LevelOK, Title: "Creatinine in acceptable range", Text: "Creatinine is %s mg/dL. Within typical adult reference range in many labs."},
		},
	},
}

// Insights flags the interpretable values in labs against common adult
// reference bands. Advisory only.
func Insights(labs models.LabSet) []models.Insight {
	insights := []models.Insight{}
	for _, rule := range insightRules {
		v, ok := labs[rule.Key]
		if !ok {
			continue
		}
		b := rule.classify(v)
		insights = append(insights, models.Insight{
			Key:   rule.Key,
			Level: b.Level,
			Title: b.Title,
			Text:  fmt.Sprintf(b.Text, FormatValue(v)),
		})
	}
	return insights
}

func (r insightRule) classify(v float64) band {
	last := len(r.Bands) - 1
	for _, b := range r.Bands[:last] {
		if v > b.Min || (!b.Strict && v == b.Min) {
			return b
		}
	}
	return r.Bands[last]
}

// FormatValue renders a lab value without trailing zeros.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
