package labs

import (
	"github.com/BerylCAtieno/lab-report-summarizer/internal/models"
)

// tips apply to values at or above Min (strictly above when Strict); a tier
// with Any set applies to every value.
type tips struct {
	Min      float64
	Strict   bool
	Any      bool
	Diet     []string
	Exercise []string
}

func (t tips) applies(v float64) bool {
	return t.Any || v > t.Min || (!t.Strict && v == t.Min)
}

type lifestyleRule struct {
	Key   string
	Tiers []tips // highest first; only the first applicable tier is used
}

var lifestyleRules = []lifestyleRule{
	{
		Key: KeyHbA1c,
		Tiers: []tips{
			{
				Min: 6.5,
				Diet: []string{
					"Limit sweets, desserts, sugary drinks and juices.",
					"Prefer complex carbs: millets, brown rice, whole wheat, oats.",
					"Increase vegetables, salads, dals and sprouts with each meal.",
					"Avoid frequent snacking; keep fixed meal timings.",
				},
				Exercise: []string{
					"Walk 30–45 minutes most days of the week.",
					"Add light strength training 2–3 times/week.",
					"Avoid long sitting; stand/move every 45–60 minutes.",
				},
			},
			{
				Min: 5.7,
				Diet: []string{
					"Reduce refined carbs (white rice, bakery items, fried snacks).",
					"Swap sugary drinks with water, buttermilk or sugar-free lime water.",
					"Include protein each meal (eggs, paneer, curd, dals, sprouts, nuts).",
				},
				Exercise: []string{
					"Walk at least 30 minutes daily (can be 2 × 15 minutes).",
					"Use stairs when possible and increase daily steps gradually.",
				},
			},
			{
				Any: true,
				Diet: []string{
					"Maintain balanced meals: 1/2 plate vegetables, 1/4 protein, 1/4 carbs.",
					"Stay hydrated and avoid regular sugary drinks.",
				},
				Exercise: []string{
					"Continue regular physical activity (walking, sports, cycling).",
					"Add 2–3 days of yoga or strength training for flexibility and strength.",
				},
			},
		},
	},
	{
		Key: KeyFastingGlucose,
		Tiers: []tips{{
			Min: 100,
			Diet: []string{
				"Finish dinner 2–3 hours before sleep.",
				"Keep dinner lighter with more vegetables and protein, less rice/roti.",
			},
			Exercise: []string{
				"Take a 10–15 minute walk after dinner to help fasting sugar.",
			},
		}},
	},
	{
		Key: KeyPPGlucose,
		Tiers: []tips{{
			Min: 140,
			Diet: []string{
				"Reduce portion of high-carb items in the meal (rice, chapati, sweets).",
				"Combine carbs with protein and fiber (dal + sabzi + salad).",
			},
			Exercise: []string{
				"Do a gentle 10–15 minute walk after main meals to reduce spikes.",
			},
		}},
	},
	{
		Key: KeyCreatinine,
		Tiers: []tips{{
			Min:    1.2,
			Strict: true,
			Diet: []string{
				"Avoid self-medicating with painkillers or herbal supplements.",
				"Drink adequate water unless doctor has given fluid restriction.",
			},
			Exercise: []string{
				"Prefer moderate regular activity; avoid sudden very intense workouts without medical advice.",
			},
		}},
	},
}

// Lifestyle collects diet and activity tips for the parsed values, without
// duplicates and in rule order. Advisory only, never a prescription.
func Lifestyle(labs models.LabSet) models.Lifestyle {
	out := models.Lifestyle{Diet: []string{}, Exercise: []string{}}
	seen := map[string]bool{}

	add := func(list *[]string, items []string) {
		for _, item := range items {
			if !seen[item] {
				seen[item] = true
				*list = append(*list, item)
			}
		}
	}

	for _, rule := range lifestyleRules {
		v, ok := labs[rule.Key]
		if !ok {
			continue
		}
		for _, tier := range rule.Tiers {
			if tier.applies(v) {
				add(&out.Diet, tier.Diet)
				add(&out.Exercise, tier.Exercise)
				break
			}
		}
	}

	return out
}
