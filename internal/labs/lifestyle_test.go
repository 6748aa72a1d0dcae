package labs

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BerylCAtieno/lab-report-summarizer/internal/models"
)

func TestLifestyleThresholds(t *testing.T) {
	tests := []struct {
		name      string
		labs      models.LabSet
		firstDiet string
		diet      int
		exercise  int
	}{
		{"hba1c diabetes", models.LabSet{KeyHbA1c: 6.5}, "Limit sweets, desserts, sugary drinks and juices.", 4, 3},
		{"hba1c prediabetes", models.LabSet{KeyHbA1c: 5.7}, "Reduce refined carbs (white rice, bakery items, fried snacks).", 3, 2},
		{"hba1c normal", models.LabSet{KeyHbA1c: 5.6}, "Maintain balanced meals: 1/2 plate vegetables, 1/4 protein, 1/4 carbs.", 2, 2},
		{"fasting at threshold", models.LabSet{KeyFastingGlucose: 100}, "Finish dinner 2–3 hours before sleep.", 2, 1},
		{"pp at threshold", models.LabSet{KeyPPGlucose: 140}, "Reduce portion of high-carb items in the meal (rice, chapati, sweets).", 2, 1},
		{"creatinine above", models.LabSet{KeyCreatinine: 1.21}, "Avoid self-medicating with painkillers or herbal supplements.", 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Lifestyle(tt.labs)
			assert.Len(t, got.Diet, tt.diet)
			assert.Len(t, got.Exercise, tt.exercise)
			assert.Equal(t, tt.firstDiet, got.Diet[0])
		})
	}
}

func TestLifestyleBelowThresholds(t *testing.T) {
	for _, labs := range []models.LabSet{
		{KeyFastingGlucose: 99},
		{KeyPPGlucose: 139},
		{KeyCreatinine: 1.2},
		{KeyHemoglobin: 9},
		{},
	} {
		got := Lifestyle(labs)
		assert.Equal(t, models.Lifestyle{Diet: []string{}, Exercise: []string{}}, got, "%v", labs)
	}
}

func TestLifestyleCombinesInRuleOrder(t *testing.T) {
	got := Lifestyle(models.LabSet{KeyCreatinine: 1.5, KeyHbA1c: 7.2, KeyFastingGlucose: 130, KeyPPGlucose: 210})

	assert.Len(t, got.Diet, 4+2+2+2)
	assert.Len(t, got.Exercise, 3+1+1+1)
	assert.Equal(t, "Limit sweets, desserts, sugary drinks and juices.", got.Diet[0])
	assert.Equal(t, "Drink adequate water unless doctor has given fluid restriction.", got.Diet[len(got.Diet)-1])
}
