package labs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/lab-report-summarizer/internal/models"
)

func TestInsightsBoundaries(t *testing.T) {
	tests := []struct {
		key   string
		value float64
		level string
	}{
		{KeyHbA1c, 6.5, LevelHigh},
		{KeyHbA1c, 6.4, LevelWarning},
		{KeyHbA1c, 5.7, LevelWarning},
		{KeyHbA1c, 5.6, LevelOK},
		{KeyFastingGlucose, 126, LevelHigh},
		{KeyFastingGlucose, 100, LevelWarning},
		{KeyFastingGlucose, 99, LevelOK},
		{KeyPPGlucose, 200, LevelHigh},
		{KeyPPGlucose, 140, LevelWarning},
		{KeyPPGlucose, 139, LevelOK},
		{KeyCreatinine, 1.2, LevelOK},
		{KeyCreatinine, 1.21, LevelHigh},
	}

	for _, tt := range tests {
		got := Insights(models.LabSet{tt.key: tt.value})
		require.Len(t, got, 1, "%s=%v", tt.key, tt.value)
		assert.Equal(t, tt.level, got[0].Level, "%s=%v", tt.key, tt.value)
		assert.Equal(t, tt.key, got[0].Key)
	}
}

func TestInsightsText(t *testing.T) {
	got := Insights(models.LabSet{KeyHbA1c: 6.8})
	require.Len(t, got, 1)
	assert.Equal(t, "HbA1c is 6.8. This is in the diabetes range (≥ 6.5%).", got[0].Text)
}

func TestInsightsOrderAndSkips(t *testing.T) {
	got := Insights(models.LabSet{
		KeyCreatinine: 0.9,
		KeyHbA1c:      5.2,
		KeyHemoglobin: 13,
	})

	require.Len(t, got, 2)
	assert.Equal(t, KeyHbA1c, got[0].Key)
	assert.Equal(t, KeyCreatinine, got[1].Key)
}

func TestInsightsEmpty(t *testing.T) {
	assert.Empty(t, Insights(models.LabSet{}))
	assert.NotNil(t, Insights(nil))
}
