package nutrition

import (
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/planreasoning/internal/engine"
)

func TestBMRMifflinStJeor(t *testing.T) {
	// 10*80 + 6.25*180 - 5*30 + 5 = 1780
	require.Equal(t, 1780.0, BMR(30, engine.SexMale, 180, 80))
	// Female constant: 10*60 + 6.25*165 - 5*40 - 161 = 1270.25
	require.Equal(t, 1270.25, BMR(40, engine.SexFemale, 165, 60))
	// Unspecified falls back to the female constant.
	require.Equal(t, BMR(40, engine.SexFemale, 165, 60), BMR(40, engine.SexUnspecified, 165, 60))
}

func TestTDEEMultipliers(t *testing.T) {
	require.Equal(t, 1375.0, TDEE(1000, "beginner"))
	require.Equal(t, 1550.0, TDEE(1000, "intermediate"))
	require.Equal(t, 1725.0, TDEE(1000, "advanced"))
	require.Equal(t, 1550.0, TDEE(1000, "unknown"))
}

func TestCalorieTargetByGoal(t *testing.T) {
	require.Equal(t, 1500, CalorieTarget(2000, engine.GoalWeightLoss))
	require.Equal(t, 2300, CalorieTarget(2000, engine.GoalMuscleGain))
	require.Equal(t, 2200, CalorieTarget(2000, engine.GoalEndurance))
	require.Equal(t, 2000, CalorieTarget(2000, engine.GoalMaintenance))
	require.Equal(t, 2000, CalorieTarget(2000, engine.Goal("flexibility")))
}

func TestBaselineForRequiresMeasurements(t *testing.T) {
	norm, err := engine.Normalize(engine.Profile{Age: 30, Goal: engine.GoalMaintenance})
	require.NoError(t, err)
	_, ok := BaselineFor(norm)
	require.False(t, ok)

	norm, err = engine.Normalize(engine.Profile{
		Age: 30, Sex: engine.SexMale, Goal: engine.GoalWeightLoss,
		WeightKG: 80, HeightCM: 180, ExperienceLevel: "beginner",
	})
	require.NoError(t, err)
	baseline, ok := BaselineFor(norm)
	require.True(t, ok)
	require.Equal(t, 1780.0, baseline.BMR)
	require.Equal(t, 2447.5, baseline.TDEE)
	require.Equal(t, 1947, baseline.CalorieTarget)
}
