// Package nutrition computes the energy baseline (BMR, TDEE, goal-adjusted
// calorie target) the API layer attaches to assessment responses. The
// reasoning engine itself never does calorie math; it only emits strategy
// instructions.
package nutrition

import (
	"math"

	"example.com/planreasoning/internal/engine"
)

// Baseline is the computed daily-energy view for a profile.
type Baseline struct {
	BMR           float64 `json:"bmr"`
	TDEE          float64 `json:"tdee"`
	CalorieTarget int     `json:"calorie_target"`
}

// Activity multipliers keyed by experience level; moderate is the fallback.
var tdeeMultipliers = map[string]float64{
	"beginner":     1.375,
	"intermediate": 1.55,
	"advanced":     1.725,
}

const defaultTDEEMultiplier = 1.55

// Daily calorie adjustments per goal relative to TDEE.
var calorieAdjustments = map[engine.Goal]float64{
	engine.GoalWeightLoss:  -500,
	engine.GoalMuscleGain:  300,
	engine.GoalEndurance:   200,
	engine.GoalMaintenance: 0,
}

// BMR computes basal metabolic rate with the Mifflin-St Jeor equation.
// Profiles without a recorded male sex use the female constant, the more
// conservative of the two.
func BMR(age int, sex engine.Sex, heightCM, weightKG float64) float64 {
	bmr := 10*weightKG + 6.25*heightCM - 5*float64(age)
	if sex == engine.SexMale {
		bmr += 5
	} else {
		bmr -= 161
	}
	return round2(bmr)
}

// TDEE scales BMR by the experience-level activity multiplier.
func TDEE(bmr float64, experience string) float64 {
	mult, ok := tdeeMultipliers[experience]
	if !ok {
		mult = defaultTDEEMultiplier
	}
	return round2(bmr * mult)
}

// CalorieTarget applies the goal adjustment to TDEE. Unknown goals get no
// adjustment.
func CalorieTarget(tdee float64, goal engine.Goal) int {
	return int(tdee + calorieAdjustments[goal])
}

// BaselineFor computes the full energy view for a normalized profile. ok is
// false when the profile lacks body measurements.
func BaselineFor(p *engine.NormalizedProfile) (Baseline, bool) {
	if p.WeightKG <= 0 || p.HeightCM <= 0 {
		return Baseline{}, false
	}
	bmr := BMR(p.Age, p.Sex, p.HeightCM, p.WeightKG)
	tdee := TDEE(bmr, p.Experience)
	return Baseline{
		BMR:           bmr,
		TDEE:          tdee,
		CalorieTarget: CalorieTarget(tdee, p.Goal),
	}, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
