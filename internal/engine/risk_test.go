package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustNormalize(t *testing.T, p Profile) *NormalizedProfile {
	t.Helper()
	norm, err := Normalize(p)
	require.NoError(t, err)
	return norm
}

func TestScoreRiskThresholds(t *testing.T) {
	cases := []struct {
		name    string
		profile Profile
		level   RiskLevel
		factors []string
	}{
		{
			name:    "no factors",
			profile: Profile{Age: 25, Sex: SexMale, Goal: GoalMaintenance},
			level:   RiskLow,
			factors: []string{},
		},
		{
			name:    "one factor stays low",
			profile: Profile{Age: 25, Sex: SexMale, Goal: GoalMaintenance, LifestyleFlags: []string{"sedentary"}},
			level:   RiskLow,
			factors: []string{"sedentary_lifestyle"},
		},
		{
			name:    "two factors moderate",
			profile: Profile{Age: 46, Sex: SexMale, Goal: GoalMaintenance, LifestyleFlags: []string{"smoker"}},
			level:   RiskModerate,
			factors: []string{"age_male_45plus", "current_smoker"},
		},
		{
			name: "four factors high",
			profile: Profile{
				Age: 50, Sex: SexMale, Goal: GoalMaintenance,
				Conditions:     []string{"hypertension"},
				LifestyleFlags: []string{"sedentary", "smoker"},
			},
			level:   RiskHigh,
			factors: []string{"age_male_45plus", "hypertension", "sedentary_lifestyle", "current_smoker"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assessment := ScoreRisk(mustNormalize(t, tc.profile))
			require.Equal(t, tc.level, assessment.Level)
			require.ElementsMatch(t, tc.factors, assessment.Factors)
		})
	}
}

func TestScoreRiskAgeThresholdBySex(t *testing.T) {
	male := ScoreRisk(mustNormalize(t, Profile{Age: 45, Sex: SexMale, Goal: GoalMaintenance}))
	require.Contains(t, male.Factors, "age_male_45plus")

	female45 := ScoreRisk(mustNormalize(t, Profile{Age: 45, Sex: SexFemale, Goal: GoalMaintenance}))
	require.Empty(t, female45.Factors)

	female55 := ScoreRisk(mustNormalize(t, Profile{Age: 55, Sex: SexFemale, Goal: GoalMaintenance}))
	require.Contains(t, female55.Factors, "age_female_55plus")

	unspecified := ScoreRisk(mustNormalize(t, Profile{Age: 45, Goal: GoalMaintenance}))
	require.Contains(t, unspecified.Factors, "age_45plus")
}

func TestScoreRiskDisqualifyingFlagsForceHigh(t *testing.T) {
	diabetes := ScoreRisk(mustNormalize(t, Profile{
		Age: 25, Sex: SexMale, Goal: GoalMaintenance,
		Conditions: []string{"diabetes_type2"},
	}))
	require.Equal(t, RiskHigh, diabetes.Level)
	require.Equal(t, []string{"diabetes"}, diabetes.Factors)

	cvd := ScoreRisk(mustNormalize(t, Profile{
		Age: 25, Sex: SexMale, Goal: GoalMaintenance,
		Conditions: []string{"cardiovascular_disease"},
	}))
	require.Equal(t, RiskHigh, cvd.Level)

	// BMI 36.7 crosses the disqualifying line with only one counted factor.
	obese := ScoreRisk(mustNormalize(t, Profile{
		Age: 25, Sex: SexMale, Goal: GoalMaintenance, WeightKG: 110, HeightCM: 173,
	}))
	require.Equal(t, RiskHigh, obese.Level)
	require.Equal(t, []string{"bmi_obese"}, obese.Factors)
}

func TestScoreRiskBPMedicationCountsAsHypertension(t *testing.T) {
	assessment := ScoreRisk(mustNormalize(t, Profile{
		Age: 30, Sex: SexMale, Goal: GoalMaintenance,
		Medications: []string{"ace_inhibitor"},
	}))
	require.Equal(t, []string{"hypertension"}, assessment.Factors)

	// Hypertension diagnosis plus BP medication still counts once.
	both := ScoreRisk(mustNormalize(t, Profile{
		Age: 30, Sex: SexMale, Goal: GoalMaintenance,
		Conditions:  []string{"hypertension"},
		Medications: []string{"ace_inhibitor"},
	}))
	require.Equal(t, []string{"hypertension"}, both.Factors)
}

func TestScoreRiskInjuryAndChronicConditionCountOnce(t *testing.T) {
	injuries := ScoreRisk(mustNormalize(t, Profile{
		Age: 30, Sex: SexMale, Goal: GoalMaintenance,
		Conditions: []string{"knee_issue", "shoulder_injury"},
	}))
	require.Equal(t, []string{"existing_injury"}, injuries.Factors)

	chronic := ScoreRisk(mustNormalize(t, Profile{
		Age: 30, Sex: SexFemale, Goal: GoalMaintenance,
		Conditions: []string{"pcos"},
	}))
	require.Equal(t, []string{"chronic_condition"}, chronic.Factors)
}
