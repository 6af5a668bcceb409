package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveHigherTierWinsContradiction(t *testing.T) {
	set, warnings := Resolve([]Candidate{
		{Category: CategoryWorkout, Tier: TierOptimization, Text: "Include heavy deadlifts", Target: "deadlifts", Stance: StanceInclude, Table: tableGoal},
		{Category: CategoryContraindication, Tier: TierMedical, Text: "Deadlifts", Target: "deadlifts", Stance: StanceAvoid, Table: tableCondition},
	})

	require.Empty(t, warnings)
	require.Equal(t, []string{"Deadlifts"}, set.Contraindications)
	require.Empty(t, set.Workout)
}

func TestResolveSameTierContradictionUsesTableOrder(t *testing.T) {
	set, warnings := Resolve([]Candidate{
		{Category: CategoryWorkout, Tier: TierAdherence, Text: "Daily walking habit", Target: "daily walking", Stance: StanceInclude, Table: tableTime},
		{Category: CategoryContraindication, Tier: TierAdherence, Text: "Daily walking", Target: "daily walking", Stance: StanceAvoid, Table: tableBMI},
	})

	// bmi table ranks before time, so the avoid candidate wins and the
	// contradiction is reported as a data-quality warning.
	require.Len(t, warnings, 1)
	require.Equal(t, "daily walking", warnings[0].Target)
	require.Equal(t, tableBMI, warnings[0].Kept.Table)
	require.Equal(t, tableTime, warnings[0].Dropped.Table)
	require.Equal(t, []string{"Daily walking"}, set.Contraindications)
	require.Empty(t, set.Workout)
}

func TestResolveMergesDuplicatesWithinCategory(t *testing.T) {
	set, warnings := Resolve([]Candidate{
		{Category: CategoryWorkout, Tier: TierMedical, Text: "Low-impact modalities only", Table: tableBMI},
		{Category: CategoryWorkout, Tier: TierMedical, Text: "Low-impact modalities only", Table: tableCondition},
		{Category: CategoryWorkout, Tier: TierMedical, Text: "Supervised exercise recommended", Table: tableBMI},
	})

	require.Empty(t, warnings)
	require.Equal(t, []string{"Low-impact modalities only", "Supervised exercise recommended"}, set.Workout)
}

func TestResolveOrdersByTierThenFirstSeen(t *testing.T) {
	set, _ := Resolve([]Candidate{
		{Category: CategoryWorkout, Tier: TierOptimization, Text: "Progressive overload", Table: tableGoal},
		{Category: CategoryWorkout, Tier: TierSafety, Text: "Stop on chest pain", Table: tableRisk},
		{Category: CategoryWorkout, Tier: TierAdherence, Text: "Full-body routine, 2 sessions/week", Table: tableTime},
		{Category: CategoryWorkout, Tier: TierMedical, Text: "Avoid loaded spinal flexion", Table: tableCondition},
	})

	require.Equal(t, []string{
		"Stop on chest pain",
		"Avoid loaded spinal flexion",
		"Full-body routine, 2 sessions/week",
		"Progressive overload",
	}, set.Workout)
}

func TestResolveUnaffectedCandidatesPassThrough(t *testing.T) {
	set, warnings := Resolve([]Candidate{
		{Category: CategoryMeal, Tier: TierOptimization, Text: "Calorie deficit ~500 kcal/day", Table: tableGoal},
		{Category: CategoryBehavioral, Tier: TierAdherence, Text: "At least one full rest day per week", Table: tableTime},
	})

	require.Empty(t, warnings)
	require.Equal(t, []string{"Calorie deficit ~500 kcal/day"}, set.Meal)
	require.Equal(t, []string{"At least one full rest day per week"}, set.Behavioral)
}

func TestResolveTierZeroNeverOverridden(t *testing.T) {
	set, _ := Resolve([]Candidate{
		{Category: CategorySafety, Tier: TierSafety, Text: "Medical clearance mandatory before starting program", Target: "medical clearance", Stance: StanceInclude, Table: tableRisk},
		{Category: CategoryWorkout, Tier: TierPreference, Text: "Skip the screening paperwork", Target: "medical clearance", Stance: StanceAvoid, Table: tableGoal},
	})

	require.Equal(t, []string{"Medical clearance mandatory before starting program"}, set.Safety)
	require.Empty(t, set.Workout)
}

func TestResolveEmptyInput(t *testing.T) {
	set, warnings := Resolve(nil)
	require.Empty(t, warnings)
	require.Empty(t, set.Safety)
	require.Empty(t, set.Workout)
	require.Empty(t, set.Meal)
	require.Empty(t, set.Behavioral)
	require.Empty(t, set.Contraindications)
	require.Empty(t, set.Medical)
}
