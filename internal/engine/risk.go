package engine

// RiskLevel is the overall risk classification of a profile.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// RiskAssessment bundles the triggered risk factors with the classification
// derived from them.
type RiskAssessment struct {
	Level   RiskLevel
	Factors []string
}

// Additive scoring thresholds: 0-1 factors low, 2-3 moderate, 4+ high.
const (
	moderateRiskThreshold = 2
	highRiskThreshold     = 4
)

// BMI at or above this forces a high classification regardless of factor count.
const disqualifyingBMI = 35

// Condition codes treated as diagnosed cardiovascular disease.
var cvdConditions = []string{"cvd", "cardiovascular_disease", "heart_disease", "coronary_artery_disease"}

// Condition codes treated as diagnosed diabetes.
var diabetesConditions = []string{"diabetes", "diabetes_type1", "diabetes_type2"}

// Medication codes that imply managed hypertension.
var bpMedications = []string{"beta_blocker", "ace_inhibitor", "arb", "calcium_channel_blocker", "diuretic"}

// Injury and chronic-condition codes that count one risk factor.
var injuryConditions = []string{
	"lower_back_pain", "knee_issue", "shoulder_injury", "hip_issue",
	"ankle_injury", "arthritis", "osteoporosis",
}

var chronicConditions = []string{"pcos", "asthma", "thyroid_disorder"}

// ScoreRisk evaluates the fixed predicate list against the profile and
// classifies overall risk. The evaluation is total: every predicate is checked
// on every call, so identical profiles always yield identical factor sets.
func ScoreRisk(p *NormalizedProfile) RiskAssessment {
	var factors []string

	switch {
	case p.Sex == SexMale && p.Age >= 45:
		factors = append(factors, "age_male_45plus")
	case p.Sex == SexFemale && p.Age >= 55:
		factors = append(factors, "age_female_55plus")
	case p.Sex == SexUnspecified && p.Age >= 45:
		// Without a recorded sex the conservative male threshold applies.
		factors = append(factors, "age_45plus")
	}

	if p.HasLifestyle("family_history_cvd") {
		factors = append(factors, "family_history_cvd")
	}
	if p.HasCondition("hypertension") || hasAnyMedication(p, bpMedications) {
		factors = append(factors, "hypertension")
	}
	if p.HasCondition("dyslipidemia") || p.HasCondition("high_cholesterol") {
		factors = append(factors, "dyslipidemia")
	}
	switch {
	case hasAnyCondition(p, diabetesConditions):
		factors = append(factors, "diabetes")
	case p.HasCondition("prediabetes"):
		factors = append(factors, "prediabetes")
	}
	if p.BMI >= 30 {
		factors = append(factors, "bmi_obese")
	}
	if p.HasLifestyle("sedentary") {
		factors = append(factors, "sedentary_lifestyle")
	}
	if p.HasLifestyle("smoker") {
		factors = append(factors, "current_smoker")
	}
	if hasAnyCondition(p, injuryConditions) {
		factors = append(factors, "existing_injury")
	} else if hasAnyCondition(p, chronicConditions) {
		factors = append(factors, "chronic_condition")
	}

	return RiskAssessment{Level: classify(p, len(factors)), Factors: factors}
}

// classify applies the count thresholds, then the disqualifying-flag override:
// diagnosed cardiovascular disease, diabetes, or BMI >= 35 always classify
// high. The override only ever raises the tier, never lowers it.
func classify(p *NormalizedProfile, count int) RiskLevel {
	level := RiskLow
	switch {
	case count >= highRiskThreshold:
		level = RiskHigh
	case count >= moderateRiskThreshold:
		level = RiskModerate
	}

	if hasAnyCondition(p, cvdConditions) || hasAnyCondition(p, diabetesConditions) || p.BMI >= disqualifyingBMI {
		level = RiskHigh
	}
	return level
}

func hasAnyCondition(p *NormalizedProfile, codes []string) bool {
	for _, code := range codes {
		if p.HasCondition(code) {
			return true
		}
	}
	return false
}

func hasAnyMedication(p *NormalizedProfile, codes []string) bool {
	for _, code := range codes {
		if p.HasMedication(code) {
			return true
		}
	}
	return false
}
