package engine

// Assessment is the external output schema consumed by the downstream plan
// generators. All six category keys are always present, each a list that may
// be empty but never null.
type Assessment struct {
	RiskLevel         string   `json:"risk_level"`
	RiskFactors       []string `json:"risk_factors_identified"`
	Safety            []string `json:"safety_instructions"`
	Workout           []string `json:"workout_instructions"`
	Meal              []string `json:"meal_instructions"`
	Behavioral        []string `json:"behavioral_considerations"`
	Contraindications []string `json:"contraindications"`
	MedicalNotes      []string `json:"medical_notes"`
}

// Result carries the assessment together with evaluation metadata the hosting
// service needs: the normalized profile hash and rule version for caching and
// idempotency, and any data-quality warnings from conflict resolution.
type Result struct {
	Assessment  *Assessment
	ProfileHash string
	RuleVersion string
	Warnings    []ConflictWarning
}

// Engine is the stateless evaluation pipeline over one immutable rule set.
// Safe for concurrent use.
type Engine struct {
	rules   *RuleSet
	matcher *Matcher
}

// New constructs an Engine. subs may be nil (no catalog refinement).
func New(rules *RuleSet, subs SubstitutionSource) *Engine {
	return &Engine{rules: rules, matcher: NewMatcher(rules, subs)}
}

// RuleVersion exposes the loaded table version.
func (e *Engine) RuleVersion() string { return e.rules.Version }

// Evaluate runs the full pipeline: normalize, score, match, resolve, compose.
// Output is all-or-nothing; a validation failure emits no partial result.
func (e *Engine) Evaluate(profile Profile) (*Result, error) {
	norm, err := Normalize(profile)
	if err != nil {
		return nil, err
	}
	return e.EvaluateNormalized(norm), nil
}

// EvaluateNormalized runs the pipeline on an already-normalized profile.
// Hosting services that need the profile hash up front (cache lookups)
// normalize first and call this.
func (e *Engine) EvaluateNormalized(norm *NormalizedProfile) *Result {
	risk := ScoreRisk(norm)
	candidates := e.matcher.Match(norm, risk)
	resolved, warnings := Resolve(candidates)

	return &Result{
		Assessment:  Compose(risk, resolved),
		ProfileHash: norm.Hash(),
		RuleVersion: e.rules.Version,
		Warnings:    warnings,
	}
}

// Compose assembles the resolved instructions and risk classification into the
// output schema. Pure structural transform; composing the same inputs twice
// yields identical output.
func Compose(risk RiskAssessment, set ResolvedSet) *Assessment {
	return &Assessment{
		RiskLevel:         string(risk.Level),
		RiskFactors:       orEmpty(risk.Factors),
		Safety:            orEmpty(set.Safety),
		Workout:           orEmpty(set.Workout),
		Meal:              orEmpty(set.Meal),
		Behavioral:        orEmpty(set.Behavioral),
		Contraindications: orEmpty(set.Contraindications),
		MedicalNotes:      orEmpty(set.Medical),
	}
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
