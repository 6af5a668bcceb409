package engine

// SubstitutionSource supplies equipment-aware replacement candidates for a
// contraindicated exercise. Implementations must be read-only and
// deterministic; the reference catalog service provides the production one.
type SubstitutionSource interface {
	Substitutes(exercise string, equipment []string) []string
}

// Table names in fixed evaluation order. The order doubles as the tie-break
// precedence when two candidates of equal tier contradict.
const (
	tableRisk      = "risk"
	tableAge       = "age"
	tableBMI       = "bmi"
	tableCondition = "condition"
	tableTime      = "time"
	tableGoal      = "goal"
)

var tableRank = map[string]int{
	tableRisk:      0,
	tableAge:       1,
	tableBMI:       2,
	tableCondition: 3,
	tableTime:      4,
	tableGoal:      5,
}

// Candidate is an unresolved instruction emitted by a rule-table match.
type Candidate struct {
	Category Category
	Tier     int
	Text     string
	Target   string
	Stance   Stance
	Table    string
}

// Matcher evaluates the five rule tables against a normalized profile. Tables
// are independent; no rule chains into another. Cross-table conflicts are the
// resolver's job.
type Matcher struct {
	rules *RuleSet
	subs  SubstitutionSource
}

// NewMatcher builds a Matcher over a loaded rule set. subs may be nil, in
// which case only table-defined replacements are emitted.
func NewMatcher(rules *RuleSet, subs SubstitutionSource) *Matcher {
	return &Matcher{rules: rules, subs: subs}
}

// Match returns every candidate instruction triggered by the profile and its
// risk classification. Conditions are walked in sorted order so the output is
// independent of input ordering.
func (m *Matcher) Match(p *NormalizedProfile, risk RiskAssessment) []Candidate {
	var out []Candidate

	out = append(out, safetyCandidates(risk)...)
	out = append(out, fromInstructions(tableAge, m.rules.Age[p.AgeBracket])...)
	out = append(out, fromInstructions(tableBMI, m.rules.BMI[p.BMIBracket])...)

	for _, code := range sortedKeys(p.Conditions) {
		rule, ok := m.rules.Conditions[code]
		if !ok {
			// Unknown codes pass through normalization but match nothing.
			continue
		}
		out = append(out, m.conditionCandidates(rule, p.Equipment)...)
	}

	if bucket := m.rules.timeBucket(p.DaysPerWeek); bucket != nil {
		out = append(out, fromInstructions(tableTime, bucket.Instructions)...)
	}

	out = append(out, fromInstructions(tableGoal, m.rules.Goals[p.Goal])...)
	return out
}

// safetyCandidates emits the Tier 0 clearance instructions derived from the
// risk classification. These are never subject to override.
func safetyCandidates(risk RiskAssessment) []Candidate {
	switch risk.Level {
	case RiskModerate:
		return []Candidate{{
			Category: CategorySafety,
			Tier:     TierSafety,
			Text:     "Medical clearance recommended before starting program",
			Table:    tableRisk,
		}}
	case RiskHigh:
		return []Candidate{
			{
				Category: CategorySafety,
				Tier:     TierSafety,
				Text:     "Medical clearance mandatory before starting program",
				Table:    tableRisk,
			},
			{
				Category: CategorySafety,
				Tier:     TierSafety,
				Text:     "Supervised sessions recommended until cleared",
				Table:    tableRisk,
			},
		}
	default:
		return nil
	}
}

func (m *Matcher) conditionCandidates(rule ConditionRule, equipment []string) []Candidate {
	out := make([]Candidate, 0, len(rule.Avoid)+len(rule.Replacements)+len(rule.Instructions))

	for _, exercise := range rule.Avoid {
		out = append(out, Candidate{
			Category: CategoryContraindication,
			Tier:     TierMedical,
			Text:     exercise,
			Target:   normalizeTag(exercise),
			Stance:   StanceAvoid,
			Table:    tableCondition,
		})
	}

	for _, replacement := range m.replacements(rule, equipment) {
		out = append(out, Candidate{
			Category: CategoryWorkout,
			Tier:     TierMedical,
			Text:     "Substitute: " + replacement,
			Target:   normalizeTag(replacement),
			Stance:   StanceInclude,
			Table:    tableCondition,
		})
	}

	out = append(out, fromInstructions(tableCondition, rule.Instructions)...)
	return out
}

// replacements unions the table-defined replacement list with any
// equipment-compatible substitutes the reference catalog knows for the
// avoided exercises.
func (m *Matcher) replacements(rule ConditionRule, equipment []string) []string {
	out := append([]string(nil), rule.Replacements...)
	if m.subs == nil {
		return out
	}

	seen := make(map[string]struct{}, len(out))
	for _, r := range out {
		seen[normalizeTag(r)] = struct{}{}
	}
	for _, avoided := range rule.Avoid {
		for _, sub := range m.subs.Substitutes(avoided, equipment) {
			key := normalizeTag(sub)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, sub)
		}
	}
	return out
}

func fromInstructions(table string, instructions []RuleInstruction) []Candidate {
	out := make([]Candidate, 0, len(instructions))
	for _, instruction := range instructions {
		out = append(out, Candidate{
			Category: instruction.Category,
			Tier:     instruction.Tier,
			Text:     instruction.Text,
			Target:   normalizeTag(instruction.Target),
			Stance:   instruction.Stance,
			Table:    table,
		})
	}
	return out
}
