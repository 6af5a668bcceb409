package engine

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrRuleTableLoad indicates a malformed or missing rule table. The engine
// cannot run without its tables, so hosting processes treat this as fatal.
var ErrRuleTableLoad = errors.New("rule table load failed")

// Category identifies which output list an instruction belongs to.
type Category string

const (
	CategorySafety           Category = "safety"
	CategoryWorkout          Category = "workout"
	CategoryMeal             Category = "meal"
	CategoryBehavioral       Category = "behavioral"
	CategoryContraindication Category = "contraindication"
	CategoryMedical          Category = "medical"
)

// Categories lists every output category in schema order.
var Categories = []Category{
	CategorySafety,
	CategoryWorkout,
	CategoryMeal,
	CategoryBehavioral,
	CategoryContraindication,
	CategoryMedical,
}

// Priority tiers, highest authority first. Tier 0 is never overridden.
const (
	TierSafety       = 0
	TierMedical      = 1
	TierAdherence    = 2
	TierOptimization = 3
	TierPreference   = 4
	TierPerformance  = 5
)

// Stance marks an instruction as recommending or forbidding its target, which
// is what makes two candidates contradictory.
type Stance string

const (
	StanceInclude Stance = "include"
	StanceAvoid   Stance = "avoid"
)

// RuleInstruction is a single table entry payload. Target and Stance are only
// set on instructions that address a specific exercise, food, or behavior and
// therefore participate in conflict resolution.
type RuleInstruction struct {
	Category Category `yaml:"category"`
	Tier     int      `yaml:"tier"`
	Text     string   `yaml:"text"`
	Target   string   `yaml:"target,omitempty"`
	Stance   Stance   `yaml:"stance,omitempty"`
}

// ConditionRule maps a condition code to exercises to avoid, replacement
// candidates, and any special instructions.
type ConditionRule struct {
	Avoid        []string          `yaml:"avoid"`
	Replacements []string          `yaml:"replacements"`
	Instructions []RuleInstruction `yaml:"instructions"`
}

// TimeRule maps an available-days bucket to programming-approach instructions.
type TimeRule struct {
	MinDays      int               `yaml:"min_days"`
	MaxDays      int               `yaml:"max_days"`
	Instructions []RuleInstruction `yaml:"instructions"`
}

// RuleSet is the full versioned rule-table document. Loaded once at process
// start and read-only afterwards; the version participates in cache keys so a
// table bump invalidates memoized results.
type RuleSet struct {
	Version    string                           `yaml:"version"`
	Age        map[AgeBracket][]RuleInstruction `yaml:"age"`
	BMI        map[BMIBracket][]RuleInstruction `yaml:"bmi"`
	Conditions map[string]ConditionRule         `yaml:"conditions"`
	Time       []TimeRule                       `yaml:"time"`
	Goals      map[Goal][]RuleInstruction       `yaml:"goals"`
}

//go:embed rules.yaml
var defaultRules []byte

// DefaultRules parses the embedded rule-table document.
func DefaultRules() (*RuleSet, error) {
	return LoadRules(defaultRules)
}

// LoadRulesFile reads and parses a rule-table document from disk.
func LoadRulesFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuleTableLoad, err)
	}
	return LoadRules(data)
}

// LoadRules parses and validates a rule-table document.
func LoadRules(data []byte) (*RuleSet, error) {
	var rules RuleSet
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuleTableLoad, err)
	}
	if err := rules.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuleTableLoad, err)
	}
	return &rules, nil
}

func (r *RuleSet) validate() error {
	if strings.TrimSpace(r.Version) == "" {
		return errors.New("version is required")
	}

	for bracket, instructions := range r.Age {
		if err := validateInstructions(fmt.Sprintf("age[%s]", bracket), instructions); err != nil {
			return err
		}
	}
	for bracket, instructions := range r.BMI {
		if err := validateInstructions(fmt.Sprintf("bmi[%s]", bracket), instructions); err != nil {
			return err
		}
	}
	for code, rule := range r.Conditions {
		if strings.TrimSpace(code) == "" {
			return errors.New("conditions: empty condition code")
		}
		if len(rule.Avoid) == 0 && len(rule.Instructions) == 0 {
			return fmt.Errorf("conditions[%s]: needs an avoid list or instructions", code)
		}
		if len(rule.Replacements) > 0 && len(rule.Avoid) == 0 {
			return fmt.Errorf("conditions[%s]: replacements require an avoid list", code)
		}
		if err := validateInstructions(fmt.Sprintf("conditions[%s]", code), rule.Instructions); err != nil {
			return err
		}
	}

	// Time buckets must partition 0..7 with no gaps or overlaps.
	covered := make([]bool, 8)
	for i, bucket := range r.Time {
		if bucket.MinDays < 0 || bucket.MaxDays > 7 || bucket.MinDays > bucket.MaxDays {
			return fmt.Errorf("time[%d]: invalid day range %d..%d", i, bucket.MinDays, bucket.MaxDays)
		}
		for d := bucket.MinDays; d <= bucket.MaxDays; d++ {
			if covered[d] {
				return fmt.Errorf("time[%d]: day %d covered by more than one bucket", i, d)
			}
			covered[d] = true
		}
		if err := validateInstructions(fmt.Sprintf("time[%d]", i), bucket.Instructions); err != nil {
			return err
		}
	}
	for d, ok := range covered {
		if !ok {
			return fmt.Errorf("time: no bucket covers %d days/week", d)
		}
	}

	for goal, instructions := range r.Goals {
		if err := validateInstructions(fmt.Sprintf("goals[%s]", goal), instructions); err != nil {
			return err
		}
	}
	return nil
}

func validateInstructions(where string, instructions []RuleInstruction) error {
	for i, instruction := range instructions {
		if !validCategory(instruction.Category) {
			return fmt.Errorf("%s[%d]: unknown category %q", where, i, instruction.Category)
		}
		if instruction.Tier < TierSafety || instruction.Tier > TierPerformance {
			return fmt.Errorf("%s[%d]: tier %d out of range", where, i, instruction.Tier)
		}
		if strings.TrimSpace(instruction.Text) == "" {
			return fmt.Errorf("%s[%d]: text is required", where, i)
		}
		switch instruction.Stance {
		case "", StanceInclude, StanceAvoid:
		default:
			return fmt.Errorf("%s[%d]: unknown stance %q", where, i, instruction.Stance)
		}
		if instruction.Stance != "" && strings.TrimSpace(instruction.Target) == "" {
			return fmt.Errorf("%s[%d]: stance requires a target", where, i)
		}
		if instruction.Stance == "" && strings.TrimSpace(instruction.Target) != "" {
			return fmt.Errorf("%s[%d]: target requires a stance", where, i)
		}
	}
	return nil
}

func validCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// timeBucket returns the bucket covering the given days value. Validation
// guarantees full coverage of 0..7.
func (r *RuleSet) timeBucket(days int) *TimeRule {
	for i := range r.Time {
		if days >= r.Time[i].MinDays && days <= r.Time[i].MaxDays {
			return &r.Time[i]
		}
	}
	return nil
}
