// Package engine implements the deterministic plan-reasoning pipeline: a user
// profile is normalized, scored for risk, matched against versioned rule
// tables, and resolved into a tier-ordered instruction set for the downstream
// plan generators. Every run is a pure function of the profile and the loaded
// rule-table version.
package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

// Sex is the biological sex recorded on the profile.
type Sex string

const (
	SexMale        Sex = "male"
	SexFemale      Sex = "female"
	SexUnspecified Sex = "unspecified"
)

// Goal is the user's primary training goal.
type Goal string

const (
	GoalWeightLoss  Goal = "weight_loss"
	GoalMuscleGain  Goal = "muscle_gain"
	GoalMaintenance Goal = "maintenance"
	GoalEndurance   Goal = "endurance"
)

// AgeBracket buckets a profile's age for rule-table matching.
type AgeBracket string

const (
	AgeBracketYouth  AgeBracket = "youth"     // 13-17
	AgeBracketAdult  AgeBracket = "adult"     // 18-39
	AgeBracketMiddle AgeBracket = "middle"    // 40-59
	AgeBracketSenior AgeBracket = "senior"    // 60+
)

// BMIBracket buckets BMI along WHO-style bands.
type BMIBracket string

const (
	BMIBracketUnknown     BMIBracket = "unknown"
	BMIBracketUnderweight BMIBracket = "underweight" // <18.5
	BMIBracketNormal      BMIBracket = "normal"      // 18.5-24.9
	BMIBracketOverweight  BMIBracket = "overweight"  // 25-29.9
	BMIBracketObese1      BMIBracket = "obese_1"     // 30-34.9
	BMIBracketObese2      BMIBracket = "obese_2"     // 35-39.9
	BMIBracketObese3      BMIBracket = "obese_3"     // 40+
)

// MinSupportedAge is the youngest profile age the engine will evaluate.
const MinSupportedAge = 13

// ErrUnsupportedProfile marks profiles outside the supported range (age below
// MinSupportedAge). Validation errors for such profiles satisfy
// errors.Is(err, ErrUnsupportedProfile).
var ErrUnsupportedProfile = errors.New("profile outside supported range")

// ValidationError reports a missing or invalid required profile field.
type ValidationError struct {
	Field  string
	Reason string
	err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid profile: field %q %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.err }

// Profile is the raw input record supplied by the profile service.
type Profile struct {
	Age                  int      `json:"age"`
	Sex                  Sex      `json:"sex"`
	WeightKG             float64  `json:"weight_kg"`
	HeightCM             float64  `json:"height_cm"`
	Goal                 Goal     `json:"goal"`
	ExperienceLevel      string   `json:"experience_level"`
	AvailableDaysPerWeek int      `json:"available_days_per_week"`
	EquipmentAccess      []string `json:"equipment_access"`
	Conditions           []string `json:"conditions"`
	LifestyleFlags       []string `json:"lifestyle_flags"`
	Medications          []string `json:"medications"`
}

// NormalizedProfile is the canonical internal schema the rest of the pipeline
// operates on. Tag sets are lower-cased, trimmed, and deduplicated; unknown
// codes are kept as opaque tags so future rule-table versions can match them.
type NormalizedProfile struct {
	Age         int
	Sex         Sex
	Goal        Goal
	Experience  string
	DaysPerWeek int
	WeightKG    float64
	HeightCM    float64
	BMI         float64
	AgeBracket  AgeBracket
	BMIBracket  BMIBracket
	Equipment   []string
	Conditions  map[string]struct{}
	Lifestyle   map[string]struct{}
	Medications map[string]struct{}
}

// HasCondition reports whether the normalized condition code is present.
func (p *NormalizedProfile) HasCondition(code string) bool {
	_, ok := p.Conditions[code]
	return ok
}

// HasLifestyle reports whether the lifestyle flag is present.
func (p *NormalizedProfile) HasLifestyle(flag string) bool {
	_, ok := p.Lifestyle[flag]
	return ok
}

// HasMedication reports whether the medication code is present.
func (p *NormalizedProfile) HasMedication(code string) bool {
	_, ok := p.Medications[code]
	return ok
}

// Normalize validates the raw profile and computes derived fields (BMI, age
// bracket, BMI bracket). Unknown condition, equipment, lifestyle, and goal
// codes are accepted; they simply never match a rule.
func Normalize(raw Profile) (*NormalizedProfile, error) {
	if raw.Age <= 0 {
		return nil, &ValidationError{Field: "age", Reason: "is required and must be positive"}
	}
	if raw.Age < MinSupportedAge {
		return nil, &ValidationError{
			Field:  "age",
			Reason: fmt.Sprintf("must be at least %d", MinSupportedAge),
			err:    ErrUnsupportedProfile,
		}
	}
	if strings.TrimSpace(string(raw.Goal)) == "" {
		return nil, &ValidationError{Field: "goal", Reason: "is required"}
	}
	if raw.WeightKG < 0 {
		return nil, &ValidationError{Field: "weight_kg", Reason: "must be strictly positive when present"}
	}
	if raw.HeightCM < 0 {
		return nil, &ValidationError{Field: "height_cm", Reason: "must be strictly positive when present"}
	}

	days := raw.AvailableDaysPerWeek
	if days < 0 {
		return nil, &ValidationError{Field: "available_days_per_week", Reason: "must be between 0 and 7"}
	}
	if days > 7 {
		return nil, &ValidationError{Field: "available_days_per_week", Reason: "must be between 0 and 7"}
	}

	norm := &NormalizedProfile{
		Age:         raw.Age,
		Sex:         normalizeSex(raw.Sex),
		Goal:        Goal(normalizeTag(string(raw.Goal))),
		Experience:  normalizeTag(raw.ExperienceLevel),
		DaysPerWeek: days,
		WeightKG:    raw.WeightKG,
		HeightCM:    raw.HeightCM,
		AgeBracket:  ageBracketFor(raw.Age),
		Equipment:   normalizeTagSlice(raw.EquipmentAccess),
		Conditions:  normalizeTagSet(raw.Conditions),
		Lifestyle:   normalizeTagSet(raw.LifestyleFlags),
		Medications: normalizeTagSet(raw.Medications),
	}

	if raw.WeightKG > 0 && raw.HeightCM > 0 {
		meters := raw.HeightCM / 100
		norm.BMI = round1(raw.WeightKG / (meters * meters))
	}
	norm.BMIBracket = bmiBracketFor(norm.BMI)

	return norm, nil
}

// Hash returns a stable content hash of the normalized profile. Combined with
// the rule-table version it forms the memoization key for hosting caches.
func (p *NormalizedProfile) Hash() string {
	canonical := struct {
		Age         int      `json:"age"`
		Sex         Sex      `json:"sex"`
		Goal        Goal     `json:"goal"`
		Experience  string   `json:"experience"`
		DaysPerWeek int      `json:"days_per_week"`
		WeightKG    float64  `json:"weight_kg"`
		HeightCM    float64  `json:"height_cm"`
		Equipment   []string `json:"equipment"`
		Conditions  []string `json:"conditions"`
		Lifestyle   []string `json:"lifestyle"`
		Medications []string `json:"medications"`
	}{
		Age:         p.Age,
		Sex:         p.Sex,
		Goal:        p.Goal,
		Experience:  p.Experience,
		DaysPerWeek: p.DaysPerWeek,
		WeightKG:    p.WeightKG,
		HeightCM:    p.HeightCM,
		Equipment:   p.Equipment,
		Conditions:  sortedKeys(p.Conditions),
		Lifestyle:   sortedKeys(p.Lifestyle),
		Medications: sortedKeys(p.Medications),
	}

	encoded, err := json.Marshal(canonical)
	if err != nil {
		// Marshalling a struct of plain fields cannot fail.
		panic(err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}

func ageBracketFor(age int) AgeBracket {
	switch {
	case age < 18:
		return AgeBracketYouth
	case age < 40:
		return AgeBracketAdult
	case age < 60:
		return AgeBracketMiddle
	default:
		return AgeBracketSenior
	}
}

func bmiBracketFor(bmi float64) BMIBracket {
	switch {
	case bmi <= 0:
		return BMIBracketUnknown
	case bmi < 18.5:
		return BMIBracketUnderweight
	case bmi < 25:
		return BMIBracketNormal
	case bmi < 30:
		return BMIBracketOverweight
	case bmi < 35:
		return BMIBracketObese1
	case bmi < 40:
		return BMIBracketObese2
	default:
		return BMIBracketObese3
	}
}

func normalizeSex(sex Sex) Sex {
	switch Sex(normalizeTag(string(sex))) {
	case SexMale:
		return SexMale
	case SexFemale:
		return SexFemale
	default:
		return SexUnspecified
	}
}

func normalizeTag(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func normalizeTagSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		clean := normalizeTag(v)
		if clean == "" {
			continue
		}
		set[clean] = struct{}{}
	}
	return set
}

func normalizeTagSlice(values []string) []string {
	set := normalizeTagSet(values)
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
