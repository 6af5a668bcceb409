package engine

import "sort"

// ResolvedSet is the conflict-free, tier-ordered instruction collection, one
// list per output category.
type ResolvedSet struct {
	Safety            []string
	Workout           []string
	Meal              []string
	Behavioral        []string
	Contraindications []string
	Medical           []string
}

// ConflictWarning records a same-tier contradiction that was settled by table
// order. These indicate a table-authoring defect; the hosting application
// logs and counts them, they are never surfaced as errors.
type ConflictWarning struct {
	Target  string
	Kept    Candidate
	Dropped Candidate
}

// Resolve applies the fixed tier hierarchy to the candidate set:
//
//  1. Direct contradictions (same target, opposite stance): the higher-tier
//     candidate wins; the loser is dropped silently.
//  2. Same-tier duplicates: unioned, never arbitrarily discarded.
//  3. Unaffected candidates pass through.
//  4. Equal-tier contradictions fall back to table order
//     {risk, age, bmi, condition, time, goal} and produce a warning.
//
// Surviving instructions are grouped by category, ordered by tier and then by
// first appearance.
func Resolve(candidates []Candidate) (ResolvedSet, []ConflictWarning) {
	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Tier != ordered[j].Tier {
			return ordered[i].Tier < ordered[j].Tier
		}
		return tableRank[ordered[i].Table] < tableRank[ordered[j].Table]
	})

	dropped, warnings := resolveContradictions(ordered)

	set := ResolvedSet{
		Safety:            []string{},
		Workout:           []string{},
		Meal:              []string{},
		Behavioral:        []string{},
		Contraindications: []string{},
		Medical:           []string{},
	}
	seen := make(map[Category]map[string]struct{})
	for i, candidate := range ordered {
		if _, skip := dropped[i]; skip {
			continue
		}
		if seen[candidate.Category] == nil {
			seen[candidate.Category] = make(map[string]struct{})
		}
		if _, dup := seen[candidate.Category][candidate.Text]; dup {
			continue
		}
		seen[candidate.Category][candidate.Text] = struct{}{}
		set.append(candidate)
	}
	return set, warnings
}

// resolveContradictions finds include/avoid pairs over the same target. The
// winner is the stanced candidate ranked first in the tier-sorted order; every
// opposite-stance candidate in the group is dropped.
func resolveContradictions(ordered []Candidate) (map[int]struct{}, []ConflictWarning) {
	groups := make(map[string][]int)
	for i, candidate := range ordered {
		if candidate.Stance == "" || candidate.Target == "" {
			continue
		}
		groups[candidate.Target] = append(groups[candidate.Target], i)
	}

	targets := make([]string, 0, len(groups))
	for target := range groups {
		targets = append(targets, target)
	}
	sort.Strings(targets)

	dropped := make(map[int]struct{})
	var warnings []ConflictWarning
	for _, target := range targets {
		indexes := groups[target]
		winner := ordered[indexes[0]]
		for _, idx := range indexes[1:] {
			loser := ordered[idx]
			if loser.Stance == winner.Stance {
				continue
			}
			dropped[idx] = struct{}{}
			if loser.Tier == winner.Tier {
				warnings = append(warnings, ConflictWarning{Target: target, Kept: winner, Dropped: loser})
			}
		}
	}
	return dropped, warnings
}

func (s *ResolvedSet) append(candidate Candidate) {
	switch candidate.Category {
	case CategorySafety:
		s.Safety = append(s.Safety, candidate.Text)
	case CategoryWorkout:
		s.Workout = append(s.Workout, candidate.Text)
	case CategoryMeal:
		s.Meal = append(s.Meal, candidate.Text)
	case CategoryBehavioral:
		s.Behavioral = append(s.Behavioral, candidate.Text)
	case CategoryContraindication:
		s.Contraindications = append(s.Contraindications, candidate.Text)
	case CategoryMedical:
		s.Medical = append(s.Medical, candidate.Text)
	}
}
