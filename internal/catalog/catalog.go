// Package catalog provides the read-only exercise reference lookup the
// reasoning engine queries for substitution candidates. The catalog is owned
// by the exercise reference service; this in-memory copy is seeded at startup
// and immutable afterwards.
package catalog

import "strings"

// Entry describes one reference exercise: the equipment it needs and the
// movements it can stand in for.
type Entry struct {
	Name          string
	Requires      []string
	SubstituteFor []string
}

// InMemory is a seeded, immutable substitution catalog. Safe for concurrent
// reads.
type InMemory struct {
	bySubstitute map[string][]Entry
}

// NewInMemory builds the catalog from the default seed.
func NewInMemory() *InMemory {
	return NewInMemoryFrom(seedEntries)
}

// NewInMemoryFrom builds a catalog from the provided entries.
func NewInMemoryFrom(entries []Entry) *InMemory {
	c := &InMemory{bySubstitute: make(map[string][]Entry)}
	for _, entry := range entries {
		for _, target := range entry.SubstituteFor {
			key := normalize(target)
			c.bySubstitute[key] = append(c.bySubstitute[key], entry)
		}
	}
	return c
}

// Substitutes returns the names of catalog entries that can replace the given
// exercise and are performable with the available equipment. Results follow
// seed order; unknown exercises yield nothing.
func (c *InMemory) Substitutes(exercise string, equipment []string) []string {
	entries := c.bySubstitute[normalize(exercise)]
	if len(entries) == 0 {
		return nil
	}

	available := make(map[string]struct{}, len(equipment))
	for _, tag := range equipment {
		available[normalize(tag)] = struct{}{}
	}

	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if performable(entry, available) {
			out = append(out, entry.Name)
		}
	}
	return out
}

func performable(entry Entry, available map[string]struct{}) bool {
	for _, requirement := range entry.Requires {
		if _, ok := available[normalize(requirement)]; !ok {
			return false
		}
	}
	return true
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// seedEntries is the default reference data. Bodyweight entries carry no
// equipment requirement so they remain available for every profile.
var seedEntries = []Entry{
	{Name: "Trap-bar deadlift", Requires: []string{"trap_bar"}, SubstituteFor: []string{"Deadlifts"}},
	{Name: "Hip hinge with dowel", SubstituteFor: []string{"Deadlifts", "Good mornings"}},
	{Name: "Plank", SubstituteFor: []string{"Sit-ups"}},
	{Name: "Cable crunch", Requires: []string{"cable_machine"}, SubstituteFor: []string{"Sit-ups"}},
	{Name: "Landmine press", Requires: []string{"barbell"}, SubstituteFor: []string{"Overhead press"}},
	{Name: "Wall slides", SubstituteFor: []string{"Overhead press", "Behind-the-neck press"}},
	{Name: "Dumbbell front raise", Requires: []string{"dumbbells"}, SubstituteFor: []string{"Upright rows"}},
	{Name: "Leg press", Requires: []string{"leg_press_machine"}, SubstituteFor: []string{"Jump squats"}},
	{Name: "Reverse lunge to box", SubstituteFor: []string{"Walking lunges", "Box jumps"}},
	{Name: "Farmer carry", Requires: []string{"dumbbells"}, SubstituteFor: []string{"Heavy isometric holds"}},
}
