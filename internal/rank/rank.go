// Package rank derives a player's rank tier from their cumulative solve
// count. The tier table lives here and nowhere else; rank is always
// recomputed from the solve counter, never stored, so it cannot drift.
package rank

// Tier is one band of cumulative solve counts.
type Tier struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	MinSolves int    `json:"minSolves"`
	Color     string `json:"color"`
}

// tiers is ordered by strictly increasing MinSolves, starting at 0.
var tiers = []Tier{
	{Key: "beginner", Name: "Beginner", MinSolves: 0, Color: "gray"},
	{Key: "novice", Name: "Novice", MinSolves: 10, Color: "blue"},
	{Key: "advanced", Name: "Advanced", MinSolves: 25, Color: "amber"},
	{Key: "expert", Name: "Expert", MinSolves: 50, Color: "green"},
	{Key: "master", Name: "Master", MinSolves: 100, Color: "red"},
}

// Tiers returns a copy of the ordered tier table.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// Progress describes a player's position within the tier ladder.
// Next is nil at the top tier, with Fraction pinned to 1.
type Progress struct {
	Tier      Tier    `json:"tier"`
	Next      *Tier   `json:"next"`
	Fraction  float64 `json:"fraction"`
	Remaining int     `json:"remaining"`
}

// RankOf maps a solve count to the highest tier whose MinSolves does not
// exceed it, plus progress toward the next tier. Pure and side-effect free.
// Negative counts are treated as zero.
func RankOf(solves int) Progress {
	if solves < 0 {
		solves = 0
	}
	idx := 0
	for i, t := range tiers {
		if solves >= t.MinSolves {
			idx = i
		}
	}

	current := tiers[idx]
	if idx == len(tiers)-1 {
		return Progress{Tier: current, Fraction: 1}
	}

	next := tiers[idx+1]
	span := next.MinSolves - current.MinSolves
	frac := float64(solves-current.MinSolves) / float64(span)
	if frac > 1 {
		frac = 1
	}
	remaining := next.MinSolves - solves
	if remaining < 0 {
		remaining = 0
	}
	return Progress{Tier: current, Next: &next, Fraction: frac, Remaining: remaining}
}
