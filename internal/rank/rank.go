// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank combines match, prestige and cost into a final score and
// orders universities by it.
package rank

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/pdiddy/transfer-engine/pkg/types"
)

// WeightEpsilon is the tolerance allowed when checking that weights sum to 1.
const WeightEpsilon = 1e-6

// ErrInvalidWeights is returned when aggregation weights are unusable.
var ErrInvalidWeights = errors.New("invalid weights")

// ValidateWeights checks that each weight lies in [0,1] and that they sum
// to 1 within WeightEpsilon.
func ValidateWeights(w types.Weights) error {
	for name, v := range map[string]float64{"match": w.Match, "prestige": w.Prestige, "cost": w.Cost} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: %s weight %v outside [0,1]", ErrInvalidWeights, name, v)
		}
	}
	sum := w.Match + w.Prestige + w.Cost
	if math.Abs(sum-1) > WeightEpsilon {
		return fmt.Errorf("%w: weights sum to %.6f, want 1", ErrInvalidWeights, sum)
	}
	return nil
}

// Aggregate returns match*w_m + prestige*w_p + cost*w_c rounded to two
// decimals. Inputs are clamped to [0,100] so a missing or out-of-range
// dimension cannot push the result outside that range.
func Aggregate(match, prestige, cost float64, w types.Weights) float64 {
	final := Clamp(match)*w.Match + Clamp(prestige)*w.Prestige + Clamp(cost)*w.Cost
	return Round2(Clamp(final))
}

// Score fills FinalScore on every result and returns them ranked.
func Score(results []types.UniversityResult, w types.Weights) []types.UniversityResult {
	scored := make([]types.UniversityResult, len(results))
	for i, r := range results {
		r.FinalScore = Aggregate(r.MatchPct, r.Prestige.Score, r.Cost.Score, w)
		scored[i] = r
	}
	return Rank(scored)
}

// Rank sorts results by final score descending, breaking ties by match_pct
// descending and then by university name ascending, and assigns ranks
// starting at 1. The input slice is not modified.
func Rank(results []types.UniversityResult) []types.UniversityResult {
	ranked := make([]types.UniversityResult, len(results))
	copy(ranked, results)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		if a.MatchPct != b.MatchPct {
			return a.MatchPct > b.MatchPct
		}
		return a.University < b.University
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Clamp limits v to [0,100]; NaN becomes 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
