// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/transfer-engine/pkg/types"
)

func TestValidateWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights types.Weights
		wantErr bool
	}{
		{"defaults", types.DefaultWeights, false},
		{"all match", types.Weights{Match: 1}, false},
		{"within epsilon", types.Weights{Match: 0.5, Prestige: 0.3, Cost: 0.2000000001}, false},
		{"sum too low", types.Weights{Match: 0.5, Prestige: 0.3, Cost: 0.1}, true},
		{"sum too high", types.Weights{Match: 0.6, Prestige: 0.3, Cost: 0.2}, true},
		{"negative", types.Weights{Match: 1.2, Prestige: -0.2}, true},
		{"zero", types.Weights{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWeights(tt.weights)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidWeights)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAggregate_WeightedSum(t *testing.T) {
	w := types.Weights{Match: 0.55, Prestige: 0.25, Cost: 0.20}
	assert.Equal(t, 77.0, Aggregate(80, 60, 90, w))
}

func TestAggregate_StaysInRange(t *testing.T) {
	w := types.DefaultWeights
	for _, in := range [][3]float64{{0, 0, 0}, {100, 100, 100}, {150, -20, 50}, {33.333, 66.666, 99.999}} {
		got := Aggregate(in[0], in[1], in[2], w)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 100.0)
	}
	assert.Equal(t, 100.0, Aggregate(100, 100, 100, w))
}

func TestRank_OrderAndTieBreaks(t *testing.T) {
	in := []types.UniversityResult{
		{University: "Zaragoza", FinalScore: 70, MatchPct: 50},
		{University: "Alcalá", FinalScore: 70, MatchPct: 50},
		{University: "Madrid", FinalScore: 70, MatchPct: 80},
		{University: "Sevilla", FinalScore: 90, MatchPct: 10},
	}

	ranked := Rank(in)
	names := make([]string, len(ranked))
	for i, r := range ranked {
		names[i] = r.University
		assert.Equal(t, i+1, r.Rank)
	}
	assert.Equal(t, []string{"Sevilla", "Madrid", "Alcalá", "Zaragoza"}, names)
	assert.Equal(t, "Zaragoza", in[0].University, "input must not be reordered")
}

func TestRank_Deterministic(t *testing.T) {
	in := []types.UniversityResult{
		{University: "B", FinalScore: 50, MatchPct: 20},
		{University: "A", FinalScore: 50, MatchPct: 20},
		{University: "C", FinalScore: 60},
	}
	first := Rank(in)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Rank(in))
	}
}

func TestScore_FillsFinalScore(t *testing.T) {
	in := []types.UniversityResult{
		{University: "UPM", MatchPct: 80, Prestige: types.DimensionScore{Score: 60}, Cost: types.DimensionScore{Score: 90}},
		{University: "Nowhere", MatchPct: 0, Prestige: types.DimensionScore{Score: 50}, Cost: types.DimensionScore{Score: 50}},
	}
	out := Score(in, types.Weights{Match: 0.55, Prestige: 0.25, Cost: 0.20})
	require.Len(t, out, 2)
	assert.Equal(t, "UPM", out[0].University)
	assert.Equal(t, 77.0, out[0].FinalScore)
	assert.Equal(t, 22.5, out[1].FinalScore)
	assert.Equal(t, 2, out[1].Rank)
}
