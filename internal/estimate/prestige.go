// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package estimate

import (
	"context"
	"slices"
	"strings"

	"github.com/pdiddy/transfer-engine/internal/textutil"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

// NeutralPrestige is the score given to universities no rule covers.
const NeutralPrestige = 50.0

const neutralPrestigeSource = "neutral default: no prestige rule matched"

// DefaultPrestigeRules is the built-in prestige table.
var DefaultPrestigeRules = []types.PrestigeRule{
	{
		Patterns:   []string{"politecnica de madrid", "upm"},
		Score:      90,
		Source:     "built-in prestige table: Universidad Politécnica de Madrid",
		Confidence: types.ConfidenceMedium,
	},
	{
		Patterns:   []string{"politecnica de catalunya", "upc"},
		Score:      88,
		Source:     "built-in prestige table: Universitat Politècnica de Catalunya",
		Confidence: types.ConfidenceMedium,
	},
	{
		Patterns:   []string{"politecnica de valencia", "upv"},
		Score:      85,
		Source:     "built-in prestige table: Universitat Politècnica de València",
		Confidence: types.ConfidenceMedium,
	},
}

// Prestige scores universities from a rule table. Rules are tried in
// order and the first whose pattern occurs in the name wins.
type Prestige struct {
	rules []types.PrestigeRule
}

// NewPrestige returns a Prestige estimator that tries overrides before
// the built-in rules.
func NewPrestige(overrides []types.PrestigeRule) *Prestige {
	return &Prestige{rules: slices.Concat(overrides, DefaultPrestigeRules)}
}

// Estimate implements Estimator.
func (p *Prestige) Estimate(_ context.Context, target types.Target) types.DimensionScore {
	return p.Score(target.Name)
}

// Score returns the prestige score for a university name.
func (p *Prestige) Score(name string) types.DimensionScore {
	folded := " " + strings.Join(strings.FieldsFunc(textutil.Fold(name), notAlnum), " ") + " "
	for _, r := range p.rules {
		for _, pat := range r.Patterns {
			fp := strings.Join(strings.FieldsFunc(textutil.Fold(pat), notAlnum), " ")
			if fp == "" || !strings.Contains(folded, " "+fp+" ") {
				continue
			}
			conf := r.Confidence
			if conf == "" {
				conf = types.ConfidenceMedium
			}
			return types.DimensionScore{
				Dimension:  types.DimensionPrestige,
				Score:      clamp(r.Score),
				Sources:    []string{r.Source},
				Confidence: conf,
				Notes:      "matched pattern " + pat,
			}
		}
	}
	return types.DimensionScore{
		Dimension:  types.DimensionPrestige,
		Score:      NeutralPrestige,
		Sources:    []string{neutralPrestigeSource},
		Confidence: types.ConfidenceLow,
	}
}
