// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Dimension names a non-curriculum scoring axis.
type Dimension string

const (
	DimensionPrestige Dimension = "prestige"
	DimensionCost     Dimension = "cost"
)

// Confidence grades how much evidence backs a dimension score.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// DimensionScore is a 0-100 estimate with the sources it was derived from.
type DimensionScore struct {
	Dimension  Dimension  `json:"dimension" yaml:"dimension"`
	Score      float64    `json:"score" yaml:"score"`
	Sources    []string   `json:"sources" yaml:"sources"`
	Confidence Confidence `json:"confidence" yaml:"confidence"`
	Notes      string     `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// CostCategory is one component of monthly living cost.
type CostCategory string

const (
	CostHousing   CostCategory = "Housing"
	CostFood      CostCategory = "Food"
	CostTransport CostCategory = "Transport"
	CostUtilities CostCategory = "Utilities"
	CostLeisure   CostCategory = "Leisure"
)

// CostCategories lists the components in reporting order.
var CostCategories = []CostCategory{CostHousing, CostFood, CostTransport, CostUtilities, CostLeisure}

// CostRange is the estimated monthly range for one cost component.
type CostRange struct {
	Min     float64  `json:"min" yaml:"min"`
	Max     float64  `json:"max" yaml:"max"`
	Sources []string `json:"sources" yaml:"sources"`
}

// Mid returns the midpoint of the range.
func (r CostRange) Mid() float64 { return (r.Min + r.Max) / 2 }

// CostBreakdown is a city's monthly student living cost split by component.
type CostBreakdown struct {
	City         string                     `json:"city" yaml:"city"`
	Currency     string                     `json:"currency" yaml:"currency"`
	Components   map[CostCategory]CostRange `json:"components" yaml:"components"`
	TotalMin     float64                    `json:"total_min" yaml:"total_min"`
	TotalMax     float64                    `json:"total_max" yaml:"total_max"`
	TotalMonthly float64                    `json:"total_monthly" yaml:"total_monthly"`
	Source       string                     `json:"source" yaml:"source"`
	Confidence   Confidence                 `json:"confidence" yaml:"confidence"`
}

// LivingCostArtifact is the persisted output of the cost stage.
type LivingCostArtifact struct {
	RunID       string         `json:"run_id" yaml:"run_id"`
	University  string         `json:"university" yaml:"university"`
	GeneratedAt time.Time      `json:"generated_at" yaml:"generated_at"`
	Breakdown   CostBreakdown  `json:"breakdown" yaml:"breakdown"`
	Score       DimensionScore `json:"score" yaml:"score"`
}

// PrestigeArtifact is the persisted output of the prestige stage.
type PrestigeArtifact struct {
	RunID       string         `json:"run_id" yaml:"run_id"`
	University  string         `json:"university" yaml:"university"`
	GeneratedAt time.Time      `json:"generated_at" yaml:"generated_at"`
	Score       DimensionScore `json:"score" yaml:"score"`
}

// PrestigeRule assigns a prestige score to universities whose name contains
// any of Patterns (accent and case insensitive).
type PrestigeRule struct {
	Patterns   []string   `json:"patterns" yaml:"patterns"`
	Score      float64    `json:"score" yaml:"score"`
	Source     string     `json:"source" yaml:"source"`
	Confidence Confidence `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}
