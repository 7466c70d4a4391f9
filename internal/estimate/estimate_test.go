// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package estimate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/transfer-engine/internal/evidence"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

// --- prestige ---

func TestPrestigeBuiltIn(t *testing.T) {
	p := NewPrestige(nil)
	tests := []struct {
		name  string
		score float64
	}{
		{"Universidad Politécnica de Madrid", 90},
		{"UPM", 90},
		{"Universitat Politècnica de Catalunya (UPC)", 88},
		{"Universitat Politècnica de València", 85},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := p.Score(tt.name)
			assert.Equal(t, types.DimensionPrestige, s.Dimension)
			assert.Equal(t, tt.score, s.Score)
			assert.Equal(t, types.ConfidenceMedium, s.Confidence)
			require.Len(t, s.Sources, 1)
			assert.Contains(t, s.Sources[0], "built-in prestige table")
		})
	}
}

func TestPrestigeNeutralDefault(t *testing.T) {
	s := NewPrestige(nil).Estimate(context.Background(), types.Target{Name: "Universidad de Granada"})
	assert.Equal(t, NeutralPrestige, s.Score)
	assert.Equal(t, types.ConfidenceLow, s.Confidence)
	assert.Equal(t, []string{neutralPrestigeSource}, s.Sources)
}

func TestPrestigeAcronymNeedsWholeWord(t *testing.T) {
	s := NewPrestige(nil).Score("Groupmind Academy")
	assert.Equal(t, NeutralPrestige, s.Score)
}

func TestPrestigeOverridesFirst(t *testing.T) {
	p := NewPrestige([]types.PrestigeRule{
		{Patterns: []string{"UPM"}, Score: 95, Source: "mission override", Confidence: types.ConfidenceHigh},
		{Patterns: []string{"granada"}, Score: 140, Source: "typo"},
	})

	s := p.Score("Universidad Politécnica de Madrid (UPM)")
	assert.Equal(t, 95.0, s.Score)
	assert.Equal(t, types.ConfidenceHigh, s.Confidence)
	assert.Equal(t, []string{"mission override"}, s.Sources)

	s = p.Score("Universidad de Granada")
	assert.Equal(t, 100.0, s.Score, "scores are clamped")
	assert.Equal(t, types.ConfidenceMedium, s.Confidence)
}

// --- cost ---

type fakeDocs struct {
	body  string
	err   error
	calls []string
}

func (f *fakeDocs) Get(_ context.Context, url string, _ bool) (evidence.Document, error) {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return evidence.Document{}, f.err
	}
	return evidence.Document{URL: url, Body: []byte(f.body)}, nil
}

func costConfig() types.CostConfig {
	return types.CostConfig{
		BaseURL:          "https://www.numbeo.com/cost-of-living/in/",
		Currency:         "EUR",
		CheapMonthly:     700,
		ExpensiveMonthly: 1500,
		Scrape:           true,
	}
}

const fullPage = `<html><body><table class="data_wide_table">
<tr><th>Restaurants</th><th>Avg.</th></tr>
<tr><td>Meal, Inexpensive Restaurant</td><td>15.00&nbsp;€</td></tr>
<tr><td>Monthly Pass (Regular Price)</td><td>50.00 €</td><td>40.00-60.00</td></tr>
<tr><td>Basic (Electricity, Heating, Cooling, Water, Garbage) for 85m2 Apartment</td><td>150.00 €</td></tr>
<tr><td>Internet (60 Mbps or More, Unlimited Data, Cable/ADSL)</td><td>40.00 €</td></tr>
<tr><td>Fitness Club, Monthly Fee for 1 Adult</td><td>30.00 €</td></tr>
<tr><td>Apartment (1 bedroom) in City Centre</td><td>1,400.00 €</td></tr>
<tr><td>Apartment (1 bedroom) Outside of Centre</td><td>1,000.00 €</td></tr>
</table></body></html>`

func TestParsePrices(t *testing.T) {
	prices, err := ParsePrices([]byte(fullPage))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{
		"rent": 1000, "meal": 15, "transport": 50, "utilities": 150, "internet": 40, "gym": 30,
	}, prices)
}

func TestCostScrapedHigh(t *testing.T) {
	docs := &fakeDocs{body: fullPage}
	c := NewCost(costConfig(), docs, false, zaptest.NewLogger(t))

	b, s := c.Assess(context.Background(), "Santa Cruz")

	assert.Equal(t, []string{"https://www.numbeo.com/cost-of-living/in/Santa-Cruz"}, docs.calls)
	assert.Equal(t, types.ConfidenceHigh, b.Confidence)
	assert.Equal(t, types.ConfidenceHigh, s.Confidence)
	assert.Equal(t, types.DimensionCost, s.Dimension)

	assert.InDelta(t, 600*0.85, b.Components[types.CostHousing].Min, 1e-9)
	assert.InDelta(t, 450*1.15, b.Components[types.CostFood].Max, 1e-9)
	assert.InDelta(t, 115.0, b.Components[types.CostUtilities].Mid(), 1e-9)
	assert.InDelta(t, 70.0, b.Components[types.CostLeisure].Mid(), 1e-9)
	assert.InDelta(t, 1092.25, b.TotalMin, 1e-6)
	assert.InDelta(t, 1477.75, b.TotalMax, 1e-6)
	assert.InDelta(t, 1285.0, b.TotalMonthly, 1e-6)
	assert.InDelta(t, 26.88, s.Score, 1e-6)
	assert.Equal(t, "monthly 1092-1478 EUR", s.Notes)
	assert.Len(t, b.Components, len(types.CostCategories))
}

func TestCostPartialScrapeMedium(t *testing.T) {
	docs := &fakeDocs{body: `<table class="data_wide_table"><tr><td>Apartment (1 bedroom) Outside of Centre</td><td>500.00 €</td></tr></table>`}
	b, s := NewCost(costConfig(), docs, false, nil).Assess(context.Background(), "Granada")

	assert.Equal(t, types.ConfidenceMedium, s.Confidence)
	assert.InDelta(t, 300.0, b.Components[types.CostHousing].Mid(), 1e-9)
	assert.InDelta(t, 330.0, b.Components[types.CostFood].Mid(), 1e-9, "meal comes from the Granada fallback")
}

func TestCostFallback(t *testing.T) {
	tests := []struct {
		name    string
		cfg     func(types.CostConfig) types.CostConfig
		docs    *fakeDocs
		city    string
		monthly float64
		score   float64
	}{
		{"fetch error", nil, &fakeDocs{err: errors.New("403")}, "Madrid", 1370, 16.25},
		{"page without prices", nil, &fakeDocs{body: "<html>blocked</html>"}, "Granada", 908, 74},
		{"scrape disabled", func(c types.CostConfig) types.CostConfig { c.Scrape = false; return c }, &fakeDocs{}, "Madrid", 1370, 16.25},
		{"unknown city uses default", nil, &fakeDocs{err: errors.New("404")}, "Teruel", 1000.5, 62.44},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := costConfig()
			if tt.cfg != nil {
				cfg = tt.cfg(cfg)
			}
			b, s := NewCost(cfg, tt.docs, false, nil).Assess(context.Background(), tt.city)

			assert.Equal(t, types.ConfidenceLow, s.Confidence)
			assert.Equal(t, types.ConfidenceLow, b.Confidence)
			assert.Contains(t, s.Sources[0], "built-in fallback estimates")
			assert.InDelta(t, tt.monthly, b.TotalMonthly, 0.02)
			assert.InDelta(t, tt.score, s.Score, 0.01)
		})
	}
}

func TestCostNoCityNeverFetches(t *testing.T) {
	docs := &fakeDocs{}
	s := NewCost(costConfig(), docs, false, nil).Estimate(context.Background(), types.Target{Name: "X"})
	assert.Empty(t, docs.calls)
	assert.Equal(t, types.ConfidenceLow, s.Confidence)
	assert.Contains(t, s.Sources[0], "unknown city")
}

func TestCostScoreMonotonic(t *testing.T) {
	c := NewCost(types.CostConfig{}, nil, false, nil)
	assert.Equal(t, 100.0, c.Score(500))
	assert.Equal(t, 100.0, c.Score(700))
	assert.Equal(t, 50.0, c.Score(1100))
	assert.Equal(t, 0.0, c.Score(1500))
	assert.Equal(t, 0.0, c.Score(2500))

	prev := c.Score(700)
	for m := 710.0; m <= 1500; m += 10 {
		cur := c.Score(m)
		assert.Less(t, cur, prev, "score at %v", m)
		prev = cur
	}
}
