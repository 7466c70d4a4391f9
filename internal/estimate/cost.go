// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package estimate

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/pdiddy/transfer-engine/internal/rank"
	"github.com/pdiddy/transfer-engine/internal/textutil"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

// Price keys read from a cost-of-living page.
const (
	priceRent      = "rent"
	priceMeal      = "meal"
	priceTransport = "transport"
	priceUtilities = "utilities"
	priceInternet  = "internet"
	priceGym       = "gym"
)

var priceKeys = []string{priceRent, priceMeal, priceTransport, priceUtilities, priceInternet, priceGym}

// priceRow maps a table label to a price key. The row matches when every
// needle of any one set occurs in the lowercased label.
type priceRow struct {
	key     string
	needles [][]string
}

var priceRows = []priceRow{
	{priceRent, [][]string{{"apartment (1 bedroom) outside of centre"}}},
	{priceMeal, [][]string{{"meal, inexpensive restaurant"}}},
	{priceTransport, [][]string{{"monthly pass"}}},
	{priceInternet, [][]string{{"internet"}}},
	{priceUtilities, [][]string{{"utilities", "basic"}, {"basic (electricity"}}},
	{priceGym, [][]string{{"fitness club"}}},
}

var fallbackCities = []string{"madrid", "barcelona", "valencia", "sevilla", "granada", "zaragoza"}

// cityPrices are fallback mid prices used when a city page cannot be
// scraped. The empty key holds the default.
var cityPrices = map[string]map[string]float64{
	"madrid":    {priceRent: 1200, priceMeal: 14, priceTransport: 55, priceUtilities: 120, priceInternet: 40, priceGym: 35},
	"barcelona": {priceRent: 1150, priceMeal: 14, priceTransport: 45, priceUtilities: 120, priceInternet: 40, priceGym: 35},
	"valencia":  {priceRent: 900, priceMeal: 12, priceTransport: 40, priceUtilities: 110, priceInternet: 38, priceGym: 30},
	"sevilla":   {priceRent: 800, priceMeal: 12, priceTransport: 35, priceUtilities: 105, priceInternet: 38, priceGym: 30},
	"granada":   {priceRent: 650, priceMeal: 11, priceTransport: 35, priceUtilities: 100, priceInternet: 35, priceGym: 28},
	"zaragoza":  {priceRent: 700, priceMeal: 12, priceTransport: 35, priceUtilities: 105, priceInternet: 35, priceGym: 28},
	"":          {priceRent: 750, priceMeal: 12, priceTransport: 35, priceUtilities: 105, priceInternet: 35, priceGym: 28},
}

// component derives one cost category's mid value from prices.
type component struct {
	category types.CostCategory
	mid      func(p map[string]float64) float64
}

// components decompose prices into a student budget in a shared room.
var components = []component{
	{types.CostHousing, func(p map[string]float64) float64 { return p[priceRent] * 0.6 }},
	{types.CostFood, func(p map[string]float64) float64 { return p[priceMeal] * 30 }},
	{types.CostTransport, func(p map[string]float64) float64 { return p[priceTransport] }},
	{types.CostUtilities, func(p map[string]float64) float64 { return p[priceUtilities]*0.5 + p[priceInternet] }},
	{types.CostLeisure, func(p map[string]float64) float64 { return p[priceGym] + 40 }},
}

const (
	rangeLow  = 0.85
	rangeHigh = 1.15
)

// Cost estimates monthly living cost from a cost-of-living site and
// scores it.
type Cost struct {
	cfg     types.CostConfig
	docs    DocumentGetter
	refresh bool
	log     *zap.Logger
}

// NewCost returns a Cost estimator. docs may be nil, in which case only
// the fallback table is used. refresh bypasses cached pages.
func NewCost(cfg types.CostConfig, docs DocumentGetter, refresh bool, logger *zap.Logger) *Cost {
	if cfg.CheapMonthly == 0 && cfg.ExpensiveMonthly == 0 {
		cfg.CheapMonthly, cfg.ExpensiveMonthly = 700, 1500
	}
	if cfg.Currency == "" {
		cfg.Currency = "EUR"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cost{cfg: cfg, docs: docs, refresh: refresh, log: logger}
}

// Estimate implements Estimator.
func (c *Cost) Estimate(ctx context.Context, target types.Target) types.DimensionScore {
	_, score := c.Assess(ctx, target.City)
	return score
}

// CityURL returns the cost-of-living page for a city.
func (c *Cost) CityURL(city string) string {
	base := c.cfg.BaseURL
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.ReplaceAll(strings.TrimSpace(city), " ", "-")
}

// Assess returns the monthly breakdown for city and its cost score.
func (c *Cost) Assess(ctx context.Context, city string) (types.CostBreakdown, types.DimensionScore) {
	prices, source, conf := c.prices(ctx, city)

	b := types.CostBreakdown{
		City:       city,
		Currency:   c.cfg.Currency,
		Components: make(map[types.CostCategory]types.CostRange, len(components)),
		Source:     source,
		Confidence: conf,
	}
	for _, comp := range components {
		mid := comp.mid(prices)
		r := types.CostRange{
			Min:     rank.Round2(mid * rangeLow),
			Max:     rank.Round2(mid * rangeHigh),
			Sources: []string{source},
		}
		b.Components[comp.category] = r
		b.TotalMin += r.Min
		b.TotalMax += r.Max
	}
	b.TotalMin = rank.Round2(b.TotalMin)
	b.TotalMax = rank.Round2(b.TotalMax)
	b.TotalMonthly = rank.Round2((b.TotalMin + b.TotalMax) / 2)

	score := types.DimensionScore{
		Dimension:  types.DimensionCost,
		Score:      c.Score(b.TotalMonthly),
		Sources:    []string{source},
		Confidence: conf,
		Notes:      fmt.Sprintf("monthly %.0f-%.0f %s", b.TotalMin, b.TotalMax, b.Currency),
	}
	return b, score
}

// Score maps a monthly cost to 0-100: CheapMonthly or less scores 100,
// ExpensiveMonthly or more scores 0, linear in between.
func (c *Cost) Score(monthly float64) float64 {
	span := c.cfg.ExpensiveMonthly - c.cfg.CheapMonthly
	if span <= 0 {
		if monthly <= c.cfg.CheapMonthly {
			return 100
		}
		return 0
	}
	return clamp(100 * (c.cfg.ExpensiveMonthly - monthly) / span)
}

// prices returns mid prices for city with their source and confidence.
// A complete scrape is HIGH, a partial one is MEDIUM with the gaps taken
// from the fallback table, and no scrape is LOW.
func (c *Cost) prices(ctx context.Context, city string) (map[string]float64, string, types.Confidence) {
	fallback := fallbackPrices(city)
	fallbackSource := fmt.Sprintf("built-in fallback estimates for %s", cityLabel(city))

	if strings.TrimSpace(city) == "" || !c.cfg.Scrape || c.docs == nil || c.cfg.BaseURL == "" {
		return fallback, fallbackSource, types.ConfidenceLow
	}

	u := c.CityURL(city)
	doc, err := c.docs.Get(ctx, u, c.refresh)
	if err != nil {
		c.log.Warn("cost page fetch failed", zap.String("city", city), zap.String("url", u), zap.Error(err))
		return fallback, fallbackSource, types.ConfidenceLow
	}
	scraped, err := ParsePrices(doc.Body)
	if err != nil || len(scraped) == 0 {
		c.log.Warn("cost page had no prices", zap.String("city", city), zap.String("url", u), zap.Error(err))
		return fallback, fallbackSource, types.ConfidenceLow
	}

	conf := types.ConfidenceHigh
	for _, k := range priceKeys {
		if _, ok := scraped[k]; !ok {
			scraped[k] = fallback[k]
			conf = types.ConfidenceMedium
		}
	}
	return scraped, u, conf
}

// ParsePrices reads item prices from a cost-of-living table.
func ParsePrices(body []byte) (map[string]float64, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing cost page: %w", err)
	}

	prices := make(map[string]float64)
	doc.Find("table.data_wide_table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		label := strings.ToLower(strings.TrimSpace(cells.Eq(0).Text()))
		price, ok := parsePrice(cells.Eq(1).Text())
		if !ok {
			return
		}
		for _, pr := range priceRows {
			if _, seen := prices[pr.key]; seen {
				continue
			}
			for _, set := range pr.needles {
				if containsAll(label, set) {
					prices[pr.key] = price
					return
				}
			}
		}
	})
	return prices, nil
}

func parsePrice(s string) (float64, bool) {
	s = strings.NewReplacer("€", "", ",", "", " ", "", "$", "").Replace(s)
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

func containsAll(s string, needles []string) bool {
	for _, n := range needles {
		if !strings.Contains(s, n) {
			return false
		}
	}
	return true
}

func fallbackPrices(city string) map[string]float64 {
	key := cityKey(city)
	out := make(map[string]float64, len(priceKeys))
	for k, v := range cityPrices[key] {
		out[k] = v
	}
	return out
}

// cityKey returns the fallback table key for city, or "" for the default.
func cityKey(city string) string {
	folded := textutil.Fold(city)
	for _, k := range fallbackCities {
		if strings.Contains(folded, k) {
			return k
		}
	}
	return ""
}

func cityLabel(city string) string {
	if k := cityKey(city); k != "" {
		return k
	}
	if strings.TrimSpace(city) == "" {
		return "unknown city (default)"
	}
	return city + " (default)"
}
