// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package estimate scores the non-curriculum dimensions of a target
// university on a 0 to 100 scale. Estimators never fail: missing data
// yields a neutral or fallback score with LOW confidence and a source
// that says so.
package estimate

import (
	"context"
	"unicode"

	"github.com/pdiddy/transfer-engine/internal/evidence"
	"github.com/pdiddy/transfer-engine/internal/rank"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

// Estimator scores one dimension for a target university.
type Estimator interface {
	Estimate(ctx context.Context, target types.Target) types.DimensionScore
}

// DocumentGetter returns documents by URL, from cache or origin.
type DocumentGetter interface {
	Get(ctx context.Context, url string, refresh bool) (evidence.Document, error)
}

func clamp(v float64) float64 { return rank.Round2(rank.Clamp(v)) }

func notAlnum(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }
