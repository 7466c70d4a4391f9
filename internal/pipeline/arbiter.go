// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/transfer-engine/internal/judge"
	"github.com/pdiddy/transfer-engine/internal/match"
	"github.com/pdiddy/transfer-engine/internal/report"
	"github.com/pdiddy/transfer-engine/pkg/types"
)

// NewArbiter builds the arbitration strategy and narrative summarizer for
// cfg. With no provider configured, ambiguous courses are resolved
// conservatively and the summarizer is nil. A configured provider that
// cannot be built yields an arbiter that always fails, so ambiguous
// matches are flagged as degraded.
func NewArbiter(ctx context.Context, cfg types.AIConfig, client *http.Client, logger *zap.Logger) (match.Arbiter, report.Summarizer) {
	if logger == nil {
		logger = zap.NewNop()
	}
	j, err := judge.New(ctx, cfg, client, logger)
	switch {
	case errors.Is(err, judge.ErrDisabled):
		return match.Conservative{}, nil
	case err != nil:
		logger.Warn("semantic provider unavailable", zap.String("provider", cfg.Provider), zap.Error(err))
		return match.Unavailable{Provider: cfg.Provider, Err: err}, nil
	}
	return j, j
}
