// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestZapConfig(t *testing.T) {
	tests := []struct {
		name     string
		json     bool
		debug    bool
		encoding string
		level    zapcore.Level
	}{
		{"console info", false, false, "console", zapcore.InfoLevel},
		{"json info", true, false, "json", zapcore.InfoLevel},
		{"console debug", false, true, "console", zapcore.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := zapConfig(tt.json, tt.debug)
			assert.Equal(t, tt.encoding, cfg.Encoding)
			assert.Equal(t, tt.level, cfg.Level.Level())
			assert.Equal(t, "step", cfg.EncoderConfig.MessageKey)
			assert.Equal(t, []string{"stderr"}, cfg.OutputPaths)
		})
	}
}

func TestNew(t *testing.T) {
	l, err := New(true, true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}
