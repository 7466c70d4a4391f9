// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files.
// Each file holds one secret: the filename is the key name and the
// trimmed contents are the value.
//
// Recognized key files: serper-api-key, gemini-api-key, anthropic-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/transfer-engine/pkg/types"
)

// Key file names.
const (
	SerperAPIKey    = "serper-api-key"
	GeminiAPIKey    = "gemini-api-key"
	AnthropicAPIKey = "anthropic-api-key"
)

// providerKeys maps a semantic provider to the secret holding its key.
var providerKeys = map[string]string{
	"gemini": GeminiAPIKey,
	"claude": AnthropicAPIKey,
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory is not an error; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply fills API keys that cfg leaves empty from s. Keys set through
// configuration or the environment win.
func Apply(cfg *types.Config, s map[string]string) {
	if cfg.Search.SerperAPIKey == "" {
		cfg.Search.SerperAPIKey = s[SerperAPIKey]
	}
	if cfg.AI.APIKey == "" {
		if name, ok := providerKeys[strings.ToLower(cfg.AI.Provider)]; ok {
			cfg.AI.APIKey = s[name]
		}
	}
}
