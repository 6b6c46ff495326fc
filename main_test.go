package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/config"
)

func TestResolveConfigPath(t *testing.T) {
	t.Run("CONFIG_PATH wins", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", "/etc/gomoku/config.yml")

		assert.Equal(t, "/etc/gomoku/config.yml", resolveConfigPath())
	})

	t.Run("Defaults to the working directory", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", "")

		wd, err := os.Getwd()
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(wd, "config.yml"), resolveConfigPath())
	})
}

func TestInitLogger(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}

	for name, level := range tests {
		logger := initLogger(&config.Config{LogLevel: name})

		assert.True(t, logger.Enabled(context.Background(), level), name)
		assert.False(t, logger.Enabled(context.Background(), level-1), name)
	}
}
