package logging

import (
	"os"
	"path/filepath"
	"testing"

	"campusmarket/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	logger, err := New(config.LogConfig{Mode: "production", File: path})
	require.NoError(t, err)

	logger.Info("order placed")
	_ = logger.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"order placed"`)
}

func TestNew_StdoutOnly(t *testing.T) {
	logger, err := New(config.LogConfig{Mode: "development"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
