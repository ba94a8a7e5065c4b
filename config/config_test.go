package config

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
)

var sampleConfigData = []byte(`debug = false
db_path = "inventory.db"
journal_dir = "journals"
dedupe_mode = "move"
prefer_lossless = true
confidence_threshold = 0.85
auto_accept_above = 0.9
require_review_below = 0.75
jobs = 4
`)

func chdirTemp(t *testing.T) string {
	tempPath, err := os.MkdirTemp("", "audio-tools-")
	assert.NoError(t, err)

	workingDir, err := os.Getwd()
	assert.NoError(t, err)
	assert.NoError(t, os.Chdir(tempPath))

	t.Cleanup(func() {
		_ = os.Chdir(workingDir)
		_ = os.RemoveAll(tempPath)
	})

	return tempPath
}

func TestLoadCreatesDefaultConfig(t *testing.T) {
	tempPath := chdirTemp(t)

	config, err := Load(sampleConfigData)
	assert.NoError(t, err)
	assert.FileExists(t, path.Join(tempPath, "config.toml"))

	assert.False(t, config.IsDebug)
	assert.Equal(t, "inventory.db", config.DBPath)
	assert.Equal(t, "journals", config.JournalDir)
	assert.Equal(t, "move", config.DedupeMode)
	assert.True(t, config.PreferLossless)
	assert.Equal(t, 0.85, config.ConfidenceThreshold)
	assert.Equal(t, 0.9, config.AutoAcceptAbove)
	assert.Equal(t, 0.75, config.RequireReviewBelow)
	assert.Equal(t, int64(4), config.Jobs)
}

func TestLoadKeepsExistingConfig(t *testing.T) {
	chdirTemp(t)

	existing := []byte("debug = true\ndedupe_mode = \"delete\"\njobs = 8\n")
	assert.NoError(t, os.WriteFile("config.toml", existing, 0600))

	config, err := Load(sampleConfigData)
	assert.NoError(t, err)
	assert.True(t, config.IsDebug)
	assert.Equal(t, "delete", config.DedupeMode)
	assert.Equal(t, int64(8), config.Jobs)

	// The defaults were not written over the user's file
	assert.Equal(t, "", config.DBPath)
}

func TestLoadRejectsMalformedConfig(t *testing.T) {
	chdirTemp(t)

	assert.NoError(t, os.WriteFile("config.toml", []byte("debug = {"), 0600))

	_, err := Load(sampleConfigData)
	assert.Error(t, err)
}
