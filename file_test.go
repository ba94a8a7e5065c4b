package main

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDirAndIsFile(t *testing.T) {
	tempPath := createEmptyTempTestDataPath(t)
	filePath := path.Join(tempPath, "a.mp3")
	writeTestFile(t, filePath, "audio bytes")

	assert.True(t, IsDir(tempPath))
	assert.False(t, IsDir(filePath))
	assert.True(t, IsFile(filePath))
	assert.False(t, IsFile(tempPath))
	assert.False(t, IsFile(path.Join(tempPath, "missing")))
}

func TestMoveFileCreatesParentDirectories(t *testing.T) {
	tempPath := createEmptyTempTestDataPath(t)
	source := path.Join(tempPath, "a.mp3")
	destination := path.Join(tempPath, "deeply", "nested", "a.mp3")

	writeTestFile(t, source, "audio bytes")

	assert.NoError(t, moveFile(source, destination))
	assert.False(t, IsFile(source))
	assert.True(t, IsFile(destination))

	content, err := os.ReadFile(destination)
	assert.NoError(t, err)
	assert.Equal(t, "audio bytes", string(content))
}

func TestMoveFileRefusesExistingDestination(t *testing.T) {
	tempPath := createEmptyTempTestDataPath(t)
	source := path.Join(tempPath, "a.mp3")
	destination := path.Join(tempPath, "b.mp3")

	writeTestFile(t, source, "audio bytes")
	writeTestFile(t, destination, "do not touch")

	err := moveFile(source, destination)
	assert.ErrorIs(t, err, ErrDestinationExists)

	// Neither side was modified
	assert.True(t, IsFile(source))

	content, readErr := os.ReadFile(destination)
	assert.NoError(t, readErr)
	assert.Equal(t, "do not touch", string(content))
}

func TestMoveFileMissingSource(t *testing.T) {
	tempPath := createEmptyTempTestDataPath(t)

	err := moveFile(path.Join(tempPath, "missing.mp3"), path.Join(tempPath, "out.mp3"))
	assert.Error(t, err)
}
