package main

import (
	"os"
	"path"
	"path/filepath"
	"testing"

	"audio-tools/config"
	"audio-tools/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func createEmptyTempTestDataPath(t *testing.T) string {
	tempPath, err := os.MkdirTemp("", "audio-tools-")
	assert.NoError(t, err)

	t.Cleanup(func() {
		_ = os.RemoveAll(tempPath)
	})

	return tempPath
}

func testDB(t *testing.T, tempPath string) *gorm.DB {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	return connect(path.Join(tempPath, "test.db"), gormConfig)
}

func newTestContext(t *testing.T) (*Context, string) {
	tempPath := createEmptyTempTestDataPath(t)

	c := &config.Config{
		DBPath:              path.Join(tempPath, "test.db"),
		JournalDir:          path.Join(tempPath, "journal"),
		DedupeMode:          "move",
		PreferLossless:      true,
		ConfidenceThreshold: 0.85,
		AutoAcceptAbove:     0.90,
		RequireReviewBelow:  0.75,
		Jobs:                2,
	}

	ctx := &Context{
		Config:        c,
		DB:            testDB(t, tempPath),
		Prober:        newFakeProber(),
		Fingerprinter: &fakeFingerprinter{},
	}

	return ctx, tempPath
}

func testThresholds() models.Thresholds {
	return models.Thresholds{AutoAcceptAbove: 0.90, RequireReviewBelow: 0.75}
}

func writeTestFile(t *testing.T, filePath, content string) {
	assert.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0700))
	assert.NoError(t, os.WriteFile(filePath, []byte(content), 0600))
}

func insertInventoryFile(t *testing.T, ctx *Context, filePath, digest string, size int64, bitrate int, hasArt bool) models.File {
	record := models.File{
		Path:    filePath,
		Size:    size,
		MTime:   1,
		Digest:  &digest,
		Bitrate: &bitrate,
		HasArt:  hasArt,
	}

	assert.NoError(t, ctx.DB.Create(&record).Error)
	return record
}

type fakeProber struct {
	infos     map[string]AudioInfo
	tags      map[string]TagInfo
	art       map[string]bool
	probeErrs map[string]error
}

func newFakeProber() *fakeProber {
	return &fakeProber{
		infos:     map[string]AudioInfo{},
		tags:      map[string]TagInfo{},
		art:       map[string]bool{},
		probeErrs: map[string]error{},
	}
}

func (p *fakeProber) Probe(filePath string) (AudioInfo, error) {
	if err, found := p.probeErrs[filePath]; found {
		return AudioInfo{}, err
	}

	if info, found := p.infos[filePath]; found {
		return info, nil
	}

	return AudioInfo{Codec: "mp3", Container: "mp3", Duration: 180, Bitrate: 320000, SampleRate: 44100, Channels: 2}, nil
}

func (p *fakeProber) ReadTags(filePath string) (TagInfo, error) {
	if tags, found := p.tags[filePath]; found {
		return tags, nil
	}

	return TagInfo{}, nil
}

func (p *fakeProber) HasEmbeddedArt(filePath string) bool {
	return p.art[filePath]
}

type fakeFingerprinter struct {
	errs map[string]error
}

func (f *fakeFingerprinter) Fingerprint(filePath string) (string, error) {
	if err, found := f.errs[filePath]; found {
		return "", err
	}

	return "fp-" + filepath.Base(filePath), nil
}
