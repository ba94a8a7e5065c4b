package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"audio-tools/crypto"
	"audio-tools/models"
	"audio-tools/utils"

	"github.com/schollz/progressbar/v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var audioExtensions = []string{".mp3", ".flac", ".m4a", ".aac", ".ogg", ".opus"}

type ScanStats struct {
	FilesScanned         int64
	HashesComputed       int64
	FingerprintsComputed int64
	Errors               int64
	Failures             []FileError
}

type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

type scanResult struct {
	path        string
	record      models.File
	fingerprint *string
	err         error
}

// Scan walks the root paths, skips files unchanged since the last scan
// (size and mtime match) and digests, probes and fingerprints the rest
// with a bounded worker pool. All store writes happen on the calling
// goroutine once the pool has drained.
func (ctx *Context) Scan(rootPaths []string, jobs int64) (*ScanStats, error) {
	if jobs < 1 {
		jobs = 1
	}

	files := discoverAudioFiles(rootPaths)
	stats := &ScanStats{}
	var pending []string

	for _, filePath := range files {
		unchanged, err := ctx.isUnchanged(filePath)

		if err != nil {
			return nil, err
		}

		if unchanged {
			stats.FilesScanned++
			continue
		}

		pending = append(pending, filePath)
	}

	if len(pending) == 0 {
		utils.ConsoleAndLogPrintf("No files to scan.")
		return stats, nil
	}

	utils.ConsoleAndLogPrintf("Scanning %s", utils.Pluralize("file", int64(len(pending))))

	bar := progressbar.Default(int64(len(pending)))

	// Each worker owns its slot in results, so no locking is needed
	// beyond the orchestrator itself.
	results := make([]scanResult, len(pending))
	orchestrator := utils.NewTaskOrchestrator(bar, len(pending), jobs)

	for i, filePath := range pending {
		results[i].path = filePath
		orchestrator.StartTask()
		go ctx.scanFile(orchestrator, &results[i])
	}

	orchestrator.WaitForTasks()

	err := ctx.DB.Transaction(func(tx *gorm.DB) error {
		for i := range results {
			result := &results[i]
			stats.FilesScanned++

			if result.err != nil {
				stats.Errors++
				stats.Failures = append(stats.Failures, FileError{Path: result.path, Err: result.err})
				continue
			}

			fileID, upsertErr := upsertFile(tx, result.record)

			if upsertErr != nil {
				return upsertErr
			}

			stats.HashesComputed++

			if result.fingerprint != nil {
				upsertErr = upsertFingerprint(tx, fileID, *result.fingerprint)

				if upsertErr != nil {
					return upsertErr
				}

				stats.FingerprintsComputed++
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (ctx *Context) scanFile(orchestrator *utils.TaskOrchestrator, result *scanResult) {
	defer orchestrator.FinishTask()

	info, err := os.Stat(result.path)

	if err != nil {
		result.err = err
		return
	}

	digest, err := crypto.HashFile(result.path)

	if err != nil {
		result.err = err
		return
	}

	audio, err := ctx.Prober.Probe(result.path)

	if err != nil {
		result.err = err
		return
	}

	record := models.File{
		Path:   result.path,
		Size:   info.Size(),
		MTime:  info.ModTime().UnixNano(),
		Digest: &digest,
		HasArt: ctx.Prober.HasEmbeddedArt(result.path),
	}

	if audio.Codec != "" {
		record.Codec = &audio.Codec
	}

	if audio.Container != "" {
		record.Container = &audio.Container
	}

	if audio.Duration > 0 {
		record.Duration = &audio.Duration
	}

	if audio.Bitrate > 0 {
		record.Bitrate = &audio.Bitrate
	}

	if audio.SampleRate > 0 {
		record.SampleRate = &audio.SampleRate
	}

	if audio.Channels > 0 {
		record.Channels = &audio.Channels
	}

	// Fingerprinting is best-effort: a missing fpcalc or a decode failure
	// is "no fingerprint", not a scan error.
	fingerprint, err := ctx.Fingerprinter.Fingerprint(result.path)

	if err == nil && fingerprint != "" {
		result.fingerprint = &fingerprint
	}

	result.record = record
}

func (ctx *Context) isUnchanged(filePath string) (bool, error) {
	info, err := os.Stat(filePath)

	if err != nil {
		return false, nil
	}

	var existing models.File
	result := ctx.DB.Where("path = ?", filePath).First(&existing)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return false, nil
		}

		return false, result.Error
	}

	return existing.Size == info.Size() && existing.MTime == info.ModTime().UnixNano(), nil
}

// discoverAudioFiles accepts directory roots and bare file roots.
// Unreadable files and directories are silently skipped.
func discoverAudioFiles(rootPaths []string) []string {
	var files []string

	for _, rootPath := range rootPaths {
		if IsFile(rootPath) {
			if isAudioFile(rootPath) {
				files = append(files, rootPath)
			}

			continue
		}

		if !IsDir(rootPath) {
			continue
		}

		_ = filepath.WalkDir(rootPath, func(thisPath string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}

			if d.IsDir() {
				return nil
			}

			if isAudioFile(thisPath) {
				files = append(files, thisPath)
			}

			return nil
		})
	}

	return files
}

func isAudioFile(filePath string) bool {
	return utils.IsInArray(strings.ToLower(filepath.Ext(filePath)), audioExtensions)
}

func upsertFile(tx *gorm.DB, record models.File) (uint, error) {
	var existing models.File
	result := tx.Where("path = ?", record.Path).First(&existing)

	if result.Error != nil {
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, result.Error
		}

		result = tx.Create(&record)

		if result.Error != nil {
			return 0, result.Error
		}

		return record.ID, nil
	}

	record.ID = existing.ID
	result = tx.Save(&record)

	if result.Error != nil {
		return 0, result.Error
	}

	return record.ID, nil
}

func upsertFingerprint(tx *gorm.DB, fileID uint, chromaprint string) error {
	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "file_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"chromaprint"}),
	}).Create(&models.Fingerprint{
		FileID:      fileID,
		Chromaprint: chromaprint,
	})

	return result.Error
}
