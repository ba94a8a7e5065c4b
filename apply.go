package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"audio-tools/models"
	"audio-tools/utils"

	"github.com/natefinch/atomic"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ApplyOptions struct {
	DryRun             bool
	ForceLowConfidence bool
	QuarantineEnabled  bool
	QuarantineDir      string
}

// ApplyPlan executes a plan's operations in order and returns the journal
// of what actually happened. The plan itself is never mutated; the
// confidence gates read the thresholds snapshotted into the plan, not the
// live configuration. A filesystem failure on one operation is journaled
// as failed and the pass continues.
func (ctx *Context) ApplyPlan(plan *models.Plan, options ApplyOptions) (*models.Journal, error) {
	err := os.MkdirAll(ctx.Config.JournalDir, 0700)

	if err != nil {
		return nil, err
	}

	journal := models.NewJournal(plan.PlanID)
	autoAcceptAbove := plan.Metadata.Thresholds.AutoAcceptAbove
	var logRows []models.OperationLog

	for _, op := range plan.Operations {
		if !options.ForceLowConfidence {
			if op.Status == models.StatusReview {
				entry := skipEntry(op, models.StatusReviewRequired)
				journal.Entries = append(journal.Entries, entry)
				logRows = append(logRows, operationLogRow(plan.PlanID, op, entry))
				continue
			}

			if op.Confidence != nil && *op.Confidence < autoAcceptAbove {
				entry := skipEntry(op, models.StatusLowConfidence)
				journal.Entries = append(journal.Entries, entry)
				logRows = append(logRows, operationLogRow(plan.PlanID, op, entry))
				continue
			}
		}

		entry := ctx.executeOperation(op, plan.RootPaths, options)
		journal.Entries = append(journal.Entries, entry)
		logRows = append(logRows, operationLogRow(plan.PlanID, op, entry))
	}

	// One commit for the whole pass. A dry run followed by a real apply
	// replays the same op ids, so the audit rows upsert.
	if len(logRows) > 0 {
		err = ctx.DB.Transaction(func(tx *gorm.DB) error {
			return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&logRows).Error
		})

		if err != nil {
			return nil, err
		}
	}

	data, err := journal.ToJSON()

	if err != nil {
		return nil, err
	}

	journalPath := filepath.Join(ctx.Config.JournalDir, journal.JournalID+".json")
	err = atomic.WriteFile(journalPath, bytes.NewReader(data))

	if err != nil {
		return nil, err
	}

	utils.ConsoleAndLogPrintf("Journal: \"%s\"", journalPath)
	return &journal, nil
}

func (ctx *Context) executeOperation(op models.Operation, rootPaths []string, options ApplyOptions) models.JournalEntry {
	entry := journalEntryFor(op)

	switch op.OpType {
	case models.OpMove, models.OpRename:
		if op.NewPath == nil {
			entry.Status = models.StatusSkipped
			return entry
		}

		entry.NewPath = op.NewPath

		if options.DryRun {
			entry.Status = models.StatusDryRun
			return entry
		}

		err := moveFile(op.Path, *op.NewPath)

		if err != nil {
			entry.Status = models.StatusFailed
			entry.Reason = err.Error()
			return entry
		}

		entry.Status = models.StatusMoved

	case models.OpDelete:
		if options.QuarantineEnabled && options.QuarantineDir != "" {
			destination := quarantineTarget(op.Path, options.QuarantineDir, rootPaths)
			entry.NewPath = &destination

			if options.DryRun {
				entry.Status = models.StatusDryRun
				return entry
			}

			err := moveFile(op.Path, destination)

			if err != nil {
				entry.Status = models.StatusFailed
				entry.Reason = err.Error()
				return entry
			}

			entry.Status = models.StatusQuarantined
			return entry
		}

		if options.DryRun {
			entry.Status = models.StatusDryRun
			return entry
		}

		err := os.Remove(op.Path)

		if err != nil && !errors.Is(err, os.ErrNotExist) {
			entry.Status = models.StatusFailed
			entry.Reason = err.Error()
			return entry
		}

		entry.Status = models.StatusDeleted

	default:
		// art_fetch and review touch nothing on the filesystem
		if options.DryRun {
			entry.Status = models.StatusDryRun
		} else {
			entry.Status = models.StatusNoop
		}
	}

	return entry
}

// quarantineTarget re-roots the source path under the quarantine
// directory relative to whichever root contains it, falling back to the
// bare filename, so a quarantined delete stays reversible.
func quarantineTarget(filePath, quarantineDir string, rootPaths []string) string {
	for _, root := range rootPaths {
		relative, err := filepath.Rel(root, filePath)

		if err == nil && relative != ".." && !strings.HasPrefix(relative, ".."+string(filepath.Separator)) && !filepath.IsAbs(relative) {
			return filepath.Join(quarantineDir, relative)
		}
	}

	return filepath.Join(quarantineDir, filepath.Base(filePath))
}

func journalEntryFor(op models.Operation) models.JournalEntry {
	return models.JournalEntry{
		OpID:       op.OpID,
		OpType:     op.OpType,
		Path:       op.Path,
		Reason:     op.Reason,
		Sources:    op.Sources,
		Confidence: op.Confidence,
		Metadata:   op.Metadata,
	}
}

func skipEntry(op models.Operation, status string) models.JournalEntry {
	entry := journalEntryFor(op)
	entry.Status = status
	return entry
}

func operationLogRow(planID string, op models.Operation, entry models.JournalEntry) models.OperationLog {
	return models.OperationLog{
		OpID:    op.OpID,
		PlanID:  planID,
		OpType:  op.OpType,
		Path:    op.Path,
		NewPath: entry.NewPath,
		Status:  entry.Status,
	}
}
