package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"audio-tools/models"
	"audio-tools/utils"
)

// Undo replays a journal in reverse, restoring moved and quarantined
// files to their original paths. An entry whose original path already
// exists is left alone, which also makes running undo twice safe.
// Deletes are not reversible and are reported per entry.
func (ctx *Context) Undo(journalID string, dryRun bool) error {
	journalPath, err := ctx.resolveJournalPath(journalID)

	if err != nil {
		return err
	}

	data, err := os.ReadFile(journalPath)

	if err != nil {
		return err
	}

	journal, err := models.JournalFromJSON(data)

	if err != nil {
		return err
	}

	for i := len(journal.Entries) - 1; i >= 0; i-- {
		entry := journal.Entries[i]

		switch entry.Status {
		case models.StatusMoved, models.StatusQuarantined:
			if entry.NewPath == nil {
				continue
			}

			if _, statErr := os.Stat(entry.Path); statErr == nil {
				// No silent clobber
				continue
			}

			if dryRun {
				utils.ConsoleAndLogPrintf("Would restore \"%s\" -> \"%s\"", *entry.NewPath, entry.Path)
				continue
			}

			err = moveFile(*entry.NewPath, entry.Path)

			if err != nil {
				return err
			}

		case models.StatusDeleted:
			utils.ConsoleAndLogPrintf("Cannot undo delete for \"%s\"", entry.Path)
		}
	}

	utils.ConsoleAndLogPrintf("Undo complete")
	return nil
}

// resolveJournalPath accepts a concrete journal id or the sentinel
// "last", which selects the most recently modified journal file.
func (ctx *Context) resolveJournalPath(journalID string) (string, error) {
	if journalID != "last" {
		candidate := filepath.Join(ctx.Config.JournalDir, journalID+".json")

		if !IsFile(candidate) {
			return "", fmt.Errorf("%w: %s", ErrJournalNotFound, journalID)
		}

		return candidate, nil
	}

	entries, err := os.ReadDir(ctx.Config.JournalDir)

	if err != nil {
		return "", fmt.Errorf("%w: no journal directory", ErrJournalNotFound)
	}

	latestPath := ""
	var latestModTime int64

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		info, infoErr := entry.Info()

		if infoErr != nil {
			continue
		}

		if latestPath == "" || info.ModTime().UnixNano() > latestModTime {
			latestPath = filepath.Join(ctx.Config.JournalDir, entry.Name())
			latestModTime = info.ModTime().UnixNano()
		}
	}

	if latestPath == "" {
		return "", fmt.Errorf("%w: no journal files found", ErrJournalNotFound)
	}

	return latestPath, nil
}
