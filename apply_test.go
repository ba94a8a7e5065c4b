package main

import (
	"path"
	"testing"

	"audio-tools/models"

	"github.com/stretchr/testify/assert"
)

func testPlan(rootPaths []string, operations []models.Operation) *models.Plan {
	plan := models.NewPlan(rootPaths, operations, models.PlanMetadata{Thresholds: testThresholds()})
	return &plan
}

func pendingOperation(opType, filePath string, newPath *string, confidence float64) models.Operation {
	op := models.NewOperation(opType, filePath, newPath, "test operation")
	op.Status = models.StatusPending
	op.Confidence = confidenceValue(confidence)
	return op
}

func TestApplyPlanMovesFile(t *testing.T) {
	ctx, tempPath := newTestContext(t)
	source := path.Join(tempPath, "music", "a.mp3")
	destination := path.Join(tempPath, "dupes", "a.mp3")

	writeTestFile(t, source, "audio bytes")

	plan := testPlan([]string{path.Join(tempPath, "music")}, []models.Operation{
		pendingOperation(models.OpMove, source, &destination, 0.99),
	})

	journal, err := ctx.ApplyPlan(plan, ApplyOptions{})
	assert.NoError(t, err)
	assert.Equal(t, plan.PlanID, journal.PlanID)
	assert.Len(t, journal.Entries, 1)
	assert.Equal(t, models.StatusMoved, journal.Entries[0].Status)
	assert.Equal(t, destination, *journal.Entries[0].NewPath)

	assert.False(t, IsFile(source))
	assert.True(t, IsFile(destination))

	// The journal is on disk and the audit row committed
	assert.True(t, IsFile(path.Join(ctx.Config.JournalDir, journal.JournalID+".json")))

	var rows []models.OperationLog
	assert.NoError(t, ctx.DB.Find(&rows).Error)
	assert.Len(t, rows, 1)
	assert.Equal(t, models.StatusMoved, rows[0].Status)
	assert.Equal(t, plan.PlanID, rows[0].PlanID)
}

func TestApplyPlanReviewGate(t *testing.T) {
	ctx, tempPath := newTestContext(t)
	source := path.Join(tempPath, "music", "a.mp3")
	destination := path.Join(tempPath, "dupes", "a.mp3")

	writeTestFile(t, source, "audio bytes")

	op := models.NewOperation(models.OpMove, source, &destination, "needs a human")
	op.Status = models.StatusReview
	op.Confidence = confidenceValue(0.5)

	plan := testPlan([]string{path.Join(tempPath, "music")}, []models.Operation{op})

	journal, err := ctx.ApplyPlan(plan, ApplyOptions{})
	assert.NoError(t, err)
	assert.Equal(t, models.StatusReviewRequired, journal.Entries[0].Status)
	assert.True(t, IsFile(source))

	// Force executes review operations; the audit row upserts
	journal, err = ctx.ApplyPlan(plan, ApplyOptions{ForceLowConfidence: true})
	assert.NoError(t, err)
	assert.Equal(t, models.StatusMoved, journal.Entries[0].Status)
	assert.True(t, IsFile(destination))

	var rows []models.OperationLog
	assert.NoError(t, ctx.DB.Find(&rows).Error)
	assert.Len(t, rows, 1)
	assert.Equal(t, models.StatusMoved, rows[0].Status)
}

func TestApplyPlanLowConfidenceGate(t *testing.T) {
	ctx, tempPath := newTestContext(t)
	source := path.Join(tempPath, "music", "a.mp3")
	destination := path.Join(tempPath, "dupes", "a.mp3")

	writeTestFile(t, source, "audio bytes")

	// Pending but below the plan's auto-accept line
	plan := testPlan([]string{path.Join(tempPath, "music")}, []models.Operation{
		pendingOperation(models.OpMove, source, &destination, 0.8),
	})

	journal, err := ctx.ApplyPlan(plan, ApplyOptions{})
	assert.NoError(t, err)
	assert.Equal(t, models.StatusLowConfidence, journal.Entries[0].Status)
	assert.True(t, IsFile(source))
	assert.False(t, IsFile(destination))
}

func TestApplyPlanUsesSnapshottedThresholds(t *testing.T) {
	ctx, tempPath := newTestContext(t)
	source := path.Join(tempPath, "music", "a.mp3")
	destination := path.Join(tempPath, "dupes", "a.mp3")

	writeTestFile(t, source, "audio bytes")

	plan := testPlan([]string{path.Join(tempPath, "music")}, []models.Operation{
		pendingOperation(models.OpMove, source, &destination, 0.8),
	})
	plan.Metadata.Thresholds.AutoAcceptAbove = 0.7

	// The live configuration still says 0.90; the plan's snapshot wins
	journal, err := ctx.ApplyPlan(plan, ApplyOptions{})
	assert.NoError(t, err)
	assert.Equal(t, models.StatusMoved, journal.Entries[0].Status)
}

func TestApplyPlanDryRun(t *testing.T) {
	ctx, tempPath := newTestContext(t)
	musicPath := path.Join(tempPath, "music")
	source := path.Join(musicPath, "a.mp3")
	destination := path.Join(tempPath, "dupes", "a.mp3")
	deletePath := path.Join(musicPath, "albums", "b.mp3")
	quarantineDir := path.Join(tempPath, "quarantine")

	writeTestFile(t, source, "audio bytes")
	writeTestFile(t, deletePath, "other bytes")

	plan := testPlan([]string{musicPath}, []models.Operation{
		pendingOperation(models.OpMove, source, &destination, 0.99),
		pendingOperation(models.OpDelete, deletePath, nil, 0.99),
	})

	journal, err := ctx.ApplyPlan(plan, ApplyOptions{DryRun: true, QuarantineEnabled: true, QuarantineDir: quarantineDir})
	assert.NoError(t, err)
	assert.Len(t, journal.Entries, 2)

	for _, entry := range journal.Entries {
		assert.Equal(t, models.StatusDryRun, entry.Status)
		assert.NotNil(t, entry.NewPath)
	}

	// Dry-run entries still record the quarantine destination
	assert.Equal(t, path.Join(quarantineDir, "albums", "b.mp3"), *journal.Entries[1].NewPath)

	assert.True(t, IsFile(source))
	assert.True(t, IsFile(deletePath))
}

func TestApplyPlanQuarantineDelete(t *testing.T) {
	ctx, tempPath := newTestContext(t)
	musicPath := path.Join(tempPath, "music")
	deletePath := path.Join(musicPath, "albums", "b.mp3")
	quarantineDir := path.Join(tempPath, "quarantine")

	writeTestFile(t, deletePath, "doomed bytes")

	plan := testPlan([]string{musicPath}, []models.Operation{
		pendingOperation(models.OpDelete, deletePath, nil, 0.99),
	})

	journal, err := ctx.ApplyPlan(plan, ApplyOptions{QuarantineEnabled: true, QuarantineDir: quarantineDir})
	assert.NoError(t, err)
	assert.Equal(t, models.StatusQuarantined, journal.Entries[0].Status)

	quarantined := path.Join(quarantineDir, "albums", "b.mp3")
	assert.Equal(t, quarantined, *journal.Entries[0].NewPath)
	assert.False(t, IsFile(deletePath))
	assert.True(t, IsFile(quarantined))
}

func TestApplyPlanPlainDelete(t *testing.T) {
	ctx, tempPath := newTestContext(t)
	musicPath := path.Join(tempPath, "music")
	deletePath := path.Join(musicPath, "b.mp3")

	writeTestFile(t, deletePath, "doomed bytes")

	plan := testPlan([]string{musicPath}, []models.Operation{
		pendingOperation(models.OpDelete, deletePath, nil, 0.99),
	})

	journal, err := ctx.ApplyPlan(plan, ApplyOptions{})
	assert.NoError(t, err)
	assert.Equal(t, models.StatusDeleted, journal.Entries[0].Status)
	assert.Nil(t, journal.Entries[0].NewPath)
	assert.False(t, IsFile(deletePath))
}

func TestApplyPlanCollisionFailsAndContinues(t *testing.T) {
	ctx, tempPath := newTestContext(t)
	musicPath := path.Join(tempPath, "music")
	firstSource := path.Join(musicPath, "a.mp3")
	secondSource := path.Join(musicPath, "b.mp3")
	firstDestination := path.Join(tempPath, "dupes", "a.mp3")
	secondDestination := path.Join(tempPath, "dupes", "b.mp3")

	writeTestFile(t, firstSource, "audio bytes")
	writeTestFile(t, secondSource, "other bytes")
	writeTestFile(t, firstDestination, "already there")

	plan := testPlan([]string{musicPath}, []models.Operation{
		pendingOperation(models.OpMove, firstSource, &firstDestination, 0.99),
		pendingOperation(models.OpMove, secondSource, &secondDestination, 0.99),
	})

	journal, err := ctx.ApplyPlan(plan, ApplyOptions{})
	assert.NoError(t, err)
	assert.Len(t, journal.Entries, 2)

	assert.Equal(t, models.StatusFailed, journal.Entries[0].Status)
	assert.Contains(t, journal.Entries[0].Reason, "destination already exists")
	assert.True(t, IsFile(firstSource))
	assert.Equal(t, models.StatusMoved, journal.Entries[1].Status)
	assert.True(t, IsFile(secondDestination))
}

func TestApplyPlanNoopOperations(t *testing.T) {
	ctx, tempPath := newTestContext(t)
	musicPath := path.Join(tempPath, "music")
	filePath := path.Join(musicPath, "a.mp3")

	writeTestFile(t, filePath, "audio bytes")

	plan := testPlan([]string{musicPath}, []models.Operation{
		pendingOperation(models.OpArtFetch, filePath, nil, 0.95),
	})

	journal, err := ctx.ApplyPlan(plan, ApplyOptions{})
	assert.NoError(t, err)
	assert.Equal(t, models.StatusNoop, journal.Entries[0].Status)
	assert.True(t, IsFile(filePath))
}

func TestQuarantineTarget(t *testing.T) {
	target := quarantineTarget("/music/albums/a.mp3", "/quarantine", []string{"/music"})
	assert.Equal(t, "/quarantine/albums/a.mp3", target)

	// A path outside every root falls back to the bare filename
	target = quarantineTarget("/elsewhere/b.mp3", "/quarantine", []string{"/music"})
	assert.Equal(t, "/quarantine/b.mp3", target)
}
