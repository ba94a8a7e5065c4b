package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationValidate(t *testing.T) {
	destination := "/music/new.mp3"

	move := NewOperation(OpMove, "/music/old.mp3", &destination, "dup")
	assert.NoError(t, move.Validate())

	move.NewPath = nil
	assert.ErrorIs(t, move.Validate(), ErrNewPathRequired)

	rename := NewOperation(OpRename, "/music/old.mp3", nil, "layout")
	assert.ErrorIs(t, rename.Validate(), ErrNewPathRequired)

	remove := NewOperation(OpDelete, "/music/old.mp3", nil, "dup")
	assert.NoError(t, remove.Validate())

	remove.NewPath = &destination
	assert.Error(t, remove.Validate())

	art := NewOperation(OpArtFetch, "/music/old.mp3", nil, "missing art")
	assert.NoError(t, art.Validate())
}

func TestNewOperationAssignsUniqueIds(t *testing.T) {
	first := NewOperation(OpDelete, "/music/a.mp3", nil, "dup")
	second := NewOperation(OpDelete, "/music/a.mp3", nil, "dup")

	assert.NotEmpty(t, first.OpID)
	assert.NotEqual(t, first.OpID, second.OpID)
}

func TestPlanJSONRoundTrip(t *testing.T) {
	destination := "/dupes/a.mp3"
	confidence := 0.99

	op := NewOperation(OpMove, "/music/a.mp3", &destination, "Exact duplicate by content digest")
	op.Sources = []string{"hash"}
	op.Status = StatusPending
	op.Confidence = &confidence
	op.Metadata = OpMetadata{GroupID: 1, GroupDigest: "d1", Action: "MOVE", SizeBytes: 8_000_000}

	plan := NewPlan([]string{"/music"}, []Operation{op}, PlanMetadata{
		Summary:    Summary{DuplicateGroups: 1, Move: 1},
		Thresholds: Thresholds{AutoAcceptAbove: 0.90, RequireReviewBelow: 0.75},
	})

	data, err := plan.ToJSON()
	assert.NoError(t, err)

	decoded, err := PlanFromJSON(data)
	assert.NoError(t, err)
	assert.Equal(t, plan.PlanID, decoded.PlanID)
	assert.True(t, plan.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, plan.RootPaths, decoded.RootPaths)
	assert.Equal(t, plan.Operations, decoded.Operations)
	assert.Equal(t, plan.Metadata, decoded.Metadata)
}

func TestPlanFromJSONRejectsGarbage(t *testing.T) {
	_, err := PlanFromJSON([]byte("not json"))
	assert.Error(t, err)
}

func TestJournalJSONRoundTrip(t *testing.T) {
	destination := "/quarantine/a.mp3"
	confidence := 0.99

	journal := NewJournal("plan-1")
	journal.Entries = append(journal.Entries, JournalEntry{
		OpID:       "op-1",
		OpType:     OpDelete,
		Path:       "/music/a.mp3",
		NewPath:    &destination,
		Status:     StatusQuarantined,
		Reason:     "Exact duplicate by content digest",
		Sources:    []string{"hash"},
		Confidence: &confidence,
	})

	data, err := journal.ToJSON()
	assert.NoError(t, err)

	decoded, err := JournalFromJSON(data)
	assert.NoError(t, err)
	assert.Equal(t, journal.JournalID, decoded.JournalID)
	assert.Equal(t, journal.PlanID, decoded.PlanID)
	assert.True(t, journal.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, journal.Entries, decoded.Entries)
}

func TestSummaryMerge(t *testing.T) {
	summary := Summary{DuplicateGroups: 1, Delete: 2, EstimatedReclaimBytes: 100}
	summary.Merge(Summary{DuplicateGroups: 2, Move: 3, Review: 1, EstimatedReclaimBytes: 50})

	assert.Equal(t, 3, summary.DuplicateGroups)
	assert.Equal(t, 2, summary.Delete)
	assert.Equal(t, 3, summary.Move)
	assert.Equal(t, 1, summary.Review)
	assert.Equal(t, int64(150), summary.EstimatedReclaimBytes)
}
