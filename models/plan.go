package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	OpDelete   = "delete"
	OpMove     = "move"
	OpRename   = "rename"
	OpArtFetch = "art_fetch"
	OpReview   = "review"
)

const (
	StatusPending     = "pending"
	StatusReview      = "review"
	StatusDryRun      = "dry-run"
	StatusMoved       = "moved"
	StatusQuarantined = "quarantined"
	StatusDeleted     = "deleted"
	StatusNoop        = "noop"
	StatusSkipped     = "skipped"
	StatusFailed      = "failed"

	// Skip statuses written by the applier's confidence gates.
	StatusReviewRequired = "review-required"
	StatusLowConfidence  = "skipped-low-confidence"
)

var ErrNewPathRequired = errors.New("new_path is required for move and rename operations")

// OpMetadata carries operation provenance. Only populated for operations
// synthesized from a duplicate group.
type OpMetadata struct {
	GroupID     int    `json:"group_id,omitempty"`
	GroupDigest string `json:"group_digest,omitempty"`
	Action      string `json:"action,omitempty"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
	Template    string `json:"template,omitempty"`
}

type Operation struct {
	OpID       string     `json:"op_id"`
	OpType     string     `json:"op_type"`
	Path       string     `json:"path"`
	NewPath    *string    `json:"new_path"`
	Reason     string     `json:"reason"`
	Sources    []string   `json:"sources"`
	Status     string     `json:"status"`
	Metadata   OpMetadata `json:"metadata"`
	Confidence *float64   `json:"confidence"`
}

func NewOperation(opType, path string, newPath *string, reason string) Operation {
	return Operation{
		OpID:    uuid.NewString(),
		OpType:  opType,
		Path:    path,
		NewPath: newPath,
		Reason:  reason,
	}
}

// Validate enforces the new-path invariant: move and rename carry a
// destination, every other kind must not.
func (op *Operation) Validate() error {
	switch op.OpType {
	case OpMove, OpRename:
		if op.NewPath == nil {
			return fmt.Errorf("%w: %s", ErrNewPathRequired, op.Path)
		}

	default:
		if op.NewPath != nil {
			return fmt.Errorf("%s operation must not carry a new_path: %s", op.OpType, op.Path)
		}
	}

	return nil
}

type Thresholds struct {
	AutoAcceptAbove    float64 `json:"auto_accept_above"`
	RequireReviewBelow float64 `json:"require_review_below"`
}

type Summary struct {
	DuplicateGroups       int   `json:"duplicate_groups"`
	Delete                int   `json:"delete"`
	Move                  int   `json:"move"`
	Rename                int   `json:"rename"`
	Review                int   `json:"review"`
	TagUpdates            int   `json:"tag_updates"`
	ArtFetches            int   `json:"art_fetches"`
	EstimatedReclaimBytes int64 `json:"estimated_reclaim_bytes"`
}

func (s *Summary) Merge(other Summary) {
	s.DuplicateGroups += other.DuplicateGroups
	s.Delete += other.Delete
	s.Move += other.Move
	s.Rename += other.Rename
	s.Review += other.Review
	s.TagUpdates += other.TagUpdates
	s.ArtFetches += other.ArtFetches
	s.EstimatedReclaimBytes += other.EstimatedReclaimBytes
}

type PlanMetadata struct {
	Summary    Summary    `json:"summary"`
	Thresholds Thresholds `json:"thresholds"`
}

// Plan is immutable once created: the applier reads the thresholds
// snapshotted here, never the live configuration.
type Plan struct {
	PlanID     string       `json:"plan_id"`
	CreatedAt  time.Time    `json:"created_at"`
	RootPaths  []string     `json:"root_paths"`
	Operations []Operation  `json:"operations"`
	Metadata   PlanMetadata `json:"metadata"`
}

func NewPlan(rootPaths []string, operations []Operation, metadata PlanMetadata) Plan {
	return Plan{
		PlanID:     uuid.NewString(),
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
		RootPaths:  rootPaths,
		Operations: operations,
		Metadata:   metadata,
	}
}

func (p *Plan) ToJSON() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

func PlanFromJSON(data []byte) (*Plan, error) {
	plan := &Plan{}
	err := json.Unmarshal(data, plan)

	if err != nil {
		return nil, err
	}

	return plan, nil
}

type JournalEntry struct {
	OpID       string     `json:"op_id"`
	OpType     string     `json:"op_type"`
	Path       string     `json:"path"`
	NewPath    *string    `json:"new_path,omitempty"`
	Status     string     `json:"status"`
	Reason     string     `json:"reason"`
	Sources    []string   `json:"sources"`
	Confidence *float64   `json:"confidence"`
	Metadata   OpMetadata `json:"metadata"`
}

// Journal records what the applier actually did, one entry per plan
// operation in plan order. Append-only and immutable once written.
type Journal struct {
	JournalID string         `json:"journal_id"`
	CreatedAt time.Time      `json:"created_at"`
	PlanID    string         `json:"plan_id"`
	Entries   []JournalEntry `json:"entries"`
}

func NewJournal(planID string) Journal {
	return Journal{
		JournalID: uuid.NewString(),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		PlanID:    planID,
	}
}

func (j *Journal) ToJSON() ([]byte, error) {
	return json.MarshalIndent(j, "", "  ")
}

func JournalFromJSON(data []byte) (*Journal, error) {
	journal := &Journal{}
	err := json.Unmarshal(data, journal)

	if err != nil {
		return nil, err
	}

	return journal, nil
}
