package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"audio-tools/models"
	"audio-tools/utils"
)

type PlanRequest struct {
	RootPaths           []string
	DedupeMode          string
	DupeDir             string
	Layout              string
	ArtOnly             bool
	ConfidenceThreshold float64
	Thresholds          models.Thresholds
}

// BuildPlan runs three independent stages (dedupe, layout renames, art
// fetches) and merges their operations and summaries into one plan. The
// thresholds are snapshotted into the plan so a later apply uses the
// planning-time values.
func (ctx *Context) BuildPlan(request PlanRequest) (*models.Plan, error) {
	var operations []models.Operation
	var summary models.Summary

	if !request.ArtOnly && request.DedupeMode != "off" {
		dedupeOps, dedupeSummary, err := ctx.planDedupe(request)

		if err != nil {
			return nil, err
		}

		operations = append(operations, dedupeOps...)
		summary.Merge(dedupeSummary)
	}

	if !request.ArtOnly && request.Layout != "" {
		renameOps, renameSummary, err := ctx.planLayoutRenames(request)

		if err != nil {
			return nil, err
		}

		operations = append(operations, renameOps...)
		summary.Merge(renameSummary)
	}

	artOps, artSummary, err := ctx.planArtFetches(request.Thresholds)

	if err != nil {
		return nil, err
	}

	// Art-only plans contain nothing but the art stage
	if request.ArtOnly {
		operations = artOps
	} else {
		operations = append(operations, artOps...)
	}

	summary.Merge(artSummary)

	plan := models.NewPlan(request.RootPaths, operations, models.PlanMetadata{
		Summary:    summary,
		Thresholds: request.Thresholds,
	})

	return &plan, nil
}

func (ctx *Context) planDedupe(request PlanRequest) ([]models.Operation, models.Summary, error) {
	var operations []models.Operation
	var summary models.Summary

	groups, err := ctx.ListDuplicateGroups(ctx.Config.PreferLossless, OrderByDigest)

	if err != nil {
		return nil, summary, err
	}

	summary.DuplicateGroups = len(groups)

	for _, group := range groups {
		actions, err := ctx.resolveGroupActions(group, request.DedupeMode)

		if err != nil {
			return nil, summary, err
		}

		for _, action := range actions {
			op := ctx.dedupeOperation(action, group, request)

			if op == nil {
				continue
			}

			operations = append(operations, *op)

			switch op.OpType {
			case models.OpDelete:
				summary.Delete++
				summary.EstimatedReclaimBytes += action.File.Size

			case models.OpMove:
				summary.Move++

			case models.OpRename:
				summary.Rename++

			case models.OpReview:
				summary.Review++
			}
		}
	}

	return operations, summary, nil
}

// dedupeOperation turns one resolved member action into an operation, or
// nil for KEEP/SKIP. Missing inputs never fail planning; they downgrade
// the operation to a low-confidence review item.
func (ctx *Context) dedupeOperation(action ResolvedAction, group DuplicateGroup, request PlanRequest) *models.Operation {
	if action.Action == ActionKeep || action.Action == ActionSkip {
		return nil
	}

	metadata := models.OpMetadata{
		GroupID:     group.GroupID,
		GroupDigest: group.GroupDigest,
		Action:      action.Action,
		SizeBytes:   action.File.Size,
	}

	sources := []string{"hash"}

	if action.Overridden {
		sources = append(sources, "override")
	}

	confidence := 0.99
	reason := "Exact duplicate by content digest"

	switch action.Action {
	case ActionMarkReview, "REVIEW":
		op := models.NewOperation(models.OpReview, action.File.Path, nil, "Manual review requested")
		op.Sources = []string{"override"}
		op.Status = models.StatusReview
		op.Confidence = confidenceValue(0.5)
		op.Metadata = metadata
		return &op

	case ActionDelete:
		op := models.NewOperation(models.OpDelete, action.File.Path, nil, reason)
		op.Sources = sources
		op.Status = statusForConfidence(confidence, request.Thresholds)
		op.Confidence = confidenceValue(confidence)
		op.Metadata = metadata
		return &op

	case ActionMove:
		if request.DupeDir == "" {
			op := models.NewOperation(models.OpReview, action.File.Path, nil, "Move requested but dupe dir not set")
			op.Sources = sources
			op.Status = models.StatusReview
			op.Confidence = confidenceValue(0.4)
			op.Metadata = metadata
			return &op
		}

		destination := filepath.Join(request.DupeDir, filepath.Base(action.File.Path))
		op := models.NewOperation(models.OpMove, action.File.Path, &destination, reason)
		op.Sources = sources
		op.Status = statusForConfidence(confidence, request.Thresholds)
		op.Confidence = confidenceValue(confidence)
		op.Metadata = metadata
		return &op

	case ActionRename:
		if action.Template == "" {
			op := models.NewOperation(models.OpReview, action.File.Path, nil, "Rename requested but template missing")
			op.Sources = sources
			op.Status = models.StatusReview
			op.Confidence = confidenceValue(0.4)
			op.Metadata = metadata
			return &op
		}

		tags := ctx.tagsOrEmpty(action.File.Path)
		newPath := withSourceExtension(filepath.Join(filepath.Dir(action.File.Path), renderLayout(action.Template, tags)), action.File.Path)
		renameConfidence := 0.8
		metadata.Template = action.Template

		op := models.NewOperation(models.OpRename, action.File.Path, &newPath, fmt.Sprintf("Rename by override template (confidence %.2f)", renameConfidence))
		op.Sources = []string{"override", "tags"}
		op.Status = statusForConfidence(renameConfidence, request.Thresholds)
		op.Confidence = confidenceValue(renameConfidence)
		op.Metadata = metadata
		return &op
	}

	return nil
}

func (ctx *Context) planLayoutRenames(request PlanRequest) ([]models.Operation, models.Summary, error) {
	var operations []models.Operation
	var summary models.Summary
	var files []models.File

	result := ctx.DB.Order("path").Find(&files)

	if result.Error != nil {
		return nil, summary, result.Error
	}

	for _, file := range files {
		root := rootForPath(file.Path, request.RootPaths)

		if root == "" {
			continue
		}

		tags := ctx.tagsOrEmpty(file.Path)
		confidence := estimateTagConfidence(tags)
		newPath := withSourceExtension(filepath.Join(root, renderLayout(request.Layout, tags)), file.Path)

		if newPath == file.Path {
			continue
		}

		status := statusForConfidence(confidence, request.Thresholds)

		// Second, independent floor on top of the shared thresholds
		if confidence < request.ConfidenceThreshold {
			status = models.StatusReview
		}

		op := models.NewOperation(models.OpRename, file.Path, &newPath, fmt.Sprintf("Rename to layout (confidence %.2f)", confidence))
		op.Sources = []string{"tags"}
		op.Status = status
		op.Confidence = confidenceValue(confidence)

		operations = append(operations, op)
		summary.Rename++

		if status == models.StatusReview {
			summary.Review++
		}
	}

	return operations, summary, nil
}

func (ctx *Context) planArtFetches(thresholds models.Thresholds) ([]models.Operation, models.Summary, error) {
	var operations []models.Operation
	var summary models.Summary
	var files []models.File

	result := ctx.DB.Where("has_art = ?", false).Order("path").Find(&files)

	if result.Error != nil {
		return nil, summary, result.Error
	}

	for _, file := range files {
		confidence := 0.6

		op := models.NewOperation(models.OpArtFetch, file.Path, nil, "Missing embedded art")
		op.Sources = []string{"embedded_art"}
		op.Status = statusForConfidence(confidence, thresholds)
		op.Confidence = confidenceValue(confidence)

		operations = append(operations, op)
		summary.ArtFetches++

		if op.Status == models.StatusReview {
			summary.Review++
		}
	}

	return operations, summary, nil
}

// statusForConfidence is the shared threshold state machine: below the
// review floor or inside the gray zone means review, at or above the
// auto-accept line means pending.
func statusForConfidence(confidence float64, thresholds models.Thresholds) string {
	if confidence < thresholds.RequireReviewBelow {
		return models.StatusReview
	}

	if confidence >= thresholds.AutoAcceptAbove {
		return models.StatusPending
	}

	return models.StatusReview
}

func estimateTagConfidence(tags TagInfo) float64 {
	required := []bool{tags.Title != "", tags.Artist != "", tags.Album != "", tags.Track != 0}
	all := true
	any := false

	for _, present := range required {
		all = all && present
		any = any || present
	}

	score := 0.1

	if all {
		score = 0.6
	} else if any {
		score = 0.3
	}

	if tags.Year != "" {
		score += 0.2
	}

	if tags.AlbumArtist != "" {
		score += 0.2
	}

	if score > 0.95 {
		score = 0.95
	}

	return score
}

func (ctx *Context) tagsOrEmpty(filePath string) TagInfo {
	tags, err := ctx.Prober.ReadTags(filePath)

	if err != nil {
		return TagInfo{}
	}

	return tags
}

// Rendered layouts carry no extension; the destination keeps the
// source file's.
func withSourceExtension(renderedPath, sourcePath string) string {
	return renderedPath + strings.ToLower(filepath.Ext(sourcePath))
}

func rootForPath(filePath string, rootPaths []string) string {
	for _, root := range rootPaths {
		relative, err := filepath.Rel(root, filePath)

		if err == nil && relative != ".." && !strings.HasPrefix(relative, ".."+string(filepath.Separator)) {
			return root
		}
	}

	return ""
}

func confidenceValue(confidence float64) *float64 {
	return &confidence
}

// PrintPlanSummary reports what a plan would do in human terms.
func PrintPlanSummary(plan *models.Plan) {
	summary := plan.Metadata.Summary
	utils.ConsoleAndLogPrintf(
		"Plan %s: %s, %d delete, %d move, %d rename, %d review, %d art fetch, reclaiming %s",
		plan.PlanID,
		utils.Pluralize("duplicate group", int64(summary.DuplicateGroups)),
		summary.Delete,
		summary.Move,
		summary.Rename,
		summary.Review,
		summary.ArtFetches,
		humanBytes(summary.EstimatedReclaimBytes),
	)
}
