package main

import (
	"fmt"
	"strings"
	"time"

	"audio-tools/models"

	"gorm.io/gorm/clause"
)

var overrideActions = []string{ActionKeep, ActionDelete, ActionMove, ActionRename, ActionSkip, ActionMarkReview}

// SetGroupOverride upserts a (group digest, member path) override with
// last-write-wins semantics.
func (ctx *Context) SetGroupOverride(groupDigest, filePath, action, template string) error {
	normalized := strings.ToUpper(action)
	found := false

	for _, known := range overrideActions {
		if normalized == known {
			found = true
			break
		}
	}

	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownOverrideAction, action)
	}

	override := models.GroupOverride{
		GroupDigest: groupDigest,
		Path:        filePath,
		Action:      normalized,
		UpdatedAt:   time.Now().UTC(),
	}

	if template != "" {
		override.Template = &template
	}

	result := ctx.DB.Clauses(clause.OnConflict{UpdateAll: true}).Create(&override)
	return result.Error
}

func (ctx *Context) ClearGroupOverride(groupDigest, filePath string) error {
	result := ctx.DB.Where("group_digest = ? AND path = ?", groupDigest, filePath).Delete(&models.GroupOverride{})
	return result.Error
}

func (ctx *Context) GetGroupOverrides(groupDigest string) (map[string]models.GroupOverride, error) {
	var overrides []models.GroupOverride
	result := ctx.DB.Where("group_digest = ?", groupDigest).Find(&overrides)

	if result.Error != nil {
		return nil, result.Error
	}

	byPath := make(map[string]models.GroupOverride, len(overrides))

	for _, override := range overrides {
		byPath[override.Path] = override
	}

	return byPath, nil
}
