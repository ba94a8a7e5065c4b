package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"audio-tools/models"
)

var losslessExtensions = []string{".flac", ".wav"}

const (
	OrderByDigest = "digest"
	OrderBySize   = "size"
)

const (
	ActionKeep       = "KEEP"
	ActionDelete     = "DELETE"
	ActionMove       = "MOVE"
	ActionRename     = "RENAME"
	ActionSkip       = "SKIP"
	ActionMarkReview = "MARK-REVIEW"
)

// DuplicateGroup is derived from the inventory on every call, never
// persisted. GroupID is display-only; GroupDigest is the durable identity
// used as the override key.
type DuplicateGroup struct {
	GroupID     int
	GroupDigest string
	Members     []models.File
	Canonical   models.File
	TotalBytes  int64
}

type ResolvedAction struct {
	File       models.File
	Action     string
	Template   string
	Overridden bool
}

// ListDuplicateGroups partitions inventory records by content digest and
// selects one canonical member per group. Display ids are always assigned
// in ascending digest order; OrderBySize only re-sorts the result for
// review ergonomics.
func (ctx *Context) ListDuplicateGroups(preferLossless bool, orderBy string) ([]DuplicateGroup, error) {
	var digests []string
	result := ctx.DB.Model(&models.File{}).
		Where("digest IS NOT NULL").
		Group("digest").
		Having("COUNT(*) > 1").
		Order("digest").
		Pluck("digest", &digests)

	if result.Error != nil {
		return nil, result.Error
	}

	groups := make([]DuplicateGroup, 0, len(digests))

	for i, digest := range digests {
		var members []models.File
		result = ctx.DB.Where("digest = ?", digest).Order("id").Find(&members)

		if result.Error != nil {
			return nil, result.Error
		}

		group := DuplicateGroup{
			GroupID:     i + 1,
			GroupDigest: digest,
			Members:     members,
			Canonical:   selectCanonical(members, preferLossless),
		}

		for _, member := range members {
			group.TotalBytes += member.Size
		}

		groups = append(groups, group)
	}

	if orderBy == OrderBySize {
		sort.SliceStable(groups, func(i, j int) bool {
			if len(groups[i].Members) != len(groups[j].Members) {
				return len(groups[i].Members) > len(groups[j].Members)
			}

			return groups[i].TotalBytes > groups[j].TotalBytes
		})
	}

	return groups, nil
}

// selectCanonical is pure: the result depends only on member attributes
// and their enumeration order, so repeated calls on an unchanged
// inventory pick the same canonical.
func selectCanonical(members []models.File, preferLossless bool) models.File {
	best := 0
	bestLossless, bestBitrate := dedupeRank(members[0], preferLossless)

	for i := 1; i < len(members); i++ {
		lossless, bitrate := dedupeRank(members[i], preferLossless)

		// Strictly-better only, so ties keep the earliest member
		if lossless < bestLossless || (lossless == bestLossless && bitrate < bestBitrate) {
			best = i
			bestLossless = lossless
			bestBitrate = bitrate
		}
	}

	return members[best]
}

// dedupeRank orders ascending: lossless files first when preferred, then
// higher bitrate.
func dedupeRank(file models.File, preferLossless bool) (int, int) {
	lossless := 1

	if preferLossless && isLosslessFile(file.Path) {
		lossless = 0
	}

	bitrate := 0

	if file.Bitrate != nil {
		bitrate = *file.Bitrate
	}

	return lossless, -bitrate
}

func isLosslessFile(filePath string) bool {
	extension := strings.ToLower(filepath.Ext(filePath))

	for _, lossless := range losslessExtensions {
		if extension == lossless {
			return true
		}
	}

	return false
}

// resolveGroupActions computes a final action per member: KEEP for the
// canonical, the dedupe-mode default for the rest, with persisted
// overrides winning absolutely.
func (ctx *Context) resolveGroupActions(group DuplicateGroup, dedupeMode string) ([]ResolvedAction, error) {
	overrides, err := ctx.GetGroupOverrides(group.GroupDigest)

	if err != nil {
		return nil, err
	}

	actions := make([]ResolvedAction, 0, len(group.Members))

	for _, member := range group.Members {
		action := ResolvedAction{
			File:   member,
			Action: defaultDedupeAction(dedupeMode),
		}

		if member.Path == group.Canonical.Path {
			action.Action = ActionKeep
		}

		if override, found := overrides[member.Path]; found {
			action.Action = strings.ToUpper(override.Action)
			action.Overridden = true

			if override.Template != nil {
				action.Template = *override.Template
			}
		}

		actions = append(actions, action)
	}

	return actions, nil
}

func defaultDedupeAction(dedupeMode string) string {
	switch dedupeMode {
	case "delete":
		return ActionDelete

	case "move":
		return ActionMove
	}

	return ActionSkip
}

type GroupStats struct {
	Groups       int
	AvgGroupSize float64
	MaxGroupSize int
}

func ComputeGroupStats(groups []DuplicateGroup) GroupStats {
	stats := GroupStats{Groups: len(groups)}

	if len(groups) == 0 {
		return stats
	}

	total := 0

	for _, group := range groups {
		total += len(group.Members)

		if len(group.Members) > stats.MaxGroupSize {
			stats.MaxGroupSize = len(group.Members)
		}
	}

	stats.AvgGroupSize = float64(total) / float64(len(groups))
	return stats
}

// formatMemberLabel renders "Artist - Title (CODEC, 44.1kHz)" with
// filename fallbacks for missing tags.
func (ctx *Context) formatMemberLabel(file models.File) string {
	tags, err := ctx.Prober.ReadTags(file.Path)

	if err != nil {
		tags = TagInfo{}
	}

	artist := tags.Artist

	if artist == "" {
		artist = tags.AlbumArtist
	}

	if artist == "" {
		artist = "Unknown Artist"
	}

	title := tags.Title

	if title == "" {
		base := filepath.Base(file.Path)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	codec := strings.ToUpper(strings.TrimPrefix(filepath.Ext(file.Path), "."))
	sampleText := "?"

	if file.SampleRate != nil && *file.SampleRate > 0 {
		sampleText = fmt.Sprintf("%.1fkHz", float64(*file.SampleRate)/1000)
	}

	return fmt.Sprintf("%s - %s (%s, %s)", artist, title, codec, sampleText)
}
