package main

import (
	"bytes"
	"fmt"
	"os"

	"audio-tools/utils"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// PrintDuplicateGroups renders the duplicate groups as a table for
// interactive review.
func (ctx *Context) PrintDuplicateGroups(orderBy string) error {
	groups, err := ctx.ListDuplicateGroups(ctx.Config.PreferLossless, orderBy)

	if err != nil {
		return err
	}

	if len(groups) == 0 {
		utils.ConsoleAndLogPrintf("No duplicate groups found. Have you scanned?")
		return nil
	}

	utils.PrintFormattedTitle(fmt.Sprintf("Found %s", utils.Pluralize("duplicate group", int64(len(groups)))))

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Group", "Member", "Bitrate", "Size", "Canonical"})

	for _, group := range groups {
		for _, member := range group.Members {
			bitrateText := "?"

			if member.Bitrate != nil {
				bitrateText = fmt.Sprintf("%d kbps", *member.Bitrate/1000)
			}

			canonicalText := ""

			if member.Path == group.Canonical.Path {
				canonicalText = "*"
			}

			t.AppendRow(table.Row{
				group.GroupID,
				member.Path,
				bitrateText,
				humanBytes(member.Size),
				canonicalText,
			})
		}

		t.AppendSeparator()
	}

	t.Render()
	return nil
}

func (ctx *Context) PrintGroupStats() error {
	groups, err := ctx.ListDuplicateGroups(ctx.Config.PreferLossless, OrderByDigest)

	if err != nil {
		return err
	}

	stats := ComputeGroupStats(groups)
	var totalBytes int64

	for _, group := range groups {
		totalBytes += group.TotalBytes
	}

	utils.ConsoleAndLogPrintf(
		"%s, average size %.1f, largest %d, totalling %s",
		utils.Pluralize("duplicate group", int64(stats.Groups)),
		stats.AvgGroupSize,
		stats.MaxGroupSize,
		humanBytes(totalBytes),
	)

	return nil
}

type groupReportMember struct {
	Path      string `yaml:"path"`
	Label     string `yaml:"label"`
	SizeBytes int64  `yaml:"size_bytes"`
	Canonical bool   `yaml:"canonical"`
}

type groupReport struct {
	GroupID    int                 `yaml:"group_id"`
	Digest     string              `yaml:"digest"`
	TotalBytes int64               `yaml:"total_bytes"`
	Members    []groupReportMember `yaml:"members"`
}

// WriteGroupReport dumps the duplicate groups as YAML for scripted
// review tooling.
func (ctx *Context) WriteGroupReport(outputPath, orderBy string) error {
	groups, err := ctx.ListDuplicateGroups(ctx.Config.PreferLossless, orderBy)

	if err != nil {
		return err
	}

	reports := make([]groupReport, 0, len(groups))

	for _, group := range groups {
		report := groupReport{
			GroupID:    group.GroupID,
			Digest:     group.GroupDigest,
			TotalBytes: group.TotalBytes,
		}

		for _, member := range group.Members {
			report.Members = append(report.Members, groupReportMember{
				Path:      member.Path,
				Label:     ctx.formatMemberLabel(member),
				SizeBytes: member.Size,
				Canonical: member.Path == group.Canonical.Path,
			})
		}

		reports = append(reports, report)
	}

	data, err := yaml.Marshal(reports)

	if err != nil {
		return err
	}

	err = atomic.WriteFile(outputPath, bytes.NewReader(data))

	if err != nil {
		return err
	}

	utils.ConsoleAndLogPrintf("Report written to \"%s\"", outputPath)
	return nil
}

func humanBytes(size int64) string {
	if size < 0 {
		size = 0
	}

	return humanize.Bytes(uint64(size))
}
