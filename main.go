package main

import (
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"audio-tools/config"
	"audio-tools/models"
	"audio-tools/utils"

	"github.com/spf13/pflag"
)

//goland:noinspection GoUnnecessarilyExportedIdentifiers
var AppVersion = "1.0"

var usageText = "Usage: ./audio-tools command.\nAvailable commands:\n  scan\n  groups\n  stats\n  report\n  plan\n  apply\n  undo\n  override\n  clear_override\n"

//go:embed config.toml
var defaultConfigData []byte

func main() {
	c, err := config.Load(defaultConfigData)

	if err != nil {
		log.Fatal(err)
	}

	err = utils.SetupLogger(c.LogFilePath)

	if err != nil {
		log.Fatal(err)
	}

	lock, err := acquireProcessLock(c.DBPath)

	if err != nil {
		log.Fatal(err)
	}

	defer lock.Unlock()

	ctx := &Context{
		Config:        c,
		DB:            initDb(c),
		Prober:        &FfprobeProber{},
		Fingerprinter: &FpcalcFingerprinter{},
	}

	debugFormat := ""

	if c.IsDebug {
		debugFormat = " (debug)"
	}

	utils.ConsoleAndLogPrintf("Audio Tools version %s%s. Using %s for scan operations", AppVersion, debugFormat, utils.Pluralize("thread", c.Jobs))
	startTime := time.Now()

	if len(os.Args) < 2 {
		utils.ConsoleAndLogPrintf(fmt.Sprintf("A command must be specified. %s", usageText))
		return
	}

	err = ctx.runCommand(strings.ToLower(os.Args[1]), os.Args[2:])

	if err != nil {
		utils.ConsoleAndLogPrintf("Error: %v", err)
		os.Exit(1)
	}

	utils.ConsoleAndLogPrintf("Finished in %s", utils.FormatDuration(time.Since(startTime)))
}

func (ctx *Context) runCommand(command string, arguments []string) error {
	switch command {
	case "scan":
		flags := pflag.NewFlagSet("scan", pflag.ExitOnError)
		jobs := flags.Int64("jobs", ctx.Config.Jobs, "concurrent scan workers")
		parseFlags(flags, arguments)

		if len(flags.Args()) == 0 {
			log.Fatal("scan requires at least one root path.")
		}

		return ctx.runScan(flags.Args(), *jobs)

	case "groups":
		flags := pflag.NewFlagSet("groups", pflag.ExitOnError)
		orderBy := flags.String("order", OrderByDigest, "group ordering: digest or size")
		parseFlags(flags, arguments)

		return ctx.PrintDuplicateGroups(*orderBy)

	case "stats":
		return ctx.PrintGroupStats()

	case "report":
		flags := pflag.NewFlagSet("report", pflag.ExitOnError)
		orderBy := flags.String("order", OrderByDigest, "group ordering: digest or size")
		parseFlags(flags, arguments)

		if len(flags.Args()) != 1 {
			log.Fatal("report requires an output path.")
		}

		return ctx.WriteGroupReport(flags.Args()[0], *orderBy)

	case "plan":
		flags := pflag.NewFlagSet("plan", pflag.ExitOnError)
		dedupeMode := flags.String("mode", ctx.Config.DedupeMode, "dedupe mode: delete, move or off")
		dupeDir := flags.String("dupe-dir", ctx.Config.DupeDir, "destination for non-canonical duplicates in move mode")
		layout := flags.String("layout", ctx.Config.LayoutTemplate, "layout template for renames (empty disables)")
		artOnly := flags.Bool("art-only", false, "plan only art fetches")
		output := flags.String("output", "plan.json", "plan file to write")
		parseFlags(flags, arguments)

		if len(flags.Args()) == 0 {
			log.Fatal("plan requires at least one root path.")
		}

		return ctx.runPlan(flags.Args(), *dedupeMode, *dupeDir, *layout, *artOnly, *output)

	case "apply":
		flags := pflag.NewFlagSet("apply", pflag.ExitOnError)
		dryRun := flags.Bool("dry-run", false, "journal what would happen without touching the filesystem")
		force := flags.Bool("force", false, "execute review and low-confidence operations as well")
		quarantine := flags.Bool("quarantine", ctx.Config.QuarantineEnabled, "quarantine deletes instead of removing files")
		quarantineDir := flags.String("quarantine-dir", ctx.Config.QuarantineDir, "quarantine destination directory")
		parseFlags(flags, arguments)

		if len(flags.Args()) != 1 {
			log.Fatal("apply requires a plan file path.")
		}

		return ctx.runApply(flags.Args()[0], ApplyOptions{
			DryRun:             *dryRun,
			ForceLowConfidence: *force,
			QuarantineEnabled:  *quarantine,
			QuarantineDir:      *quarantineDir,
		})

	case "undo":
		flags := pflag.NewFlagSet("undo", pflag.ExitOnError)
		dryRun := flags.Bool("dry-run", false, "print the intended reversals without moving files")
		parseFlags(flags, arguments)

		if len(flags.Args()) != 1 {
			log.Fatal("undo requires a journal id or \"last\".")
		}

		return ctx.Undo(flags.Args()[0], *dryRun)

	case "override":
		flags := pflag.NewFlagSet("override", pflag.ExitOnError)
		template := flags.String("template", "", "rename template for RENAME overrides")
		parseFlags(flags, arguments)

		if len(flags.Args()) != 3 {
			log.Fatal("override requires a group digest, a member path and an action.")
		}

		return ctx.SetGroupOverride(flags.Args()[0], flags.Args()[1], flags.Args()[2], *template)

	case "clear_override":
		if len(arguments) != 2 {
			log.Fatal("clear_override requires a group digest and a member path.")
		}

		return ctx.ClearGroupOverride(arguments[0], arguments[1])
	}

	return errors.New(fmt.Sprintf("Command \"%s\" not recognised. %s", command, usageText))
}

func parseFlags(flags *pflag.FlagSet, arguments []string) {
	err := flags.Parse(arguments)

	if err != nil {
		log.Fatal(err)
	}
}

func (ctx *Context) runScan(rootPaths []string, jobs int64) error {
	stats, err := ctx.Scan(rootPaths, jobs)

	if err != nil {
		return err
	}

	utils.ConsoleAndLogPrintf(
		"Scanned %s: %d hashed, %d fingerprinted, %d errors",
		utils.Pluralize("file", stats.FilesScanned),
		stats.HashesComputed,
		stats.FingerprintsComputed,
		stats.Errors,
	)

	for _, failure := range stats.Failures {
		utils.ConsoleAndLogPrintf("Scan error: %v", failure)
	}

	return nil
}

func (ctx *Context) runPlan(rootPaths []string, dedupeMode, dupeDir, layout string, artOnly bool, outputPath string) error {
	if dedupeMode != "delete" && dedupeMode != "move" && dedupeMode != "off" {
		return fmt.Errorf("%w: %s", ErrUnknownDedupeMode, dedupeMode)
	}

	plan, err := ctx.BuildPlan(PlanRequest{
		RootPaths:           rootPaths,
		DedupeMode:          dedupeMode,
		DupeDir:             dupeDir,
		Layout:              layout,
		ArtOnly:             artOnly,
		ConfidenceThreshold: ctx.Config.ConfidenceThreshold,
		Thresholds: models.Thresholds{
			AutoAcceptAbove:    ctx.Config.AutoAcceptAbove,
			RequireReviewBelow: ctx.Config.RequireReviewBelow,
		},
	})

	if err != nil {
		return err
	}

	err = writePlanFile(plan, outputPath)

	if err != nil {
		return err
	}

	PrintPlanSummary(plan)
	utils.ConsoleAndLogPrintf("Plan written to \"%s\"", outputPath)
	return nil
}

func (ctx *Context) runApply(planPath string, options ApplyOptions) error {
	plan, err := readPlanFile(planPath)

	if err != nil {
		return err
	}

	journal, err := ctx.ApplyPlan(plan, options)

	if err != nil {
		return err
	}

	utils.ConsoleAndLogPrintf("Applied %s", utils.Pluralize("operation", int64(len(journal.Entries))))
	return nil
}
