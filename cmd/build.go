package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/agentic-research/fsbuild/api"
	"github.com/agentic-research/fsbuild/internal/journal"
	"github.com/agentic-research/fsbuild/internal/materialize"
	"github.com/agentic-research/fsbuild/internal/sink"
	"github.com/spf13/cobra"
)

var (
	dryRun    bool
	exportAST string
	noJournal bool
)

func init() {
	addOutputFlag(buildCmd)
	addMaxIterationsFlag(buildCmd)
	addVarFlag(buildCmd)
	buildCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and plan only; print the tree instead of writing it")
	buildCmd.Flags().StringVar(&exportAST, "export-ast", "", "Write the parsed description as JSON to this file")
	buildCmd.Flags().BoolVar(&noJournal, "no-journal", false, "Do not record the run in the output's journal")
	rootCmd.AddCommand(buildCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build INPUT",
	Short: "Generate the file tree described by INPUT",
	Long: `Generate the file tree described by INPUT (.fsb, .sttfs, .hcl, .json or
.yaml) under the output directory. Existing files are replaced unless the
file sets replaceifexists = false.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	cfg, desc, err := load(args[0])
	if err != nil {
		return err
	}
	if exportAST != "" {
		if err := writeAST(exportAST, desc); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "AST exported to %s\n", exportAST)
	}
	if dryRun {
		return plan(cmd, cfg, desc, log)
	}

	s, err := sink.NewDisk(outputDir)
	if err != nil {
		return err
	}
	eng, err := newEngine(s, cfg, log)
	if err != nil {
		return err
	}
	eng.Record = !noJournal
	eng.Stdout = cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	report, err := eng.Materialize(ctx, desc.Decls, "", nil)
	if !noJournal && report != nil {
		// Partial runs are recorded too, so status can see what was written.
		if jerr := record(context.WithoutCancel(ctx), start, args[0], report); jerr != nil {
			log.Warn("journal not updated", "error", jerr)
		}
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Generated %s: %d directories, %d files written, %d kept in %v\n",
		outputDir, len(report.Directories), len(report.Written), len(report.Skipped),
		time.Since(start).Round(time.Millisecond))
	for _, p := range report.Skipped {
		fmt.Fprintf(out, "  kept existing %s\n", p)
	}
	return nil
}

func record(ctx context.Context, startedAt time.Time, input string, report *materialize.Report) error {
	j, err := journal.OpenIn(outputDir)
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	input, _ = filepath.Abs(input)
	base, _ := filepath.Abs(outputDir)
	_, err = j.Record(ctx, startedAt, input, base, report.Entries)
	return err
}

func writeAST(path string, desc *api.Description) error {
	data, err := json.MarshalIndent(api.Export(desc), "", "  ")
	if err != nil {
		return fmt.Errorf("export ast: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("export ast: %w", err)
	}
	return nil
}
