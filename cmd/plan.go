package cmd

import (
	"log/slog"
	"os"

	"github.com/agentic-research/fsbuild/api"
	"github.com/agentic-research/fsbuild/internal/config"
	"github.com/agentic-research/fsbuild/internal/printer"
	"github.com/agentic-research/fsbuild/internal/sink"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
)

func init() {
	addOutputFlag(planCmd)
	addMaxIterationsFlag(planCmd)
	addVarFlag(planCmd)
	rootCmd.AddCommand(planCmd)
}

var planCmd = &cobra.Command{
	Use:   "plan INPUT",
	Short: "Print the tree INPUT would generate, without writing anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(cmd)
		if err != nil {
			return err
		}
		cfg, desc, err := load(args[0])
		if err != nil {
			return err
		}
		return plan(cmd, cfg, desc, log)
	},
}

// plan materializes desc into a dry-run sink over the current output
// directory, so files that would be kept show up as such.
func plan(cmd *cobra.Command, cfg *config.Config, desc *api.Description, log *slog.Logger) error {
	var base billy.Filesystem
	if fi, err := os.Stat(outputDir); err == nil && fi.IsDir() {
		base = osfs.New(outputDir)
	}
	p := sink.NewPlan(base)
	eng, err := newEngine(p, cfg, log)
	if err != nil {
		return err
	}
	if _, err := eng.Materialize(cmd.Context(), desc.Decls, "", nil); err != nil {
		return err
	}
	return printer.PrintTree(cmd.OutOrStdout(), outputDir, p.Final(), p.Skipped())
}
