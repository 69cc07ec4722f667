package cmd

import (
	"fmt"

	"github.com/agentic-research/fsbuild/internal/journal"
	"github.com/agentic-research/fsbuild/internal/sink"
	"github.com/spf13/cobra"
)

func init() {
	addOutputFlag(statusCmd)
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report generated files that were edited or removed since generation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := journal.OpenIn(outputDir)
		if err != nil {
			return err
		}
		defer func() { _ = j.Close() }()

		s, err := sink.NewDisk(outputDir)
		if err != nil {
			return err
		}
		drift, err := j.Drift(cmd.Context(), s.Filesystem())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(drift) == 0 {
			fmt.Fprintln(out, "Clean: every generated file matches its last recorded write.")
			return nil
		}
		for _, d := range drift {
			fmt.Fprintf(out, "%-9s %s\n", d.State+":", d.Path)
		}
		return nil
	},
}
