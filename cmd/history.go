package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/agentic-research/fsbuild/internal/journal"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var runID string

func init() {
	addOutputFlag(historyCmd)
	historyCmd.Flags().StringVar(&runID, "run", "", "Show the entries of one run")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the generation runs recorded in the output directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := journal.OpenIn(outputDir)
		if err != nil {
			return err
		}
		defer func() { _ = j.Close() }()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		if runID != "" {
			entries, err := j.Entries(cmd.Context(), runID)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return fmt.Errorf("run %s not found", runID)
			}
			fmt.Fprintln(w, "SEQ\tKIND\tOUTCOME\tPATH\tHASH")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.Seq, e.Kind, e.Outcome, e.Path, e.Hash)
			}
			return w.Flush()
		}

		runs, err := j.Runs(cmd.Context())
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
			return nil
		}
		fmt.Fprintln(w, "RUN\tWHEN\tWRITTEN\tKEPT\tDESCRIPTION")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", r.ID, humanize.Time(r.StartedAt), r.Written, r.Skipped, r.Description)
		}
		return w.Flush()
	},
}
