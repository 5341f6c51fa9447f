package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/leadmart/leadgen-cli/internal/model"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect pipeline run history",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent pipeline runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListRuns(ctx, runsLimit)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRuns(os.Stdout, runs)
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err := st.GetRun(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Run:         %s\n", rec.ID)
		fmt.Printf("Status:      %s\n", rec.Status)
		fmt.Printf("Targets:     %d\n", rec.Targets)
		fmt.Printf("Raw:         %d\n", rec.RawCount)
		fmt.Printf("After dedup: %d\n", rec.AfterDedup)
		fmt.Printf("Verified:    %d\n", rec.Verified)
		fmt.Printf("Started:     %s\n", rec.StartedAt.Format(time.RFC3339))
		if !rec.FinishedAt.IsZero() {
			fmt.Printf("Finished:    %s\n", rec.FinishedAt.Format(time.RFC3339))
		}
		if rec.Error != "" {
			fmt.Printf("Error:       %s\n", rec.Error)
		}
		return nil
	},
}

func formatRuns(out io.Writer, runs []model.RunRecord) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTARGETS\tRAW\tVERIFIED\tSTARTED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.Status, r.Targets, r.RawCount, r.Verified,
			r.StartedAt.Format(time.RFC3339))
	}
	w.Flush()
}

func init() {
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "max runs to list")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
