package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the full pipeline: scrape, verify, persist, update queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		env, err := initPipeline(ctx, true)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Pipeline.Run(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Run complete: %d targets, %d raw, %d after dedup, %d verified, %d orders fulfilled\n",
			res.Targets, res.Stats.Input, res.Stats.AfterDedup, res.Stats.Verified, len(res.Completed))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
