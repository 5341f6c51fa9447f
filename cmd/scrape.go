package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Acquire raw leads for the maintenance target and pending orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("scrape"); err != nil {
			return err
		}

		env, err := initPipeline(ctx, false)
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Pipeline.Scrape(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Scraped %d raw leads across %d targets (%d orders fulfilled)\n",
			res.Raw, res.Targets, len(res.Completed))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
}
