package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leadmart/leadgen-cli/internal/leadio"
	"github.com/leadmart/leadgen-cli/internal/pipeline"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify and deduplicate the raw batch into the published set",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("verify"); err != nil {
			return err
		}

		// Verification touches no queue or source, only the lead files.
		p := pipeline.New(cfg, nil, nil, nil)
		stats, err := p.Verify(cmd.Context())
		if err != nil {
			if leadio.IsMissing(err) {
				fmt.Fprintln(os.Stderr, "No raw batch found. Run `leadgen-cli scrape` first.")
			}
			return err
		}

		fmt.Printf("Verified %d of %d raw leads (%d after dedup)\n",
			stats.Verified, stats.Input, stats.AfterDedup)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
