package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	validateWeek string
	validateEnd  string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Cross-check a weekly summary screenshot against individual trips",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		start, err := time.Parse("2006-01-02", validateWeek)
		if err != nil {
			return eris.Wrap(err, "--week must be YYYY-MM-DD")
		}
		end := start.AddDate(0, 0, 7)
		if validateEnd != "" {
			end, err = time.Parse("2006-01-02", validateEnd)
			if err != nil {
				return eris.Wrap(err, "--end must be YYYY-MM-DD")
			}
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := env.Pipeline.ValidateWeek(ctx, start, end)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateWeek, "week", "", "period start date (YYYY-MM-DD)")
	validateCmd.Flags().StringVar(&validateEnd, "end", "", "period end date (default: start + 7 days)")
	_ = validateCmd.MarkFlagRequired("week")
	rootCmd.AddCommand(validateCmd)
}
