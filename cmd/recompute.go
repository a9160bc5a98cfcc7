package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/gigsight/trips-cli/internal/store"
)

var recomputeAll bool

var recomputeCmd = &cobra.Command{
	Use:   "recompute [trip-id]",
	Short: "Rebuild a trip's combined record and metrics from its screenshots",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if recomputeAll {
			trips, err := env.Store.ListTrips(ctx, store.TripFilter{Limit: 10000})
			if err != nil {
				return err
			}
			for _, t := range trips {
				if _, err := env.Pipeline.Recompute(ctx, t.ID); err != nil {
					return err
				}
			}
			return nil
		}

		if len(args) == 0 {
			return cmd.Usage()
		}
		trip, err := env.Pipeline.Recompute(ctx, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(trip)
	},
}

func init() {
	recomputeCmd.Flags().BoolVar(&recomputeAll, "all", false, "recompute every stored trip")
	rootCmd.AddCommand(recomputeCmd)
}
