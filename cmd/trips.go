package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gigsight/trips-cli/internal/model"
	"github.com/gigsight/trips-cli/internal/store"
)

var (
	tripsStatus   string
	tripsPlatform string
	tripsLimit    int
	tripsOffset   int
)

var tripsCmd = &cobra.Command{
	Use:   "trips",
	Short: "Inspect reconciled trips",
}

var tripsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trips",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		trips, err := env.Store.ListTrips(ctx, store.TripFilter{
			Status:   model.TripStatus(tripsStatus),
			Platform: tripsPlatform,
			Limit:    tripsLimit,
			Offset:   tripsOffset,
		})
		if err != nil {
			return err
		}

		for _, t := range trips {
			earnings := "-"
			if t.Data.TotalEarnings != nil {
				earnings = fmt.Sprintf("$%.2f", *t.Data.TotalEarnings)
			}
			profit := "-"
			if t.Metrics != nil {
				profit = fmt.Sprintf("$%.2f", t.Metrics.Profit)
			}
			fmt.Printf("%s  %-20s earnings=%-9s profit=%-9s conf=%.2f\n",
				t.ID, t.Status, earnings, profit, t.Data.Confidence)
		}
		fmt.Printf("%d trips\n", len(trips))
		return nil
	},
}

var tripsShowCmd = &cobra.Command{
	Use:   "show <trip-id>",
	Short: "Show one trip as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		trip, err := env.Store.GetTrip(ctx, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(trip)
	},
}

func init() {
	tripsListCmd.Flags().StringVar(&tripsStatus, "status", "", "filter by workflow status")
	tripsListCmd.Flags().StringVar(&tripsPlatform, "platform", "", "filter by platform")
	tripsListCmd.Flags().IntVar(&tripsLimit, "limit", 50, "max trips to list")
	tripsListCmd.Flags().IntVar(&tripsOffset, "offset", 0, "listing offset")

	tripsCmd.AddCommand(tripsListCmd)
	tripsCmd.AddCommand(tripsShowCmd)
	rootCmd.AddCommand(tripsCmd)
}
