package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gigsight/trips-cli/internal/export"
	"github.com/gigsight/trips-cli/internal/model"
	"github.com/gigsight/trips-cli/internal/store"
)

var (
	exportStatus   string
	exportPlatform string
	exportLimit    int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export trip data to XLSX",
}

var exportTripsCmd = &cobra.Command{
	Use:   "trips <output.xlsx>",
	Short: "Export trips to an XLSX workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		trips, err := env.Store.ListTrips(ctx, store.TripFilter{
			Status:   model.TripStatus(exportStatus),
			Platform: exportPlatform,
			Limit:    exportLimit,
		})
		if err != nil {
			return err
		}

		if err := export.WriteTrips(args[0], trips); err != nil {
			return err
		}
		fmt.Printf("wrote %d trips to %s\n", len(trips), args[0])
		return nil
	},
}

var exportWeeklyCmd = &cobra.Command{
	Use:   "weekly <output.xlsx>",
	Short: "Export weekly validation reports to an XLSX workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		reports, err := env.Store.ListWeeklyReports(ctx, exportLimit)
		if err != nil {
			return err
		}

		if err := export.WriteWeeklyReports(args[0], reports); err != nil {
			return err
		}
		fmt.Printf("wrote %d reports to %s\n", len(reports), args[0])
		return nil
	},
}

func init() {
	exportCmd.PersistentFlags().StringVar(&exportStatus, "status", "", "filter by workflow status")
	exportCmd.PersistentFlags().StringVar(&exportPlatform, "platform", "", "filter by platform")
	exportCmd.PersistentFlags().IntVar(&exportLimit, "limit", 10000, "max records to export")

	exportCmd.AddCommand(exportTripsCmd)
	exportCmd.AddCommand(exportWeeklyCmd)
	rootCmd.AddCommand(exportCmd)
}
