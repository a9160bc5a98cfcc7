package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gigsight/trips-cli/internal/model"
	"github.com/gigsight/trips-cli/internal/store"
)

var importRecompute bool

var importCmd = &cobra.Command{
	Use:   "import <archive.json>",
	Short: "Bulk-import an extraction archive",
	Long: `Imports a JSON array of previously exported extractions. On Postgres the
rows go in via the COPY protocol; trips referenced by the archive are
recomputed afterwards with --recompute.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read %s", args[0])
		}
		var exts []model.Extraction
		if err := json.Unmarshal(data, &exts); err != nil {
			return eris.Wrapf(err, "parse archive %s", args[0])
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if ps, ok := env.Store.(*store.PostgresStore); ok {
			n, err := ps.BulkAttachExtractions(ctx, exts)
			if err != nil {
				return err
			}
			zap.L().Info("bulk import complete", zap.Int64("rows", n))
		} else {
			for i := range exts {
				if err := env.Store.AttachExtraction(ctx, &exts[i]); err != nil {
					return err
				}
			}
		}

		if importRecompute {
			seen := map[string]bool{}
			for _, e := range exts {
				if e.TripID == "" || seen[e.TripID] {
					continue
				}
				seen[e.TripID] = true
				if _, err := env.Pipeline.Recompute(ctx, e.TripID); err != nil {
					return err
				}
			}
		}

		fmt.Printf("imported %d extractions\n", len(exts))
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importRecompute, "recompute", false, "recompute trips referenced by the archive")
	rootCmd.AddCommand(importCmd)
}
