package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gigsight/trips-cli/internal/model"
	"github.com/gigsight/trips-cli/internal/pipeline"
	"github.com/gigsight/trips-cli/pkg/vision"
)

var processTrip string

var processCmd = &cobra.Command{
	Use:   "process [files...]",
	Short: "Process screenshot payloads through the reconciliation pipeline",
	Long: `Processes one or more screenshots. JSON files are treated as pre-transcribed
OCR payloads; image files are transcribed through the vision API first.
Without --trip each file starts its own trip.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		items := make([]pipeline.BatchItem, 0, len(args))
		for _, path := range args {
			in, err := loadPayload(ctx, env, path)
			if err != nil {
				return err
			}
			items = append(items, pipeline.BatchItem{TripID: processTrip, Input: *in})
		}

		results, err := env.Pipeline.ProcessBatch(ctx, items, cfg.Batch.MaxConcurrent)
		if err != nil {
			return err
		}

		failed := 0
		for i, res := range results {
			if res.Err != nil {
				failed++
				fmt.Printf("%-40s FAILED: %v\n", filepath.Base(args[i]), res.Err)
				continue
			}
			tripID := "-"
			status := "-"
			if res.Trip != nil {
				tripID = res.Trip.ID
				status = string(res.Trip.Status)
			}
			fmt.Printf("%-40s %-18s conf=%.2f trip=%s status=%s\n",
				filepath.Base(args[i]), res.Extraction.Type, res.Extraction.Confidence, tripID, status)
		}
		if failed > 0 {
			return eris.Errorf("%d of %d screenshots failed", failed, len(results))
		}
		return nil
	},
}

// loadPayload reads one input file: JSON files parse directly, images go
// through the vision client.
func loadPayload(ctx context.Context, env *pipelineEnv, path string) (*model.OCRInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		var in model.OCRInput
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, eris.Wrapf(err, "parse OCR payload %s", path)
		}
		return &in, nil
	}

	mediaType, err := mediaTypeFor(path)
	if err != nil {
		return nil, err
	}
	if env.Vision == nil {
		return nil, eris.Errorf("%s is an image but vision transcription is not configured", path)
	}
	return env.Vision.ExtractScreenshot(ctx, vision.Request{
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MediaType:   mediaType,
	})
}

func mediaTypeFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png", nil
	case ".jpg", ".jpeg":
		return "image/jpeg", nil
	case ".gif":
		return "image/gif", nil
	case ".webp":
		return "image/webp", nil
	default:
		return "", eris.Errorf("unsupported file type %s", path)
	}
}

func init() {
	processCmd.Flags().StringVar(&processTrip, "trip", "", "attach all screenshots to this trip ID")
	rootCmd.AddCommand(processCmd)
}
