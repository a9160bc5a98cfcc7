package main

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var correctCmd = &cobra.Command{
	Use:   "correct <trip-id> field=value [field=value...]",
	Short: "Apply manual corrections to a trip's combined data",
	Long: `Overwrites combined fields with manually verified values. Corrected fields
are protected: attaching further screenshots will not clobber them.
Numeric-looking values are applied as numbers.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		corrections := make(map[string]any, len(args)-1)
		for _, pair := range args[1:] {
			field, raw, ok := strings.Cut(pair, "=")
			if !ok || field == "" {
				return eris.Errorf("corrections must be field=value, got %q", pair)
			}
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				corrections[field] = f
			} else {
				corrections[field] = raw
			}
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		trip, err := env.Pipeline.Correct(ctx, args[0], corrections)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(trip)
	},
}

func init() {
	rootCmd.AddCommand(correctCmd)
}
