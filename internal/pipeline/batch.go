package pipeline

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gigsight/trips-cli/internal/model"
)

// BatchItem is one screenshot payload in a batch run. An empty TripID
// starts a new trip for the item.
type BatchItem struct {
	TripID string
	Input  model.OCRInput
}

// BatchResult pairs a batch item with its outcome. Per-item failures land
// in Err; the batch keeps going.
type BatchResult struct {
	Item       BatchItem
	Extraction *model.Extraction
	Trip       *model.TripRecord
	Err        error
}

// ProcessBatch runs many screenshots concurrently while keeping each trip's
// screenshots strictly serial: items are grouped by trip ID and each group
// is one unit of work. Results come back in input order. Only context
// cancellation aborts the batch.
func (p *Pipeline) ProcessBatch(ctx context.Context, items []BatchItem, maxConcurrent int) ([]BatchResult, error) {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	results := make([]BatchResult, len(items))
	for i, item := range items {
		results[i] = BatchResult{Item: item}
	}

	// Items without a trip ID are independent; items sharing a trip ID
	// must apply in order.
	groups := make(map[string][]int)
	var order [][]int
	for i, item := range items {
		if item.TripID == "" {
			order = append(order, []int{i})
			continue
		}
		if _, seen := groups[item.TripID]; !seen {
			groups[item.TripID] = nil
		}
		groups[item.TripID] = append(groups[item.TripID], i)
	}
	for _, idxs := range groups {
		order = append(order, idxs)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for _, idxs := range order {
		g.Go(func() error {
			for _, i := range idxs {
				if err := ctx.Err(); err != nil {
					return err
				}
				item := results[i].Item
				ext, trip, err := p.ProcessScreenshot(ctx, item.TripID, item.Input)
				results[i].Extraction = ext
				results[i].Trip = trip
				results[i].Err = err
				if err != nil {
					zap.L().Warn("batch item failed",
						zap.Int("index", i),
						zap.String("trip_id", item.TripID),
						zap.Error(err),
					)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
