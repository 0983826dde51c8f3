package relay

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/poynt/relay/internal/models"
)

// runBatch applies call to every target and collects one item per target, in input order.
// At most limit calls run at once. A failed or panicking call only fails its own item.
func runBatch[T any](
	ctx context.Context,
	limit int,
	targets []T,
	name func(T) string,
	call func(context.Context, T) (*models.ProtocolResult, error),
) *models.BatchResult {
	items := make([]models.BatchItem, len(targets))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			items[i] = runItem(ctx, name(target), func(ctx context.Context) (*models.ProtocolResult, error) {
				return call(ctx, target)
			})
			return nil
		})
	}
	_ = g.Wait()

	return summarize(items)
}

func runItem(ctx context.Context, target string, call func(context.Context) (*models.ProtocolResult, error)) (item models.BatchItem) {
	item.Target = target
	defer func() {
		if r := recover(); r != nil {
			item = models.BatchItem{Target: target, Error: fmt.Sprintf("panic: %v", r)}
		}
	}()

	result, err := call(ctx)
	if err != nil {
		item.Error = err.Error()
		return item
	}
	item.Success = true
	item.Result = result
	return item
}

func summarize(items []models.BatchItem) *models.BatchResult {
	batch := &models.BatchResult{
		Success:        true,
		Results:        items,
		TotalProcessed: len(items),
	}
	for _, item := range items {
		if item.Success {
			batch.SuccessCount++
		} else {
			batch.FailureCount++
		}
	}
	return batch
}
