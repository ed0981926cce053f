package tasks

import (
	"context"
	"fmt"

	"github.com/thenoetrevino/clexbrowser/internal/models"
	"github.com/thenoetrevino/clexbrowser/internal/worker"
)

// BulkBatchSize is the number of devices deleted per transaction
const BulkBatchSize = 50

// BulkDeleter deletes the definitions of a batch of devices atomically
type BulkDeleter interface {
	DeleteDefinitions(ctx context.Context, deviceIDs []int) ([]*models.Definition, error)
}

// BulkDeleteDefinitions removes the definitions of many devices in batches
// of BulkBatchSize, each batch in its own transaction. Batches committed
// before a cancellation stay deleted. The deletion bypasses the undo
// history, so the owner clears it once this task finishes.
// Polls: before each batch.
func BulkDeleteDefinitions(store BulkDeleter, deviceIDs []int) worker.Task {
	ids := append([]int(nil), deviceIDs...)

	return worker.Func(KindBulkDelete, func(ctx context.Context, r worker.Reporter) (any, error) {
		result := BulkDeleteResult{Requested: len(ids)}
		if len(ids) == 0 {
			r.Progress(100)
			return result, nil
		}

		for start := 0; start < len(ids); start += BulkBatchSize {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			end := min(start+BulkBatchSize, len(ids))

			deleted, err := store.DeleteDefinitions(ctx, ids[start:end])
			if err != nil {
				return nil, fmt.Errorf("failed to delete batch at %d: %w", start, err)
			}
			result.Deleted += len(deleted)

			r.Progress(end * 100 / len(ids))
			r.Status(fmt.Sprintf("Deleted %d of %d", result.Deleted, len(ids)))
		}

		return result, nil
	})
}
