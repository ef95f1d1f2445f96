package catalog

import (
	"context"
	"fmt"
)

// MaxDeleteBatch is the largest id set passed to a single delete statement.
const MaxDeleteBatch = 100000

// DeleteInBatches deletes ids through store in consecutive chunks of at most
// batchSize ids, one DeleteRecordings call per chunk. A batchSize outside
// (0, MaxDeleteBatch] is clamped to MaxDeleteBatch.
//
// It stops at the first failing chunk and returns the rows removed so far.
// Earlier chunks stay deleted; rerunning with the same ids is safe.
func DeleteInBatches(ctx context.Context, store Store, ids []string, batchSize int) (int64, error) {
	if batchSize <= 0 || batchSize > MaxDeleteBatch {
		batchSize = MaxDeleteBatch
	}

	var total int64
	for start := 0; start < len(ids); start += batchSize {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		end := min(start+batchSize, len(ids))
		n, err := store.DeleteRecordings(ctx, ids[start:end])
		total += n
		if err != nil {
			return total, fmt.Errorf("delete batch %d-%d: %w", start, end, err)
		}
	}
	return total, nil
}
