package sequence

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/paces/backend/pkg/logger"
)

// Fetcher is implemented by UniProtClient and by fakes in tests.
type Fetcher interface {
	FetchFASTA(ctx context.Context, id string) (string, error)
}

// UniqueIDs returns the distinct values of ids in first-seen order.
func UniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

type FetchResult struct {
	Requested int
	Written   int
	Missing   []string
}

// FetchAll looks up every id in order and appends the returned records to w. A miss
// writes nothing.
func FetchAll(ctx context.Context, f Fetcher, ids []string, w io.Writer) (*FetchResult, error) {
	ids = UniqueIDs(ids)
	res := &FetchResult{Requested: len(ids)}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		record, err := f.FetchFASTA(ctx, id)
		if err != nil {
			return res, err
		}
		if record == "" {
			res.Missing = append(res.Missing, id)
			continue
		}

		if _, err := io.WriteString(w, record); err != nil {
			return res, fmt.Errorf("failed to write record %s: %w", id, err)
		}
		res.Written++

		if (i+1)%100 == 0 {
			logger.Info("Sequence fetch progress", zap.Int("done", i+1), zap.Int("total", len(ids)))
		}
	}

	return res, nil
}
