package batch

import (
	"context"
	"time"

	"github.com/okian/canon/internal/domain/query"
	"github.com/okian/canon/internal/domain/types"
	"github.com/okian/canon/pkg/logger"
	"github.com/okian/canon/pkg/metrics"
)

// ResolvePrecisionBatch resolves combined lookups in input order on one
// store session. Results[i] always answers queries[i]; empty queries, store
// errors and misses all read as not found.
func (b *Resolver) ResolvePrecisionBatch(ctx context.Context, queries []query.Params) types.PrecisionResults {
	start := time.Now()
	defer func() {
		metrics.RecordBatchLatency("precision", float64(time.Since(start).Microseconds())/1000)
	}()

	out := types.PrecisionResults{
		Results: make([]types.PrecisionOutcome, len(queries)),
		Total:   len(queries),
	}
	for i, p := range queries {
		out.Results[i] = types.PrecisionOutcome{Query: p}
	}
	if len(queries) == 0 {
		return out
	}
	metrics.RecordBatchItems("precision", len(queries))

	sess, err := b.store.Session(ctx)
	if err != nil {
		b.fail(ctx, "precision", "session", len(queries), err)
		out.Failed = len(queries)
		return out
	}
	defer sess.Close()

	for i, p := range queries {
		q, err := query.FromParams(p)
		if err != nil {
			out.Failed++
			continue
		}
		res, err := b.single.ResolveWith(ctx, sess, q)
		if err != nil {
			b.logger.Warn(ctx, "precision lookup failed",
				logger.Int("position", i),
				logger.String("category", string(q.Category())),
				logger.Error(err))
		}
		if err != nil || res == nil {
			out.Failed++
			continue
		}
		out.Results[i].Found = true
		out.Results[i].Data = res
		out.Successful++
	}
	return out
}
