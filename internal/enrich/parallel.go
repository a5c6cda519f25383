package enrich

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Map applies fn to every element of in using up to workers goroutines.
// out[i] always corresponds to in[i]. The first error cancels the remaining work.
func Map[In, Out any](ctx context.Context, in []In, workers int, fn func(ctx context.Context, i int, v In) (Out, error)) ([]Out, error) {
	if workers <= 0 {
		workers = 1
	}
	out := make([]Out, len(in))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, v := range in {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := fn(gctx, i, v)
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
