package experiment

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Sweep runs independent experiments concurrently. Each experiment owns its
// kernel, so no state is shared between goroutines. Results keep the order
// of the input; the first error cancels the rest.
func Sweep(ctx context.Context, exps []*Experiment) ([]*Result, error) {
	results := make([]*Result, len(exps))

	g, gctx := errgroup.WithContext(ctx)
	for i, e := range exps {
		g.Go(func() error {
			res, err := e.Run(gctx)
			results[i] = res
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
