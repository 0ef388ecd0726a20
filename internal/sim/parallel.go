package sim

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Factory builds a fresh simulator for one ensemble member. The seed feeds
// the scenario's tracking noise.
type Factory func(seed int64) (*Simulator, error)

// Ensemble runs independent copies of a simulation concurrently, one per
// seed.
type Ensemble struct {
	factory   Factory
	numRuns   int
	seedStart int64
	limit     int
}

func NewEnsemble(factory Factory, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns, seedStart: seedStart, limit: runtime.NumCPU()}
}

// SetLimit caps the number of runs in flight.
func (e *Ensemble) SetLimit(n int) {
	if n > 0 {
		e.limit = n
	}
}

// Run returns results in seed order. The first failing member cancels the
// rest.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i := 0; i < e.numRuns; i++ {
		i := i
		g.Go(func() error {
			s, err := e.factory(e.seedStart + int64(i))
			if err != nil {
				return err
			}
			results[i], err = s.Run(ctx, cfg)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
