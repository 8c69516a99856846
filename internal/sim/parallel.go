package sim

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/orbitsim/internal/dynamo"
)

// Job is one member of an ensemble.
type Job struct {
	Name     string
	Strategy string
	Config   Config
}

// Ensemble runs independent jobs from the same initial state concurrently.
// Each job gets its own Simulator from the factory, so metrics are never
// shared between goroutines.
type Ensemble struct {
	newSim func() *Simulator
	limit  int
}

func NewEnsemble(newSim func() *Simulator) *Ensemble {
	return &Ensemble{newSim: newSim, limit: runtime.GOMAXPROCS(0)}
}

// Run returns results in job order. A job already running is not
// interrupted when ctx is cancelled; jobs not yet started are skipped.
func (e *Ensemble) Run(ctx context.Context, x0 dynamo.State, jobs []Job) ([]*Result, error) {
	results := make([]*Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := e.newSim().Run(job.Strategy, x0.Clone(), job.Config)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
