// Package batch integrates independent streamlines over a span of launch
// radii with a bounded worker pool. Streamlines share the wind context and
// radiation field read-only, so no synchronization beyond the pool is
// needed.
package batch

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/sroyc/windtrace/internal/radiation"
	"github.com/sroyc/windtrace/internal/streamline"
	"github.com/sroyc/windtrace/internal/wind"
)

// Result is the outcome of one line in a batch.
type Result struct {
	Config  streamline.Config
	Status  streamline.Status
	Escaped bool
	History *streamline.History
}

// Runner fans a set of launch configurations out over a worker pool.
type Runner struct {
	ctx      wind.Context
	rad      *radiation.Field
	workers  int
	maxSteps int
}

// NewRunner builds a runner with the given pool size; workers <= 0 means one
// per CPU.
func NewRunner(ctx wind.Context, rad *radiation.Field, workers, maxSteps int) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{ctx: ctx, rad: rad, workers: workers, maxSteps: maxSteps}
}

// LaunchConfigs spreads n copies of base evenly over launch radii
// [rLo, rHi].
func LaunchConfigs(base streamline.Config, rLo, rHi float64, n int) []streamline.Config {
	cfgs := make([]streamline.Config, n)
	for i := range cfgs {
		cfgs[i] = base
		if n > 1 {
			cfgs[i].R0 = rLo + (rHi-rLo)*float64(i)/float64(n-1)
		} else {
			cfgs[i].R0 = rLo
		}
	}
	return cfgs
}

// Run integrates every configuration to termination, in launch order. The
// first context cancellation aborts the whole batch.
func (r *Runner) Run(ctx context.Context, cfgs []streamline.Config) ([]Result, error) {
	results := make([]Result, len(cfgs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, cfg := range cfgs {
		i, cfg := i, cfg
		g.Go(func() error {
			line := streamline.New(r.ctx, r.rad, cfg)
			status, err := line.Iterate(gctx, r.maxSteps)
			if err != nil {
				return err
			}
			results[i] = Result{
				Config:  cfg,
				Status:  status,
				Escaped: line.Escaped(),
				History: line.History(),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
