package batch

import (
	"context"
	"testing"

	"github.com/sroyc/windtrace/internal/radiation"
	"github.com/sroyc/windtrace/internal/streamline"
	"github.com/sroyc/windtrace/internal/wind"
)

type weakKernel struct{}

func (weakKernel) Integrate(r, z, rMin, rMax float64) (float64, float64) {
	return 1e-12, 1e-12
}

func TestLaunchConfigs(t *testing.T) {
	base := streamline.DefaultConfig()
	cfgs := LaunchConfigs(base, 100, 400, 4)
	want := []float64{100, 200, 300, 400}
	for i, cfg := range cfgs {
		if cfg.R0 != want[i] {
			t.Errorf("cfgs[%d].R0 = %g, want %g", i, cfg.R0, want[i])
		}
		if cfg.Z0 != base.Z0 || cfg.Rho0 != base.Rho0 {
			t.Errorf("cfgs[%d] lost base parameters", i)
		}
	}

	single := LaunchConfigs(base, 250, 999, 1)
	if len(single) != 1 || single[0].R0 != 250 {
		t.Errorf("single-line batch misplaced: %+v", single)
	}
}

func TestRunnerIntegratesAllLines(t *testing.T) {
	disc := wind.NewDisc(wind.DefaultDiscParams())
	field, err := radiation.New(disc, weakKernel{})
	if err != nil {
		t.Fatalf("radiation.New: %v", err)
	}

	base := streamline.DefaultConfig()
	base.ForceModel = streamline.GravityOnly
	cfgs := LaunchConfigs(base, 300, 450, 4)

	runner := NewRunner(disc, field, 2, 50)
	results, err := runner.Run(context.Background(), cfgs)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(results) != len(cfgs) {
		t.Fatalf("got %d results, want %d", len(results), len(cfgs))
	}
	for i, res := range results {
		if res.Config.R0 != cfgs[i].R0 {
			t.Errorf("result %d out of order: R0=%g want %g", i, res.Config.R0, cfgs[i].R0)
		}
		if res.Status == streamline.Integrating {
			t.Errorf("result %d has no terminal status", i)
		}
		if res.History == nil || res.History.Len() < 2 {
			t.Errorf("result %d missing history", i)
		}
	}
}

func TestRunnerCancellation(t *testing.T) {
	disc := wind.NewDisc(wind.DefaultDiscParams())
	field, err := radiation.New(disc, weakKernel{})
	if err != nil {
		t.Fatalf("radiation.New: %v", err)
	}

	base := streamline.DefaultConfig()
	base.ForceModel = streamline.GravityOnly

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(disc, field, 2, 1000)
	if _, err := runner.Run(ctx, LaunchConfigs(base, 300, 450, 4)); err == nil {
		t.Fatal("expected cancellation error")
	}
}
