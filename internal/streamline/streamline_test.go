package streamline

import (
	"context"
	"math"
	"testing"

	"github.com/sroyc/windtrace/internal/radiation"
	"github.com/sroyc/windtrace/internal/wind"
)

// weakKernel makes the radiation force negligible, giving a deterministic
// sub-critical illumination for failed-wind tests.
type weakKernel struct{}

func (weakKernel) Integrate(r, z, rMin, rMax float64) (float64, float64) {
	return 1e-12, 1e-12
}

func newTestEnv(t *testing.T) (*wind.Disc, *radiation.Field) {
	t.Helper()
	disc := wind.NewDisc(wind.DefaultDiscParams())
	field, err := radiation.New(disc, weakKernel{})
	if err != nil {
		t.Fatalf("radiation.New: %v", err)
	}
	return disc, field
}

// orbitalEnergy is the conserved specific energy of the gravity-only system:
// kinetic in (r, z), centrifugal potential from the conserved angular
// momentum, and point-mass gravity.
func orbitalEnergy(h *History, l float64, i int) float64 {
	d := math.Hypot(h.R[i], h.Z[i])
	kin := 0.5 * (h.VR[i]*h.VR[i] + h.VZ[i]*h.VZ[i])
	cent := 0.5 * l * l / (h.R[i] * h.R[i])
	return kin + cent - 1/d
}

func TestGravityOnlyKeplerEnergyConservation(t *testing.T) {
	disc, field := newTestEnv(t)

	cfg := DefaultConfig()
	cfg.ForceModel = GravityOnly
	line := New(disc, field, cfg)

	status, err := line.Iterate(context.Background(), 300)
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	if status == Integrating {
		t.Fatal("Iterate returned without a terminal status")
	}

	h := line.History()
	if h.Len() < 2 {
		t.Fatalf("history too short: %d", h.Len())
	}

	l := disc.VKepler(cfg.R0) * cfg.R0
	e0 := orbitalEnergy(h, l, 0)
	for i := 1; i < h.Len(); i++ {
		drift := math.Abs(orbitalEnergy(h, l, i)-e0) / math.Abs(e0)
		if drift > 1e-3 {
			t.Fatalf("energy drift %e at step %d", drift, i)
		}
	}

	// The launch velocity is far below escape; the flag must stay clear.
	if line.Escaped() {
		t.Error("slow gravity-only streamline reported escaped")
	}
}

func TestFailedWindTerminates(t *testing.T) {
	disc, field := newTestEnv(t)

	cfg := DefaultConfig()
	cfg.ForceModel = Full // radiation present but negligible via weakKernel
	cfg.VZ0 = 0
	line := New(disc, field, cfg)

	status, err := line.Iterate(context.Background(), 2000)
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	if status != Failed {
		t.Fatalf("status = %v, want Failed", status)
	}
	if line.Status() != Failed {
		t.Errorf("Status() = %v after termination", line.Status())
	}

	h := line.History()
	last := h.Len() - 1
	if !(h.Z[last] <= cfg.Z0 && h.VZ[last] < 0) {
		t.Errorf("failure condition not met at final step: z=%g v_z=%g",
			h.Z[last], h.VZ[last])
	}

	// Zero launch velocity drives the density and Sobolev depth to zero;
	// the force multiplier and the kinematic state must stay finite.
	for i := 0; i <= last; i++ {
		for _, v := range []float64{h.R[i], h.Z[i], h.VR[i], h.VZ[i], h.FM[i]} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("non-finite state at step %d: r=%g z=%g v_r=%g v_z=%g fm=%g",
					i, h.R[i], h.Z[i], h.VR[i], h.VZ[i], h.FM[i])
			}
		}
	}
}

func TestDomainExit(t *testing.T) {
	disc, field := newTestEnv(t)

	// Launch fast enough to leave the 5000 Rg domain.
	cfg := DefaultConfig()
	cfg.ForceModel = GravityOnly
	cfg.VZ0 = 0.5 * wind.C
	cfg.VR0 = 0.5 * wind.C
	line := New(disc, field, cfg)

	status, err := line.Iterate(context.Background(), 5000)
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	if status != DomainExit {
		t.Fatalf("status = %v, want DomainExit", status)
	}
	h := line.History()
	last := h.Len() - 1
	if math.Hypot(h.R[last], h.Z[last]) <= 5000 {
		t.Errorf("final distance %g within domain", math.Hypot(h.R[last], h.Z[last]))
	}
	if !line.Escaped() {
		t.Error("relativistic launch did not set the escape flag")
	}
}

func TestEscapeFlagSemantics(t *testing.T) {
	disc, field := newTestEnv(t)

	cfg := DefaultConfig()
	cfg.ForceModel = GravityOnly
	d0 := math.Hypot(cfg.R0, cfg.Z0)

	// Exactly at the local escape velocity the strict comparison must not
	// fire at launch.
	cfg.VZ0 = disc.VEsc(d0) * wind.C
	line := New(disc, field, cfg)
	if line.Escaped() {
		t.Error("escape flag set at construction for v = v_esc exactly")
	}

	// Well above it, the first accepted steps must set the flag, and it
	// must never clear afterwards.
	cfg.VZ0 = 2 * disc.VEsc(d0) * wind.C
	line = New(disc, field, cfg)
	if _, err := line.Iterate(context.Background(), 50); err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	if !line.Escaped() {
		t.Error("escape flag not set for v = 2 v_esc")
	}
}

func TestStepLimit(t *testing.T) {
	disc, field := newTestEnv(t)

	cfg := DefaultConfig()
	cfg.ForceModel = GravityOnly
	line := New(disc, field, cfg)

	status, err := line.Iterate(context.Background(), 3)
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	if status != StepLimit {
		t.Fatalf("status = %v, want StepLimit", status)
	}
	// Initial condition plus three accepted steps.
	if got := line.History().Len(); got != 4 {
		t.Errorf("history length %d, want 4", got)
	}
}

func TestIterateCancellation(t *testing.T) {
	disc, field := newTestEnv(t)

	line := New(disc, field, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := line.Iterate(ctx, 100); err == nil {
		t.Fatal("expected context error")
	}
	// History up to the stop remains valid.
	if line.History().Len() < 1 {
		t.Error("initial history entry missing")
	}
}

func TestTauEffClampOnZeroGradient(t *testing.T) {
	disc, field := newTestEnv(t)

	line := New(disc, field, DefaultConfig())
	line.aR, line.aZ = 0, 0
	line.updateRadiation(375, 10, 3e-4)
	if line.tauEff != 1 {
		t.Errorf("tau_eff = %g with zero gradient, want clamp to 1", line.tauEff)
	}
}

func TestHistoryDiagnosticsFinite(t *testing.T) {
	disc, field := newTestEnv(t)

	cfg := DefaultConfig()
	cfg.ForceModel = GravityOnly
	line := New(disc, field, cfg)
	if _, err := line.Iterate(context.Background(), 200); err != nil {
		t.Fatalf("Iterate: %v", err)
	}

	h := line.History()
	n := h.Len()
	for _, col := range [][]float64{h.T, h.R, h.Z, h.VR, h.VZ, h.VT, h.Rho,
		h.TauDr, h.TauUV, h.TauX, h.TauEff, h.Xi, h.FM, h.DvDr, h.AR, h.AZ, h.VEsc} {
		if len(col) != n {
			t.Fatalf("history column lengths inconsistent: %d vs %d", len(col), n)
		}
	}
	for i := 0; i < n; i++ {
		if math.IsInf(h.TauEff[i], 0) || math.IsNaN(h.TauEff[i]) || h.TauEff[i] < 0 {
			t.Fatalf("tau_eff[%d] = %g not finite and non-negative", i, h.TauEff[i])
		}
		if h.Rho[i] < 0 || h.TauDr[i] < 0 || h.TauX[i] < 0 {
			t.Fatalf("negative radiative state at step %d", i)
		}
		if h.R[i] <= 0 {
			t.Fatalf("r[%d] = %g, must stay positive", i, h.R[i])
		}
	}
}

func TestStatusStrings(t *testing.T) {
	cases := map[Status]string{
		Integrating: "integrating",
		Failed:      "failed",
		DomainExit:  "domain_exit",
		StepLimit:   "step_limit",
	}
	for s, want := range cases {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
	if Full.String() != "full" || GravityOnly.String() != "gravityonly" || Debug.String() != "debug" {
		t.Error("force model names changed")
	}
}
