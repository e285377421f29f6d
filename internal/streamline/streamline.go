// Package streamline evolves a single line-driven wind trajectory launched
// from the disc surface, coupling an adaptive RK45 integrator to the
// radiation field at every right-hand-side evaluation.
package streamline

import (
	"context"
	"math"

	"github.com/sroyc/windtrace/internal/integrators"
	"github.com/sroyc/windtrace/internal/radiation"
	"github.com/sroyc/windtrace/internal/wind"
)

// ForceModel selects the acceleration law.
type ForceModel int

const (
	// Full applies gravity, centrifugal and radiation forces.
	Full ForceModel = iota
	// GravityOnly drops the radiation force.
	GravityOnly
	// Debug replaces the acceleration with a synthetic polynomial-in-time
	// profile for integrator testing.
	Debug
)

func (m ForceModel) String() string {
	switch m {
	case Full:
		return "full"
	case GravityOnly:
		return "gravityonly"
	case Debug:
		return "debug"
	}
	return "unknown"
}

// Status is the terminal outcome of a streamline integration.
type Status int

const (
	// Integrating means iteration has not terminated yet.
	Integrating Status = iota
	// Failed means the wind fell back: height at or below the launch
	// height while still moving downward.
	Failed
	// DomainExit means the trajectory left the 5000 Rg outer bound.
	DomainExit
	// StepLimit means the step ceiling was reached first.
	StepLimit
)

func (s Status) String() string {
	switch s {
	case Integrating:
		return "integrating"
	case Failed:
		return "failed"
	case DomainExit:
		return "domain_exit"
	case StepLimit:
		return "step_limit"
	}
	return "unknown"
}

// maxDistance is the outer integration bound [Rg].
const maxDistance = 5000

// Config fixes a streamline's launch state and integration options. All
// mode selection is resolved here once, at construction.
type Config struct {
	R0   float64 // launch radius [Rg]
	Z0   float64 // launch height [Rg]
	Rho0 float64 // launch density [cm^-3]
	T    float64 // temperature [K]
	VR0  float64 // initial radial velocity [cm/s]
	VZ0  float64 // initial vertical velocity [cm/s]

	ForceModel ForceModel
	Tolerance  float64 // RK45 local error tolerance
}

// DefaultConfig returns the reference launch parameters.
func DefaultConfig() Config {
	return Config{
		R0:        375,
		Z0:        10,
		Rho0:      2e8,
		T:         2e6,
		VZ0:       1e7,
		Tolerance: 1e-6,
	}
}

// Streamline owns the full time-dependent state and history of one wind
// trajectory. It holds read-only references to the shared wind context and
// radiation field.
type Streamline struct {
	ctx wind.Context
	rad *radiation.Field
	cfg Config

	// kinematic state: positions in Rg, velocities in c
	r, z     float64
	vR, vZ   float64
	vT       float64
	l        float64 // conserved specific angular momentum
	vR0, vZ0 float64

	// radiative state
	rho    float64
	tauDr  float64
	tauUV  float64
	tauX   float64
	tauEff float64
	xi     float64
	fm     float64
	dvDr   float64
	aR, aZ float64

	tauDr0         float64
	tauDrShielding float64
	d0             float64

	escaped bool
	status  Status

	hist History
}

// New initializes a streamline at its launch point, evaluating the radiation
// field there and recording the initial history entry.
func New(ctx wind.Context, rad *radiation.Field, cfg Config) *Streamline {
	s := &Streamline{
		ctx:    ctx,
		rad:    rad,
		cfg:    cfg,
		r:      cfg.R0,
		z:      cfg.Z0,
		vR:     cfg.VR0 / wind.C,
		vZ:     cfg.VZ0 / wind.C,
		status: Integrating,
	}
	s.vR0 = s.vR
	s.vZ0 = s.vZ
	s.vT = math.Hypot(s.vR, s.vZ)
	s.d0 = math.Hypot(cfg.R0, cfg.Z0)
	s.l = ctx.VKepler(cfg.R0) * cfg.R0

	s.rho = cfg.Rho0
	s.tauDr = ctx.TauDr(s.rho)
	s.tauDr0 = s.tauDr
	s.tauDrShielding = ctx.TauDr(ctx.RhoShielding())
	s.tauUV = rad.OpticalDepthUV(s.r, s.z, cfg.R0, s.tauDr, s.tauDrShielding)
	s.tauX = rad.OpticalDepthX(s.r, s.z, cfg.R0, s.tauDr, s.tauDrShielding, ctx.RhoShielding())
	s.xi = rad.IonizationParameter(s.r, s.z, s.tauX, ctx.RhoShielding())

	s.appendHistory(0)
	return s
}

// Escaped reports whether the trajectory ever exceeded the local escape
// velocity. The flag is monotone: once set it stays set.
func (s *Streamline) Escaped() bool { return s.escaped }

// Status returns the terminal state, or Integrating while iteration is in
// progress.
func (s *Streamline) Status() Status { return s.status }

// History returns the per-step record, one entry per accepted integrator
// step including the initial condition.
func (s *Streamline) History() *History { return &s.hist }

// Derive is the ODE right-hand side over y = [r, z, v_r, v_z]. It refreshes
// the radiation state at the evaluation point and returns
// [v_r, v_z, a_r, a_z].
func (s *Streamline) Derive(t float64, y integrators.State) integrators.State {
	r, z, vR, vZ := y[0], y[1], y[2], y[3]
	// vT deliberately uses the position norm rather than the speed; the
	// density and Sobolev scalings are calibrated to this convention.
	vT := math.Hypot(r, z)
	s.updateRadiation(r, z, vT)

	d := math.Hypot(r, z)
	d3 := d * d * d
	aR := -r/d3 + s.l*s.l/(r*r*r)
	aZ := -z / d3

	if s.cfg.ForceModel != GravityOnly {
		fr := s.rad.ForceRadiation(r, z, s.fm, s.tauUV)
		aR += fr[0]
		aZ += fr[2]
	}
	if s.cfg.ForceModel == Debug {
		p := 1e-8 + 1e-5*(t/25000) + t*t/math.Sqrt(25000)
		aR, aZ = p, p
	}

	s.aR, s.aZ = aR, aZ
	return integrators.State{vR, vZ, aR, aZ}
}

// updateRadiation refreshes the radiative state at (r, z) for total speed
// vT. The ordering is load-bearing: density feeds the characteristic depth,
// which with the velocity gradient feeds the Sobolev depth, then the
// line-of-sight depths, the ionization parameter and finally the force
// multiplier.
func (s *Streamline) updateRadiation(r, z, vT float64) {
	d := math.Hypot(r, z)
	s.rho = s.cfg.Rho0 * math.Pow(d/s.d0, -2) * (s.vZ0 / vT)
	s.tauDr = s.ctx.TauDr(s.rho)

	if vT == 0 {
		s.dvDr = 0
	} else {
		// Velocity gradient from the most recently computed acceleration.
		s.dvDr = math.Hypot(s.aR, s.aZ) / vT
	}
	s.tauEff = s.rad.SobolevOpticalDepth(s.tauDr, s.dvDr)
	if math.IsInf(s.tauEff, 0) || math.IsNaN(s.tauEff) {
		s.tauEff = 1
	}

	s.tauUV = s.rad.OpticalDepthUV(r, z, s.cfg.R0, s.tauDr, s.tauDrShielding)
	s.tauX = s.rad.OpticalDepthX(r, z, s.cfg.R0, s.tauDr, s.tauDrShielding, s.ctx.RhoShielding())
	s.xi = s.rad.IonizationParameter(r, z, s.tauX, s.rho)
	s.fm = s.rad.ForceMultiplier(s.tauEff, s.xi)
}

// Iterate advances the streamline until it fails, exits the domain, or
// maxSteps accepted integrator steps have been taken. The returned error is
// non-nil only when ctx is cancelled; the history up to that point remains
// valid either way.
func (s *Streamline) Iterate(ctx context.Context, maxSteps int) (Status, error) {
	tol := s.cfg.Tolerance
	if tol <= 0 {
		tol = 1e-6
	}
	rk := integrators.NewRK45(tol)

	h0 := 0.1 * s.ctx.RG() / wind.C
	tBound := 5e7 * s.ctx.RG() / wind.C
	y0 := integrators.State{s.cfg.R0, s.cfg.Z0, s.vR0, s.vZ0}
	stepper := rk.NewStepper(s, 0, y0, h0, math.Inf(1), tBound)

	for i := 0; i < maxSteps && !stepper.Done(); i++ {
		select {
		case <-ctx.Done():
			return s.status, ctx.Err()
		default:
		}

		stepper.Step()
		y := stepper.Y()
		r, z, vR, vZ := y[0], y[1], y[2], y[3]

		// Recompute the acceleration at the accepted point, then refresh
		// the recorded diagnostics with the actual speed.
		s.Derive(stepper.T(), y)
		vT := math.Hypot(vR, vZ)
		s.updateRadiation(r, z, vT)

		s.r, s.z, s.vR, s.vZ, s.vT = r, z, vR, vZ, vT
		s.appendHistory(stepper.T())

		d := math.Hypot(r, z)
		if vT > s.ctx.VEsc(d) && !s.escaped {
			s.escaped = true
		}

		if z <= s.cfg.Z0 && vZ < 0 {
			s.status = Failed
			return s.status, nil
		}
		if d > maxDistance {
			s.status = DomainExit
			return s.status, nil
		}
	}

	s.status = StepLimit
	return s.status, nil
}
