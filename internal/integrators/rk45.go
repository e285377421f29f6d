// Package integrators provides the adaptive Runge-Kutta stepper driving the
// streamline equations of motion.
package integrators

import "math"

// State is a flat ODE state vector.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is the right-hand side of dy/dt = f(t, y).
type System interface {
	Derive(t float64, y State) State
}

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is an embedded 4(5) Dormand-Prince pair with a standard step-size
// controller.
type RK45 struct {
	tol      float64
	safety   float64
	minScale float64
	maxScale float64
}

func NewRK45(tol float64) *RK45 {
	return &RK45{
		tol:      tol,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

// attempt takes one trial step of size dt, returning the candidate state and
// the local error estimate relative to tol.
func (r *RK45) attempt(sys System, y State, t, dt float64) (State, float64) {
	n := len(y)

	k1 := sys.Derive(t, y)

	y2 := make(State, n)
	for i := 0; i < n; i++ {
		y2[i] = y[i] + dt*b21*k1[i]
	}
	k2 := sys.Derive(t+a2*dt, y2)

	y3 := make(State, n)
	for i := 0; i < n; i++ {
		y3[i] = y[i] + dt*(b31*k1[i]+b32*k2[i])
	}
	k3 := sys.Derive(t+a3*dt, y3)

	y4 := make(State, n)
	for i := 0; i < n; i++ {
		y4[i] = y[i] + dt*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := sys.Derive(t+a4*dt, y4)

	y5 := make(State, n)
	for i := 0; i < n; i++ {
		y5[i] = y[i] + dt*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := sys.Derive(t+a5*dt, y5)

	y6 := make(State, n)
	for i := 0; i < n; i++ {
		y6[i] = y[i] + dt*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := sys.Derive(t+dt, y6)

	yNew := make(State, n)
	for i := 0; i < n; i++ {
		yNew[i] = y[i] + dt*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	k7 := sys.Derive(t+dt, yNew)

	errMax := 0.0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := math.Abs(y[i]) + math.Abs(dt*k1[i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(errEst)/scale)
	}

	return yNew, errMax / r.tol
}

// Stepper advances a System one accepted step at a time. Rejected trial
// steps (local error above tolerance) are retried internally with a shrunk
// step and never surface to the caller.
type Stepper struct {
	rk  *RK45
	sys System

	t      float64
	tBound float64
	h      float64
	hMax   float64
	y      State
}

// NewStepper starts integration at (t0, y0) with initial step h0. hMax
// bounds the step size (use +Inf for unbounded) and tBound the integration
// time.
func (r *RK45) NewStepper(sys System, t0 float64, y0 State, h0, hMax, tBound float64) *Stepper {
	return &Stepper{
		rk:     r,
		sys:    sys,
		t:      t0,
		tBound: tBound,
		h:      h0,
		hMax:   hMax,
		y:      y0.Clone(),
	}
}

func (s *Stepper) T() float64        { return s.t }
func (s *Stepper) Y() State          { return s.y }
func (s *Stepper) StepSize() float64 { return s.h }

// Done reports whether the time bound has been reached.
func (s *Stepper) Done() bool { return s.t >= s.tBound }

// Step advances one accepted step, shrinking the trial step until the local
// error estimate passes. The step size carried into the next call follows
// the controller's growth rule.
func (s *Stepper) Step() {
	if s.Done() {
		return
	}
	h := math.Min(s.h, s.hMax)
	if s.t+h > s.tBound {
		h = s.tBound - s.t
	}

	for {
		yNew, errRatio := s.rk.attempt(s.sys, s.y, s.t, h)

		// A non-finite trial state or error estimate is a hard rejection:
		// shrink and retry, and once the step hits floating point
		// resolution accept without growing so a diverging system cannot
		// race to the time bound.
		if !yNew.IsValid() || math.IsNaN(errRatio) {
			hNext := h * s.rk.minScale
			if s.t+hNext == s.t {
				s.accept(yNew, h, h)
				return
			}
			h = hNext
			continue
		}

		if errRatio > 1 {
			hNext := h * math.Max(s.rk.minScale, s.rk.safety*math.Pow(errRatio, -0.25))
			// Stop shrinking once the step hits floating point
			// resolution; accepting is the only way forward.
			if s.t+hNext == s.t {
				s.accept(yNew, h, hNext)
				return
			}
			h = hNext
			continue
		}

		var hNext float64
		if errRatio > 0 {
			hNext = h * math.Min(s.rk.maxScale, s.rk.safety*math.Pow(errRatio, -0.2))
		} else {
			hNext = h * s.rk.maxScale
		}
		s.accept(yNew, h, hNext)
		return
	}
}

func (s *Stepper) accept(y State, h, hNext float64) {
	s.y = y
	s.t += h
	s.h = math.Min(hNext, s.hMax)
}
