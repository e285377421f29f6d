// Package flux computes the geometric radiation-force integral over the
// disc surface. Two interchangeable backends exist: an adaptive double
// quadrature and a faster fixed-order Gauss-Legendre grid.
package flux

import (
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// Kernel evaluates the radial and vertical components of the disc
// radiation-force integral at the point (r, z), integrating the emitting
// surface over rd in [rMin, rMax] and phi in [0, pi].
type Kernel interface {
	Integrate(r, z, rMin, rMax float64) (ir, iz float64)
}

// Backend selects a Kernel implementation.
type Backend int

const (
	Adaptive Backend = iota
	Fixed
)

func (b Backend) String() string {
	switch b {
	case Adaptive:
		return "adaptive"
	case Fixed:
		return "fixed"
	}
	return "unknown"
}

// New returns the kernel for the given backend with default settings.
func New(b Backend) Kernel {
	if b == Fixed {
		return &FixedKernel{PhiNodes: 64, RadialNodes: 256}
	}
	return &AdaptiveKernel{Tol: 1e-8, MaxDepth: 24}
}

// integrandR is the radial force integrand: the disc emissivity weight
// (1-sqrt(6/rd))/rd^2 projected through cos(gamma)/delta^2.
func integrandR(phi, rd, r, z float64) float64 {
	ff0 := (1 - math.Sqrt(6/rd)) / (rd * rd)
	delta := r*r + rd*rd + z*z - 2*r*rd*math.Cos(phi)
	return ff0 * (r - rd*math.Cos(phi)) / (delta * delta)
}

// integrandZ is the vertical force integrand.
func integrandZ(phi, rd, r, z float64) float64 {
	ff0 := (1 - math.Sqrt(6/rd)) / (rd * rd)
	delta := r*r + rd*rd + z*z - 2*r*rd*math.Cos(phi)
	return ff0 / (delta * delta)
}

// AdaptiveKernel integrates both components with nested adaptive Simpson
// quadrature under relative error control Tol. The outer radial interval is
// split at the field point radius, where the integrand peaks, before
// recursion starts.
type AdaptiveKernel struct {
	Tol      float64
	MaxDepth int
}

func (k *AdaptiveKernel) Integrate(r, z, rMin, rMax float64) (float64, float64) {
	outerR := func(rd float64) float64 {
		return adaptiveSimpson(func(phi float64) float64 {
			return integrandR(phi, rd, r, z)
		}, 0, math.Pi, k.Tol, k.MaxDepth)
	}
	outerZ := func(rd float64) float64 {
		return adaptiveSimpson(func(phi float64) float64 {
			return integrandZ(phi, rd, r, z)
		}, 0, math.Pi, k.Tol, k.MaxDepth)
	}

	ir := k.radial(outerR, r, rMin, rMax)
	iz := k.radial(outerZ, r, rMin, rMax)
	return 2 * z * ir, 2 * z * z * iz
}

// radial integrates f over [rMin, rMax], breaking the interval at the field
// point radius when it lies inside.
func (k *AdaptiveKernel) radial(f func(float64) float64, r, rMin, rMax float64) float64 {
	if r > rMin && r < rMax {
		return adaptiveSimpson(f, rMin, r, k.Tol, k.MaxDepth) +
			adaptiveSimpson(f, r, rMax, k.Tol, k.MaxDepth)
	}
	return adaptiveSimpson(f, rMin, rMax, k.Tol, k.MaxDepth)
}

func simpson(f func(float64) float64, a, fa, b, fb float64) (float64, float64, float64) {
	m := 0.5 * (a + b)
	fm := f(m)
	return m, fm, (b - a) / 6 * (fa + 4*fm + fb)
}

func adaptiveSimpson(f func(float64) float64, a, b, tol float64, depth int) float64 {
	fa, fb := f(a), f(b)
	m, fm, whole := simpson(f, a, fa, b, fb)
	return adaptiveSimpsonRec(f, a, fa, m, fm, b, fb, whole, tol, depth)
}

func adaptiveSimpsonRec(f func(float64) float64, a, fa, m, fm, b, fb, whole, tol float64, depth int) float64 {
	lm, flm, left := simpson(f, a, fa, m, fm)
	rm, frm, right := simpson(f, m, fm, b, fb)
	// Relative error control: the integrand spans many decades in
	// magnitude depending on the field point, so an absolute tolerance
	// would either stall or accept the coarsest estimate.
	if depth <= 0 || math.Abs(left+right-whole) <= 15*tol*math.Abs(left+right) {
		return left + right + (left+right-whole)/15
	}
	return adaptiveSimpsonRec(f, a, fa, lm, flm, m, fm, left, tol/2, depth-1) +
		adaptiveSimpsonRec(f, m, fm, rm, frm, b, fb, right, tol/2, depth-1)
}

// FixedKernel integrates both components on a fixed Gauss-Legendre grid.
// Cheaper than the adaptive kernel and numerically compatible with it on
// well-conditioned inputs.
type FixedKernel struct {
	PhiNodes    int
	RadialNodes int
}

func (k *FixedKernel) Integrate(r, z, rMin, rMax float64) (float64, float64) {
	ir := quad.Fixed(func(rd float64) float64 {
		return quad.Fixed(func(phi float64) float64 {
			return integrandR(phi, rd, r, z)
		}, 0, math.Pi, k.PhiNodes, nil, 0)
	}, rMin, rMax, k.RadialNodes, nil, 0)

	iz := quad.Fixed(func(rd float64) float64 {
		return quad.Fixed(func(phi float64) float64 {
			return integrandZ(phi, rd, r, z)
		}, 0, math.Pi, k.PhiNodes, nil, 0)
	}, rMin, rMax, k.RadialNodes, nil, 0)

	return 2 * z * ir, 2 * z * z * iz
}
