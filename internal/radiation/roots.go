package radiation

import (
	"fmt"
	"math"
)

// RootNotBracketedError reports a bisection bracket whose endpoints do not
// straddle a sign change. There is no physically meaningful default, so the
// condition is surfaced rather than swallowed.
type RootNotBracketedError struct {
	Lo, Hi   float64
	FLo, FHi float64
}

func (e *RootNotBracketedError) Error() string {
	return fmt.Sprintf("root not bracketed on [%g, %g]: f(lo)=%g, f(hi)=%g",
		e.Lo, e.Hi, e.FLo, e.FHi)
}

// bisect finds a root of f on [lo, hi] to the given relative tolerance.
func bisect(f func(float64) float64, lo, hi, tol float64) (float64, error) {
	fLo, fHi := f(lo), f(hi)
	if fLo == 0 {
		return lo, nil
	}
	if fHi == 0 {
		return hi, nil
	}
	if math.Signbit(fLo) == math.Signbit(fHi) {
		return 0, &RootNotBracketedError{Lo: lo, Hi: hi, FLo: fLo, FHi: fHi}
	}
	for hi-lo > tol*math.Max(1, math.Abs(lo)) {
		mid := 0.5 * (lo + hi)
		if mid == lo || mid == hi {
			break
		}
		fMid := f(mid)
		if fMid == 0 {
			return mid, nil
		}
		if math.Signbit(fMid) == math.Signbit(fLo) {
			lo, fLo = mid, fMid
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi), nil
}
