package engine

import "math"

// Sigmoid maps a pressure value onto (0,1) via 1/(1+e^(-k*(x-x0))).
// Midpoint x0 is the pressure at which the curve crosses exactly 0.5;
// Steepness k controls how step-like the transition is.
type Sigmoid struct {
	Midpoint  float64 `json:"midpoint" yaml:"midpoint"`
	Steepness float64 `json:"steepness" yaml:"steepness"`
}

// Evaluate is pure: the same (x, x0, k) always yields the same result.
// The output never reaches exactly 0 or 1 for finite inputs. Float64
// rounding collapses |k*(x-x0)| beyond ~36 onto the closed bounds, so the
// result is nudged back inside; a saturated metric must keep a nonzero
// reserve score rather than an exact zero.
func (s Sigmoid) Evaluate(x float64) float64 {
	v := 1.0 / (1.0 + math.Exp(-s.Steepness*(x-s.Midpoint)))
	if v <= 0 {
		return math.SmallestNonzeroFloat64
	}
	if v >= 1 {
		return math.Nextafter(1, 0)
	}
	return v
}
