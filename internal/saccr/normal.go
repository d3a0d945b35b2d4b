package saccr

import "gonum.org/v1/gonum/stat/distuv"

// standardNormal is the Φ used by the supervisory option delta formula of
// spec.md §4.2. Grounded on the teacher's use of gonum.org/v1/gonum
// (internal/modules/optimization/risk.go uses gonum/stat for portfolio risk
// statistics); here gonum/stat/distuv supplies the standard normal CDF
// instead of a hand-rolled erf approximation.
var standardNormal = distuv.Normal{Mu: 0, Sigma: 1}

// Phi is the standard normal CDF.
func Phi(x float64) float64 {
	return standardNormal.CDF(x)
}
