// Package estimator implements pyramidal inverse-compositional motion
// estimation between two grayscale frames, following the quadratic and
// Lorentzian-robust Lucas-Kanade variants of Baker & Matthews' "Lucas-Kanade
// 20 years on" framework.
package estimator

// Robust selects between the plain quadratic error and the Lorentzian
// robust error function used during iterative refinement.
type Robust int

const (
	Quadratic Robust = iota
	Lorentzian
)

// Lambda-annealing schedule for the Lorentzian robust error function: the
// threshold starts loose (lambda0) and tightens geometrically toward
// lambdaN every iteration, so early iterations tolerate large residuals
// from the not-yet-converged warp and later ones reject outliers tightly.
const (
	lambda0     = 4.0
	lambdaN     = 0.25
	lambdaRatio = 0.75
)

// maxIter bounds the number of Gauss-Newton iterations per scale.
const maxIter = 50

// minD and maxD bound the pyramid's effective depth: coarsening stops once
// the smaller image dimension would drop below minD, and maxD is an
// informational upper bound a caller can use to size its own requested
// scale count (it does not feed into the effective-depth formula itself).
const (
	minD = 50
	maxD = 200
)

// Config holds the tunables of a single motion-estimation call. Zero value
// is not valid; use NewConfig or DefaultConfig.
type Config struct {
	// Tol is the L2-norm convergence threshold on the parameter increment.
	Tol float64
	// Robust selects the quadratic or Lorentzian-robust error function.
	Robust Robust
	// Lambda is the robust threshold; <= 0 selects the annealing schedule
	// (lambda0 -> lambdaN), matching the source's lambda<=0 convention.
	Lambda float64
	// Cscale is the requested number of pyramid levels; the effective
	// count is capped so the coarsest level stays >= minD on its smaller
	// axis (see Pyramid).
	Cscale int
	// Fscale is the finest level (1-based from the top, matching the
	// source's "s >= fscale-1" check) at which the estimator actually
	// refines the parameters; levels finer than this only receive an
	// upsampled parameter vector, never their own iteration.
	Fscale int
}

// DefaultConfig returns the settings estadeo.cpp's compute_motion uses:
// Lorentzian-robust refinement, no explicit lambda (anneal from lambda0),
// a generous requested scale count, and a finest scale of 1 (refine all
// the way to full resolution).
func DefaultConfig() Config {
	return Config{
		Tol:    1e-3,
		Robust: Lorentzian,
		Lambda: 0,
		Cscale: 100,
		Fscale: 1,
	}
}
