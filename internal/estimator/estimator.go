package estimator

import (
	"log"
	"math"

	"github.com/gostab/vidstab/internal/imageops"
	"github.com/gostab/vidstab/internal/linalg"
	"github.com/gostab/vidstab/transform"
)

// estimateLevel refines p in place so that warping i2 (nx x ny grayscale)
// by W(.;p) best matches i1, using cfg's error function and stopping
// criterion. p should be seeded with the caller's best prior guess — the
// identity for a cold start, or an upsampled coarser-level estimate.
//
// This mirrors inverse_compositional_algorithm() and its Lorentzian-robust
// sibling: the Jacobian and image gradient are evaluated once at the fixed
// reference points (the inverse-compositional trick), and each iteration
// only re-warps i2, recomputes the residual, and solves for an increment.
func estimateLevel(i1, i2 []float32, p transform.Params, k transform.Kind, nx, ny int, cfg Config) {
	points := selectPoints(nx, ny)
	n := len(points)
	if n == 0 {
		return
	}
	nparams := k.NumParams()

	ix := make([]float32, n)
	iy := make([]float32, n)
	imageops.GradientAtPoints(i1, points, nx, ix, iy)

	j := make([]float64, 2*nparams)
	dij := make([]float64, n*nparams)
	for idx, pt := range points {
		x := float64(pt % nx)
		y := float64(pt / nx)
		transform.JacobianRow(x, y, k, j)
		for c := 0; c < nparams; c++ {
			dij[idx*nparams+c] = float64(ix[idx])*j[c] + float64(iy[idx])*j[nparams+c]
		}
	}

	iw := make([]float32, n)
	valid := make([]bool, n)
	di := make([]float64, n)
	rho := make([]float64, n)
	b := make([]float64, nparams)
	h := make([]float64, nparams*nparams)

	lambdaIt := cfg.Lambda
	if lambdaIt <= 0 {
		lambdaIt = lambda0
	}

	// The quadratic variant's Hessian is residual-independent, so it is
	// inverted once, outside the loop.
	var hInv []float64
	if cfg.Robust == Quadratic {
		computeHessian(dij, nil, h, nparams, n)
		inv, err := linalg.Invert(h, nparams)
		if err != nil {
			log.Printf("Warning: estimator: singular Hessian at %s, leaving level estimate at its seed", k)
			return
		}
		hInv = inv
	}

	errNorm := math.MaxFloat64
	for niter := 0; errNorm > cfg.Tol && niter < maxIter; niter++ {
		imageops.WarpGrayAtPointsBilinear(i2, nx, ny, points, p, k, iw, valid)
		for idx, pt := range points {
			if valid[idx] {
				di[idx] = float64(iw[idx]) - float64(i1[pt])
			} else {
				di[idx] = 0
			}
		}

		if cfg.Robust == Quadratic {
			independentVector(dij, di, nil, b, nparams, n)
		} else {
			robustErrorFunction(di, rho, lambdaIt, n)
			if cfg.Lambda <= 0 && lambdaIt > lambdaN {
				lambdaIt *= lambdaRatio
				if lambdaIt < lambdaN {
					lambdaIt = lambdaN
				}
			}
			independentVector(dij, di, rho, b, nparams, n)
			computeHessian(dij, rho, h, nparams, n)
			inv, err := linalg.Invert(h, nparams)
			if err != nil {
				log.Printf("Warning: estimator: singular Hessian at %s iteration %d, stopping early", k, niter)
				return
			}
			hInv = inv
		}

		dp := linalg.Solve(hInv, b, nparams)
		errNorm = 0
		for _, v := range dp {
			errNorm += v * v
		}
		errNorm = math.Sqrt(errNorm)

		transform.UpdateTransform(p, transform.Params(dp), k)
	}
}

// computeHessian accumulates H = DIJ^t * DIJ (or rho'*DIJ^t*DIJ when rho is
// non-nil) over the n reference points.
func computeHessian(dij []float64, rho []float64, h []float64, nparams, n int) {
	for i := range h {
		h[i] = 0
	}
	for idx := 0; idx < n; idx++ {
		w := 1.0
		if rho != nil {
			w = rho[idx]
		}
		row := dij[idx*nparams : idx*nparams+nparams]
		for kk := 0; kk < nparams; kk++ {
			for ll := 0; ll < nparams; ll++ {
				h[kk*nparams+ll] += w * row[kk] * row[ll]
			}
		}
	}
}

// independentVector accumulates b = DIJ^t * DI (or rho'*DIJ^t*DI).
func independentVector(dij []float64, di []float64, rho []float64, b []float64, nparams, n int) {
	for kk := range b {
		b[kk] = 0
	}
	for idx := 0; idx < n; idx++ {
		w := 1.0
		if rho != nil {
			w = rho[idx]
		}
		d := w * di[idx]
		row := dij[idx*nparams : idx*nparams+nparams]
		for kk := 0; kk < nparams; kk++ {
			b[kk] += row[kk] * d
		}
	}
}

// robustErrorFunction fills rho[i] = rho'(DI[i]^2) using the Lorentzian
// derivative 1/(lambda^2 + t^2) (rhop in the source; the truncated-quadratic
// alternative it also defines is left commented out there and not ported).
func robustErrorFunction(di []float64, rho []float64, lambda float64, n int) {
	lambda2 := lambda * lambda
	for i := 0; i < n; i++ {
		rho[i] = 1 / (lambda2 + di[i]*di[i])
	}
}
