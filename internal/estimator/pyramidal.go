package estimator

import (
	"math"

	"github.com/gostab/vidstab/internal/imageops"
	"github.com/gostab/vidstab/transform"
)

// Pyramid holds a Gaussian scale pyramid of a frame pair, stored and
// addressed finest-first (level 0 is full resolution) and walked
// coarsest-first by Estimate, matching pyramidal_inverse_compositional_algorithm's I1s/I2s arrays.
// Level 0 aliases the caller's buffers; levels 1..N-1 own their storage.
type Pyramid struct {
	nx, ny []int
	i1, i2 [][]float32
}

// effectiveCscale caps the requested level count so the coarsest level's
// smaller dimension stays >= minD, following compute_motion's
// N = 1 + log2(min(nx,ny)/min_d) cap on nscales.
func effectiveCscale(nx, ny, requested int) int {
	small := nx
	if ny < small {
		small = ny
	}
	n := 1 + math.Log(float64(small)/minD)/math.Log(2)
	if int(n) < requested {
		return int(n)
	}
	return requested
}

// Build constructs a pyramid of up to requestedCscale levels from the
// (nxx x nyy) grayscale frame pair i1, i2, downsampling with
// imageops.Downsample at each step.
func Build(i1, i2 []float32, nxx, nyy, requestedCscale int) *Pyramid {
	cscale := effectiveCscale(nxx, nyy, requestedCscale)
	if cscale < 1 {
		cscale = 1
	}

	p := &Pyramid{
		nx: make([]int, cscale),
		ny: make([]int, cscale),
		i1: make([][]float32, cscale),
		i2: make([][]float32, cscale),
	}
	p.nx[0], p.ny[0] = nxx, nyy
	p.i1[0], p.i2[0] = i1, i2

	for s := 1; s < cscale; s++ {
		nxs, nys := imageops.DownsampleSize(p.nx[s-1], p.ny[s-1])
		p.nx[s], p.ny[s] = nxs, nys

		i1s := make([]float32, nxs*nys)
		i2s := make([]float32, nxs*nys)
		imageops.Downsample(p.i1[s-1], p.nx[s-1], p.ny[s-1], i1s)
		imageops.Downsample(p.i2[s-1], p.nx[s-1], p.ny[s-1], i2s)
		p.i1[s], p.i2[s] = i1s, i2s
	}
	return p
}

// Levels returns the pyramid's effective level count.
func (p *Pyramid) Levels() int {
	return len(p.nx)
}

// Close drops the pyramid's owned coarse-level buffers (levels 1..N-1),
// freeing the memory for GC without waiting for the next Build — relevant
// since frame buffers scale with video resolution and a stabilizer holds
// the pyramid only for the span of one ProcessFrame call.
func (p *Pyramid) Close() {
	for s := 1; s < len(p.i1); s++ {
		p.i1[s] = nil
		p.i2[s] = nil
	}
}

// Estimate runs the coarse-to-fine inverse-compositional refinement over
// the whole pyramid and returns the parameter vector at full resolution,
// following pyramidal_inverse_compositional_algorithm: iterate from the
// coarsest level down to 0, refining only at levels >= cfg.Fscale-1 and
// upsampling the parameters to seed every finer level.
func (p *Pyramid) Estimate(k transform.Kind, cfg Config) transform.Params {
	cscale := p.Levels()
	ps := make([]transform.Params, cscale)
	for s := range ps {
		ps[s] = transform.Identity(k)
	}

	for s := cscale - 1; s >= 0; s-- {
		if s >= cfg.Fscale-1 {
			estimateLevel(p.i1[s], p.i2[s], ps[s], k, p.nx[s], p.ny[s], cfg)
		}
		if s > 0 {
			ps[s-1] = imageops.UpsampleParams(ps[s], k, p.nx[s], p.ny[s], p.nx[s-1], p.ny[s-1])
		}
	}
	return ps[0]
}

// EstimateMotion is the one-shot convenience entry point used by a caller
// that does not need to keep the pyramid around across calls: build, run
// the coarse-to-fine estimate, release, and return the resulting
// full-resolution parameters.
func EstimateMotion(i1, i2 []float32, nx, ny int, k transform.Kind, cfg Config) transform.Params {
	pyr := Build(i1, i2, nx, ny, cfg.Cscale)
	defer pyr.Close()
	return pyr.Estimate(k, cfg)
}
