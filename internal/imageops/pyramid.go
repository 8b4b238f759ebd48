package imageops

import (
	"math"

	"github.com/gostab/vidstab/transform"
)

// zoomSigmaZero is the base smoothing sigma at scale 0 (ZOOM_SIGMA_ZERO in
// the source); each downsample pre-smooths with sigma*sqrt(3) so two
// successive octaves compose to the same scale-space jump as one level of
// a classical pyramid.
const zoomSigmaZero = 0.7

// DownsampleSize returns the dimensions of the next-coarser pyramid level:
// ceil(n/2), computed as the source does via floor(n/2 + 0.5).
func DownsampleSize(nx, ny int) (nxx, nyy int) {
	nxx = int(float64(nx)/2 + 0.5)
	nyy = int(float64(ny)/2 + 0.5)
	return
}

// Downsample pre-smooths input (nx x ny) with sigma = 0.7*sqrt(3) and
// subsamples by 2, writing the result (DownsampleSize(nx,ny)) into out.
func Downsample(input []float32, nx, ny int, out []float32) {
	sigma := zoomSigmaZero * math.Sqrt(3)
	smoothed := make([]float32, nx*ny)
	Gaussian(input, nx, ny, sigma, 4, smoothed)

	nxx, nyy := DownsampleSize(nx, ny)
	ParallelRows(nyy, func(y0, y1 int) {
		for i1 := y0; i1 < y1; i1++ {
			i2 := 2 * i1
			for j1 := 0; j1 < nxx; j1++ {
				j2 := 2 * j1
				out[i1*nxx+j1] = smoothed[i2*nx+j2]
			}
		}
	})
}

// UpsampleParams rescales transform parameters estimated at a coarser
// level (nx x ny) to the next finer level (nxx x nyy). Only the
// translational components scale, by the larger of the two axis ratios;
// for Homography the last-row entries divide by that ratio instead of
// multiplying, since they parametrize 1/depth rather than a displacement.
func UpsampleParams(p transform.Params, k transform.Kind, nx, ny, nxx, nyy int) transform.Params {
	factorX := float64(nxx) / float64(nx)
	factorY := float64(nyy) / float64(ny)
	nu := math.Max(factorX, factorY)

	out := p.Clone()
	switch k {
	case transform.Translation:
		out[0] *= nu
		out[1] *= nu
	case transform.Euclidean:
		out[0] *= nu
		out[1] *= nu
	case transform.Similarity:
		out[0] *= nu
		out[1] *= nu
	case transform.Affinity:
		out[0] *= nu
		out[1] *= nu
	case transform.Homography:
		out[2] *= nu
		out[5] *= nu
		out[6] /= nu
		out[7] /= nu
	}
	return out
}
