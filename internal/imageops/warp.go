package imageops

import "github.com/gostab/vidstab/transform"

// WarpColorBicubic warps the interleaved nx*ny*nz colour image input by
// the transform (p, k), writing the result to out. input and out must not
// alias: bicubic taps overlap neighbouring pixels, so an in-place warp
// would read already-overwritten samples.
func WarpColorBicubic(input []float32, nx, ny, nz int, p transform.Params, k transform.Kind, out []float32) {
	ParallelRows(ny, func(y0, y1 int) {
		for i := y0; i < y1; i++ {
			for j := 0; j < nx; j++ {
				x, y := transform.Project(float64(j), float64(i), p, k)
				base := (i*nx + j) * nz
				for c := 0; c < nz; c++ {
					out[base+c] = ColorSampleBicubic(input, nx, ny, nz, x, y, c)
				}
			}
		}
	})
}

// WarpGrayAtPointsBilinear warps input at the flat pixel indices in
// points by (p, k) using bilinear sampling, writing each result into
// out[i] and its validity into valid[i] — the explicit marker that
// replaces the source's 999999.9 out-of-domain sentinel.
func WarpGrayAtPointsBilinear(input []float32, nx, ny int, points []int, p transform.Params, k transform.Kind, out []float32, valid []bool) {
	for i, idx := range points {
		x1 := float64(idx % nx)
		y1 := float64(idx / nx)
		x, y := transform.Project(x1, y1, p, k)
		v, ok := GraySampleBilinear(input, nx, ny, x, y)
		out[i] = v
		valid[i] = ok
	}
}
