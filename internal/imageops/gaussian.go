package imageops

import "math"

// GaussianKernel1D returns a normalised 1D Gaussian kernel with the given
// sigma, spanning precision*sigma samples on either side of the centre
// (precision in "window-precision units", typically 4).
func GaussianKernel1D(sigma float64, precision int) []float64 {
	radius := int(float64(precision) * sigma)
	if radius < 1 {
		radius = 1
	}
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// Gaussian separably convolves input (nx x ny) with a Gaussian of the
// given sigma, writing the result to out. Boundaries are handled by
// Neumann clamping of the sample index to [0, n-1], as ColorSampleBicubic
// does; the grayscale and bilinear samplers reject such points instead.
func Gaussian(input []float32, nx, ny int, sigma float64, precision int, out []float32) {
	kernel := GaussianKernel1D(sigma, precision)
	radius := len(kernel) / 2

	tmp := make([]float32, nx*ny)

	// Horizontal pass.
	ParallelRows(ny, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := y * nx
			for x := 0; x < nx; x++ {
				var acc float64
				for k := -radius; k <= radius; k++ {
					xi := clampIndex(x+k, nx)
					acc += kernel[k+radius] * float64(input[row+xi])
				}
				tmp[row+x] = float32(acc)
			}
		}
	})

	// Vertical pass.
	ParallelRows(ny, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < nx; x++ {
				var acc float64
				for k := -radius; k <= radius; k++ {
					yi := clampIndex(y+k, ny)
					acc += kernel[k+radius] * float64(tmp[yi*nx+x])
				}
				out[y*nx+x] = float32(acc)
			}
		}
	})
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
