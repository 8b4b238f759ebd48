package imageops

// Gradient computes the central-differences gradient of input (nx x ny,
// row-major) into dx, dy. Border pixels use a one-sided difference so
// every pixel gets a value, matching the full-image gradient() overload
// used by pyramid downsampling's prerequisites.
func Gradient(input []float32, nx, ny int, dx, dy []float32) {
	ParallelRows(ny, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < nx; x++ {
				i := y*nx + x

				var gx float32
				switch {
				case x == 0:
					gx = input[i+1] - input[i]
				case x == nx-1:
					gx = input[i] - input[i-1]
				default:
					gx = 0.5 * (input[i+1] - input[i-1])
				}

				var gy float32
				switch {
				case y == 0:
					gy = input[i+nx] - input[i]
				case y == ny-1:
					gy = input[i] - input[i-nx]
				default:
					gy = 0.5 * (input[i+nx] - input[i-nx])
				}

				dx[i], dy[i] = gx, gy
			}
		}
	})
}

// GradientAtPoints computes the central-differences gradient only at the
// given flat pixel indices (y*nx+x), matching the source's
// gradient(input, dx, dy, x, nx) overload used by the estimator: it does
// not treat border pixels specially, since the estimator's own point
// selection already excludes the image border.
func GradientAtPoints(input []float32, points []int, nx int, dx, dy []float32) {
	for i, idx := range points {
		dx[i] = 0.5 * (input[idx+1] - input[idx-1])
		dy[i] = 0.5 * (input[idx+nx] - input[idx-nx])
	}
}
