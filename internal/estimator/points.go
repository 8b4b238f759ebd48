package estimator

// selectPoints returns the flat pixel indices (y*nx+x) the estimator fits
// the transform on, following select_points(): for images wider than 64
// pixels it samples 11x11 blocks on a sparse grid (radius=5 half-width,
// spaced radius*radius apart, inset by a 10% border) to keep the point
// count roughly independent of image size; for small images it uses every
// interior pixel inset by an 8-pixel border.
func selectPoints(nx, ny int) []int {
	var x []int
	if nx > 64 {
		const radius = 5
		const region = 5
		border := int(float64(nx) / 10.0)
		step := radius * radius
		for i := border + radius; i < ny-border-radius; i += step {
			for j := border + radius; j < nx-border-radius; j += step {
				for k := i - region; k <= i+region; k++ {
					for l := j - region; l <= j+region; l++ {
						x = append(x, k*nx+l)
					}
				}
			}
		}
	} else {
		for k := 8; k < ny-8; k++ {
			for l := 8; l < nx-8; l++ {
				x = append(x, k*nx+l)
			}
		}
	}
	return x
}
