package imageops

// cubic1D is the 1D Catmull-Rom cubic used by both the grayscale and
// colour bicubic samplers.
func cubic1D(v [4]float64, x float64) float64 {
	return v[1] + 0.5*x*(v[2]-v[0]+x*(2*v[0]-5*v[1]+4*v[2]-v[3]+x*(3*(v[1]-v[2])+v[3]-v[0])))
}

// bicubic2D applies the 1D cubic along rows then along the column; p[i]
// is the i-th row of the 4x4 neighbourhood.
func bicubic2D(p [4][4]float64, x, y float64) float64 {
	var v [4]float64
	for i := 0; i < 4; i++ {
		v[i] = cubic1D(p[i], x)
	}
	return cubic1D(v, y)
}

func signOf(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}

// GraySampleBicubic samples input (nx x ny, no channel dimension) at
// fractional position (uu, vv) with bicubic interpolation. ok is false
// when the point falls too close to the border for a 4x4 neighborhood
// (uu outside [2, nx-2) or vv outside [2, ny-2)) — the explicit "invalid"
// marker replacing the source's 999999.9 sentinel.
func GraySampleBicubic(input []float32, nx, ny int, uu, vv float64) (value float32, ok bool) {
	if uu >= float64(nx-2) || uu < 2 || vv >= float64(ny-2) || vv < 2 {
		return 0, false
	}
	sx, sy := signOf(uu), signOf(vv)
	x, y := int(uu), int(vv)
	mx, my := x-sx, y-sy
	dx, dy := x+sx, y+sy
	ddx, ddy := x+2*sx, y+2*sy

	row := func(yy int) [4]float64 {
		return [4]float64{
			float64(input[mx+nx*yy]),
			float64(input[x+nx*yy]),
			float64(input[dx+nx*yy]),
			float64(input[ddx+nx*yy]),
		}
	}
	pol := [4][4]float64{row(my), row(y), row(dy), row(ddy)}

	return float32(bicubic2D(pol, uu-float64(x), vv-float64(y))), true
}

// GraySampleBilinear samples input at (uu, vv) with bilinear
// interpolation; ok is false when (uu, vv) falls outside [1, n-2].
func GraySampleBilinear(input []float32, nx, ny int, uu, vv float64) (value float32, ok bool) {
	if uu < 1 || uu > float64(nx-2) || vv < 1 || vv > float64(ny-2) {
		return 0, false
	}
	sx, sy := signOf(uu), signOf(vv)
	x, y := int(uu), int(vv)
	dx, dy := x+sx, y+sy

	p1 := float64(input[x+nx*y])
	p2 := float64(input[dx+nx*y])
	p3 := float64(input[x+nx*dy])
	p4 := float64(input[dx+nx*dy])

	e1 := float64(sx) * (uu - float64(x))
	e1c := 1 - e1
	e2 := float64(sy) * (vv - float64(y))
	e2c := 1 - e2

	w1 := e1c*p1 + e1*p2
	w2 := e1c*p3 + e1*p4
	return float32(e2c*w1 + e2*w2), true
}

func neumannBC(x, n int) int {
	if x < 0 {
		return 0
	}
	if x >= n {
		return n - 1
	}
	return x
}

// ColorSampleBicubic samples channel k of an interleaved nx*ny*nz colour
// image at (uu, vv). It returns 0 for points beyond [-1, n] on either
// axis (matching the source's relaxed colour-warp domain, wider than the
// grayscale sampler's because border pixels are clamped via Neumann
// reflection rather than rejected).
func ColorSampleBicubic(input []float32, nx, ny, nz int, uu, vv float64, k int) float32 {
	if uu > float64(nx) || uu < -1 || vv > float64(ny) || vv < -1 {
		return 0
	}
	sx, sy := signOf(uu), signOf(vv)
	x := neumannBC(int(uu), nx)
	y := neumannBC(int(vv), ny)
	mx := neumannBC(int(uu)-sx, nx)
	my := neumannBC(int(vv)-sy, ny)
	dx := neumannBC(int(uu)+sx, nx)
	dy := neumannBC(int(vv)+sy, ny)
	ddx := neumannBC(int(uu)+2*sx, nx)
	ddy := neumannBC(int(vv)+2*sy, ny)

	at := func(xx, yy int) float64 {
		return float64(input[(xx+nx*yy)*nz+k])
	}
	pol := [4][4]float64{
		{at(mx, my), at(x, my), at(dx, my), at(ddx, my)},
		{at(mx, y), at(x, y), at(dx, y), at(ddx, y)},
		{at(mx, dy), at(x, dy), at(dx, dy), at(ddx, dy)},
		{at(mx, ddy), at(x, ddy), at(dx, ddy), at(ddx, ddy)},
	}
	return float32(bicubic2D(pol, uu-float64(x), vv-float64(y)))
}

// ColorSampleBilinear samples channel k at (uu, vv); returns 0 outside
// [1, n-2].
func ColorSampleBilinear(input []float32, nx, ny, nz int, uu, vv float64, k int) float32 {
	if uu < 1 || uu > float64(nx-2) || vv < 1 || vv > float64(ny-2) {
		return 0
	}
	sx, sy := signOf(uu), signOf(vv)
	x, y := int(uu), int(vv)
	dx, dy := x+sx, y+sy

	p1 := float64(input[(x+nx*y)*nz+k])
	p2 := float64(input[(dx+nx*y)*nz+k])
	p3 := float64(input[(x+nx*dy)*nz+k])
	p4 := float64(input[(dx+nx*dy)*nz+k])

	e1 := float64(sx) * (uu - float64(x))
	e1c := 1 - e1
	e2 := float64(sy) * (vv - float64(y))
	e2c := 1 - e2

	w1 := e1c*p1 + e1*p2
	w2 := e1c*p3 + e1*p4
	return float32(e2c*w1 + e2*w2)
}
