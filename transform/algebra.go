package transform

import "math"

// singularTol is the squared-determinant threshold below which compose,
// invert and update treat a transform as numerically singular.
const singularTol = 1e-10

// Project maps point (x, y) through the transform W(.; p) of the given
// kind, returning the transformed point (xp, yp).
//
// For Homography the denominator d = p6*x + p7*y + 1 is not checked here —
// a near-zero d produces a huge or infinite result, and callers that
// bounds-check projected points (the estimator, the warp samplers) reject
// it before use, per the source's division-by-zero contract.
func Project(x, y float64, p Params, k Kind) (xp, yp float64) {
	switch k {
	case Translation:
		return x + p[0], y + p[1]
	case Euclidean:
		c, s := math.Cos(p[2]), math.Sin(p[2])
		return c*x - s*y + p[0], s*x + c*y + p[1]
	case Similarity:
		return (1+p[2])*x - p[3]*y + p[0], p[3]*x + (1+p[2])*y + p[1]
	case Affinity:
		return (1+p[2])*x + p[3]*y + p[0], p[4]*x + (1+p[5])*y + p[1]
	case Homography:
		d := p[6]*x + p[7]*y + 1
		return ((1+p[0])*x + p[1]*y + p[2]) / d, (p[3]*x + (1+p[4])*y + p[5]) / d
	default:
		return x, y
	}
}

// JacobianRow fills a 2 x nparams Jacobian of the warp at point (x, y) for
// the given kind, flattened row-major into dst (len(dst) == 2*k.NumParams()).
// The parametrizations follow Szeliski's book, chapters 6 and 9, as in the
// source's jacobian().
func JacobianRow(x, y float64, k Kind, dst []float64) {
	switch k {
	case Translation:
		dst[0], dst[1] = 1, 0
		dst[2], dst[3] = 0, 1
	case Euclidean:
		dst[0], dst[1], dst[2] = 1, 0, -y
		dst[3], dst[4], dst[5] = 0, 1, x
	case Similarity:
		dst[0], dst[1], dst[2], dst[3] = 1, 0, x, -y
		dst[4], dst[5], dst[6], dst[7] = 0, 1, y, x
	case Affinity:
		dst[0], dst[1], dst[2], dst[3], dst[4], dst[5] = 1, 0, x, y, 0, 0
		dst[6], dst[7], dst[8], dst[9], dst[10], dst[11] = 0, 1, 0, 0, x, y
	case Homography:
		dst[0], dst[1], dst[2], dst[3] = x, y, 1, 0
		dst[4], dst[5], dst[6], dst[7] = 0, 0, -x*x, -x*y
		dst[8], dst[9], dst[10], dst[11] = 0, 0, 0, x
		dst[12], dst[13], dst[14], dst[15] = y, 1, -x*y, -y*y
	}
}

// UpdateTransform implements p <- p o dp^-1 directly via the source's
// closed-form expressions, equivalent to but cheaper than Compose+Invert.
// On a numerically singular dp (for the kinds where that can happen), p is
// left unchanged.
func UpdateTransform(p, dp Params, k Kind) {
	switch k {
	case Translation:
		for i := range p {
			p[i] -= dp[i]
		}
	case Euclidean:
		a, b := math.Cos(dp[2]), math.Sin(dp[2])
		c, d := dp[0], dp[1]
		ap, bp := math.Cos(p[2]), math.Sin(p[2])
		cp, dp2 := p[0], p[1]
		cost := a*ap + b*bp
		sint := a*bp - b*ap
		p[0] = cp - bp*(b*c-a*d) - ap*(a*c+b*d)
		p[1] = dp2 - bp*(a*c+b*d) + ap*(b*c-a*d)
		p[2] = math.Atan2(sint, cost)
	case Similarity:
		a, b, c, d := dp[2], dp[3], dp[0], dp[1]
		det := 2*a + a*a + b*b + 1
		if det*det <= singularTol {
			return
		}
		ap, bp, cp, dp2 := p[2], p[3], p[0], p[1]
		p[0] = cp - bp*(-d-a*d+b*c)/det + (ap+1)*(-c-a*c-b*d)/det
		p[1] = dp2 + bp*(-c-a*c-b*d)/det + (ap+1)*(-d-a*d+b*c)/det
		p[2] = b*bp/det + (a+1)*(ap+1)/det - 1
		p[3] = -b*(ap+1)/det + bp*(a+1)/det
	case Affinity:
		a, b, c := dp[2], dp[3], dp[0]
		d, e, f := dp[4], dp[5], dp[1]
		det := a - b*d + e + a*e + 1
		if det*det <= singularTol {
			return
		}
		ap, bp, cp := p[2], p[3], p[0]
		dp2, ep, fp := p[4], p[5], p[1]
		p[0] = cp + (-f*bp-a*f*bp+c*d*bp)/det + (ap+1)*(-c+b*f-c*e)/det
		p[1] = fp + dp2*(-c+b*f-c*e)/det + (-f+c*d-a*f-f*ep-a*f*ep+c*d*ep)/det
		p[2] = ((1+ap)*(1+e)-d*bp)/det - 1
		p[3] = (bp + a*bp - b - b*ap) / det
		p[4] = (dp2*(1+e) - d - d*ep) / det
		p[5] = (a+ep+a*ep+1-b*dp2)/det - 1
	case Homography:
		a, b, c, d := dp[0], dp[1], dp[2], dp[3]
		e, f, g, h := dp[4], dp[5], dp[6], dp[7]
		ap, bp, cp, dp2 := p[0], p[1], p[2], p[3]
		ep, fp, gp, hp := p[4], p[5], p[6], p[7]
		det := f*hp + a*f*hp - c*d*hp + gp*(c-b*f+c*e) - a + b*d - e - a*e - 1
		if det*det <= singularTol {
			return
		}
		p[0] = ((d*bp-f*g*bp)+cp*(g-d*h+g*e)+(ap+1)*(f*h-e-1))/det - 1
		p[1] = (h*cp + a*h*cp - b*g*cp - bp - a*bp + c*g*bp + b - c*h + b*ap - c*h*ap) / det
		p[2] = (f*bp + a*f*bp - c*d*bp + (ap+1)*(c-b*f+c*e) + cp*(-a+b*d-e-a*e-1)) / det
		p[3] = (fp*(g-d*h+g*e) + d - f*g + d*ep - f*g*ep + dp2*(f*h-e-1)) / det
		p[4] = (b*dp2-c*h*dp2+h*fp+a*h*fp-b*g*fp-a+c*g-ep-a*ep+c*g*ep-1)/det - 1
		p[5] = (dp2*(c-b*f+c*e) + f + a*f - c*d + f*ep + a*f*ep - c*d*ep + fp*(-a+b*d-e-a*e-1)) / det
		p[6] = (d*hp - f*g*hp + g - d*h + g*e + gp*(f*h-e-1)) / det
		p[7] = (h + a*h - b*g + b*gp - c*h*gp - hp - a*hp + c*g*hp) / det
	}
}

// Compose realises W(.; p) = W(.; p1) o W(.; p2), returning the identity
// vector when the composition is numerically singular (Homography only;
// the other kinds compose without any division).
func Compose(p1, p2 Params, k Kind) Params {
	p := Identity(k)
	switch k {
	case Translation:
		for i := range p {
			p[i] = p1[i] + p2[i]
		}
	case Euclidean:
		a, b, c, d := math.Cos(p1[2]), math.Sin(p1[2]), p1[0], p1[1]
		ap, bp, cp, dp := math.Cos(p2[2]), math.Sin(p2[2]), p2[0], p2[1]
		cost := a*ap - b*bp
		sint := a*bp + b*ap
		p[0] = c + cp*a - dp*b
		p[1] = d + dp*a + cp*b
		p[2] = math.Atan2(sint, cost)
	case Similarity:
		a, b, c, d := p1[2], p1[3], p1[0], p1[1]
		ap, bp, cp, dp := p2[2], p2[3], p2[0], p2[1]
		p[0] = c - b*dp + cp*(a+1)
		p[1] = d + b*cp + dp*(a+1)
		p[2] = -b*bp + (a+1)*(ap+1) - 1
		p[3] = b*(ap+1) + bp*(a+1)
	case Affinity:
		a, b, c := p1[2], p1[3], p1[0]
		d, e, f := p1[4], p1[5], p1[1]
		ap, bp, cp := p2[2], p2[3], p2[0]
		dp, ep, fp := p2[4], p2[5], p2[1]
		p[0] = c + b*fp + cp*(a+1)
		p[1] = f + d*cp + fp*(e+1)
		p[2] = b*dp + (a+1)*(ap+1) - 1
		p[3] = b*(ep+1) + bp*(a+1)
		p[4] = d*(ap+1) + dp*(e+1)
		p[5] = d*bp + (ep+1)*(e+1) - 1
	case Homography:
		a, b, c, d := p1[0], p1[1], p1[2], p1[3]
		e, f, g, h := p1[4], p1[5], p1[6], p1[7]
		ap, bp, cp, dp := p2[0], p2[1], p2[2], p2[3]
		ep, fp, gp, hp := p2[4], p2[5], p2[6], p2[7]
		det := cp*g + fp*h + 1
		if det*det <= singularTol {
			return p
		}
		p[0] = (b*dp+c*gp+(a+1)*(ap+1))/det - 1
		p[1] = (c*hp + b*(ep+1) + bp*(a+1)) / det
		p[2] = (c + a*cp + b*fp + cp) / det
		p[3] = (d*(ap+1) + f*gp + dp*(e+1)) / det
		p[4] = (bp*d+f*hp+(ep+1)*(e+1))/det - 1
		p[5] = (f + cp*d + fp*(e+1)) / det
		p[6] = (gp + g*(ap+1) + dp*h) / det
		p[7] = (hp + h*(ep+1) + bp*g) / det
	}
	return p
}

// Invert returns p1^-1, the identity vector when numerically singular
// (Similarity, Affinity, Homography only).
func Invert(p1 Params, k Kind) Params {
	p := Identity(k)
	switch k {
	case Translation:
		p[0], p[1] = -p1[0], -p1[1]
	case Euclidean:
		a, b, c := p1[0], p1[1], p1[2]
		p[0] = -a*math.Cos(c) - b*math.Sin(c)
		p[1] = a*math.Sin(c) - b*math.Cos(c)
		p[2] = -c
	case Similarity:
		a, b, c, d := p1[2], p1[3], p1[0], p1[1]
		det := 2*a + a*a + b*b + 1
		if det*det <= singularTol {
			return p
		}
		p[0] = (-c - a*c - b*d) / det
		p[1] = (-d - a*d + b*c) / det
		p[2] = (a+1)/det - 1
		p[3] = -b / det
	case Affinity:
		a, b, c := p1[2], p1[3], p1[0]
		d, e, f := p1[4], p1[5], p1[1]
		det := a - b*d + e + a*e + 1
		if det*det <= singularTol {
			return p
		}
		p[0] = (-c + b*f - c*e) / det
		p[1] = (-f - a*f + c*d) / det
		p[2] = (e+1)/det - 1
		p[3] = -b / det
		p[4] = -d / det
		p[5] = (a+1)/det - 1
	case Homography:
		a, b, c, d := p1[0], p1[1], p1[2], p1[3]
		e, f, g, h := p1[4], p1[5], p1[6], p1[7]
		det := -a + b*d - e - a*e - 1
		if det*det <= singularTol {
			return p
		}
		p[0] = (f*h-e-1)/det - 1
		p[1] = (b - c*h) / det
		p[2] = (c - b*f + c*e) / det
		p[3] = (d - f*g) / det
		p[4] = (-a+c*g-1)/det - 1
		p[5] = (f + a*f - c*d) / det
		p[6] = (g - d*h + g*e) / det
		p[7] = (h + a*h - b*g) / det
	}
	return p
}

// ToMatrix returns the 3x3 matrix representation of p, row-major.
func ToMatrix(p Params, k Kind) [9]float64 {
	m := [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	switch k {
	case Translation:
		m[2] = p[0]
		m[5] = p[1]
	case Euclidean:
		c, s := math.Cos(p[2]), math.Sin(p[2])
		m[0], m[1], m[2] = c, -s, p[0]
		m[3], m[4], m[5] = s, c, p[1]
	case Similarity:
		m[0], m[1], m[2] = 1+p[2], -p[3], p[0]
		m[3], m[4], m[5] = p[3], 1+p[2], p[1]
	case Affinity:
		m[0], m[1], m[2] = 1+p[2], p[3], p[0]
		m[3], m[4], m[5] = p[4], 1+p[5], p[1]
	case Homography:
		m[0], m[1], m[2] = 1+p[0], p[1], p[2]
		m[3], m[4], m[5] = p[3], 1+p[4], p[5]
		m[6], m[7] = p[6], p[7]
	}
	return m
}

// FromMatrix converts a row-major 3x3 matrix to its parametric form for
// kind k, normalising by m[8] first.
func FromMatrix(mat [9]float64, k Kind) Params {
	var m [9]float64
	for i := range m {
		m[i] = mat[i] / mat[8]
	}
	p := Identity(k)
	switch k {
	case Translation:
		p[0], p[1] = m[2], m[5]
	case Euclidean:
		p[0], p[1] = m[2], m[5]
		cost := (m[0] + m[4]) / 2
		sint := (m[3] - m[1]) / 2
		p[2] = math.Atan2(sint, cost)
	case Similarity:
		p[0], p[1] = m[2], m[5]
		p[2] = (m[0]+m[4])/2 - 1
		p[3] = (m[3] - m[1]) / 2
	case Affinity:
		p[0], p[1] = m[2], m[5]
		p[2] = m[0] - 1
		p[3] = m[1]
		p[4] = m[3]
		p[5] = m[4] - 1
	case Homography:
		p[0] = m[0] - 1
		p[1] = m[1]
		p[2] = m[2]
		p[3] = m[3]
		p[4] = m[4] - 1
		p[5] = m[5]
		p[6] = m[6]
		p[7] = m[7]
	}
	return p
}
