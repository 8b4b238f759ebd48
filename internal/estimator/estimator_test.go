package estimator

import (
	"math"
	"testing"

	"github.com/gostab/vidstab/internal/imageops"
	"github.com/gostab/vidstab/transform"
)

// makeTexture builds a grayscale image with enough high-frequency content
// for gradient-based estimation to have something to lock onto; a flat
// image has a singular Hessian and nothing to estimate from.
func makeTexture(nx, ny int) []float32 {
	img := make([]float32, nx*ny)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			v := 128 + 80*math.Sin(float64(x)*0.3) + 60*math.Cos(float64(y)*0.21)
			img[y*nx+x] = float32(v)
		}
	}
	return img
}

// translate shifts img by (tx, ty) using the same bilinear sampler the
// estimator itself warps with, so the recovered parameters can be compared
// directly against the shift that was actually applied.
func translate(img []float32, nx, ny int, tx, ty float64) []float32 {
	out := make([]float32, nx*ny)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			sx, sy := float64(x)-tx, float64(y)-ty
			ix, iy := int(sx), int(sy)
			if ix < 0 || ix >= nx-1 || iy < 0 || iy >= ny-1 {
				continue
			}
			fx, fy := sx-float64(ix), sy-float64(iy)
			p00 := float64(img[iy*nx+ix])
			p10 := float64(img[iy*nx+ix+1])
			p01 := float64(img[(iy+1)*nx+ix])
			p11 := float64(img[(iy+1)*nx+ix+1])
			v := p00*(1-fx)*(1-fy) + p10*fx*(1-fy) + p01*(1-fx)*fy + p11*fx*fy
			out[y*nx+x] = float32(v)
		}
	}
	return out
}

// warpGray is translate's general-transform sibling: out(x,y) =
// img(Project(x,y;Invert(p,k))), so the recovered parameters of a
// W(x;p)=x+p-style estimator can be compared directly against p for any
// transform kind, not just Translation.
func warpGray(img []float32, nx, ny int, p transform.Params, k transform.Kind) []float32 {
	out := make([]float32, nx*ny)
	invP := transform.Invert(p, k)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			sx, sy := transform.Project(float64(x), float64(y), invP, k)
			v, ok := imageops.GraySampleBilinear(img, nx, ny, sx, sy)
			if ok {
				out[y*nx+x] = v
			}
		}
	}
	return out
}

func TestEstimateLevelRecoversTranslation(t *testing.T) {
	nx, ny := 96, 96
	i1 := makeTexture(nx, ny)
	i2 := translate(i1, nx, ny, 3.0, -2.0)

	cfg := DefaultConfig()
	cfg.Robust = Quadratic
	p := transform.Identity(transform.Translation)
	estimateLevel(i1, i2, p, transform.Translation, nx, ny, cfg)

	// W(x;p) = x + p maps I1 into I2's frame, so recovered p should match
	// the applied shift up to the estimator's tolerance.
	if math.Abs(p[0]-3.0) > 0.3 || math.Abs(p[1]-(-2.0)) > 0.3 {
		t.Errorf("recovered p = %v, want approx [3 -2]", p)
	}
}

func TestPyramidEstimateRecoversLargeTranslation(t *testing.T) {
	nx, ny := 160, 160
	i1 := makeTexture(nx, ny)
	i2 := translate(i1, nx, ny, 12.0, 7.0)

	cfg := DefaultConfig()
	p := EstimateMotion(i1, i2, nx, ny, transform.Translation, cfg)

	if math.Abs(p[0]-12.0) > 1.0 || math.Abs(p[1]-7.0) > 1.0 {
		t.Errorf("pyramidal recovered p = %v, want approx [12 7]", p)
	}
}

func TestPyramidEstimateIdentityOnIdenticalFrames(t *testing.T) {
	nx, ny := 80, 80
	i1 := makeTexture(nx, ny)
	cfg := DefaultConfig()
	p := EstimateMotion(i1, i1, nx, ny, transform.Translation, cfg)

	if math.Abs(p[0]) > 0.2 || math.Abs(p[1]) > 0.2 {
		t.Errorf("identity-frame recovered p = %v, want approx [0 0]", p)
	}
}

func TestEffectiveCscaleCapsToMinD(t *testing.T) {
	got := effectiveCscale(100, 100, 100)
	want := int(1 + math.Log(100.0/minD)/math.Log(2))
	if got != want {
		t.Errorf("effectiveCscale(100,100,100) = %d, want %d", got, want)
	}
}

func TestEffectiveCscaleRespectsRequestedCeiling(t *testing.T) {
	if got := effectiveCscale(4096, 4096, 2); got != 2 {
		t.Errorf("effectiveCscale with small request = %d, want 2", got)
	}
}

func TestSelectPointsInsetFromBorder(t *testing.T) {
	nx, ny := 32, 32
	pts := selectPoints(nx, ny)
	if len(pts) == 0 {
		t.Fatalf("expected points for small image path")
	}
	for _, idx := range pts {
		x, y := idx%nx, idx/nx
		if x < 8 || x >= nx-8 || y < 8 || y >= ny-8 {
			t.Fatalf("point (%d,%d) not inset from border", x, y)
		}
	}
}

// TestRobustEstimationOutperformsQuadraticUnderOutliers exercises the
// documented robustness property: with ~10% of the sampled reference
// points corrupted to saturation, the Lorentzian-robust estimator's error
// should be a small fraction of the plain quadratic estimator's error,
// since robustErrorFunction's weighting collapses the influence of large
// residuals while the quadratic variant weights every point equally.
func TestRobustEstimationOutperformsQuadraticUnderOutliers(t *testing.T) {
	nx, ny := 128, 128
	i1 := makeTexture(nx, ny)
	truth := transform.Params{4.0, -3.0}
	i2 := translate(i1, nx, ny, truth[0], truth[1])

	points := selectPoints(nx, ny)
	if len(points) == 0 {
		t.Fatalf("expected sampled points for a 128x128 image")
	}
	corrupted := append([]float32(nil), i1...)
	for idx, pt := range points {
		if idx%10 == 0 {
			if corrupted[pt] > 127 {
				corrupted[pt] = 0
			} else {
				corrupted[pt] = 255
			}
		}
	}

	errorFor := func(robust Robust) float64 {
		cfg := DefaultConfig()
		cfg.Robust = robust
		p := transform.Identity(transform.Translation)
		estimateLevel(corrupted, i2, p, transform.Translation, nx, ny, cfg)
		dx, dy := p[0]-truth[0], p[1]-truth[1]
		return math.Sqrt(dx*dx + dy*dy)
	}

	quadErr := errorFor(Quadratic)
	robErr := errorFor(Lorentzian)
	if robErr < 1e-6 {
		robErr = 1e-6
	}

	if ratio := quadErr / robErr; ratio < 5.0 {
		t.Errorf("quadratic/Lorentzian error ratio = %.2f (quadErr=%v robErr=%v), want >= 5", ratio, quadErr, robErr)
	}
}

// TestPyramidEstimateRecoversHomography exercises the numerical
// coarse-to-fine solve for the full 8-parameter family: a 128x128 image
// warped by a known small-perspective homography should be recovered
// within 5% relative Frobenius error of the true matrix.
func TestPyramidEstimateRecoversHomography(t *testing.T) {
	nx, ny := 128, 128
	i1 := makeTexture(nx, ny)
	truth := transform.Params{0.02, -0.01, 3.0, 0.015, -0.03, -2.0, 0.0004, -0.0003}
	i2 := warpGray(i1, nx, ny, truth, transform.Homography)

	cfg := DefaultConfig()
	cfg.Cscale = 4
	got := EstimateMotion(i1, i2, nx, ny, transform.Homography, cfg)

	wantM := transform.ToMatrix(truth, transform.Homography)
	gotM := transform.ToMatrix(got, transform.Homography)

	var num, den float64
	for i := range wantM {
		d := gotM[i] - wantM[i]
		num += d * d
		den += wantM[i] * wantM[i]
	}
	relErr := math.Sqrt(num / den)
	if relErr > 0.05 {
		t.Errorf("homography Frobenius relative error = %.4f, want <= 0.05 (got=%v want=%v)", relErr, got, truth)
	}
}

func TestPyramidBuildLevelZeroAliasesInput(t *testing.T) {
	nx, ny := 256, 256
	i1 := makeTexture(nx, ny)
	i2 := makeTexture(nx, ny)
	p := Build(i1, i2, nx, ny, 3)
	defer p.Close()

	if &p.i1[0][0] != &i1[0] {
		t.Errorf("level 0 does not alias the caller's buffer")
	}
	if p.Levels() < 2 {
		t.Fatalf("expected at least 2 levels for a 256x256 image, got %d", p.Levels())
	}
}
