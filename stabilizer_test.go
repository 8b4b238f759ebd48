package vidstab

import (
	"math"
	"math/rand"
	"testing"

	"github.com/gostab/vidstab/internal/estimator"
	"github.com/gostab/vidstab/internal/testutil"
	"github.com/gostab/vidstab/transform"
)

// stepRawMotion drives the circular-buffer bookkeeping and motionSmoothing
// pass ProcessFrame performs, but stores a caller-supplied raw transform
// instead of running the estimator on real frames — lets trajectory-shaped
// tests drive the smoother directly from known per-frame motion.
func stepRawMotion(s *Stabilizer, h transform.Params) {
	s.nf++
	s.fc++
	if s.fc >= s.n {
		s.fc = 0
	}
	s.h[s.fc] = h
	s.motionSmoothing()
}

func textureFrame(nx, ny int) *GrayFrame {
	pix := make([]float32, nx*ny)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			v := 128 + 70*math.Sin(float64(x)*0.25) + 50*math.Cos(float64(y)*0.19)
			pix[y*nx+x] = float32(v)
		}
	}
	return &GrayFrame{Pix: pix, Width: nx, Height: ny}
}

func colorFromGray(g *GrayFrame) *ColorFrame {
	pix := make([]float32, len(g.Pix)*3)
	for i, v := range g.Pix {
		pix[i*3], pix[i*3+1], pix[i*3+2] = v, v, v
	}
	return &ColorFrame{Pix: pix, Width: g.Width, Height: g.Height, Channels: 3}
}

func translateGray(g *GrayFrame, tx, ty float64) *GrayFrame {
	nx, ny := g.Width, g.Height
	out := make([]float32, nx*ny)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			sx, sy := float64(x)-tx, float64(y)-ty
			ix, iy := int(sx), int(sy)
			if ix < 0 || ix >= nx-1 || iy < 0 || iy >= ny-1 {
				out[y*nx+x] = g.Pix[y*nx+x]
				continue
			}
			fx, fy := sx-float64(ix), sy-float64(iy)
			p00 := float64(g.Pix[iy*nx+ix])
			p10 := float64(g.Pix[iy*nx+ix+1])
			p01 := float64(g.Pix[(iy+1)*nx+ix])
			p11 := float64(g.Pix[(iy+1)*nx+ix+1])
			out[y*nx+x] = float32(p00*(1-fx)*(1-fy) + p10*fx*(1-fy) + p01*(1-fx)*fy + p11*fx*fy)
		}
	}
	return &GrayFrame{Pix: out, Width: nx, Height: ny}
}

// TestConstantZeroVideoStaysIdentity feeds the stabilizer a video with no
// motion at all: every Hp should stay within numerical noise of identity,
// and the output should be (numerically) the input.
func TestConstantZeroVideoStaysIdentity(t *testing.T) {
	nx, ny := 96, 96
	base := textureFrame(nx, ny)
	color := colorFromGray(base)

	s := NewStabilizer(Config{Kind: transform.Translation, Sigma: 10})

	var prev *GrayFrame = base
	for i := 0; i < 10; i++ {
		out, err := s.ProcessFrame(prev, base, color, nil)
		if err != nil {
			t.Fatalf("ProcessFrame: %v", err)
		}
		hp := s.hp
		if math.Abs(hp[0]) > 1e-2 || math.Abs(hp[1]) > 1e-2 {
			t.Errorf("frame %d: Hp = %v, want approx identity", i, hp)
		}
		if sim := testutil.PixelSimilarity(out.Pix, color.Pix, 1.0); sim < 0.999 {
			t.Errorf("frame %d: output pixel similarity = %v, want >= 0.999 (near no-op warp)", i, sim)
		}
		prev = base
	}
}

// TestUniformPanConvergesToConstantSmoothedTranslation feeds a scene
// translating at a fixed rate per frame; after the buffer fills, Hs should
// track the per-frame shift and Hp should approach identity.
func TestUniformPanConvergesToConstantSmoothedTranslation(t *testing.T) {
	nx, ny := 128, 128
	base := textureFrame(nx, ny)

	cfg := Config{Kind: transform.Translation, Sigma: 6}
	s := NewStabilizer(cfg)

	const shift = 2.0
	frames := make([]*GrayFrame, 20)
	frames[0] = base
	for i := 1; i < len(frames); i++ {
		frames[i] = translateGray(base, shift*float64(i), 0)
	}

	var lastHp transform.Params
	for i := 1; i < len(frames); i++ {
		color := colorFromGray(frames[i])
		_, err := s.ProcessFrame(frames[i-1], frames[i], color, nil)
		if err != nil {
			t.Fatalf("ProcessFrame %d: %v", i, err)
		}
		lastHp = s.hp
	}

	// After the smoothing window has filled with a constant-rate pan, the
	// residual stabilizing transform should be small relative to the
	// per-frame shift itself.
	if math.Abs(lastHp[0]) > shift*0.5 {
		t.Errorf("Hp[0] = %v, want small relative to per-frame shift %v", lastHp[0], shift)
	}
}

// TestIdenticalFramesProduceNearIdentityMotion is the "singular by
// construction" scenario: two identical frames give an estimated motion
// near zero and a near-identity stabilizing transform.
func TestIdenticalFramesProduceNearIdentityMotion(t *testing.T) {
	nx, ny := 96, 96
	base := textureFrame(nx, ny)
	color := colorFromGray(base)

	s := NewStabilizer(Config{Kind: transform.Translation, Sigma: 8})
	_, err := s.ProcessFrame(base, base, color, nil)
	if err != nil {
		t.Fatalf("ProcessFrame: %v", err)
	}

	h := s.H()
	if math.Abs(h[0]) > 0.2 || math.Abs(h[1]) > 0.2 {
		t.Errorf("H = %v, want approx zero for identical frames", h)
	}
}

// TestEarlyFramesUseNeumannBoundaryWithoutPanicking exercises the left
// Neumann boundary path in gaussianConvolve (frames before the window has
// filled) and confirms it produces finite, non-NaN output.
func TestEarlyFramesUseNeumannBoundaryWithoutPanicking(t *testing.T) {
	nx, ny := 80, 80
	base := textureFrame(nx, ny)
	color := colorFromGray(base)

	s := NewStabilizer(Config{Kind: transform.Translation, Sigma: 15})
	prev := base
	for i := 0; i < 3; i++ {
		curr := translateGray(base, float64(i+1), 0)
		out, err := s.ProcessFrame(prev, curr, color, nil)
		if err != nil {
			t.Fatalf("ProcessFrame %d: %v", i, err)
		}
		for _, v := range s.hs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("frame %d: Hs contains non-finite value: %v", i, s.hs)
			}
		}
		if out == nil || len(out.Pix) != len(color.Pix) {
			t.Fatalf("frame %d: unexpected output shape", i)
		}
		prev = curr
	}
}

func TestSmoothHReturnsFreshCopyNotAlias(t *testing.T) {
	nx, ny := 64, 64
	base := textureFrame(nx, ny)
	color := colorFromGray(base)
	s := NewStabilizer(Config{Kind: transform.Translation, Sigma: 5})
	if _, err := s.ProcessFrame(base, base, color, nil); err != nil {
		t.Fatalf("ProcessFrame: %v", err)
	}

	a := s.SmoothH()
	b := s.SmoothH()
	a[0] = 12345
	if b[0] == 12345 {
		t.Errorf("SmoothH results alias each other")
	}
	if &s.hs[0] == &a[0] {
		t.Errorf("SmoothH aliases internal Hs storage")
	}
}

// TestImpulseSpikeCompensatesTowardSmoothedMean exercises a single-frame
// translation spike embedded in an otherwise-identity trajectory: the
// Gaussian window surrounding the spike is overwhelmingly made of
// neighbors whose position relative to the spike frame is the spike's
// inverse (every other frame is identity), so Hp should cancel most of
// it rather than let it pass through to the output.
func TestImpulseSpikeCompensatesTowardSmoothedMean(t *testing.T) {
	s := NewStabilizer(Config{Kind: transform.Translation, Sigma: 10})
	for i := 0; i < s.radius; i++ {
		stepRawMotion(s, transform.Identity(transform.Translation))
	}

	const sigmaSpatial = 1.0
	spike := transform.Params{10 * sigmaSpatial, 0}
	stepRawMotion(s, spike)

	if ratio := s.hp[0] / spike[0]; ratio < 0.8 {
		t.Errorf("Hp = %v for spike %v, want Hp[0]/spike[0] >= 0.8 (got %.3f)", s.hp, spike, ratio)
	}
}

// TestGaussianJitterReducesOutputRMSDisplacement drives the stabilizer
// with zero-mean Gaussian per-frame translation noise and checks that the
// apparent frame-to-frame displacement of the stabilized output — the
// transform mapping one warped frame's content onto the next, following
// the same hp_{i-1} -> h_i -> hp_i^-1 chain frameWarping applies
// independently per frame — has far lower RMS magnitude than the raw
// per-frame jitter itself.
func TestGaussianJitterReducesOutputRMSDisplacement(t *testing.T) {
	s := NewStabilizer(Config{Kind: transform.Translation, Sigma: 30})
	rng := rand.New(rand.NewSource(7))
	const sigmaMotion = 5.0

	const warmup = 120
	const measure = 120

	prevHp := s.hp.Clone()
	var rawSq, outSq float64
	var count int
	for i := 0; i < warmup+measure; i++ {
		h := transform.Params{rng.NormFloat64() * sigmaMotion, rng.NormFloat64() * sigmaMotion}
		stepRawMotion(s, h)
		hp := s.hp.Clone()

		if i >= warmup {
			out := transform.Compose(prevHp, transform.Compose(h, transform.Invert(hp, s.kind), s.kind), s.kind)
			rawSq += h[0]*h[0] + h[1]*h[1]
			outSq += out[0]*out[0] + out[1]*out[1]
			count++
		}
		prevHp = hp
	}

	rawRMS := math.Sqrt(rawSq / float64(count))
	outRMS := math.Sqrt(outSq / float64(count))
	if reduction := 1 - outRMS/rawRMS; reduction < 0.70 {
		t.Errorf("output RMS displacement reduction = %.1f%% (raw=%.3f out=%.3f), want >= 70%%", reduction*100, rawRMS, outRMS)
	}
}

func TestNewStabilizerDefaultsFillUnsetFields(t *testing.T) {
	s := NewStabilizer(Config{})
	if s.kind != transform.Homography {
		t.Errorf("default kind = %v, want Homography", s.kind)
	}
	if s.sigma <= 0 {
		t.Errorf("default sigma = %v, want > 0", s.sigma)
	}
	if s.cfg.Tol != estimator.DefaultConfig().Tol {
		t.Errorf("default estimator config not applied")
	}
}
