package vidstab

import (
	"math"

	"github.com/gostab/vidstab/internal/estimator"
	"github.com/gostab/vidstab/internal/imageops"
	"github.com/gostab/vidstab/transform"
)

// Config holds the tunables of a Stabilizer.
type Config struct {
	// Kind selects the transform family motion is estimated and smoothed
	// in (Translation through Homography).
	Kind transform.Kind
	// Sigma is the Gaussian standard deviation (in frames) of the
	// temporal trajectory smoothing window.
	Sigma float64
	// Estimator overrides the per-frame motion-estimation settings; the
	// zero value selects estimator.DefaultConfig().
	Estimator estimator.Config
}

// Stabilizer holds the online state needed to smooth a video's camera
// trajectory one frame at a time: a circular buffer of per-frame motion
// transforms plus the running Gaussian-smoothed trajectory, grounded on
// estadeo.cpp's estadeo class. It is not safe for concurrent use — frames
// must be processed strictly in order, one ProcessFrame call at a time.
type Stabilizer struct {
	kind  transform.Kind
	sigma float64
	cfg   estimator.Config

	radius int // half-width (in frames) of the smoothing window
	n      int // circular buffer size, 2*radius+1
	nf     int // total frames processed so far
	fc     int // current frame's slot in the circular buffers

	h  []transform.Params // per-frame motion transform (prev -> current)
	hc []transform.Params // scratch composition buffer reused by motionSmoothing
	h1 []transform.Params // per-frame inverse of h, persisted across calls

	hs transform.Params // last smoothed trajectory transform
	hp transform.Params // last stabilizing transform (hs^-1)
}

// NewStabilizer creates a Stabilizer for the given transform family and
// smoothing strength. ObtainRadius (3*sigma) sets the circular buffer size
// the same way estadeo::obtain_radius does.
func NewStabilizer(cfg Config) *Stabilizer {
	k := cfg.Kind
	if !k.Valid() {
		k = transform.Homography
	}
	sigma := cfg.Sigma
	if sigma <= 0 {
		sigma = 10
	}
	est := cfg.Estimator
	if est.Tol == 0 {
		est = estimator.DefaultConfig()
	}

	radius := int(3 * sigma)
	n := 2*radius + 1

	s := &Stabilizer{
		kind:   k,
		sigma:  sigma,
		cfg:    est,
		radius: radius,
		n:      n,
		nf:     1,
		fc:     0,
		h:      make([]transform.Params, n),
		hc:     make([]transform.Params, n),
		h1:     make([]transform.Params, n),
		hs:     transform.Identity(k),
		hp:     transform.Identity(k),
	}
	for i := 0; i < n; i++ {
		s.h[i] = transform.Identity(k)
		s.hc[i] = transform.Identity(k)
		s.h1[i] = transform.Identity(k)
	}
	return s
}

// ObtainRadius returns the smoothing window's half-width in frames.
func (s *Stabilizer) ObtainRadius() int {
	return s.radius
}

// ProcessFrame runs the three-stage online pipeline for one new frame:
// estimate motion between prev and curr (grayscale), smooth the trajectory
// up to the current frame, and return a stabilized copy of color (the
// frame matching curr). prev and curr must have matching dimensions; color
// must share curr's width and height. ProcessFrame never mutates color —
// it returns a new ColorFrame — unlike the source's frame_warping, which
// overwrites its input in place.
func (s *Stabilizer) ProcessFrame(prev, curr *GrayFrame, color *ColorFrame, timer Timer) (*ColorFrame, error) {
	s.nf++
	s.fc++
	if s.fc >= s.n {
		s.fc = 0
	}

	if timer != nil {
		timer.MarkEstimateStart()
	}
	s.computeMotion(prev, curr)

	if timer != nil {
		timer.MarkSmoothStart()
	}
	s.motionSmoothing()

	if timer != nil {
		timer.MarkWarpStart()
	}
	out := s.frameWarping(color)

	if timer != nil {
		timer.MarkDone()
	}
	return out, nil
}

// computeMotion estimates the transform between prev and curr and stores
// it at the current circular-buffer slot, grounded on
// estadeo::compute_motion.
func (s *Stabilizer) computeMotion(prev, curr *GrayFrame) {
	s.h[s.fc] = estimator.EstimateMotion(prev.Pix, curr.Pix, prev.Width, prev.Height, s.kind, s.cfg)
}

// H returns a copy of the raw (unsmoothed) transform estimated for the
// most recently processed frame.
func (s *Stabilizer) H() transform.Params {
	return s.h[s.fc].Clone()
}

// SmoothH returns the raw motion of the most recent frame conjugated by
// the last stabilizing transform, hp^-1 o H o hp, as a new Params value.
// Unlike estadeo::get_smooth_H, which overwrites and returns
// its internal Hs buffer (so a second call before the next ProcessFrame
// silently corrupts the trajectory state), this always computes a fresh
// value and never touches internal state.
func (s *Stabilizer) SmoothH() transform.Params {
	hInv := transform.Invert(s.hp, s.kind)
	htmp := transform.Compose(s.H(), s.hp, s.kind)
	return transform.Compose(hInv, htmp, s.kind)
}

// motionSmoothing recomputes the stabilizing transform for every frame
// within the smoothing radius of the current frame, using the circular
// buffer of past motion transforms. Grounded line-for-line on
// estadeo::motion_smoothing.
func (s *Stabilizer) motionSmoothing() {
	rad := s.radius
	if rad >= s.nf {
		rad = s.nf - 1
	}
	n := s.n
	if n > s.nf {
		n = s.nf
	}

	s.h1[s.fc] = transform.Invert(s.h[s.fc], s.kind)

	for i := s.nf - rad; i < s.nf; i++ {
		f := i % n
		l := (i - 1) % n

		s.hc[l] = s.h1[f].Clone()

		for j := i - 2; j >= max(i-rad, 0); j-- {
			l1 := (j + 1) % n
			l2 := j % n
			s.hc[l2] = transform.Compose(s.h1[l1], s.hc[l1], s.kind)
		}

		s.hc[f] = transform.Identity(s.kind)

		if i < s.nf-1 {
			r := (i + 1) % n
			s.hc[r] = s.h[r].Clone()

			for j := i + 2; j < s.nf; j++ {
				r1 := j % n
				r2 := (j - 1) % n
				s.hc[r1] = transform.Compose(s.h[r1], s.hc[r2], s.kind)
			}
		}

		s.gaussianConvolve(i, s.radius, n)
		s.hp = transform.Invert(s.hs, s.kind)
	}
}

// gaussianConvolve fills hs with the Gaussian-weighted average (over the
// 2*rad+1-wide window centred on frame i) of the per-frame transforms
// currently staged in hc, handling the two ends of the video with Neumann
// (reflective) boundary conditions. Grounded on estadeo::gaussian; each
// parameter is smoothed independently; note that — unlike the trajectory
// chaining above — this is a plain weighted average of parameter vectors,
// not a transform composition.
func (s *Stabilizer) gaussianConvolve(i, rad, n int) {
	np := s.kind.NumParams()
	out := make(transform.Params, np)

	for p := 0; p < np; p++ {
		var average, sum float64
		j := i - rad

		// Left Neumann boundary: before the video starts, frame indices
		// mirror around 0 and are reduced modulo the n filled slots, so
		// a mirrored index past the last available frame still reads a
		// slot that holds a frame.
		for ; j <= 0; j++ {
			v := s.hc[(-j)%n][p]
			average, sum = accumulate(average, sum, v, j, i, s.sigma)
		}

		t := i + rad
		if i+rad >= s.nf {
			t = s.nf - 1
		}
		for ; j <= t; j++ {
			v := s.hc[wrap(j, n)][p]
			average, sum = accumulate(average, sum, v, j, i, s.sigma)
		}

		// Right Neumann boundary: mirror the trailing frame indices
		// around the last available frame (Nf-1).
		for ; j <= i+rad; j++ {
			l := wrap(2*s.nf-1-j, n)
			v := s.hc[l][p]
			average, sum = accumulate(average, sum, v, j, i, s.sigma)
		}

		out[p] = average / sum
	}
	s.hs = out
}

func accumulate(average, sum, v float64, j, i int, sigma float64) (float64, float64) {
	norm := 0.5 * float64((j-i)*(j-i)) / (sigma * sigma)
	g := math.Exp(-norm)
	return average + g*v, sum + g
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// frameWarping warps color by the current stabilizing transform hp,
// returning a new ColorFrame the same size as color. Grounded on
// estadeo::frame_warping.
func (s *Stabilizer) frameWarping(color *ColorFrame) *ColorFrame {
	out := make([]float32, len(color.Pix))
	imageops.WarpColorBicubic(color.Pix, color.Width, color.Height, color.Channels, s.hp, s.kind, out)
	return &ColorFrame{Pix: out, Width: color.Width, Height: color.Height, Channels: color.Channels}
}
