// Command vidstab stabilizes a video file frame by frame: it decodes with
// gocv, runs each frame through vidstab.Stabilizer, and writes the
// stabilized result plus (optionally) the recovered and smoothed
// transform trajectories, mirroring main.cpp's command-line driver.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gostab/vidstab"
	"github.com/gostab/vidstab/transform"
	"gocv.io/x/gocv"
	"gopkg.in/ini.v1"
)

// Defaults mirror main.cpp's PAR_DEFAULT_* constants.
const (
	defaultOutVideo  = "output_video.mp4"
	defaultTransform = transform.Similarity
	defaultSigmaT    = 30.0
	defaultOutTransf = "transform.mat"
)

type settings struct {
	kind           transform.Kind
	sigma          float64
	outVideo       string
	outTransform   string
	outSmoothTrans string
	verbose        bool
}

func defaultSettings() settings {
	return settings{
		kind:     defaultTransform,
		sigma:    defaultSigmaT,
		outVideo: defaultOutVideo,
	}
}

// loadINI overlays values found under the "vidstab" section of an INI file
// onto s, the way main.cpp's read_parameters seeds its defaults before
// argv overrides them. An empty path skips INI loading — flags alone are
// enough to run — but a given path that cannot be loaded is an error.
func loadINI(path string, s *settings) error {
	if path == "" {
		return nil
	}
	cfg, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("loading config %s: %w", path, err)
	}
	sec := cfg.Section("vidstab")
	if sec.HasKey("transform") {
		s.kind = transform.Kind(sec.Key("transform").MustInt(int(s.kind)))
	}
	if sec.HasKey("sigma_t") {
		s.sigma = sec.Key("sigma_t").MustFloat64(s.sigma)
	}
	if sec.HasKey("out_video") {
		s.outVideo = sec.Key("out_video").MustString(s.outVideo)
	}
	if sec.HasKey("out_transform") {
		s.outTransform = sec.Key("out_transform").MustString(s.outTransform)
	}
	if sec.HasKey("out_smooth_transform") {
		s.outSmoothTrans = sec.Key("out_smooth_transform").MustString(s.outSmoothTrans)
	}
	if sec.HasKey("verbose") {
		s.verbose = sec.Key("verbose").MustBool(s.verbose)
	}
	return nil
}

func main() {
	s := defaultSettings()

	configPath := flag.String("c", "", "optional INI config file (section [vidstab])")
	transformCode := flag.Int("t", int(s.kind), "transform family: 2=translation 3=euclidean 4=similarity 6=affinity 8=homography")
	sigmaT := flag.Float64("st", s.sigma, "Gaussian temporal smoothing sigma, in frames")
	outVideo := flag.String("o", s.outVideo, "output video path")
	outTransform := flag.String("w", "", "optional path to write raw per-frame transforms")
	outSmoothTransform := flag.String("f", "", "optional path to write smoothed per-frame transforms")
	verbose := flag.Bool("v", false, "log per-stage timing averages")
	flag.Parse()

	if err := loadINI(*configPath, &s); err != nil {
		log.Fatal(err)
	}
	// Flags override whatever the INI file (or the defaults) set, the
	// same precedence main.cpp's argv pass applies after seeding defaults.
	if isFlagSet("t") {
		s.kind = transform.Kind(*transformCode)
	}
	if isFlagSet("st") {
		s.sigma = *sigmaT
	}
	if isFlagSet("o") {
		s.outVideo = *outVideo
	}
	if *outTransform != "" {
		s.outTransform = *outTransform
	}
	if *outSmoothTransform != "" {
		s.outSmoothTrans = *outSmoothTransform
	}
	if *verbose {
		s.verbose = true
	}

	if !s.kind.Valid() {
		log.Fatalf("invalid transform family %d", s.kind)
	}

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] input_video\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), s); err != nil {
		log.Fatal(err)
	}
}

func isFlagSet(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func run(inputPath string, s settings) error {
	in := inputPath
	video, err := NewVideo(VideoOptions{InputPath: &in, OutputPath: s.outVideo})
	if err != nil {
		return err
	}
	defer video.Close()

	var rawOut, smoothOut *os.File
	if s.outTransform != "" {
		rawOut, err = os.Create(s.outTransform)
		if err != nil {
			return fmt.Errorf("creating %s: %w", s.outTransform, err)
		}
		defer rawOut.Close()
	}
	if s.outSmoothTrans != "" {
		smoothOut, err = os.Create(s.outSmoothTrans)
		if err != nil {
			return fmt.Errorf("creating %s: %w", s.outSmoothTrans, err)
		}
		defer smoothOut.Close()
	}

	stab := vidstab.NewStabilizer(vidstab.Config{Kind: s.kind, Sigma: s.sigma})

	var timer vidstab.Timer
	var runTimer *vidstab.RunTimer
	if s.verbose {
		runTimer = vidstab.NewRunTimer()
		timer = runTimer
	}

	var prevGray *vidstab.GrayFrame
	for mat := range video.Frames() {
		gray := matToGrayFrame(mat)
		color := matToColorFrame(mat)
		mat.Close()

		if prevGray == nil {
			prevGray = gray
			if err := video.Write(colorFrameToMat(color)); err != nil {
				return err
			}
			continue
		}

		stabilized, err := stab.ProcessFrame(prevGray, gray, color, timer)
		if err != nil {
			return fmt.Errorf("processing frame: %w", err)
		}

		if rawOut != nil {
			if err := transform.WriteParams(rawOut, stab.H()); err != nil {
				return err
			}
		}
		if smoothOut != nil {
			if err := transform.WriteParams(smoothOut, stab.SmoothH()); err != nil {
				return err
			}
		}

		out := colorFrameToMat(stabilized)
		if err := video.Write(out); err != nil {
			out.Close()
			return err
		}
		out.Close()

		prevGray = gray
	}

	if runTimer != nil {
		runTimer.PrintAverage()
	}
	return nil
}

// matToGrayFrame converts a BGR gocv.Mat to a single-channel GrayFrame
// using the same channel weighting as gocv.CvtColor's ColorBGRToGray.
func matToGrayFrame(m gocv.Mat) *vidstab.GrayFrame {
	nx, ny := m.Cols(), m.Rows()
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(m, &gray, gocv.ColorBGRToGray)

	data, _ := gray.DataPtrUint8()
	pix := make([]float32, nx*ny)
	for i, v := range data {
		pix[i] = float32(v)
	}
	return &vidstab.GrayFrame{Pix: pix, Width: nx, Height: ny}
}

// matToColorFrame converts a BGR gocv.Mat into an interleaved-float32
// ColorFrame, the layout imageops.WarpColorBicubic expects.
func matToColorFrame(m gocv.Mat) *vidstab.ColorFrame {
	nx, ny, nz := m.Cols(), m.Rows(), m.Channels()
	data, _ := m.DataPtrUint8()
	pix := make([]float32, nx*ny*nz)
	for i, v := range data {
		pix[i] = float32(v)
	}
	return &vidstab.ColorFrame{Pix: pix, Width: nx, Height: ny, Channels: nz}
}

// colorFrameToMat converts a stabilized ColorFrame back to an 8-bit BGR
// gocv.Mat ready for VideoWriter, clamping out-of-range bicubic overshoot.
func colorFrameToMat(f *vidstab.ColorFrame) gocv.Mat {
	data := make([]byte, len(f.Pix))
	for i, v := range f.Pix {
		switch {
		case v < 0:
			data[i] = 0
		case v > 255:
			data[i] = 255
		default:
			data[i] = byte(v)
		}
	}
	m, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, data)
	if err != nil {
		log.Fatalf("building output frame: %v", err)
	}
	return m
}
