package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"gocv.io/x/gocv"
	"golang.org/x/term"
)

// Video wraps gocv.VideoCapture/VideoWriter with progress tracking,
// adapted from the tracking driver's Video type down to a single input
// file (vidstab has no camera or MOT-sequence input modes).
type Video struct {
	inputPath string

	videoCapture *gocv.VideoCapture
	videoWriter  *gocv.VideoWriter

	fps        float64
	frameCount int

	outputPath string
	outputFps  float64

	label        string
	frameCounter int
	progressBar  *progressbar.ProgressBar
}

// VideoOptions configures Video creation.
type VideoOptions struct {
	InputPath  *string
	OutputPath string
	OutputFps  float64
	Label      string
}

// NewVideo opens the input file and prepares a lazily-initialized writer
// for the stabilized output.
func NewVideo(opts VideoOptions) (*Video, error) {
	if opts.InputPath == nil {
		return nil, fmt.Errorf("InputPath must be set")
	}

	path := *opts.InputPath
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	capture, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video file %s: %w", path, err)
	}

	v := &Video{
		inputPath:    path,
		videoCapture: capture,
		outputPath:   opts.OutputPath,
		outputFps:    opts.OutputFps,
		label:        opts.Label,
	}
	if v.outputPath == "" {
		v.outputPath = "output_video.mp4"
	}

	v.fps = capture.Get(gocv.VideoCaptureFPS)
	v.frameCount = int(capture.Get(gocv.VideoCaptureFrameCount))
	if v.outputFps == 0 {
		v.outputFps = v.fps
	}

	return v, nil
}

// Frames returns a channel yielding decoded frames; the channel closes
// when the input is exhausted and releases the capture handle.
func (v *Video) Frames() <-chan gocv.Mat {
	frames := make(chan gocv.Mat)

	go func() {
		defer close(frames)
		defer v.videoCapture.Close()

		v.frameCounter = 0
		v.setupProgressBar()

		for {
			frame := gocv.NewMat()
			if ok := v.videoCapture.Read(&frame); !ok || frame.Empty() {
				frame.Close()
				break
			}
			v.frameCounter++
			if v.progressBar != nil {
				v.progressBar.Add(1)
			}
			frames <- frame
		}
	}()

	return frames
}

// Write appends frame to the output video, lazily creating the writer on
// the first call (it needs the frame's dimensions).
func (v *Video) Write(frame gocv.Mat) error {
	if v.videoWriter == nil {
		codec := v.codecFourcc()
		writer, err := gocv.VideoWriterFile(v.outputPath, codec, v.outputFps, frame.Cols(), frame.Rows(), true)
		if err != nil {
			return fmt.Errorf("failed to create video writer: %w", err)
		}
		v.videoWriter = writer
	}
	if err := v.videoWriter.Write(frame); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

func (v *Video) codecFourcc() string {
	switch strings.ToLower(filepath.Ext(v.outputPath)) {
	case ".avi":
		return "MJPG"
	default:
		return "mp4v"
	}
}

func (v *Video) setupProgressBar() {
	description := v.progressDescription()
	v.progressBar = progressbar.NewOptions(v.frameCount,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("fps"),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (v *Video) progressDescription() string {
	desc := filepath.Base(v.inputPath)
	if v.label != "" {
		desc = fmt.Sprintf("%s - %s", desc, v.label)
	}

	termCols, _ := getTerminalSize(80, 24)
	maxLen := termCols - 25
	if len(desc) > maxLen && maxLen > 10 {
		start := desc[:maxLen/2-2]
		end := desc[len(desc)-(maxLen/2-3):]
		desc = start + " ... " + end
	}
	return desc
}

// Close releases the output writer, if one was created.
func (v *Video) Close() error {
	if v.videoWriter != nil {
		v.videoWriter.Close()
	}
	return nil
}

// getTerminalSize returns the terminal column/line count, falling back to
// the given defaults when none of stdin/stdout/stderr is a terminal.
func getTerminalSize(defaultCols, defaultLines int) (cols, lines int) {
	for _, fd := range []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd()} {
		if w, h, err := term.GetSize(int(fd)); err == nil {
			return w, h
		}
	}
	return defaultCols, defaultLines
}
