/*
Package vidstab provides online video stabilization: per-frame motion
estimation, temporal trajectory smoothing, and compensating frame warps,
suitable for stabilizing a video stream one frame at a time without
buffering the whole clip.

# Basic usage

	s := vidstab.NewStabilizer(vidstab.Config{
		Kind:  transform.Homography,
		Sigma: 20,
	})

	var prev *vidstab.GrayFrame
	for frame := range videoFrames {
		gray := toGrayFrame(frame)
		color := toColorFrame(frame)

		if prev != nil {
			stabilized, err := s.ProcessFrame(prev, gray, color, nil)
			if err != nil {
				log.Printf("stabilize: %v", err)
			} else {
				writeFrame(stabilized)
			}
		}
		prev = gray
	}

# Pipeline

Each ProcessFrame call runs three stages, grounded on estadeo.cpp's
process_frame:

 1. Motion estimation (internal/estimator): a pyramidal inverse-compositional
    Lucas-Kanade solve recovers the transform between the previous and
    current grayscale frame.
 2. Trajectory smoothing (Stabilizer.motionSmoothing): the raw per-frame
    transforms are accumulated into a trajectory and smoothed with a
    Gaussian kernel over a sliding window of past and (already-estimated)
    future frames, held in a circular buffer sized to the window.
 3. Frame warping (internal/imageops): the inverse of the smoothed
    trajectory is applied to the current color frame via bicubic
    interpolation.

# Transform families

transform.Kind selects how much of the camera motion is modeled:
Translation, Euclidean, Similarity, Affinity, or Homography — see the
transform package.
*/
package vidstab
