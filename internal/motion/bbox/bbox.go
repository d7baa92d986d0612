// Package bbox holds the bounding-box and trajectory types shared by
// the tracker, projector, and scoring stages.
package bbox

// Bbox is a tracked region in original video pixel space
// (post-projection, pre-preview-scaling). Coordinates are real-valued
// so interpolated frames can carry fractional positions; the tracker
// itself emits integer-valued boxes.
type Bbox struct {
	X float64
	Y float64
	W float64
	H float64
}

// Trajectory is the ordered sequence of bounding boxes produced by a
// tracking run, one entry per processed frame (including interpolated
// frames for skipped ones).
type Trajectory []Bbox

// Interpolate linearly fills n intermediate boxes between prev and
// next, matching the original's np.interp-based bbox smoothing for
// skipped frames: position i of n+1 steps from prev to next.
func Interpolate(prev, next Bbox, n int) []Bbox {
	if n <= 0 {
		return nil
	}
	out := make([]Bbox, n)
	steps := float64(n + 1)
	for i := 1; i <= n; i++ {
		t := float64(i) / steps
		out[i-1] = Bbox{
			X: lerp(prev.X, next.X, t),
			Y: lerp(prev.Y, next.Y, t),
			W: lerp(prev.W, next.W, t),
			H: lerp(prev.H, next.H, t),
		}
	}
	return out
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// AppendInterpolated appends skipFrames interpolated boxes between the
// last element of traj and next, then appends next itself. An empty
// trajectory gets only the real sample.
func AppendInterpolated(traj Trajectory, next Bbox, skipFrames int) Trajectory {
	if skipFrames > 0 && len(traj) > 0 {
		traj = append(traj, Interpolate(traj[len(traj)-1], next, skipFrames)...)
	}
	return append(traj, next)
}
