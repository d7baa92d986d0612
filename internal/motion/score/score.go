// Package score reduces two synchronized bounding-box trajectories to
// the scalar x/y motion signal the decimation stage consumes.
package score

import (
	"context"

	"github.com/loopwave/motionscript/internal/media"
	"github.com/loopwave/motionscript/internal/motion/bbox"
	"github.com/loopwave/motionscript/internal/motion/signal"
	"github.com/loopwave/motionscript/internal/telemetry"
)

// Score is the scalar x/y motion signal derived from a tracked
// trajectory, one sample per tracked frame, scaled into [0, 100].
type Score struct {
	X []float64
	Y []float64
}

// Calculate reduces primary (required) and secondary (optional,
// length-matched or empty) trajectories to a Score. When secondary is
// present, each sample is primary-minus-secondary; otherwise each
// sample is the primary trajectory's maximum over all samples minus its
// current value, so a lone tracked feature still yields a meaningful
// signal. Both axes are always rescaled into [0, 100].
func Calculate(primary, secondary bbox.Trajectory) Score {
	var rawX, rawY []float64

	if len(secondary) == len(primary) && len(secondary) > 0 {
		rawX = make([]float64, len(primary))
		rawY = make([]float64, len(primary))
		for i := range primary {
			rawX[i] = primary[i].X - secondary[i].X
			rawY[i] = primary[i].Y - secondary[i].Y
		}
	} else {
		maxX, maxY := maxOf(primary)
		rawX = make([]float64, len(primary))
		rawY = make([]float64, len(primary))
		for i, b := range primary {
			rawX[i] = maxX - b.X
			rawY[i] = maxY - b.Y
		}
	}

	return Score{
		X: signal.Scale(rawX, 0, 100),
		Y: signal.Scale(rawY, 0, 100),
	}
}

func maxOf(traj bbox.Trajectory) (maxX, maxY float64) {
	for i, b := range traj {
		if i == 0 || b.X > maxX {
			maxX = b.X
		}
		if i == 0 || b.Y > maxY {
			maxY = b.Y
		}
	}
	return maxX, maxY
}

// Calibrate asks the operator (via ui) to pick the real-world low and
// high positions using the frames at the score's global argmin and
// argmax, then rescales that axis into the operator's chosen range.
// It returns a new Score; the caller decides which axis to keep.
//
// If either calibration frame cannot be decoded, or the selector
// returns an error, the rescale defaults to (0, 99) with an operator
// warning instead of failing the whole run over a single bad seek. An
// inverted pick (low above high) is swapped.
func Calibrate(ctx context.Context, s Score, direction string, startFrame int, videoPath string, frames media.FrameGetter, ui media.UI) Score {
	axis := s.Y
	if direction == "x" {
		axis = s.X
	}
	if len(axis) < 2 {
		return s
	}

	minIdx, maxIdx := argMinMax(axis)
	lo, hi := 0, 99

	imgMin, errMin := frames.GetFrame(videoPath, startFrame+minIdx)
	imgMax, errMax := frames.GetFrame(videoPath, startFrame+maxIdx)
	if errMin != nil || errMax != nil {
		telemetry.Opsf("calibration frame unavailable, defaulting to (0, 99): min=%v max=%v", errMin, errMax)
	} else {
		titleMin, titleMax := "Bottom", "Top"
		if direction == "x" {
			titleMin, titleMax = "Left", "Right"
		}

		var err error
		lo, hi, err = ui.MinMaxSelector(ctx, imgMin, imgMax, "", titleMin, titleMax, 0, 99)
		if err != nil {
			telemetry.Opsf("calibration selector failed, defaulting to (0, 99): %v", err)
			lo, hi = 0, 99
		} else if lo > hi {
			lo, hi = hi, lo
		}
	}

	rescaled := signal.Scale(axis, float64(lo), float64(hi))
	out := s
	if direction == "x" {
		out.X = rescaled
	} else {
		out.Y = rescaled
	}
	return out
}

func argMinMax(x []float64) (minIdx, maxIdx int) {
	for i, v := range x {
		if i == 0 || v < x[minIdx] {
			minIdx = i
		}
		if i == 0 || v > x[maxIdx] {
			maxIdx = i
		}
	}
	return minIdx, maxIdx
}
