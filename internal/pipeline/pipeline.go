// Package pipeline sequences tracking, scoring, calibration, and
// decimation into the emitted motion script: track the requested
// features, reduce their trajectories to a scalar score, let the
// operator calibrate its range, find its extrema, and emit one
// position/timestamp action per extremum.
package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/loopwave/motionscript/internal/config"
	"github.com/loopwave/motionscript/internal/media"
	"github.com/loopwave/motionscript/internal/motion/bbox"
	"github.com/loopwave/motionscript/internal/motion/merge"
	"github.com/loopwave/motionscript/internal/motion/points"
	"github.com/loopwave/motionscript/internal/motion/score"
	"github.com/loopwave/motionscript/internal/telemetry"
	"github.com/loopwave/motionscript/internal/trackloop"
)

// ActionSink receives one emitted action per extremum: a [0, 99]
// position and its timestamp in milliseconds from the start of the
// video.
type ActionSink interface {
	AddAction(position int, timestampMs int64) error
}

// Params configures one pipeline run.
type Params struct {
	VideoPath      string
	StartFrame     int
	EndFrame       int // -1 for EOF
	TrackSecondary bool
	// RunID identifies this run to the ActionSink. A fresh UUID is
	// generated when left blank.
	RunID string
}

// Result summarizes a completed run.
type Result struct {
	RunID       string
	Status      string
	Success     bool
	ActionCount int
}

// Run executes the full pipeline: tracking loop, score calculation,
// operator calibration, extrema decimation, and action emission.
// primaryTracker/secondaryTracker must already be seeded with the
// first frame and seedPrimary/seedSecondary; secondaryTracker is nil
// when Params.TrackSecondary is false.
func Run(
	ctx context.Context,
	cfg *config.TuningConfig,
	params Params,
	frames media.FrameSource,
	frameGetter media.FrameGetter,
	primaryTracker, secondaryTracker media.FeatureTracker,
	ui media.UI,
	sink ActionSink,
	seedPrimary, seedSecondary bbox.Bbox,
	fps float64,
) (Result, error) {
	runID := params.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	result := Result{RunID: runID}

	loopResult := trackloop.Run(ctx, frames, primaryTracker, secondaryTracker, ui, seedPrimary, seedSecondary,
		trackloop.Options{
			StartFrame:     params.StartFrame,
			EndFrame:       params.EndFrame,
			SkipFrames:     cfg.GetSkipFrames(),
			MaxPlaybackFPS: cfg.GetMaxPlaybackFPS(),
		})

	if len(loopResult.Primary) < cfg.GetMinFrames() {
		result.Status = loopResult.Status + " -> Tracking time insufficient"
		telemetry.Opsf("pipeline %s: %s", runID, result.Status)
		return result, nil
	}

	direction := cfg.GetTrackingDirection()

	var secondaryTraj bbox.Trajectory
	if params.TrackSecondary {
		secondaryTraj = loopResult.Secondary
	}
	s := score.Calculate(loopResult.Primary, secondaryTraj)
	s = score.Calibrate(ctx, s, direction, params.StartFrame, params.VideoPath, frameGetter, ui)

	axis := s.Y
	if direction == "x" {
		axis = s.X
	}

	finder := points.Finder{
		FPS:                            fps,
		AvgSecForLocalMinMaxExtraction: cfg.GetAvgSecForLocalMinMaxExtraction(),
		DirectionChangeFilterLen:       cfg.GetDirectionChangeFilterLen(),
		HighSecondDerivativeThreshold:  cfg.GetHighSecondDerivativePointsThreshold(),
		DistanceMinimizationThreshold:  cfg.GetDistanceMinimizationThreshold(),
	}
	merger := merge.Merger{
		FPS:                            fps,
		MergeTimeThresholdMs:           cfg.GetAdditionalPointsMergeTimeThresholdMs(),
		MergeDistanceThreshold:         cfg.GetAdditionalPointsMergeDistanceThreshold(),
		AvgSecForLocalMinMaxExtraction: cfg.GetAvgSecForLocalMinMaxExtraction(),
	}

	baseIdx, err := merge.Decimate(axis, finder, points.LocalMinMax, nil, merger)
	if err != nil {
		return result, fmt.Errorf("pipeline: decimate score: %w", err)
	}
	extrema := merger.Categorize(axis, baseIdx)

	emitted := applyOffsets(axis, extrema, cfg.GetBottomPointsOffset(), cfg.GetTopPointsOffset())

	actionCount := 0
	// Snap thresholds compare against the emitted score's own range, not
	// the raw axis: the offsets applied above can lift the global minimum
	// (or lower the maximum), and the snap target moves with it.
	scoreMin, scoreMax := minMax(emitted)

	for _, idx := range extrema.Min {
		position := int(math.Round(emitted[idx]))
		if emitted[idx] < scoreMin+cfg.GetBottomThreshold() {
			position = int(math.Round(scoreMin))
		}
		frame := applyShift(idx, direction, cfg.GetShiftBottomPoints(), len(axis), params.StartFrame)
		if err := sink.AddAction(position, media.FrameToMs(frame, fps)); err != nil {
			return result, fmt.Errorf("pipeline: emit min action: %w", err)
		}
		actionCount++
	}

	for _, idx := range extrema.Max {
		position := int(math.Round(emitted[idx]))
		if emitted[idx] > scoreMax-cfg.GetTopThreshold() {
			position = int(math.Round(scoreMax))
		}
		frame := applyShift(idx, direction, cfg.GetShiftTopPoints(), len(axis), params.StartFrame)
		if err := sink.AddAction(position, media.FrameToMs(frame, fps)); err != nil {
			return result, fmt.Errorf("pipeline: emit max action: %w", err)
		}
		actionCount++
	}

	result.Status = loopResult.Status
	result.Success = true
	result.ActionCount = actionCount
	telemetry.Opsf("pipeline %s: %s, %d actions emitted", runID, result.Status, actionCount)
	return result, nil
}

// applyOffsets clones axis and nudges every extremum index toward its
// category's configured offset, clamped back into axis's own range.
func applyOffsets(axis []float64, extrema merge.Extrema, bottomOffset, topOffset float64) []float64 {
	out := append([]float64(nil), axis...)
	scoreMin, scoreMax := minMax(axis)
	for _, idx := range extrema.Min {
		out[idx] = clamp(out[idx]+bottomOffset, scoreMin, scoreMax)
	}
	for _, idx := range extrema.Max {
		out[idx] = clamp(out[idx]+topOffset, scoreMin, scoreMax)
	}
	return out
}

// applyShift returns the absolute frame number for extremum index idx,
// nudged by shift frames when direction is "y" and the shift keeps idx
// inside the signal's range.
func applyShift(idx int, direction string, shift, length, startFrame int) int {
	if direction != "x" && idx+shift >= 0 && idx+shift < length {
		return startFrame + idx + shift
	}
	return startFrame + idx
}

func minMax(x []float64) (min, max float64) {
	if len(x) == 0 {
		return 0, 0
	}
	min, max = x[0], x[0]
	for _, v := range x[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
