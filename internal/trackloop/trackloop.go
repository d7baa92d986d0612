// Package trackloop drives the frame-by-frame tracking loop: feeding
// decoded frames to one or two feature trackers, interpolating
// positions across skipped frames, watching for an operator quit key,
// and truncating the trailing unreliable samples when the loop ends
// early. The loop processes the previous frame's result while the next
// frame's tracker computation runs; that overlap is what keeps the
// trackers saturated.
package trackloop

import (
	"context"
	"math"
	"time"

	"github.com/loopwave/motionscript/internal/media"
	"github.com/loopwave/motionscript/internal/motion/bbox"
	"github.com/loopwave/motionscript/internal/telemetry"
	"github.com/loopwave/motionscript/internal/timeutil"
)

// Status values returned by Run.
const (
	StatusEndOfVideo      = "End of video reached"
	StatusCorruptFrame    = "Reach a corrupt video frame"
	StatusStoppedAtAction = "Tracking stop at existing action point"
	StatusPrimaryLost     = "Tracker Primary Lost"
	StatusSecondaryLost   = "Tracker Secondary Lost"
	StatusStoppedByUser   = "Tracking stopped by user"
)

// Options configures a single run of the loop.
type Options struct {
	StartFrame     int
	EndFrame       int // -1 means run to EOF
	SkipFrames     int
	MaxPlaybackFPS float64
	// Clock abstracts the cadence-cap sleep and playback-FPS averaging
	// for testability. Defaults to timeutil.RealClock{} when nil.
	Clock timeutil.Clock
}

func (o Options) clock() timeutil.Clock {
	if o.Clock != nil {
		return o.Clock
	}
	return timeutil.RealClock{}
}

func (o Options) cycleTime() time.Duration {
	if o.MaxPlaybackFPS > float64(o.SkipFrames+1) {
		ms := (1000.0 / o.MaxPlaybackFPS) * float64(o.SkipFrames+1)
		return time.Duration(ms * float64(time.Millisecond))
	}
	return 0
}

// Result is the tracked trajectory pair and the reason the loop
// stopped. Secondary is nil when only one feature was tracked.
type Result struct {
	Status    string
	Primary   bbox.Trajectory
	Secondary bbox.Trajectory
}

// Run drives the loop to completion. seedPrimary/seedSecondary are the
// bounding boxes chosen before the first tracker update and become
// index 0 of the returned trajectories; pass a nil secondary tracker
// to track a single feature. frames must already be open and
// positioned to read the frame immediately following the seed frame.
func Run(ctx context.Context, frames media.FrameSource, primary, secondary media.FeatureTracker, ui media.UI, seedPrimary, seedSecondary bbox.Bbox, opts Options) Result {
	result := Result{Status: StatusEndOfVideo, Primary: bbox.Trajectory{seedPrimary}}
	if secondary != nil {
		result.Secondary = bbox.Trajectory{seedSecondary}
	}

	clock := opts.clock()
	cycleTime := opts.cycleTime()
	pendingPrimary, pendingSecondary := seedPrimary, seedSecondary
	var lastFrame *media.Frame
	var lastTimer time.Time
	var trackingFPS []float64
	frameNum := 1
	quit := false

	for frames.IsOpen() {
		select {
		case <-ctx.Done():
			result.Status = StatusStoppedByUser
			truncate(&result, quitTruncation(trackingFPS))
			return result
		default:
		}

		cycleStart := clock.Now()
		frame, err := frames.Read(ctx)
		frameNum++

		if frame == nil {
			if frames.IsOpen() {
				result.Status = StatusCorruptFrame
			} else {
				result.Status = StatusEndOfVideo
			}
			if err != nil {
				telemetry.Diagf("trackloop: frame read error: %v", err)
			}
			break
		}

		// NOTE: skip using != 1 so the first emitted gap matches every
		// later one, which the interpolation step requires.
		if opts.SkipFrames > 0 && frameNum%(opts.SkipFrames+1) != 1 {
			continue
		}

		if opts.EndFrame > 0 && frameNum+opts.StartFrame >= opts.EndFrame {
			result.Status = StatusStoppedAtAction
			break
		}

		primary.Update(frame)
		if secondary != nil {
			secondary.Update(frame)
		}
		telemetry.Tracef("trackloop: submitted frame %d", frameNum+opts.StartFrame)

		if lastFrame != nil {
			result.Primary = bbox.AppendInterpolated(result.Primary, pendingPrimary, opts.SkipFrames)
			if secondary != nil {
				result.Secondary = bbox.AppendInterpolated(result.Secondary, pendingSecondary, opts.SkipFrames)
			}

			now := clock.Now()
			if !lastTimer.IsZero() {
				if elapsed := now.Sub(lastTimer).Seconds(); elapsed > 0 {
					trackingFPS = append(trackingFPS, float64(opts.SkipFrames+1)/elapsed)
				}
			}
			lastTimer = now

			ui.Show("tracking", lastFrame)
			if ui.PollKey() == 'q' {
				// Latched once; the in-flight iteration still runs to
				// completion so the submitted frame's results are consumed.
				quit = true
			}
		}

		ok, box := primary.Result()
		if !ok {
			result.Status = StatusPrimaryLost
			truncate(&result, (opts.SkipFrames+1)*3)
			break
		}
		pendingPrimary = box

		if secondary != nil {
			ok, box := secondary.Result()
			if !ok {
				result.Status = StatusSecondaryLost
				truncate(&result, (opts.SkipFrames+1)*3)
				break
			}
			pendingSecondary = box
		}

		lastFrame = frame

		if quit {
			result.Status = StatusStoppedByUser
			truncate(&result, quitTruncation(trackingFPS))
			break
		}

		if cycleTime > 0 {
			if wait := cycleTime - clock.Since(cycleStart); wait > 0 {
				clock.Sleep(wait)
			}
		}
	}

	telemetry.Opsf("trackloop: %s", result.Status)
	return result
}

// quitTruncation is the tail length discarded after an operator quit:
// roughly three seconds of samples at the observed tracking rate.
func quitTruncation(trackingFPS []float64) int {
	return int(math.Round(averageFPS(trackingFPS)+1)) * 3
}

func averageFPS(samples []float64) float64 {
	if len(samples) == 0 {
		return 1
	}
	var sum float64
	for _, v := range samples {
		sum += v
	}
	return sum / float64(len(samples))
}

// truncate drops the trailing n samples from both trajectories, used
// to discard the unreliable tail a lost tracker or a late quit key
// leaves behind.
func truncate(result *Result, n int) {
	if n <= 0 {
		return
	}
	result.Primary = dropTail(result.Primary, n)
	if result.Secondary != nil {
		result.Secondary = dropTail(result.Secondary, n)
	}
}

func dropTail(traj bbox.Trajectory, n int) bbox.Trajectory {
	if len(traj) <= n {
		return nil
	}
	return traj[:len(traj)-n]
}
