// Package media defines the narrow external-collaborator interfaces the
// motion pipeline depends on: decoded video frames, a single-object
// tracker, a spherical/flat projector, and an operator-facing UI. The
// pipeline and tracking loop depend only on these interfaces; concrete
// implementations live in the sibling packages (ffmpegsrc, ncctrack,
// projector, consoleui).
package media

import (
	"context"
	"fmt"

	"github.com/loopwave/motionscript/internal/motion/bbox"
)

// Frame is a single decoded video frame in original pixel space.
// Pix holds tightly packed RGBA bytes, Stride bytes per row.
type Frame struct {
	Width  int
	Height int
	Stride int
	Pix    []byte
}

// VideoInfo describes the static properties of a source video needed
// to drive the tracking loop and convert frame numbers to timestamps.
type VideoInfo struct {
	FPS    float64
	Length int
	Width  int
	Height int
}

// ProjectionConfig describes the region and shape a Projector renders
// into. Width or Height may be -1, meaning "preserve aspect ratio from
// the other dimension" (resolved by the Projector).
type ProjectionConfig struct {
	Width  int
	Height int

	// Phi is the vertical tilt (degrees) used by VR equirectangular
	// remapping; ignored by flat projections.
	Phi int
}

// FrameSource streams decoded frames from a video, starting at the
// configured start frame and applying the configured projection to
// each frame before it is returned.
type FrameSource interface {
	// Read returns the next decoded frame, or (nil, nil) at EOF.
	Read(ctx context.Context) (*Frame, error)
	// IsOpen reports whether the underlying stream is still alive;
	// false after a clean EOF or an explicit Stop.
	IsOpen() bool
	// Stop releases the underlying decoder process/handles. Safe to
	// call more than once.
	Stop() error
}

// FrameGetter grabs a single decoded frame by absolute index without
// opening a long-lived streaming session — used for the first-frame
// ROI prompt and the calibration argmin/argmax frames.
type FrameGetter interface {
	GetFrame(path string, index int) (*Frame, error)
	GetVideoInfo(path string) (VideoInfo, error)
}

// FeatureTracker tracks a single seeded bounding box across
// subsequently submitted frames. Update enqueues a frame for
// processing; Result blocks for the corresponding output. Frames must
// not be reordered: the i-th call to Result corresponds to the i-th
// call to Update.
type FeatureTracker interface {
	Update(frame *Frame)
	Result() (ok bool, box bbox.Bbox)
}

// Projector renders a (possibly spherical) source frame into a flat
// working frame, and interactively resolves a VR tilt configuration.
type Projector interface {
	Project(frame *Frame, cfg ProjectionConfig) (*Frame, error)
	ConfigureVR(ctx context.Context, frame *Frame, cfg ProjectionConfig, ui UI) (ProjectionConfig, error)
}

// UI is the operator-facing surface: region-of-interest selection,
// preview display, the min/max calibration picker, and raw key
// polling for the tracking loop's quit key and the projector's w/s/q
// tilt picker.
type UI interface {
	SelectROI(ctx context.Context, frame *Frame, label string) (bbox.Bbox, error)
	Show(window string, frame *Frame)
	MinMaxSelector(ctx context.Context, imgMin, imgMax *Frame, info, titleMin, titleMax string, lo, hi int) (min, max int, err error)
	// PollKey returns the next pressed key without blocking, or 0 if
	// none is pending.
	PollKey() rune
}

// FrameToTimestamp renders frame n at the given fps as "HH:MM:SS.mmm".
func FrameToTimestamp(n int, fps float64) string {
	if fps <= 0 {
		fps = 1
	}
	totalMs := int64(float64(n) / fps * 1000)
	ms := totalMs % 1000
	totalSec := totalMs / 1000
	s := totalSec % 60
	m := (totalSec / 60) % 60
	h := totalSec / 3600
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// FrameToMs converts a frame number to milliseconds at the given fps.
func FrameToMs(n int, fps float64) int64 {
	if fps <= 0 {
		fps = 1
	}
	return int64(float64(n) / fps * 1000)
}
