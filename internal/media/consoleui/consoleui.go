// Package consoleui implements media.UI against a plain terminal: ROI
// and calibration prompts read from stdin, preview frames are
// described on stdout instead of rendered, a flag-parsed,
// log-reported CLI idiom rather than a GUI toolkit.
package consoleui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/loopwave/motionscript/internal/media"
	"github.com/loopwave/motionscript/internal/motion/bbox"
	"github.com/loopwave/motionscript/internal/telemetry"
)

// ConsoleUI is a blocking stdin/stdout implementation of media.UI.
type ConsoleUI struct {
	in   *bufio.Reader
	out  io.Writer
	keys *media.KeyQueue
}

// New builds a ConsoleUI reading prompts from in and writing status to
// out. Pass os.Stdin/os.Stdout for an interactive session.
func New(in io.Reader, out io.Writer) *ConsoleUI {
	return &ConsoleUI{in: bufio.NewReader(in), out: out, keys: media.NewKeyQueue()}
}

// NewStdio is a convenience constructor wired to the process's own
// stdin/stdout.
func NewStdio() *ConsoleUI {
	return New(os.Stdin, os.Stdout)
}

// SelectROI implements media.UI: prompts the operator for "x y w h".
func (c *ConsoleUI) SelectROI(ctx context.Context, frame *media.Frame, label string) (bbox.Bbox, error) {
	fmt.Fprintf(c.out, "%s (frame %dx%d): enter ROI as \"x y w h\": ", label, frame.Width, frame.Height)

	select {
	case <-ctx.Done():
		return bbox.Bbox{}, ctx.Err()
	default:
	}

	var x, y, w, h float64
	if _, err := fmt.Fscan(c.in, &x, &y, &w, &h); err != nil {
		return bbox.Bbox{}, fmt.Errorf("consoleui: read ROI: %w", err)
	}
	return bbox.Bbox{X: x, Y: y, W: w, H: h}, nil
}

// Show implements media.UI by logging a one-line frame summary
// instead of rendering pixels.
func (c *ConsoleUI) Show(window string, frame *media.Frame) {
	telemetry.Tracef("consoleui: %s: frame %dx%d", window, frame.Width, frame.Height)
}

// MinMaxSelector implements media.UI: shows lo/hi as the current values
// and reads two whitespace-separated integers, returned as entered (no
// clamping to [lo, hi]). If the read fails, lo and hi are returned
// together with the error.
func (c *ConsoleUI) MinMaxSelector(ctx context.Context, imgMin, imgMax *media.Frame, info, titleMin, titleMax string, lo, hi int) (int, int, error) {
	fmt.Fprintf(c.out, "%s: %s (current %d), %s (current %d): enter \"min max\": ", info, titleMin, lo, titleMax, hi)

	select {
	case <-ctx.Done():
		return lo, hi, ctx.Err()
	default:
	}

	var min, max int
	if _, err := fmt.Fscan(c.in, &min, &max); err != nil {
		return lo, hi, fmt.Errorf("consoleui: read min/max: %w", err)
	}
	return min, max, nil
}

// PollKey implements media.UI. Bytes already buffered on stdin are
// moved into the bounded key queue first (overflow drops the newest),
// then the oldest pending key is returned; it never waits for input
// that hasn't arrived.
func (c *ConsoleUI) PollKey() rune {
	for c.in.Buffered() > 0 {
		b, err := c.in.ReadByte()
		if err != nil {
			break
		}
		c.keys.Push(rune(b))
	}
	return c.keys.Poll()
}

// Headless is a no-op media.UI for batch runs and tests with no
// operator present: the ROI prompt returns the preconfigured ROI, the
// calibration prompt returns Min/Max (or (0, 99) when both are zero),
// and keys always read as 'q' so any interactive picker confirms
// immediately.
type Headless struct {
	ROI      bbox.Bbox
	Min, Max int
}

// SelectROI returns the preconfigured ROI without blocking.
func (h *Headless) SelectROI(context.Context, *media.Frame, string) (bbox.Bbox, error) {
	return h.ROI, nil
}

// Show is a no-op.
func (h *Headless) Show(string, *media.Frame) {}

// MinMaxSelector returns the preconfigured min/max without blocking.
func (h *Headless) MinMaxSelector(_ context.Context, _, _ *media.Frame, _, _, _ string, _, _ int) (int, int, error) {
	if h.Min == 0 && h.Max == 0 {
		return 0, 99, nil
	}
	return h.Min, h.Max, nil
}

// PollKey always reports 'q', so any loop waiting for a confirm or
// quit key proceeds on its first poll.
func (h *Headless) PollKey() rune {
	return 'q'
}
