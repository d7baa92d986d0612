// Package projector renders a region of interest out of a source
// frame: a flat crop/resize for ordinary video, or an equirectangular
// remap for 360/VR sources where an operator-tuned vertical tilt picks
// which band of the sphere becomes the flat working frame.
package projector

import (
	"context"
	"fmt"
	"math"

	"github.com/loopwave/motionscript/internal/media"
)

// Kind selects which transform Project applies.
type Kind int

const (
	// Flat crops/resizes the frame as-is.
	Flat Kind = iota
	// Equirectangular remaps a spherical source around a phi tilt.
	Equirectangular
)

// Projector implements media.Projector for a fixed Kind.
type Projector struct {
	Kind Kind
}

// New builds a Projector for the named projection key, mirroring the
// small lookup table an operator's config selects from.
func New(name string) (*Projector, error) {
	switch name {
	case "", "flat":
		return &Projector{Kind: Flat}, nil
	case "vr", "equirectangular":
		return &Projector{Kind: Equirectangular}, nil
	default:
		return nil, fmt.Errorf("projector: unknown projection %q", name)
	}
}

// Project implements media.Projector.
func (p *Projector) Project(frame *media.Frame, cfg media.ProjectionConfig) (*media.Frame, error) {
	if frame == nil {
		return nil, fmt.Errorf("projector: nil frame")
	}
	width, height := resolveDims(frame, cfg)

	switch p.Kind {
	case Equirectangular:
		return equirectRemap(frame, cfg.Phi, width, height), nil
	default:
		return resize(frame, width, height), nil
	}
}

// ConfigureVR implements media.Projector: it presents an interactive
// phi-tilt picker and returns a config carrying the operator's chosen
// tilt. The config passed in is never mutated; a copy is returned.
func (p *Projector) ConfigureVR(ctx context.Context, frame *media.Frame, cfg media.ProjectionConfig, ui media.UI) (media.ProjectionConfig, error) {
	working := cfg
	if p.Kind != Equirectangular {
		return working, nil
	}

	for {
		select {
		case <-ctx.Done():
			return working, ctx.Err()
		default:
		}

		preview, err := p.Project(frame, working)
		if err != nil {
			return working, err
		}
		ui.Show("projection-tuning", preview)

		switch ui.PollKey() {
		case 'w':
			working.Phi++
		case 's':
			working.Phi--
		case 'q':
			return working, nil
		}
	}
}

func resolveDims(frame *media.Frame, cfg media.ProjectionConfig) (int, int) {
	width, height := cfg.Width, cfg.Height
	switch {
	case width == -1 && height == -1:
		return frame.Width, frame.Height
	case width == -1:
		aspect := float64(frame.Width) / float64(frame.Height)
		return int(float64(height) * aspect), height
	case height == -1:
		aspect := float64(frame.Height) / float64(frame.Width)
		return width, int(float64(width) * aspect)
	default:
		return width, height
	}
}

// resize performs nearest-neighbor scaling of frame into width x
// height.
func resize(frame *media.Frame, width, height int) *media.Frame {
	out := &media.Frame{Width: width, Height: height, Stride: width * 4, Pix: make([]byte, width*height*4)}
	if width == 0 || height == 0 {
		return out
	}

	for y := 0; y < height; y++ {
		srcY := y * frame.Height / height
		for x := 0; x < width; x++ {
			srcX := x * frame.Width / width
			copyPixel(frame, srcX, srcY, out, x, y)
		}
	}
	return out
}

// equirectRemap renders the horizontal band of an equirectangular
// source frame centered on the given phi tilt (degrees, -90..90) into
// a flat width x height frame using a simple longitude/latitude
// lookup, ignoring lens distortion.
func equirectRemap(frame *media.Frame, phiDeg int, width, height int) *media.Frame {
	out := &media.Frame{Width: width, Height: height, Stride: width * 4, Pix: make([]byte, width*height*4)}
	if width == 0 || height == 0 {
		return out
	}

	phi := float64(phiDeg) * math.Pi / 180
	fov := math.Pi / 2

	for y := 0; y < height; y++ {
		lat := phi + (float64(y)/float64(height)-0.5)*fov
		lat = clamp(lat, -math.Pi/2, math.Pi/2)
		srcY := int((lat/math.Pi + 0.5) * float64(frame.Height))

		for x := 0; x < width; x++ {
			lon := (float64(x)/float64(width) - 0.5) * 2 * math.Pi
			srcX := int((lon/(2*math.Pi) + 0.5) * float64(frame.Width))
			srcX = wrap(srcX, frame.Width)
			srcY := clampInt(srcY, 0, frame.Height-1)
			copyPixel(frame, srcX, srcY, out, x, y)
		}
	}
	return out
}

func copyPixel(src *media.Frame, sx, sy int, dst *media.Frame, dx, dy int) {
	if sx < 0 || sy < 0 || sx >= src.Width || sy >= src.Height {
		return
	}
	srcOff := sy*src.Stride + sx*4
	dstOff := dy*dst.Stride + dx*4
	if srcOff+4 > len(src.Pix) || dstOff+4 > len(dst.Pix) {
		return
	}
	copy(dst.Pix[dstOff:dstOff+4], src.Pix[srcOff:srcOff+4])
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
