// Package ncctrack implements media.FeatureTracker over a windowed
// normalized cross-correlation search: instead of rescanning the whole
// frame every step, each update searches only a margin around the
// previous match.
package ncctrack

import (
	"math"

	"github.com/loopwave/motionscript/internal/media"
	"github.com/loopwave/motionscript/internal/motion/bbox"
)

// Threshold below which a candidate match is rejected as lost.
const defaultThreshold = 0.55

// Tracker runs NCC matching on a background goroutine, one frame at a
// time: Update enqueues a frame, Result blocks for its outcome. The
// combination of a capacity-1 frame queue and a capacity-1 result slot
// mirrors the concurrent while-true loop used elsewhere in this
// codebase for a single in-flight request at a time.
type Tracker struct {
	frames  chan *media.Frame
	results chan trackResult
	quit    chan struct{}

	searchMargin int
	threshold    float64
}

type trackResult struct {
	ok  bool
	box bbox.Bbox
}

type template struct {
	w, h int
	gray []float64
	mean float64
	std  float64
}

// New starts a tracker seeded with box's content from seed. margin is
// the number of extra pixels searched on every side of the previous
// match each step.
func New(seed *media.Frame, box bbox.Bbox, margin int) *Tracker {
	t := &Tracker{
		frames:       make(chan *media.Frame, 1),
		results:      make(chan trackResult, 1),
		quit:         make(chan struct{}),
		searchMargin: margin,
		threshold:    defaultThreshold,
	}

	tmpl := buildTemplate(seed, box)
	lastBox := box

	go func() {
		for {
			select {
			case <-t.quit:
				return
			case frame, ok := <-t.frames:
				if !ok {
					return
				}
				newBox, score := search(frame, tmpl, lastBox, t.searchMargin)
				found := score >= t.threshold
				if found {
					lastBox = newBox
				}
				t.results <- trackResult{ok: found, box: lastBox}
			}
		}
	}()

	return t
}

// Update implements media.FeatureTracker.
func (t *Tracker) Update(frame *media.Frame) {
	t.frames <- frame
}

// Result implements media.FeatureTracker.
func (t *Tracker) Result() (bool, bbox.Bbox) {
	r := <-t.results
	return r.ok, r.box
}

// Stop releases the tracker's background goroutine. Safe to call at
// most once.
func (t *Tracker) Stop() {
	close(t.quit)
}

func buildTemplate(frame *media.Frame, box bbox.Bbox) template {
	w := int(box.W)
	h := int(box.H)
	gray := make([]float64, 0, w*h)
	var sum, sumSq float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := grayAt(frame, int(box.X)+x, int(box.Y)+y)
			gray = append(gray, g)
			sum += g
			sumSq += g * g
		}
	}
	n := float64(len(gray))
	if n == 0 {
		return template{w: w, h: h}
	}
	mean := sum / n
	variance := sumSq/n - mean*mean
	return template{w: w, h: h, gray: gray, mean: mean, std: math.Sqrt(math.Max(variance, 0))}
}

func grayAt(frame *media.Frame, x, y int) float64 {
	if x < 0 || y < 0 || x >= frame.Width || y >= frame.Height {
		return 0
	}
	off := y*frame.Stride + x*4
	if off+2 >= len(frame.Pix) {
		return 0
	}
	r := float64(frame.Pix[off])
	g := float64(frame.Pix[off+1])
	b := float64(frame.Pix[off+2])
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// search scans a window of searchMargin pixels around prev's position
// in frame for the best-correlated location for tmpl, returning the
// best box and its NCC score.
func search(frame *media.Frame, tmpl template, prev bbox.Bbox, margin int) (bbox.Bbox, float64) {
	if tmpl.std <= 1e-9 || len(tmpl.gray) == 0 {
		return prev, 0
	}

	minX := int(prev.X) - margin
	maxX := int(prev.X) + margin
	minY := int(prev.Y) - margin
	maxY := int(prev.Y) + margin

	bestScore := -1.0
	bestX, bestY := int(prev.X), int(prev.Y)

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			score := correlateAt(frame, tmpl, x, y)
			if score > bestScore {
				bestScore = score
				bestX, bestY = x, y
			}
		}
	}

	return bbox.Bbox{X: float64(bestX), Y: float64(bestY), W: prev.W, H: prev.H}, bestScore
}

func correlateAt(frame *media.Frame, tmpl template, x, y int) float64 {
	var sum, sumSq, sumCross float64
	i := 0
	for ty := 0; ty < tmpl.h; ty++ {
		for tx := 0; tx < tmpl.w; tx++ {
			v := grayAt(frame, x+tx, y+ty)
			sum += v
			sumSq += v * v
			sumCross += v * tmpl.gray[i]
			i++
		}
	}
	n := float64(len(tmpl.gray))
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance <= 1e-9 {
		return -1
	}
	std := math.Sqrt(variance)
	numer := sumCross - n*mean*tmpl.mean
	denom := n * std * tmpl.std
	if denom <= 0 {
		return -1
	}
	return numer / denom
}
