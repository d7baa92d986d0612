// Package merge combines base and additional point candidates into
// the final decimated index set, then groups and shifts them for
// emission.
package merge

import (
	"math"
	"sort"

	"github.com/loopwave/motionscript/internal/motion/points"
	"github.com/loopwave/motionscript/internal/motion/signal"
)

// Merger merges additional point candidates into a base point set
// under temporal and geometric guards, then groups and shifts the
// result for emission.
type Merger struct {
	FPS                            float64
	MergeTimeThresholdMs           float64
	MergeDistanceThreshold         float64
	AvgSecForLocalMinMaxExtraction float64
}

func (m Merger) mergeTimeThresholdSamples() float64 {
	t := math.Round(m.FPS*m.MergeTimeThresholdMs) / 1000.0
	if t < 1 {
		return 1
	}
	return t
}

// Merge folds additionalPoints into basePoints, skipping any candidate
// too close in index to an existing point, or whose perpendicular
// distance to the line between its left/right neighbors falls short
// of the configured threshold. Surviving candidates are inserted in
// sorted order.
func (m Merger) Merge(sig []float64, basePoints, additionalPoints []int) []int {
	merged := append([]int(nil), basePoints...)
	sort.Ints(merged)

	timeThreshold := m.mergeTimeThresholdSamples()
	mergedF := toFloat(merged)

	for _, idx := range additionalPoints {
		if tooClose(merged, idx, timeThreshold) {
			continue
		}

		p1f, err1 := signal.Nearest(mergedF, float64(idx), "left")
		p2f, err2 := signal.Nearest(mergedF, float64(idx), "right")
		if err1 != nil || err2 != nil {
			continue
		}
		p1, p2 := int(p1f), int(p2f)
		if p1 >= p2 {
			continue
		}

		minPos, maxPos := minMaxF(sig[p1], sig[p2])
		u := (maxPos-minPos)*float64(idx-p1)/float64(p2-p1) + minPos
		dist := perpendicularDistance(minPos, sig[p1], maxPos, sig[p2], u, sig[idx])
		if dist < m.MergeDistanceThreshold {
			continue
		}

		merged = insertSorted(merged, idx)
		mergedF = toFloat(merged)
	}

	return merged
}

func tooClose(points []int, idx int, threshold float64) bool {
	for _, p := range points {
		if math.Abs(float64(idx-p)) <= threshold {
			return true
		}
	}
	return false
}

func insertSorted(s []int, v int) []int {
	i := sort.SearchInts(s, v)
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func toFloat(s []int) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = float64(v)
	}
	return out
}

func minMaxF(a, b float64) (min, max float64) {
	if a < b {
		return a, b
	}
	return b, a
}

func perpendicularDistance(x1, y1, x2, y2, u, v float64) float64 {
	ex, ey := x2-x1, y2-y1
	sx, sy := x1-u, y1-v
	cross := ex*sy - ey*sx
	segLen := math.Hypot(ex, ey)
	if segLen == 0 {
		return 0
	}
	return math.Abs(cross) / segLen
}

// Extrema holds the categorized point indices for one emitted run:
// Min indices are where the signal dips below its own slow moving
// average, Max indices where it rises above it.
type Extrema struct {
	Min []int
	Max []int
}

// Categorize groups points into Min/Max by comparing a lightly
// smoothed copy of signal against its own slow moving average at each
// point's index.
func (m Merger) Categorize(sig []float64, idxs []int) Extrema {
	w := int(math.Round(m.FPS * m.AvgSecForLocalMinMaxExtraction))
	avg := signal.MovingAverage(sig, w)
	smoothed := signal.MovingAverage(sig, 3)

	var ex Extrema
	for _, idx := range idxs {
		if smoothed[idx] > avg[idx] {
			ex.Max = append(ex.Max, idx)
		} else {
			ex.Min = append(ex.Min, idx)
		}
	}
	return ex
}

// ApplyManualShift returns idx+shift clamped into [0, maxIdx]. It
// returns signal.ErrInvalidArgument when shiftGroup does not carry
// exactly one index.
func ApplyManualShift(shiftGroup []int, maxIdx, shift int) ([]int, error) {
	if len(shiftGroup) != 1 {
		return nil, signal.ErrInvalidArgument
	}
	shifted := shiftGroup[0] + shift
	if shifted < 0 {
		shifted = 0
	}
	if shifted > maxIdx {
		shifted = maxIdx
	}
	return []int{shifted}, nil
}

// Decimate runs the full base+additional point pipeline: computing
// base points via the selected algorithm, then folding in each
// requested additional-point algorithm's candidates.
func Decimate(sig []float64, finder points.Finder, base points.BasePointAlgorithm, additional []points.AdditionalPointAlgorithm, merger Merger) ([]int, error) {
	var decimated []int
	switch base {
	case points.DirectionChanges:
		decimated = points.GetDirectionChanges(sig, finder.DirectionChangeFilterLen)
	case points.LocalMinMax:
		decimated = finder.GetLocalMinMax(sig)
	default:
		return nil, points.ErrUnknownAlgorithm
	}

	for _, algo := range additional {
		var candidates []int
		switch algo {
		case points.HighSecondDerivative:
			candidates = finder.GetHighSecondDerivative(sig)
		case points.DistanceMinimization:
			candidates = finder.GetEdgePoints(sig, decimated, finder.DistanceMinimizationThreshold)
		default:
			return nil, points.ErrUnknownAlgorithm
		}
		if len(candidates) > 0 {
			decimated = merger.Merge(sig, decimated, candidates)
		}
	}

	return decimated, nil
}
