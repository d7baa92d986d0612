// Package points extracts candidate action-point indices from a
// scalar motion signal: a "base" pass (direction changes or local
// min/max crossings) optionally refined by "additional" passes
// (high-second-derivative spikes, distance-minimizing edge points).
package points

import (
	"errors"
	"math"
	"sort"

	"github.com/loopwave/motionscript/internal/motion/signal"
)

// ErrUnknownAlgorithm is returned when an unrecognized base or
// additional point algorithm is requested.
var ErrUnknownAlgorithm = errors.New("points: unknown algorithm")

// BasePointAlgorithm selects how the initial set of candidate indices
// is derived from the raw signal.
type BasePointAlgorithm int

const (
	// DirectionChanges finds turning points via a run-length filter.
	DirectionChanges BasePointAlgorithm = iota
	// LocalMinMax finds points where a smoothed signal crosses its own
	// moving average.
	LocalMinMax
)

func (a BasePointAlgorithm) String() string {
	switch a {
	case DirectionChanges:
		return "direction_changes"
	case LocalMinMax:
		return "local_min_max"
	default:
		return "unknown"
	}
}

// AdditionalPointAlgorithm selects how candidate indices are refined
// with extra points beyond the base pass.
type AdditionalPointAlgorithm int

const (
	// HighSecondDerivative adds points where signal acceleration
	// spikes above a rolling noise floor.
	HighSecondDerivative AdditionalPointAlgorithm = iota
	// DistanceMinimization adds points that deviate furthest from the
	// straight line between their neighboring base points.
	DistanceMinimization
)

func (a AdditionalPointAlgorithm) String() string {
	switch a {
	case HighSecondDerivative:
		return "high_second_derivative"
	case DistanceMinimization:
		return "distance_minimization"
	default:
		return "unknown"
	}
}

// Finder extracts candidate point indices from a signal sampled at FPS,
// using the same window/threshold parameters as the rest of the motion
// pipeline.
type Finder struct {
	FPS                            float64
	AvgSecForLocalMinMaxExtraction float64
	DirectionChangeFilterLen       int
	HighSecondDerivativeThreshold  float64
	DistanceMinimizationThreshold  float64
}

func (f Finder) avgWindow() int {
	return int(math.Round(f.FPS * f.AvgSecForLocalMinMaxExtraction))
}

// GetDirectionChanges finds turning points in signal: runs of
// filterLen+1 consecutive samples that are all strictly increasing or
// all strictly decreasing are candidate "sides"; a changepoint is
// emitted each time consecutive candidate sides switch direction.
//
// Each changepoint is shifted by the first candidate index on top of
// its own (already absolute) position. That looks like a double
// offset, and probably is one, but every downstream consumer was tuned
// against this convention; changing it silently would move every
// emitted point. TestGetDirectionChanges_TriangleWave pins the
// behavior so any correction shows up as a reviewed diff.
func GetDirectionChanges(sig []float64, filterLen int) []int {
	if len(sig) < filterLen {
		return nil
	}

	var filteredIndexes []int
	for i := 0; i <= len(sig)-filterLen-1; i++ {
		allInc, allDec := true, true
		for j := 0; j < filterLen; j++ {
			if !(sig[i+j] > sig[i+j+1]) {
				allDec = false
			}
			if !(sig[i+j] < sig[i+j+1]) {
				allInc = false
			}
		}
		if allInc || allDec {
			filteredIndexes = append(filteredIndexes, i)
		}
	}

	if len(filteredIndexes) < 2 {
		return nil
	}

	direction := make([]int, len(filteredIndexes)-1)
	for i := range direction {
		if sig[filteredIndexes[i]] > sig[filteredIndexes[i+1]] {
			direction[i] = -1
		} else {
			direction[i] = 1
		}
	}

	startPosition := filteredIndexes[0]
	for _, idx := range filteredIndexes {
		if idx < startPosition {
			startPosition = idx
		}
	}

	var changepoints []int
	currentDirection := direction[0]
	for i, d := range direction {
		if d != currentDirection {
			changepoints = append(changepoints, filteredIndexes[i]+startPosition)
			currentDirection = d
		}
	}
	return changepoints
}

// GetLocalMinMax walks a lightly smoothed copy of signal against its
// own slow moving average, committing the extremal index of each run
// spent below (min) or above (max) that average whenever the signal
// crosses back.
func (f Finder) GetLocalMinMax(sig []float64) []int {
	avg := signal.MovingAverage(sig, f.avgWindow())
	smoothed := signal.MovingAverage(sig, 3)

	var points []int
	tmpMin, tmpMax := -1, -1
	for pos := range smoothed {
		if smoothed[pos] < avg[pos] {
			if tmpMin < 0 {
				tmpMin = pos
			} else if smoothed[tmpMin] >= smoothed[pos] {
				tmpMin = pos
			}
		} else if tmpMin >= 0 {
			points = append(points, tmpMin)
			tmpMin = -1
		}

		if smoothed[pos] > avg[pos] {
			if tmpMax < 0 {
				tmpMax = pos
			} else if smoothed[tmpMax] <= smoothed[pos] {
				tmpMax = pos
			}
		} else if tmpMax >= 0 {
			points = append(points, tmpMax)
			tmpMax = -1
		}
	}
	return points
}

// GetHighSecondDerivative flags points where the signal's second
// derivative magnitude exceeds alpha times its own rolling standard
// deviation, emitting the run's argmax each time the run ends.
func (f Finder) GetHighSecondDerivative(sig []float64) []int {
	alpha := f.HighSecondDerivativeThreshold
	dx2 := signal.SecondDerivative(sig, 1)
	dx2Abs := make([]float64, len(dx2))
	for i, v := range dx2 {
		dx2Abs[i] = math.Abs(v)
	}
	std := signal.MovingStd(dx2, f.avgWindow())

	var changepoints []int
	tmpMaxIdx := -1
	for pos := range dx2Abs {
		if dx2Abs[pos] > alpha*std[pos] {
			if tmpMaxIdx < 0 || dx2Abs[tmpMaxIdx] <= dx2Abs[pos] {
				tmpMaxIdx = pos
			}
		} else if tmpMaxIdx >= 0 {
			changepoints = append(changepoints, tmpMaxIdx)
			tmpMaxIdx = -1
		}
	}
	return changepoints
}

// GetEdgePoints measures, between each pair of consecutive base
// points, the perpendicular distance from every intermediate sample
// to the straight line connecting the two base points (with the time
// axis remapped into the base points' own value range so distance is
// comparable across amplitude and duration). The farthest sample in
// each span becomes a candidate edge point when it clears threshold.
func (f Finder) GetEdgePoints(sig []float64, basePoints []int, threshold float64) []int {
	if len(basePoints) < 2 {
		return nil
	}
	sorted := append([]int(nil), basePoints...)
	sort.Ints(sorted)

	var edgePoints []int
	for i := 0; i < len(sorted)-1; i++ {
		p1, p2 := sorted[i], sorted[i+1]
		maxDistance := -1.0
		maxJ := p1
		minPos, maxPos := minMaxF(sig[p1], sig[p2])

		for j := p1; j < p2; j++ {
			u := (maxPos-minPos)*float64(j-p1)/float64(p2-p1) + minPos
			d := perpendicularDistance(minPos, sig[p1], maxPos, sig[p2], u, sig[j])
			if d > maxDistance {
				maxDistance = d
				maxJ = j
			}
		}

		if maxDistance > threshold {
			edgePoints = append(edgePoints, maxJ)
		}
	}
	return edgePoints
}

// perpendicularDistance is the 2-D point-to-line distance from (u, v)
// to the line through (x1,y1) and (x2,y2), via the cross-product
// formulation (|cross(end-start, start-point)| / |end-start|).
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

func minMaxF(a, b float64) (min, max float64) {
	if a < b {
		return a, b
	}
	return b, a
}
