// Package signal implements the scalar signal-processing primitives
// the motion pipeline runs over a tracked bounding-box trajectory:
// smoothing, derivatives, and rescaling.
package signal

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ErrInvalidArgument is returned by operations that receive a caller
// error they cannot recover from.
var ErrInvalidArgument = errors.New("signal: invalid argument")

// MovingAverage computes a windowed moving average of x with window
// half-width w, a valid-mode convolution edge-padded by repeating the
// first and last computed values. Signals shorter than w+2 collapse to
// their mean; w == 1 returns the input unchanged.
func MovingAverage(x []float64, w int) []float64 {
	if len(x) == 0 {
		return []float64{}
	}
	if len(x) <= w+1 {
		m := mean(x)
		out := make([]float64, len(x))
		for i := range out {
			out[i] = m
		}
		return out
	}
	if w == 1 {
		out := make([]float64, len(x))
		copy(out, x)
		return out
	}

	window := w * 2
	sum := 0.0
	for i := 0; i < window; i++ {
		sum += x[i]
	}
	avg := make([]float64, len(x)-window+1)
	avg[0] = sum / float64(window)
	for i := 1; i < len(avg); i++ {
		sum += x[i+window-1] - x[i-1]
		avg[i] = sum / float64(window)
	}

	out := make([]float64, 0, len(x))
	for i := 0; i < w; i++ {
		out = append(out, avg[0])
	}
	out = append(out, avg...)
	for i := len(avg) + w; i < len(x); i++ {
		out = append(out, avg[len(avg)-1])
	}
	return out
}

// MovingStd computes a windowed population standard deviation of x
// over a full window of 2w+1 samples centered at each index, edge
// padded by repeating the first/last computed value.
func MovingStd(x []float64, w int) []float64 {
	if len(x) == 0 {
		return []float64{}
	}
	if len(x)-w <= w {
		s := populationStdDev(x)
		out := make([]float64, len(x))
		for i := range out {
			out[i] = s
		}
		return out
	}

	mid := make([]float64, 0, len(x)-2*w)
	for ii := w; ii < len(x)-w; ii++ {
		mid = append(mid, populationStdDev(x[ii-w:ii+w+1]))
	}

	out := make([]float64, 0, len(x))
	for i := 0; i < w; i++ {
		out = append(out, mid[0])
	}
	out = append(out, mid...)
	for i := 0; i < w; i++ {
		out = append(out, mid[len(mid)-1])
	}
	return out
}

// FirstDerivative computes the first derivative of x, smoothed by a
// moving average of window w (rounded up to the next odd value when
// even, so the smoothing stays centered).
func FirstDerivative(x []float64, w int) []float64 {
	return MovingAverage(diff(x), oddWindow(w))
}

// SecondDerivative computes the second derivative of x: the first
// derivative of the first derivative, each smoothed by the same odd
// window.
func SecondDerivative(x []float64, w int) []float64 {
	w = oddWindow(w)
	return MovingAverage(diff(MovingAverage(diff(x), w)), w)
}

func oddWindow(w int) int {
	if w < 0 {
		w = 1
	}
	if w%2 == 0 {
		w++
	}
	return w
}

func diff(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}
	out := make([]float64, len(x)-1)
	for i := range out {
		out[i] = x[i+1] - x[i]
	}
	return out
}

// Scale rescales signal linearly so its minimum maps to lower and its
// maximum maps to upper. A constant signal maps every sample to lower.
func Scale(sig []float64, lower, upper float64) []float64 {
	if len(sig) == 0 {
		return []float64{}
	}
	if len(sig) == 1 {
		return []float64{lower}
	}

	smin, smax := minMax(sig)
	out := make([]float64, len(sig))
	if smax == smin {
		for i := range out {
			out[i] = lower
		}
		return out
	}
	for i, x := range sig {
		out[i] = (upper-lower)*(x-smin)/(smax-smin) + lower
	}
	return out
}

// ScaleWithAnomalies rescales signal like Scale, but computes the
// affine map from a quantile-trimmed subrange (discarding extreme
// outliers) and then clamps every rescaled sample into the
// anomaly-free subrange's own [min, max] (not [lower, upper]), so a
// single spike can't compress the rest of the signal.
func ScaleWithAnomalies(sig []float64, lower, upper, lowerQuantile, upperQuantile float64) []float64 {
	if len(sig) == 0 {
		return []float64{}
	}
	if len(sig) == 1 {
		return []float64{lower}
	}

	sorted := append([]float64(nil), sig...)
	sort.Float64s(sorted)
	a1 := stat.Quantile(lowerQuantile, stat.Empirical, sorted, nil)
	a2 := stat.Quantile(upperQuantile, stat.Empirical, sorted, nil)

	var anomalyFree []float64
	for _, x := range sig {
		if x > a1 && x < a2 {
			anomalyFree = append(anomalyFree, x)
		}
	}
	afMin, afMax := minMax(anomalyFree)

	out := make([]float64, len(sig))
	for i, x := range sig {
		scaled := (upper-lower)*(x-afMin)/(afMax-afMin) + lower
		out[i] = math.Min(afMax, math.Max(afMin, scaled))
	}
	return out
}

// Nearest finds the nearest value to v in a sorted array, approaching
// from the given side: "left" returns the greatest element <= v,
// "right" the smallest element >= v. When no element qualifies, the
// nearest endpoint is returned instead.
func Nearest(arr []float64, v float64, side string) (float64, error) {
	switch side {
	case "left":
		pos := 0
		for i := range arr {
			if v < arr[i] {
				break
			}
			pos = i
		}
		return arr[pos], nil
	case "right":
		pos := len(arr) - 1
		for i := len(arr) - 1; i >= 0; i-- {
			if v > arr[i] {
				break
			}
			pos = i
		}
		return arr[pos], nil
	default:
		return 0, ErrInvalidArgument
	}
}

func mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	return sum / float64(len(x))
}

// populationStdDev divides by N, not N-1. gonum's stat.StdDev applies
// Bessel's correction, which shifts every threshold comparison built
// on these windows.
func populationStdDev(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	m := mean(x)
	sumSq := 0.0
	for _, v := range x {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(x)))
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
