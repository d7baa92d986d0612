package points_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loopwave/motionscript/internal/motion/points"
)

// TestGetDirectionChanges_TriangleWave pins the offset convention: the
// filterLen=2 scan over a triangle wave must land on the turning
// points after the `+min(filteredIndexes)` shift is applied, even
// though that shift duplicates an offset already baked into each
// index. The plain wave's first candidate is index 0, so its shift is
// zero; the flat-prefixed copy starts its first candidate at index 2,
// which moves its turning points 5, 8, 11 to 7, 10, 13.
func TestGetDirectionChanges_TriangleWave(t *testing.T) {
	t.Parallel()
	sig := []float64{0, 1, 2, 3, 2, 1, 0, 1, 2, 3, 2, 1, 0}

	got := points.GetDirectionChanges(sig, 2)

	assert.Contains(t, got, 3)
	assert.Contains(t, got, 6)

	shifted := []float64{0, 0, 0, 1, 2, 3, 2, 1, 0, 1, 2, 3, 2, 1, 0}
	assert.Equal(t, []int{7, 10, 13}, points.GetDirectionChanges(shifted, 2))
}

func TestGetDirectionChanges_TooShort(t *testing.T) {
	t.Parallel()
	assert.Empty(t, points.GetDirectionChanges([]float64{1, 2}, 5))
}

func TestGetDirectionChanges_Monotone(t *testing.T) {
	t.Parallel()
	sig := []float64{1, 2, 3, 4, 5, 6}
	assert.Empty(t, points.GetDirectionChanges(sig, 2))
}

func TestGetLocalMinMax_TriangleWave(t *testing.T) {
	t.Parallel()
	sig := make([]float64, 0, 40)
	for i := 0; i < 40; i++ {
		v := float64(i % 20)
		if v > 10 {
			v = 20 - v
		}
		sig = append(sig, v)
	}
	f := points.Finder{FPS: 10, AvgSecForLocalMinMaxExtraction: 0.5}
	got := f.GetLocalMinMax(sig)
	assert.NotEmpty(t, got)
}

func TestGetHighSecondDerivative_FlagsSpike(t *testing.T) {
	t.Parallel()
	sig := make([]float64, 60)
	for i := range sig {
		sig[i] = 10
	}
	sig[30] = 200 // sharp spike
	f := points.Finder{FPS: 10, AvgSecForLocalMinMaxExtraction: 1.0, HighSecondDerivativeThreshold: 1.2}
	got := f.GetHighSecondDerivative(sig)
	assert.NotEmpty(t, got)
}

func TestGetEdgePoints_FewerThanTwoBasePoints(t *testing.T) {
	t.Parallel()
	f := points.Finder{FPS: 10, DistanceMinimizationThreshold: 5}
	assert.Empty(t, f.GetEdgePoints([]float64{1, 2, 3}, []int{0}, 5))
}

func TestGetEdgePoints_FindsMidpointDeviation(t *testing.T) {
	t.Parallel()
	// A straight ramp from 0 to 10 over indices 0..10, except index 5
	// spikes to 100 — should be flagged as the maximal deviation.
	sig := make([]float64, 11)
	for i := range sig {
		sig[i] = float64(i)
	}
	sig[5] = 100

	f := points.Finder{FPS: 10}
	got := f.GetEdgePoints(sig, []int{0, 10}, 5)
	assert.Contains(t, got, 5)
}
