package merge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopwave/motionscript/internal/motion/merge"
	"github.com/loopwave/motionscript/internal/motion/points"
	"github.com/loopwave/motionscript/internal/motion/signal"
)

func TestMerge_SkipsTooCloseCandidates(t *testing.T) {
	t.Parallel()
	sig := make([]float64, 40)
	for i := range sig {
		sig[i] = float64(i)
	}
	m := merge.Merger{FPS: 10, MergeTimeThresholdMs: 500, MergeDistanceThreshold: 1}

	got := m.Merge(sig, []int{0, 20}, []int{1}) // 1 sample away, well within threshold
	assert.Equal(t, []int{0, 20}, got)
}

func TestMerge_SkipsBelowDistanceThreshold(t *testing.T) {
	t.Parallel()
	sig := make([]float64, 40)
	for i := range sig {
		sig[i] = float64(i) // perfectly linear: zero perpendicular distance anywhere
	}
	m := merge.Merger{FPS: 10, MergeTimeThresholdMs: 1, MergeDistanceThreshold: 0.5}

	got := m.Merge(sig, []int{0, 39}, []int{20})
	assert.Equal(t, []int{0, 39}, got, "a point exactly on the line must not be merged")
}

func TestMerge_InsertsQualifyingCandidate(t *testing.T) {
	t.Parallel()
	sig := make([]float64, 40)
	for i := range sig {
		sig[i] = float64(i)
	}
	sig[20] = 1000 // big deviation from the straight line between 0 and 39

	m := merge.Merger{FPS: 10, MergeTimeThresholdMs: 1, MergeDistanceThreshold: 5}
	got := m.Merge(sig, []int{0, 39}, []int{20})
	assert.Equal(t, []int{0, 20, 39}, got)
}

func TestCategorize_SplitsMinMax(t *testing.T) {
	t.Parallel()
	sig := make([]float64, 0, 40)
	for i := 0; i < 40; i++ {
		v := float64(i % 20)
		if v > 10 {
			v = 20 - v
		}
		sig = append(sig, v)
	}
	m := merge.Merger{FPS: 10, AvgSecForLocalMinMaxExtraction: 0.5}
	ex := m.Categorize(sig, []int{0, 5, 10, 15})

	assert.NotEmpty(t, ex.Min)
	assert.NotEmpty(t, ex.Max)
}

func TestApplyManualShift_SingleIndex(t *testing.T) {
	t.Parallel()
	got, err := merge.ApplyManualShift([]int{5}, 100, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{8}, got)
}

func TestApplyManualShift_ClampsToBounds(t *testing.T) {
	t.Parallel()
	got, err := merge.ApplyManualShift([]int{2}, 100, -10)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, got)

	got, err = merge.ApplyManualShift([]int{98}, 100, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{100}, got)
}

func TestApplyManualShift_RejectsNonSingleIndex(t *testing.T) {
	t.Parallel()
	_, err := merge.ApplyManualShift([]int{1, 2}, 100, 3)
	assert.ErrorIs(t, err, signal.ErrInvalidArgument)

	_, err = merge.ApplyManualShift(nil, 100, 3)
	assert.ErrorIs(t, err, signal.ErrInvalidArgument)
}

func TestDecimate_DirectionChangesBase(t *testing.T) {
	t.Parallel()
	sig := []float64{0, 1, 2, 3, 2, 1, 0, 1, 2, 3, 2, 1, 0}
	finder := points.Finder{FPS: 10, DirectionChangeFilterLen: 2}
	m := merge.Merger{FPS: 10, MergeTimeThresholdMs: 1, MergeDistanceThreshold: 5}

	got, err := merge.Decimate(sig, finder, points.DirectionChanges, nil, m)
	require.NoError(t, err)
	assert.Contains(t, got, 3)
	assert.Contains(t, got, 6)
}

func TestDecimate_UnknownBaseAlgorithm(t *testing.T) {
	t.Parallel()
	_, err := merge.Decimate([]float64{1, 2, 3}, points.Finder{}, points.BasePointAlgorithm(99), nil, merge.Merger{})
	assert.ErrorIs(t, err, points.ErrUnknownAlgorithm)
}
