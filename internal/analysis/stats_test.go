package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantileIndexTruncates(t *testing.T) {
	// Truncating division, clamped to the last index. This is the
	// benchmarking convention and differs from interpolated percentiles
	// on small inputs.
	assert.Equal(t, 0, quantileIndex(1, 0.99))
	assert.Equal(t, 9, quantileIndex(10, 0.99))
	assert.Equal(t, 99, quantileIndex(100, 0.99))
	assert.Equal(t, 99, quantileIndex(100, 0.999))
	assert.Equal(t, 990, quantileIndex(1000, 0.99))
	assert.Equal(t, 999, quantileIndex(1000, 0.999))
}

func TestComputeStatsLowsAndMax(t *testing.T) {
	// 990 smooth frames, nine slow, one very slow. Sorted ascending the
	// slow frames occupy indices 990..998 and the spike index 999.
	frametimes := make([]float64, 1000)
	for i := range frametimes {
		frametimes[i] = 16.0
	}
	for i := 100; i < 109; i++ {
		frametimes[i] = 40.0
	}
	frametimes[500] = 120.0
	duplicates := make([]bool, 1001)

	stats := computeStats(frametimes, duplicates, nil, 60.0, 1002)

	assert.InDelta(t, 40.0, stats.OnePercentLow, 1e-9)
	assert.InDelta(t, 120.0, stats.PointOnePercentLow, 1e-9)
	assert.InDelta(t, 120.0, stats.MaxFrametime, 1e-9)
	// The 0.1% low sits further into the sorted tail than the 1% low.
	assert.GreaterOrEqual(t, stats.PointOnePercentLow, stats.OnePercentLow)
	assert.Equal(t, 1002, stats.TotalFrames)
	assert.InDelta(t, 1002.0/60.0, stats.Duration, 1e-9)
}

func TestComputeStatsConsistencyRatio(t *testing.T) {
	// Perfectly even delivery: 1% low equals the average, ratio 1.0,
	// score 100 with no flagged stutters.
	frametimes := make([]float64, 200)
	for i := range frametimes {
		frametimes[i] = 16.0
	}
	stats := computeStats(frametimes, make([]bool, 200), nil, 60.0, 201)

	assert.InDelta(t, 1.0, stats.AvgTo1PctRatio, 1e-9)
	assert.InDelta(t, 100.0, stats.StutterScore, 1e-9)
}

func TestStutterScoreMonotonicInStutterRatio(t *testing.T) {
	frametimes := make([]float64, 100)
	for i := range frametimes {
		frametimes[i] = 16.0
	}
	duplicates := make([]bool, 1000)

	prev := 101.0
	for dups := 0; dups <= 200; dups += 20 {
		events := []StutterEvent{{DuplicateCount: dups}}
		stats := computeStats(frametimes, duplicates, events, 60.0, 1001)

		assert.LessOrEqual(t, stats.StutterScore, prev)
		assert.GreaterOrEqual(t, stats.StutterScore, 0.0)
		assert.LessOrEqual(t, stats.StutterScore, 100.0)
		prev = stats.StutterScore
	}

	// The penalty is capped at 50 points.
	events := []StutterEvent{{DuplicateCount: 1000}}
	stats := computeStats(frametimes, duplicates, events, 60.0, 1001)
	assert.InDelta(t, 50.0, stats.StutterScore, 1e-9)
}

func TestStutterScoreMonotonicInConsistency(t *testing.T) {
	duplicates := make([]bool, 101)

	prev := -1.0
	// Sweep the tail frame time down: consistency improves, score rises.
	for tail := 160.0; tail >= 16.0; tail -= 16.0 {
		frametimes := make([]float64, 100)
		for i := range frametimes {
			frametimes[i] = 16.0
		}
		frametimes[99] = tail

		stats := computeStats(frametimes, duplicates, nil, 60.0, 102)
		assert.GreaterOrEqual(t, stats.StutterScore, prev)
		prev = stats.StutterScore
	}
}

func TestComputeStatsDuplicateRatio(t *testing.T) {
	frametimes := []float64{16, 32, 16}
	duplicates := []bool{false, true, false, false}

	stats := computeStats(frametimes, duplicates, nil, 60.0, 5)

	assert.Equal(t, 1, stats.DuplicateFrames)
	assert.InDelta(t, 0.25, stats.DuplicateRatio, 1e-9)
}
