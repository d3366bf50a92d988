package analysis

import "sort"

// FrameTimeStats is the aggregate result of one analysis run. All frame
// times are milliseconds.
type FrameTimeStats struct {
	FPS                float64 `json:"fps"`
	TotalFrames        int     `json:"total_frames"`
	Duration           float64 `json:"duration"`
	DuplicateFrames    int     `json:"duplicate_frames"`
	DuplicateRatio     float64 `json:"duplicate_ratio"`
	AvgFrametime       float64 `json:"avg_frametime"`
	OnePercentLow      float64 `json:"one_percent_low"`
	PointOnePercentLow float64 `json:"point_one_percent_low"`
	MaxFrametime       float64 `json:"max_frametime"`
	AvgTo1PctRatio     float64 `json:"avg_to_1pct_ratio"`
	StutterScore       float64 `json:"stutter_score"`
}

// computeStats derives the benchmark metrics from the effective frame
// times. The 1%/0.1% low indices use truncating division on the sorted
// length; that is the frame-time benchmarking convention, not an
// interpolated percentile, and small inputs depend on it.
func computeStats(frametimes []float64, duplicates []bool, events []StutterEvent, fps float64, totalFrames int) FrameTimeStats {
	duplicateCount := 0
	for _, dup := range duplicates {
		if dup {
			duplicateCount++
		}
	}

	var sum float64
	for _, ft := range frametimes {
		sum += ft
	}
	avg := sum / float64(len(frametimes))

	sorted := make([]float64, len(frametimes))
	copy(sorted, frametimes)
	sort.Float64s(sorted)

	onePctLow := sorted[quantileIndex(len(sorted), 0.99)]
	pointOnePctLow := sorted[quantileIndex(len(sorted), 0.999)]
	maxFrametime := sorted[len(sorted)-1]

	var avgFPS, onePctFPS, ratio float64
	if avg > 0 {
		avgFPS = 1000.0 / avg
	}
	if onePctLow > 0 {
		onePctFPS = 1000.0 / onePctLow
	}
	if avgFPS > 0 {
		ratio = onePctFPS / avgFPS
	}

	stutterFrames := 0
	for _, ev := range events {
		stutterFrames += ev.DuplicateCount
	}
	var stutterRatio, duplicateRatio float64
	if len(duplicates) > 0 {
		stutterRatio = float64(stutterFrames) / float64(len(duplicates))
		duplicateRatio = float64(duplicateCount) / float64(len(duplicates))
	}

	penalty := stutterRatio * 500
	if penalty > 50 {
		penalty = 50
	}
	score := ratio*100 - penalty
	if score < 0 {
		score = 0
	}

	return FrameTimeStats{
		FPS:                fps,
		TotalFrames:        totalFrames,
		Duration:           float64(totalFrames) / fps,
		DuplicateFrames:    duplicateCount,
		DuplicateRatio:     duplicateRatio,
		AvgFrametime:       avg,
		OnePercentLow:      onePctLow,
		PointOnePercentLow: pointOnePctLow,
		MaxFrametime:       maxFrametime,
		AvgTo1PctRatio:     ratio,
		StutterScore:       score,
	}
}

func quantileIndex(n int, q float64) int {
	idx := int(float64(n) * q)
	if idx > n-1 {
		idx = n - 1
	}
	return idx
}
