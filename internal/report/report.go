// Package report serializes analysis results into the flat record shared
// by the HTTP API, the worker and the CLI-style text output.
package report

import (
	"math"
	"sort"

	"github.com/framepulse/frametime-service/internal/analysis"
)

type Report struct {
	Source             string             `json:"source"`
	FPS                float64            `json:"fps"`
	TotalFrames        int                `json:"total_frames"`
	Duration           float64            `json:"duration"`
	SmoothnessScore    float64            `json:"smoothness_score"`
	DuplicateDetection DuplicateDetection `json:"duplicate_detection"`
	FrameTimesMs       FrameTimes         `json:"frame_times_ms"`
	Smoothness         Smoothness         `json:"smoothness"`
	StutterEvents      []Event            `json:"stutter_events"`
}

type DuplicateDetection struct {
	DuplicateFrames int     `json:"duplicate_frames"`
	DuplicateRatio  float64 `json:"duplicate_ratio"`
}

type FrameTimes struct {
	Average            float64 `json:"average"`
	OnePercentLow      float64 `json:"one_percent_low"`
	PointOnePercentLow float64 `json:"point_one_percent_low"`
	Maximum            float64 `json:"maximum"`
}

type Smoothness struct {
	AvgTo1PctRatio float64 `json:"avg_to_1pct_ratio"`
}

type Event struct {
	FrameIndex     int     `json:"frame_index"`
	Timestamp      float64 `json:"timestamp"`
	FrametimeMs    float64 `json:"frametime_ms"`
	DuplicateCount int     `json:"duplicate_count"`
	MotionBefore   float64 `json:"motion_before"`
}

// Build flattens a result into the wire record. Milliseconds round to 2
// decimals, ratios to 4, the score to 1, timestamps to 3.
func Build(source string, res *analysis.Result) Report {
	stats := res.Stats

	events := make([]Event, 0, len(res.Events))
	for _, ev := range res.Events {
		events = append(events, Event{
			FrameIndex:     ev.FrameIndex,
			Timestamp:      round(ev.Timestamp, 3),
			FrametimeMs:    round(ev.FrametimeMs, 2),
			DuplicateCount: ev.DuplicateCount,
			MotionBefore:   round(ev.MotionBefore, 2),
		})
	}

	return Report{
		FPS:             round(stats.FPS, 2),
		TotalFrames:     stats.TotalFrames,
		Duration:        round(stats.Duration, 3),
		SmoothnessScore: round(stats.StutterScore, 1),
		DuplicateDetection: DuplicateDetection{
			DuplicateFrames: stats.DuplicateFrames,
			DuplicateRatio:  round(stats.DuplicateRatio, 4),
		},
		FrameTimesMs: FrameTimes{
			Average:            round(stats.AvgFrametime, 2),
			OnePercentLow:      round(stats.OnePercentLow, 2),
			PointOnePercentLow: round(stats.PointOnePercentLow, 2),
			Maximum:            round(stats.MaxFrametime, 2),
		},
		Smoothness:    Smoothness{AvgTo1PctRatio: round(stats.AvgTo1PctRatio, 4)},
		StutterEvents: events,
		Source:        source,
	}
}

// worstEvents returns up to limit events ordered by effective frame time,
// worst first.
func worstEvents(events []analysis.StutterEvent, limit int) []analysis.StutterEvent {
	sorted := make([]analysis.StutterEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FrametimeMs > sorted[j].FrametimeMs
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
