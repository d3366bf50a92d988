package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/framepulse/frametime-service/internal/analysis"
)

// WriteText renders the human-readable report.
func WriteText(w io.Writer, source string, res *analysis.Result) {
	stats := res.Stats
	rule := strings.Repeat("=", 60)
	dash := strings.Repeat("-", 40)

	fmt.Fprintf(w, "\n%s\nFRAME TIME ANALYSIS\n%s\n", rule, rule)
	fmt.Fprintf(w, "\nSource: %s\n", source)
	fmt.Fprintf(w, "FPS: %.2f\n", stats.FPS)
	fmt.Fprintf(w, "Total Frames: %d\n", stats.TotalFrames)
	fmt.Fprintf(w, "Duration: %.2fs\n", stats.Duration)

	fmt.Fprintf(w, "\n%s\nSMOOTHNESS SCORE: %.1f/100\n%s\n", rule, stats.StutterScore, rule)

	fmt.Fprintf(w, "\nDuplicate Frame Detection:\n%s\n", dash)
	fmt.Fprintf(w, "  Duplicate frames: %d (%.1f%%)\n", stats.DuplicateFrames, stats.DuplicateRatio*100)

	fmt.Fprintf(w, "\nFrame Time Metrics:\n%s\n", dash)
	fmt.Fprintf(w, "  Average:    %.2f ms (%.1f FPS)\n", stats.AvgFrametime, impliedFPS(stats.AvgFrametime))
	fmt.Fprintf(w, "  1%% Low:     %.2f ms (%.1f FPS)\n", stats.OnePercentLow, impliedFPS(stats.OnePercentLow))
	fmt.Fprintf(w, "  0.1%% Low:   %.2f ms (%.1f FPS)\n", stats.PointOnePercentLow, impliedFPS(stats.PointOnePercentLow))
	fmt.Fprintf(w, "  Maximum:    %.2f ms\n", stats.MaxFrametime)

	fmt.Fprintf(w, "\nSmoothness Analysis:\n%s\n", dash)
	fmt.Fprintf(w, "  1%% Low / Avg ratio: %.2f%%\n", stats.AvgTo1PctRatio*100)
	fmt.Fprintf(w, "  -> %s\n", ConsistencyVerdict(stats.AvgTo1PctRatio))

	if len(res.Events) == 0 {
		fmt.Fprintf(w, "\nNo stutters detected (no duplicates during motion)!\n")
	} else {
		fmt.Fprintf(w, "\nStutter Events (duplicates during motion): %d\n%s\n", len(res.Events), dash)
		totalStutterFrames := 0
		for _, ev := range res.Events {
			totalStutterFrames += ev.DuplicateCount
		}
		for i, ev := range worstEvents(res.Events, 10) {
			fmt.Fprintf(w, "  [%d] @ %.2fs: %.0fms (%d dup, motion=%.1f)\n",
				i+1, ev.Timestamp, ev.FrametimeMs, ev.DuplicateCount, ev.MotionBefore)
		}
		if len(res.Events) > 10 {
			fmt.Fprintf(w, "  ... and %d more\n", len(res.Events)-10)
		}
		fmt.Fprintf(w, "\n  Total stutter frames: %d\n", totalStutterFrames)
	}

	fmt.Fprintf(w, "\n%s\n\n", rule)
}

// ConsistencyVerdict maps the 1% low / average ratio to the verdict tiers
// used in frame-time benchmarking.
func ConsistencyVerdict(ratio float64) string {
	switch {
	case ratio > 0.9:
		return "Excellent: very consistent frame times"
	case ratio > 0.7:
		return "Good: minor frame time variance"
	case ratio > 0.5:
		return "Fair: noticeable stutter"
	default:
		return "Poor: significant stutter"
	}
}

func impliedFPS(frametimeMs float64) float64 {
	if frametimeMs <= 0 {
		return 0
	}
	return 1000.0 / frametimeMs
}
