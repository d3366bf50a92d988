package analysis

// StutterEvent is a duplicate run that interrupted genuine motion.
type StutterEvent struct {
	FrameIndex     int     `json:"frame_index"`
	Timestamp      float64 `json:"timestamp"`
	FrametimeMs    float64 `json:"frametime_ms"`
	DuplicateCount int     `json:"duplicate_count"`
	MotionBefore   float64 `json:"motion_before"`
}

// runDetector walks the duplicate flags once, merging consecutive
// duplicates into the effective frame time of the frame that opened the
// run. Runs preceded by enough motion become stutter events; runs during
// static content (a paused menu, a loading screen) are expected and stay
// silent.
type runDetector struct {
	frameDurationMs float64
	motionThreshold float64
	contextFrames   int
}

func (rd runDetector) run(samples []float64, duplicates []bool) ([]float64, []StutterEvent) {
	var (
		frametimes []float64
		events     []StutterEvent
		elapsedMs  float64
	)
	accum := rd.frameDurationMs
	runStart := -1
	runLen := 0

	for i, dup := range duplicates {
		if dup {
			if runStart < 0 {
				runStart = i
				runLen = 1
			} else {
				runLen++
			}
			accum += rd.frameDurationMs
			continue
		}

		if runStart >= 0 {
			if motion, ok := rd.motionBefore(samples, runStart); ok && motion >= rd.motionThreshold {
				events = append(events, StutterEvent{
					FrameIndex:     runStart,
					Timestamp:      elapsedMs / 1000.0,
					FrametimeMs:    accum,
					DuplicateCount: runLen,
					MotionBefore:   motion,
				})
			}
		}

		frametimes = append(frametimes, accum)
		elapsedMs += accum
		accum = rd.frameDurationMs
		runStart = -1
		runLen = 0
	}

	// The tail frame is always flushed, even when it absorbed no
	// duplicates or when a run was still open at end of stream.
	frametimes = append(frametimes, accum)
	return frametimes, events
}

// motionBefore averages the context window immediately preceding the run
// start, clipped at the beginning of the sequence. A run starting at the
// first transition has no context and reports ok=false.
func (rd runDetector) motionBefore(samples []float64, runStart int) (float64, bool) {
	from := runStart - rd.contextFrames
	if from < 0 {
		from = 0
	}
	window := samples[from:runStart]
	if len(window) == 0 {
		return 0, false
	}
	var sum float64
	for _, d := range window {
		sum += d
	}
	return sum / float64(len(window)), true
}
