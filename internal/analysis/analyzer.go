// Package analysis reconstructs the effective on-screen frame time of a
// recorded video, classifies visually duplicated frames, and flags
// duplicate runs that interrupt genuine motion as stutter events.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
)

// FrameSource yields decoded frames in presentation order. Implementations
// report the container's nominal frame rate and frame count; both may be
// approximate for streams with sparse metadata.
type FrameSource interface {
	// Next returns the next decoded frame, or io.EOF once the stream is
	// exhausted.
	Next(ctx context.Context) (image.Image, error)
	// FPS is the nominal frame rate reported by the container.
	FPS() float64
	// FrameCount is the container-reported total frame count, or 0 when
	// unknown.
	FrameCount() int
	Close() error
}

// Options are the analysis tunables.
type Options struct {
	// EMAAlpha is the smoothing factor of the motion baseline.
	EMAAlpha float64
	// DuplicateThreshold is the fraction of the motion baseline below
	// which a transition counts as duplicated.
	DuplicateThreshold float64
	// AbsoluteDuplicateMax is a hard ceiling a duplicate must also stay
	// under, independent of the adaptive baseline.
	AbsoluteDuplicateMax float64
	// MotionThreshold is the minimum average preceding motion for a
	// duplicate run to count as a stutter.
	MotionThreshold float64
	// ContextFrames is how many samples before a run are averaged for the
	// motion gate. Zero disables stutter emission entirely.
	ContextFrames int
}

func DefaultOptions() Options {
	return Options{
		EMAAlpha:             0.1,
		DuplicateThreshold:   0.1,
		AbsoluteDuplicateMax: 0.1,
		MotionThreshold:      2.0,
		ContextFrames:        5,
	}
}

func (o Options) Validate() error {
	switch {
	case o.EMAAlpha <= 0 || o.EMAAlpha > 1:
		return fmt.Errorf("%w: ema alpha %v not in (0, 1]", ErrInvalidOptions, o.EMAAlpha)
	case o.DuplicateThreshold <= 0:
		return fmt.Errorf("%w: duplicate threshold %v must be positive", ErrInvalidOptions, o.DuplicateThreshold)
	case o.AbsoluteDuplicateMax <= 0:
		return fmt.Errorf("%w: absolute duplicate max %v must be positive", ErrInvalidOptions, o.AbsoluteDuplicateMax)
	case o.MotionThreshold < 0:
		return fmt.Errorf("%w: motion threshold %v must not be negative", ErrInvalidOptions, o.MotionThreshold)
	case o.ContextFrames < 0:
		return fmt.Errorf("%w: context frames %d must not be negative", ErrInvalidOptions, o.ContextFrames)
	}
	return nil
}

// Result bundles the aggregate stats with the ordered stutter events and
// the raw effective frame time sequence they were derived from.
type Result struct {
	Stats      FrameTimeStats
	Events     []StutterEvent
	Frametimes []float64
}

// Analyze runs the full pipeline over a frame source: motion scoring,
// adaptive duplicate classification, run aggregation and statistics. The
// source is consumed to exhaustion; a decode failure mid-stream ends the
// scan and the prefix read so far is analyzed.
func Analyze(ctx context.Context, src FrameSource, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	fps := src.FPS()
	if fps <= 0 {
		fps = 60.0
	}
	frameDurationMs := 1000.0 / fps

	scorer := NewMotionScorer()

	first, err := src.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotReadFrames, err)
	}
	scorer.Score(first)

	framesRead := 1
	var samples []float64
	for {
		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Operate on the prefix decoded so far.
			break
		}
		if sample, ok := scorer.Score(frame); ok {
			samples = append(samples, sample)
		}
		framesRead++
	}

	if len(samples) == 0 {
		return nil, ErrNoFrameData
	}

	totalFrames := src.FrameCount()
	if totalFrames <= 0 {
		totalFrames = framesRead
	}

	classifier := NewDuplicateClassifier(opts.EMAAlpha, opts.DuplicateThreshold, opts.AbsoluteDuplicateMax)
	duplicates := classifier.ClassifyAll(samples)

	detector := runDetector{
		frameDurationMs: frameDurationMs,
		motionThreshold: opts.MotionThreshold,
		contextFrames:   opts.ContextFrames,
	}
	frametimes, events := detector.run(samples, duplicates)

	stats := computeStats(frametimes, duplicates, events, fps, totalFrames)

	return &Result{
		Stats:      stats,
		Events:     events,
		Frametimes: frametimes,
	}, nil
}
