package analysis

import (
	"context"
	"image"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	frames []image.Image
	idx    int
	fps    float64
	count  int
}

func (s *stubSource) Next(_ context.Context) (image.Image, error) {
	if s.idx >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.idx]
	s.idx++
	return f, nil
}

func (s *stubSource) FPS() float64   { return s.fps }
func (s *stubSource) FrameCount() int { return s.count }
func (s *stubSource) Close() error   { return nil }

// uniformFrame builds a flat gray frame whose luminance equals v, so the
// motion sample between two frames is exactly their value difference.
func uniformFrame(v uint8) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 320, 180))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = v
		img.Pix[i+1] = v
		img.Pix[i+2] = v
		img.Pix[i+3] = 255
	}
	return img
}

func framesOf(values ...uint8) []image.Image {
	frames := make([]image.Image, len(values))
	for i, v := range values {
		frames[i] = uniformFrame(v)
	}
	return frames
}

func TestAnalyzeStaticSceneHasNoStutters(t *testing.T) {
	// 100 identical frames: every transition is a duplicate, but none of
	// them interrupts motion, so the motion gate suppresses all events.
	values := make([]uint8, 100)
	for i := range values {
		values[i] = 128
	}
	src := &stubSource{frames: framesOf(values...), fps: 30.0, count: 100}

	res, err := Analyze(context.Background(), src, DefaultOptions())
	require.NoError(t, err)

	assert.Empty(t, res.Events)
	assert.Equal(t, 99, res.Stats.DuplicateFrames)
	assert.InDelta(t, 1.0, res.Stats.DuplicateRatio, 1e-9)
	// The whole clip collapses into one logical frame.
	require.Len(t, res.Frametimes, 1)
	assert.InDelta(t, 100*frameDuration30, res.Frametimes[0], 1e-6)
}

func TestAnalyzeMotionInterruptedByDuplicates(t *testing.T) {
	// A hundred frames of strong alternating motion, three exact repeats,
	// then motion resumes to close the run.
	values := make([]uint8, 0, 105)
	v := uint8(100)
	for i := 0; i < 100; i++ {
		values = append(values, v)
		if v == 100 {
			v = 140
		} else {
			v = 100
		}
	}
	last := values[len(values)-1]
	values = append(values, last, last, last, 100, 140)
	src := &stubSource{frames: framesOf(values...), fps: 30.0, count: len(values)}

	res, err := Analyze(context.Background(), src, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, res.Events, 1)
	ev := res.Events[0]
	assert.Equal(t, 99, ev.FrameIndex)
	assert.Equal(t, 3, ev.DuplicateCount)
	assert.InDelta(t, 4*frameDuration30, ev.FrametimeMs, 1e-6)
	assert.InDelta(t, 40.0, ev.MotionBefore, 0.5)

	// Accounting: every transition is either absorbed into a run or a
	// standalone effective frame, plus the flushed tail.
	assert.Equal(t, len(values), len(res.Frametimes)+res.Stats.DuplicateFrames)

	var sum float64
	for _, ft := range res.Frametimes {
		sum += ft
	}
	assert.InDelta(t, float64(len(values))*frameDuration30, sum, 1e-3)

	assert.Greater(t, res.Stats.StutterScore, 0.0)
	assert.LessOrEqual(t, res.Stats.StutterScore, 100.0)
}

func TestAnalyzeEmptySource(t *testing.T) {
	src := &stubSource{fps: 30.0}

	_, err := Analyze(context.Background(), src, DefaultOptions())
	assert.ErrorIs(t, err, ErrCannotReadFrames)
}

func TestAnalyzeSingleFrameSource(t *testing.T) {
	// A single frame allows no transitions; this is a distinct failure,
	// not a zero-valued stats object.
	src := &stubSource{frames: framesOf(128), fps: 30.0, count: 1}

	_, err := Analyze(context.Background(), src, DefaultOptions())
	assert.ErrorIs(t, err, ErrNoFrameData)
}

func TestAnalyzeFallsBackTo60FPS(t *testing.T) {
	src := &stubSource{frames: framesOf(100, 140, 100), fps: 0, count: 3}

	res, err := Analyze(context.Background(), src, DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 60.0, res.Stats.FPS, 1e-9)
}

func TestAnalyzeOptionValidation(t *testing.T) {
	src := &stubSource{frames: framesOf(100, 140, 100), fps: 30.0, count: 3}

	for _, opts := range []Options{
		{EMAAlpha: 0, DuplicateThreshold: 0.1, AbsoluteDuplicateMax: 0.1, MotionThreshold: 2, ContextFrames: 5},
		{EMAAlpha: 1.5, DuplicateThreshold: 0.1, AbsoluteDuplicateMax: 0.1, MotionThreshold: 2, ContextFrames: 5},
		{EMAAlpha: 0.1, DuplicateThreshold: -0.1, AbsoluteDuplicateMax: 0.1, MotionThreshold: 2, ContextFrames: 5},
		{EMAAlpha: 0.1, DuplicateThreshold: 0.1, AbsoluteDuplicateMax: 0, MotionThreshold: 2, ContextFrames: 5},
		{EMAAlpha: 0.1, DuplicateThreshold: 0.1, AbsoluteDuplicateMax: 0.1, MotionThreshold: -1, ContextFrames: 5},
		{EMAAlpha: 0.1, DuplicateThreshold: 0.1, AbsoluteDuplicateMax: 0.1, MotionThreshold: 2, ContextFrames: -1},
	} {
		_, err := Analyze(context.Background(), src, opts)
		assert.ErrorIs(t, err, ErrInvalidOptions)
	}
}

func TestAnalyzeZeroContextFramesNeverEmits(t *testing.T) {
	values := []uint8{100, 140, 100, 140, 100, 140, 100, 140, 140, 140, 140, 100, 140}
	src := &stubSource{frames: framesOf(values...), fps: 30.0, count: len(values)}

	opts := DefaultOptions()
	opts.ContextFrames = 0

	res, err := Analyze(context.Background(), src, opts)
	require.NoError(t, err)
	assert.Empty(t, res.Events)
	assert.Equal(t, 3, res.Stats.DuplicateFrames)
}
