package analysis

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMotionScorerFirstFrameHasNoSample(t *testing.T) {
	s := NewMotionScorer()

	_, ok := s.Score(uniformFrame(100))
	assert.False(t, ok)

	sample, ok := s.Score(uniformFrame(100))
	assert.True(t, ok)
	assert.InDelta(t, 0.0, sample, 1e-9)
}

func TestMotionScorerUniformDifference(t *testing.T) {
	s := NewMotionScorer()
	s.Score(uniformFrame(100))

	sample, ok := s.Score(uniformFrame(130))
	assert.True(t, ok)
	// Flat frames survive downsampling unchanged, so the mean absolute
	// luminance difference is exactly the value step.
	assert.InDelta(t, 30.0, sample, 0.01)
}

func TestMotionScorerDownsamplesLargeFrames(t *testing.T) {
	s := NewMotionScorer()

	black := image.NewNRGBA(image.Rect(0, 0, 1280, 720))
	for i := 3; i < len(black.Pix); i += 4 {
		black.Pix[i] = 255
	}
	s.Score(black)

	// Right half white: roughly half the pixels change by 255.
	half := image.NewNRGBA(image.Rect(0, 0, 1280, 720))
	for y := 0; y < 720; y++ {
		for x := 0; x < 1280; x++ {
			c := color.NRGBA{A: 255}
			if x >= 640 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			half.SetNRGBA(x, y, c)
		}
	}

	sample, ok := s.Score(half)
	assert.True(t, ok)
	assert.InDelta(t, 127.5, sample, 3.0)
}

func TestMotionScorerIncreasesWithChange(t *testing.T) {
	small := NewMotionScorer()
	small.Score(uniformFrame(100))
	smallSample, _ := small.Score(uniformFrame(110))

	large := NewMotionScorer()
	large.Score(uniformFrame(100))
	largeSample, _ := large.Score(uniformFrame(180))

	assert.Greater(t, largeSample, smallSample)
}
