package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifierSeedsFromFirstSample(t *testing.T) {
	c := NewDuplicateClassifier(0.1, 0.1, 0.1)

	// First sample of 4.0 seeds the EMA at 4.0; 4.0 is nowhere near the
	// adaptive threshold, so it is not a duplicate.
	assert.False(t, c.Classify(4.0))
	assert.InDelta(t, 4.0, c.ema, 1e-9)
}

func TestClassifierZeroFirstSampleSeedsAtOne(t *testing.T) {
	c := NewDuplicateClassifier(0.1, 0.1, 0.1)

	// A zero first sample would collapse the threshold to zero and make
	// the opening frame un-classifiable; the seed falls back to 1.0.
	assert.True(t, c.Classify(0.0))
	assert.InDelta(t, 0.9, c.ema, 1e-9)
}

func TestClassifierThresholdFloor(t *testing.T) {
	c := NewDuplicateClassifier(0.1, 0.1, 0.2)

	// Drive the EMA far below the 0.5 floor with a long static period.
	for i := 0; i < 200; i++ {
		c.Classify(0.0)
	}
	assert.Less(t, c.ema, 0.5)

	// With the floor active the adaptive threshold is 0.1*0.5 = 0.05.
	assert.True(t, c.Classify(0.04))
	assert.False(t, c.Classify(0.06))
}

func TestClassifierAbsoluteCeiling(t *testing.T) {
	c := NewDuplicateClassifier(0.1, 0.1, 0.1)

	// Heavy motion inflates the adaptive threshold to ~1.0, but the
	// absolute ceiling still rejects a 0.5 sample.
	for i := 0; i < 100; i++ {
		c.Classify(10.0)
	}
	assert.False(t, c.Classify(0.5))

	// A truly static transition passes both gates.
	assert.True(t, c.Classify(0.05))
}

func TestClassifyAll(t *testing.T) {
	samples := []float64{8.0, 8.0, 0.6, 0.0, 0.0, 8.0}

	flags := NewDuplicateClassifier(0.1, 0.1, 0.1).ClassifyAll(samples)

	// 0.6 sits under the adaptive threshold but above the absolute
	// ceiling; only the exact-zero transitions are duplicates.
	assert.Equal(t, []bool{false, false, false, true, true, false}, flags)
}

func TestClassifierIsStateDependent(t *testing.T) {
	// The same sample classifies differently depending on the motion
	// history folded into the EMA.
	static := NewDuplicateClassifier(0.1, 0.1, 0.1)
	for i := 0; i < 200; i++ {
		static.Classify(0.0)
	}
	assert.False(t, static.Classify(0.06))

	moving := NewDuplicateClassifier(0.1, 0.1, 0.1)
	for i := 0; i < 200; i++ {
		moving.Classify(1.0)
	}
	assert.True(t, moving.Classify(0.06))
}
