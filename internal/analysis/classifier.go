package analysis

// DuplicateClassifier flags frame transitions that delivered no new visual
// content. The threshold adapts to recent motion through an exponential
// moving average; an absolute ceiling guards against slow scene-wide drift
// inflating the adaptive baseline.
type DuplicateClassifier struct {
	alpha       float64
	ratio       float64
	absoluteMax float64
	ema         float64
	seeded      bool
}

func NewDuplicateClassifier(alpha, ratio, absoluteMax float64) *DuplicateClassifier {
	return &DuplicateClassifier{alpha: alpha, ratio: ratio, absoluteMax: absoluteMax}
}

// Classify folds one motion sample into the EMA state and reports whether
// the transition is a duplicate. The sample contributes to its own
// baseline before the check, so flags are strictly order dependent.
func (c *DuplicateClassifier) Classify(sample float64) bool {
	if !c.seeded {
		c.ema = sample
		if c.ema == 0 {
			// Avoid a degenerate threshold when the stream opens static.
			c.ema = 1.0
		}
		c.seeded = true
	}

	c.ema = c.alpha*sample + (1-c.alpha)*c.ema

	baseline := c.ema
	if baseline < 0.5 {
		baseline = 0.5
	}
	return sample < c.ratio*baseline && sample < c.absoluteMax
}

// ClassifyAll runs the fold over a full sample sequence.
func (c *DuplicateClassifier) ClassifyAll(samples []float64) []bool {
	flags := make([]bool, len(samples))
	for i, d := range samples {
		flags[i] = c.Classify(d)
	}
	return flags
}
