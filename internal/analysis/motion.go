package analysis

import (
	"image"

	"github.com/disintegration/imaging"
)

// Frames are scored on a fixed small canvas to suppress sensor and encoder
// noise and to bound the per-frame cost.
const (
	scoreWidth  = 320
	scoreHeight = 180
)

// MotionScorer computes the mean absolute luminance difference between
// consecutive frames, downsampled to the scoring canvas. It keeps the
// previous frame's luminance map as rolling state.
type MotionScorer struct {
	prev []float64
}

func NewMotionScorer() *MotionScorer {
	return &MotionScorer{}
}

// Score consumes the next frame and returns the motion sample against its
// predecessor. ok is false for the first frame, which has no predecessor
// and contributes no sample.
func (s *MotionScorer) Score(frame image.Image) (sample float64, ok bool) {
	lum := luminance(imaging.Resize(frame, scoreWidth, scoreHeight, imaging.Linear))
	if s.prev == nil {
		s.prev = lum
		return 0, false
	}

	var sum float64
	for i := range lum {
		d := lum[i] - s.prev[i]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	s.prev = lum
	return sum / float64(len(lum)), true
}

// luminance flattens the downsampled frame into a row-major luminance map
// using the BT.601 weights.
func luminance(img *image.NRGBA) []float64 {
	b := img.Bounds()
	out := make([]float64, 0, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < b.Dx(); x++ {
			p := row[x*4 : x*4+3]
			out = append(out, 0.299*float64(p[0])+0.587*float64(p[1])+0.114*float64(p[2]))
		}
	}
	return out
}
