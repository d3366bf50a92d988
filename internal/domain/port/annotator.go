package port

import (
	"context"

	"github.com/framepulse/frametime-service/internal/analysis"
)

// Annotator renders a copy of the recording with stutter markers overlaid.
// It reports whether an output was produced; a result without stutter
// events yields none.
type Annotator interface {
	Annotate(ctx context.Context, inputPath, outputPath string, res *analysis.Result) (bool, error)
}
