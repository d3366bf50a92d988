package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/framepulse/frametime-service/internal/analysis"
)

const (
	barHeight      = 40
	timelineHeight = 8
)

// Annotator overlays a header bar, a progress timeline and per-event
// stutter markers onto the source video via an ffmpeg filter graph.
type Annotator struct {
	logger *zap.Logger
}

func NewAnnotator(logger *zap.Logger) *Annotator {
	return &Annotator{logger: logger}
}

// Annotate renders the annotated copy. With no stutter events there is
// nothing to mark and the call is a no-op returning false.
func (a *Annotator) Annotate(ctx context.Context, inputPath, outputPath string, res *analysis.Result) (bool, error) {
	if len(res.Events) == 0 {
		return false, nil
	}

	filters := FilterGraph(res.Stats, res.Events)
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", inputPath,
		"-vf", strings.Join(filters, ","),
		"-c:a", "copy",
		outputPath,
	)

	a.logger.Info("rendering annotated video",
		zap.String("output", outputPath),
		zap.Int("stutter_markers", len(res.Events)),
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return false, fmt.Errorf("ffmpeg annotate: %w, output: %s", err, string(output))
	}
	return true, nil
}

// FilterGraph builds the annotation filter chain. It is a pure function of
// the analysis result so it can be inspected without running ffmpeg.
func FilterGraph(stats analysis.FrameTimeStats, events []analysis.StutterEvent) []string {
	duration := stats.Duration

	filters := []string{
		fmt.Sprintf("pad=iw:ih+%d+%d:0:%d:color=black", barHeight, timelineHeight, barHeight),
		fmt.Sprintf("drawbox=x=0:y=0:w=iw:h=%d:color=0x222222:t=fill", barHeight),
		fmt.Sprintf("drawbox=x=0:y=ih-%d:w=iw:h=%d:color=0x333333:t=fill", timelineHeight, timelineHeight),
		fmt.Sprintf("drawbox=x=0:y=ih-%d:w='(t/%s)*iw':h=%d:color=0x666666:t=fill",
			timelineHeight, ftoa(duration), timelineHeight),
	}

	// Timeline ticks, one per event, width scaled by severity.
	for _, ev := range events {
		severity := int(ev.FrametimeMs / 10)
		if severity < 3 {
			severity = 3
		}
		filters = append(filters, fmt.Sprintf(
			"drawbox=x=(%s/%s)*iw:y=ih-%d:w=%d:h=%d:color=red:t=fill",
			ftoa(ev.Timestamp), ftoa(duration), timelineHeight, severity, timelineHeight))
	}

	avgFPS, onePctFPS := 0.0, 0.0
	if stats.AvgFrametime > 0 {
		avgFPS = 1000.0 / stats.AvgFrametime
	}
	if stats.OnePercentLow > 0 {
		onePctFPS = 1000.0 / stats.OnePercentLow
	}
	filters = append(filters, fmt.Sprintf(
		"drawtext=text='Avg %.0f FPS | 1%% Low %.0f FPS | %d stutters':fontsize=18:fontcolor=0x888888:x=10:y=(%d-text_h)/2",
		avgFPS, onePctFPS, len(events), barHeight))

	// Flash a border, header banner and label while each stutter is on
	// screen.
	frameDuration := 1.0 / stats.FPS
	for _, ev := range events {
		end := ev.Timestamp + float64(ev.DuplicateCount)*frameDuration
		enable := fmt.Sprintf("enable='between(t,%s,%s)'", ftoa(ev.Timestamp), ftoa(end))
		filters = append(filters,
			fmt.Sprintf("drawbox=x=2:y=%d+2:w=iw-4:h=ih-%d-%d-4:color=red:t=4:%s",
				barHeight, barHeight, timelineHeight, enable),
			fmt.Sprintf("drawbox=x=0:y=0:w=iw:h=%d:color=0x880000:t=fill:%s", barHeight, enable),
			fmt.Sprintf("drawtext=text='STUTTER %.0fms (%d dup)':fontsize=22:fontcolor=white:x=10:y=(%d-text_h)/2:%s",
				ev.FrametimeMs, ev.DuplicateCount, barHeight, enable),
		)
	}

	return filters
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
