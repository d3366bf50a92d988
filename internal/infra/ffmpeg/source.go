// Package ffmpeg adapts the external ffmpeg/ffprobe binaries to the
// domain ports: frame decoding for the analysis pipeline and filter-graph
// rendering for annotated output.
package ffmpeg

import (
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/framepulse/frametime-service/internal/analysis"
)

// Source streams decoded frames from a video file through an ffmpeg
// rawvideo pipe. It implements port.FrameSource.
type Source struct {
	cmd        *exec.Cmd
	stdout     io.ReadCloser
	width      int
	height     int
	fps        float64
	frameCount int
	logger     *zap.Logger
}

// OpenSource probes the container and starts the decode pipe. The process
// is bound to ctx and killed when it is cancelled.
func OpenSource(ctx context.Context, path string, logger *zap.Logger) (*Source, error) {
	info, err := probe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", analysis.ErrSourceUnavailable, err)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-v", "error",
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg: %v", analysis.ErrSourceUnavailable, err)
	}

	logger.Debug("ffmpeg decode started",
		zap.String("path", path),
		zap.Int("width", info.width),
		zap.Int("height", info.height),
		zap.Float64("fps", info.fps),
		zap.Int("frame_count", info.frameCount),
	)

	return &Source{
		cmd:        cmd,
		stdout:     stdout,
		width:      info.width,
		height:     info.height,
		fps:        info.fps,
		frameCount: info.frameCount,
		logger:     logger,
	}, nil
}

// Next reads one rgb24 frame off the pipe. It returns io.EOF once ffmpeg
// closes its end.
func (s *Source) Next(_ context.Context) (image.Image, error) {
	raw := make([]byte, s.width*s.height*3)
	if _, err := io.ReadFull(s.stdout, raw); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame: %w", err)
	}

	img := image.NewNRGBA(image.Rect(0, 0, s.width, s.height))
	for src, dst := 0, 0; src < len(raw); src, dst = src+3, dst+4 {
		img.Pix[dst] = raw[src]
		img.Pix[dst+1] = raw[src+1]
		img.Pix[dst+2] = raw[src+2]
		img.Pix[dst+3] = 0xff
	}
	return img, nil
}

func (s *Source) FPS() float64 { return s.fps }

func (s *Source) FrameCount() int { return s.frameCount }

func (s *Source) Close() error {
	s.stdout.Close()
	if err := s.cmd.Wait(); err != nil {
		// The pipe is routinely closed before ffmpeg finishes writing;
		// a broken-pipe exit is not a failure of the analysis.
		s.logger.Debug("ffmpeg exited with error", zap.Error(err))
	}
	return nil
}

type probeInfo struct {
	width      int
	height     int
	fps        float64
	frameCount int
}

func probe(ctx context.Context, path string) (probeInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,nb_frames",
		"-of", "csv=p=0",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return probeInfo{}, fmt.Errorf("ffprobe: %w", err)
	}

	fields := strings.Split(strings.TrimSpace(string(output)), ",")
	if len(fields) < 3 {
		return probeInfo{}, fmt.Errorf("ffprobe: unexpected output %q", output)
	}

	info := probeInfo{}
	if info.width, err = strconv.Atoi(fields[0]); err != nil {
		return probeInfo{}, fmt.Errorf("parse width: %w", err)
	}
	if info.height, err = strconv.Atoi(fields[1]); err != nil {
		return probeInfo{}, fmt.Errorf("parse height: %w", err)
	}
	info.fps = parseRate(fields[2])
	if len(fields) > 3 {
		// nb_frames is "N/A" for many containers; 0 lets the analyzer
		// fall back to counting decoded frames.
		info.frameCount, _ = strconv.Atoi(fields[3])
	}
	if info.frameCount == 0 && info.fps > 0 {
		if dur, derr := probeDuration(ctx, path); derr == nil && dur > 0 {
			info.frameCount = int(dur * info.fps)
		}
	}
	if info.width <= 0 || info.height <= 0 {
		return probeInfo{}, fmt.Errorf("ffprobe: invalid dimensions %dx%d", info.width, info.height)
	}
	return info, nil
}

func probeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w", err)
	}
	return strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
}

// parseRate converts an ffprobe rational like "30000/1001" to a float,
// returning 0 when unparsable so callers can apply their fallback.
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
