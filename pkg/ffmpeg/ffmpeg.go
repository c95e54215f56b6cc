// Package ffmpeg shells out to ffmpeg/ffprobe for probing and transcoding.
// Binary paths are injected so the dependency resolver can point the engine
// at self-installed copies.
package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"video-trimmer/log"

	"go.uber.org/zap"
)

type Engine struct {
	FfmpegPath  string
	FfprobePath string
}

func New(ffmpegPath, ffprobePath string) *Engine {
	return &Engine{
		FfmpegPath:  ffmpegPath,
		FfprobePath: ffprobePath,
	}
}

// TrimSpec describes one cut. Start and End are in seconds.
type TrimSpec struct {
	Input  string
	Output string
	Start  float64
	End    float64
}

// PreviewSpec describes a browser-friendly transcode. Sources taller than
// MaxHeight are scaled down, everything else passes through at original size.
type PreviewSpec struct {
	Input     string
	Output    string
	MaxHeight int
	Bitrate   string
}

// ProbeDuration returns the container duration in seconds.
func (e *Engine) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, e.FfprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		log.GetLogger().Error("ffprobe duration failed", zap.Error(err), zap.String("path", path))
		return 0, fmt.Errorf("probe duration: %w", err)
	}
	return parseProbeDuration(string(output))
}

// ProbeResolution returns the width and height of the first video stream.
func (e *Engine) ProbeResolution(ctx context.Context, path string) (int, int, error) {
	cmd := exec.CommandContext(ctx, e.FfprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		log.GetLogger().Error("ffprobe resolution failed", zap.Error(err), zap.String("path", path))
		return 0, 0, fmt.Errorf("probe resolution: %w", err)
	}
	return parseProbeResolution(string(output))
}

// Trim re-encodes the [Start, End) range of the input to H.264/AAC.
func (e *Engine) Trim(ctx context.Context, spec TrimSpec) error {
	args := buildTrimArgs(spec)
	cmd := exec.CommandContext(ctx, e.FfmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.GetLogger().Error("ffmpeg trim failed",
			zap.Error(err),
			zap.String("input", spec.Input),
			zap.String("output", string(output)))
		return fmt.Errorf("ffmpeg trim: %w: %s", err, tail(output))
	}
	return nil
}

// TranscodePreview writes an H.264 preview of the input. The source is
// probed first so only videos taller than MaxHeight get scaled.
func (e *Engine) TranscodePreview(ctx context.Context, spec PreviewSpec) error {
	scale := false
	if spec.MaxHeight > 0 {
		_, height, err := e.ProbeResolution(ctx, spec.Input)
		if err == nil && height > spec.MaxHeight {
			scale = true
		}
	}

	args := buildPreviewArgs(spec, scale)
	cmd := exec.CommandContext(ctx, e.FfmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.GetLogger().Error("ffmpeg preview failed",
			zap.Error(err),
			zap.String("input", spec.Input),
			zap.String("output", string(output)))
		return fmt.Errorf("ffmpeg preview: %w: %s", err, tail(output))
	}
	return nil
}

func buildTrimArgs(spec TrimSpec) []string {
	return []string{
		"-y",
		"-ss", fmtSeconds(spec.Start),
		"-to", fmtSeconds(spec.End),
		"-i", spec.Input,
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-c:a", "aac",
		spec.Output,
	}
}

func buildPreviewArgs(spec PreviewSpec, scale bool) []string {
	args := []string{
		"-y",
		"-i", spec.Input,
	}
	if scale {
		// -2 keeps the width divisible by two for libx264
		args = append(args, "-vf", fmt.Sprintf("scale=-2:%d", spec.MaxHeight))
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-b:v", spec.Bitrate,
		"-c:a", "aac",
		"-movflags", "+faststart",
		spec.Output,
	)
	return args
}

func fmtSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}

func parseProbeDuration(raw string) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	duration, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", cleaned, err)
	}
	return duration, nil
}

func parseProbeResolution(raw string) (int, int, error) {
	cleaned := strings.TrimSpace(raw)
	// ffprobe can emit a trailing separator, e.g. "1920x1080x".
	cleaned = strings.TrimSuffix(cleaned, "x")
	parts := strings.Split(cleaned, "x")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected resolution %q", cleaned)
	}
	width, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("parse width %q: %w", parts[0], err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("parse height %q: %w", parts[1], err)
	}
	return width, height, nil
}

// tail keeps error messages readable when ffmpeg dumps its full log.
func tail(output []byte) string {
	const max = 512
	text := strings.TrimSpace(string(output))
	if len(text) <= max {
		return text
	}
	return "..." + text[len(text)-max:]
}
