package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"aircheq-podcast/internal/logging"
	"aircheq-podcast/internal/media/ffprobe"
	"aircheq-podcast/internal/services"
)

const (
	defaultFFmpegBinary = "ffmpeg"
	stageName           = "convert"
	maxToolOutput       = 2048
)

// Converter repackages src into dst. Both paths must be absolute.
type Converter interface {
	Convert(ctx context.Context, src, dst string) error
}

type commandRunner func(ctx context.Context, name string, args ...string) error

type prober func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Options configures an FFmpeg converter.
type Options struct {
	FFmpegBinary  string
	FFprobeBinary string
	// Timeout bounds a single ffmpeg invocation. Zero disables the bound.
	Timeout time.Duration
	// Verify runs ffprobe on the output before it replaces dst.
	Verify bool
}

// FFmpeg converts MPEG-TS recordings to MP4 by stream copy.
type FFmpeg struct {
	opts   Options
	logger *slog.Logger
	run    commandRunner
	probe  prober
}

// NewFFmpeg constructs a converter backed by the ffmpeg binary.
func NewFFmpeg(opts Options, logger *slog.Logger) *FFmpeg {
	if strings.TrimSpace(opts.FFmpegBinary) == "" {
		opts.FFmpegBinary = defaultFFmpegBinary
	}
	return &FFmpeg{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "converter"),
		run:    defaultCommandRunner,
		probe:  ffprobe.Inspect,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (f *FFmpeg) WithCommandRunner(r commandRunner) {
	if f != nil && r != nil {
		f.run = r
	}
}

// WithProber allows injecting a custom ffprobe implementation for tests.
func (f *FFmpeg) WithProber(p prober) {
	if f != nil && p != nil {
		f.probe = p
	}
}

// Convert remuxes src into an MP4 at dst.
func (f *FFmpeg) Convert(ctx context.Context, src, dst string) error {
	if f == nil {
		return services.Wrap(services.ErrConversion, stageName, "init", "converter not initialized", nil)
	}
	if !filepath.IsAbs(src) || !filepath.IsAbs(dst) {
		return services.Wrap(services.ErrConversion, stageName, "validate",
			fmt.Sprintf("paths must be absolute (src=%q dst=%q)", src, dst), nil)
	}
	if _, err := os.Stat(src); err != nil {
		return services.Wrap(services.ErrConversion, stageName, "stat source", "source not readable", err)
	}

	tmpPath := filepath.Join(filepath.Dir(dst), ".convert-"+filepath.Base(dst)+".tmp")
	args := BuildArgs(src, tmpPath)

	runCtx := ctx
	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}

	f.logger.Debug("executing ffmpeg",
		logging.String("source", src),
		logging.String("destination", dst),
		logging.String("args", strings.Join(args, " ")),
	)

	started := time.Now()
	if err := f.run(runCtx, f.opts.FFmpegBinary, args...); err != nil {
		_ = os.Remove(tmpPath)
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrConversion, stageName, "ffmpeg",
				fmt.Sprintf("timed out after %s", f.opts.Timeout), errors.Join(services.ErrTimeout, err))
		}
		return services.Wrap(services.ErrConversion, stageName, "ffmpeg", "ffmpeg exited with error", err)
	}

	info, err := os.Stat(tmpPath)
	if err != nil {
		return services.Wrap(services.ErrConversion, stageName, "verify output", "ffmpeg did not produce an output file", err)
	}
	if info.Size() == 0 {
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrConversion, stageName, "verify output", "ffmpeg produced an empty file", nil)
	}

	if f.opts.Verify {
		result, err := f.probe(ctx, f.opts.FFprobeBinary, tmpPath)
		if err == nil {
			err = result.ValidatePlayable()
		}
		if err != nil {
			_ = os.Remove(tmpPath)
			return services.Wrap(services.ErrConversion, stageName, "ffprobe", "output failed validation", err)
		}
		duration := result.DurationSeconds()
		if math.IsNaN(duration) {
			duration = 0
		}
		f.logger.Debug("repackaged output verified",
			logging.String("source", src),
			logging.Int("audio_streams", result.AudioStreamCount()),
			logging.Int("video_streams", result.VideoStreamCount()),
			logging.Any("duration_seconds", duration),
		)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrConversion, stageName, "rename", "failed to move output into place", err)
	}

	f.logger.Info("recording repackaged",
		logging.String(logging.FieldEventType, "convert_complete"),
		logging.String("source", src),
		logging.String("destination", dst),
		logging.Int64("size_bytes", info.Size()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// BuildArgs returns the ffmpeg arguments for a stream-copy remux of src into
// an MP4 at out. ffmpeg's default stream selection is kept.
func BuildArgs(src, out string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", src,
		"-c:v", "copy",
		"-c:a", "copy",
		"-f", "mp4",
		out,
	}
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, tail(strings.TrimSpace(string(output)), maxToolOutput))
	}
	return nil
}

// tail keeps the end of ffmpeg's output, where the actual error is printed.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
