// Package encoder runs ffmpeg as a supervised child process.
//
// Process blocks until the child exits, is cancelled through its context or
// runs past the configured timeout. On timeout the child is sent an interrupt
// and killed if it is still alive after the kill grace period. Its stdout and
// stderr are drained concurrently into the debug log and never parsed.
package encoder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/semaphore"

	"github.com/ArnabMallick12/Video-Editor/internal/apperr"
	"github.com/ArnabMallick12/Video-Editor/internal/filter"
)

const (
	DefaultFfmpegBin  = "ffmpeg"
	DefaultFfprobeBin = "ffprobe"
	DefaultKillGrace  = 5 * time.Second
)

// Config controls how encoder processes are started and supervised.
type Config struct {
	FfmpegBinPath  string
	FfprobeBinPath string
	// Timeout bounds a single encoder run. Zero disables the bound.
	Timeout time.Duration
	// KillGrace is how long an interrupted child may take to exit before it
	// is killed.
	KillGrace time.Duration
	// MaxConcurrent caps simultaneously running encoders. Zero is unlimited.
	MaxConcurrent int64
}

// Job is one encoder invocation.
type Job struct {
	InputPath  string
	OutputPath string
	Plan       filter.Plan
	// Muted is carried for parity with the request but does not change the
	// invocation: audio is always stream copied.
	Muted bool
}

// Args returns the ffmpeg argument vector for job. The order is fixed:
// input, trim, filter, audio codec, output.
func Args(job Job) []string {
	args := []string{"-i", job.InputPath}
	args = append(args, job.Plan.Trim.Args()...)
	if vf := job.Plan.FilterArg(); vf != "" {
		args = append(args, "-vf", vf)
	}
	return append(args, "-codec:a", "copy", job.OutputPath)
}

// Processor runs encoder jobs.
type Processor struct {
	cfg    Config
	slots  *semaphore.Weighted
	logger *slog.Logger
}

// New returns a Processor. Empty binary paths are resolved from PATH.
func New(cfg Config, logger *slog.Logger) *Processor {
	if cfg.FfmpegBinPath == "" {
		cfg.FfmpegBinPath = DefaultFfmpegBin
	}
	if cfg.FfprobeBinPath == "" {
		cfg.FfprobeBinPath = DefaultFfprobeBin
	}
	if cfg.KillGrace <= 0 {
		cfg.KillGrace = DefaultKillGrace
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Processor{cfg: cfg, logger: logger}
	if cfg.MaxConcurrent > 0 {
		p.slots = semaphore.NewWeighted(cfg.MaxConcurrent)
	}
	return p
}

// Process runs job to completion. Errors are *apperr.ProcessingError for a
// failed or timed out run and *apperr.ResourceNotFoundError when the encoder
// binary cannot be found.
func (p *Processor) Process(ctx context.Context, job Job) error {
	if p.slots != nil {
		if err := p.slots.Acquire(ctx, 1); err != nil {
			return &apperr.ProcessingError{ExitCode: -1, Err: err}
		}
		defer p.slots.Release(1)
	}

	runCtx := ctx
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	args := Args(job)
	logger := p.logger.With(slog.String("output", job.OutputPath))
	logger.Info("starting encoder", slog.String("bin", p.cfg.FfmpegBinPath), slog.Any("args", args))

	stdout := newLineWriter(logger, "stdout")
	stderr := newLineWriter(logger, "stderr")

	cmd := exec.CommandContext(runCtx, p.cfg.FfmpegBinPath, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = p.cfg.KillGrace

	start := time.Now()
	err := cmd.Run()
	stdout.Flush()
	stderr.Flush()

	if err != nil && (runCtx.Err() != nil || !exitedCleanly(cmd, err)) {
		return p.classify(ctx, runCtx, err)
	}

	info, statErr := os.Stat(job.OutputPath)
	if statErr != nil {
		return &apperr.ProcessingError{ExitCode: 0, Err: fmt.Errorf("no output produced: %w", statErr)}
	}

	logger.Info("encoder finished",
		slog.Duration("took", time.Since(start)),
		slog.String("size", humanize.Bytes(uint64(info.Size()))))

	return nil
}

func (p *Processor) classify(ctx, runCtx context.Context, err error) error {
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return &apperr.ResourceNotFoundError{Resource: "encoder binary", Path: p.cfg.FfmpegBinPath, Err: err}
	case errors.Is(err, fs.ErrPermission):
		return &apperr.PermissionError{Path: p.cfg.FfmpegBinPath, Err: err}
	case ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded):
		p.logger.Warn("encoder timed out", slog.Duration("timeout", p.cfg.Timeout))
		return &apperr.ProcessingError{ExitCode: -1, TimedOut: true, Err: runCtx.Err()}
	case ctx.Err() != nil:
		return &apperr.ProcessingError{ExitCode: -1, Err: ctx.Err()}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &apperr.ProcessingError{ExitCode: exitErr.ExitCode()}
	}
	return &apperr.ProcessingError{ExitCode: -1, Err: err}
}

// exitedCleanly reports a zero exit whose output streams were still held open
// by a grandchild when WaitDelay expired.
func exitedCleanly(cmd *exec.Cmd, err error) bool {
	return errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil && cmd.ProcessState.Success()
}
