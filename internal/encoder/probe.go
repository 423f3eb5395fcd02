package encoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strconv"
	"time"

	"github.com/ArnabMallick12/Video-Editor/internal/apperr"
)

// MediaInfo is the subset of ffprobe output the service cares about.
type MediaInfo struct {
	Duration time.Duration
	Width    int
	Height   int
	HasAudio bool
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// Probe reads container metadata of the media file at path.
func (p *Processor) Probe(ctx context.Context, path string) (MediaInfo, error) {
	cmd := exec.CommandContext(ctx, p.cfg.FfprobeBinPath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return MediaInfo{}, &apperr.ResourceNotFoundError{Resource: "probe binary", Path: p.cfg.FfprobeBinPath, Err: err}
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return MediaInfo{}, &apperr.ProcessingError{ExitCode: exitErr.ExitCode()}
		}
		return MediaInfo{}, &apperr.ProcessingError{ExitCode: -1, Err: err}
	}

	return parseProbe(out)
}

func parseProbe(out []byte) (MediaInfo, error) {
	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return MediaInfo{}, fmt.Errorf("decode ffprobe output: %w", err)
	}

	var info MediaInfo
	if parsed.Format.Duration != "" {
		seconds, err := strconv.ParseFloat(parsed.Format.Duration, 64)
		if err != nil {
			return MediaInfo{}, fmt.Errorf("parse duration %q: %w", parsed.Format.Duration, err)
		}
		info.Duration = time.Duration(seconds * float64(time.Second))
	}

	for _, s := range parsed.Streams {
		switch s.CodecType {
		case "video":
			if info.Width == 0 {
				info.Width, info.Height = s.Width, s.Height
			}
		case "audio":
			info.HasAudio = true
		}
	}

	return info, nil
}
