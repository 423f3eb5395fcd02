// Package filter turns edit options into the filter graph and trim directives
// handed to the encoder.
package filter

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ArnabMallick12/Video-Editor/internal/apperr"
	"github.com/ArnabMallick12/Video-Editor/internal/types/edit"
)

// StageSeparator joins filter graph stages into one argument.
const StageSeparator = ","

// Trim limits the read window of the input. Zero values are omitted.
type Trim struct {
	Start    float64
	Duration float64
}

// Args renders the trim as top level encoder options.
func (t Trim) Args() []string {
	var args []string
	if t.Start > 0 {
		args = append(args, "-ss", FormatSeconds(t.Start))
	}
	if t.Duration > 0 {
		args = append(args, "-t", FormatSeconds(t.Duration))
	}
	return args
}

// Plan is everything the encoder needs besides input and output paths.
type Plan struct {
	Stages []string
	Trim   Trim
}

// FilterArg joins the stages. It returns "" when there are none, in which case
// no filter argument must be passed at all.
func (p Plan) FilterArg() string {
	return strings.Join(p.Stages, StageSeparator)
}

// stage renders one filter graph stage. ok is false when the options do not
// call for it.
type stage func(opts edit.EditOptions, fontPath string) (rendered string, ok bool)

// stages is the fixed order in which filter stages are emitted. New stages
// are appended after the overlay.
var stages = []stage{
	drawTextStage,
}

// Builder produces Plans. The font is only required when an overlay is drawn.
type Builder struct {
	fontPath string
}

// NewBuilder returns a Builder that draws text with the font at fontPath.
func NewBuilder(fontPath string) *Builder {
	return &Builder{fontPath: fontPath}
}

// Build returns the plan for opts.
func (b *Builder) Build(opts edit.EditOptions) (Plan, error) {
	if opts.Overlay.Enabled() {
		if err := b.checkFont(); err != nil {
			return Plan{}, err
		}
	}

	plan := Plan{Trim: trimFor(opts)}
	for _, s := range stages {
		if rendered, ok := s(opts, b.fontPath); ok {
			plan.Stages = append(plan.Stages, rendered)
		}
	}

	return plan, nil
}

func (b *Builder) checkFont() error {
	info, err := os.Stat(b.fontPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &apperr.ResourceNotFoundError{Resource: "font", Path: b.fontPath}
	case err != nil:
		return &apperr.ResourceNotFoundError{Resource: "font", Path: b.fontPath, Err: err}
	case info.IsDir():
		return &apperr.ResourceNotFoundError{Resource: "font", Path: b.fontPath, Err: errors.New("is a directory")}
	}
	return nil
}

func trimFor(opts edit.EditOptions) Trim {
	var t Trim
	if opts.TrimStart > 0 {
		t.Start = opts.TrimStart
	}
	if opts.TrimEnd > opts.TrimStart {
		t.Duration = opts.TrimEnd - opts.TrimStart
	}
	return t
}

func drawTextStage(opts edit.EditOptions, fontPath string) (string, bool) {
	o := opts.Overlay
	if !o.Enabled() {
		return "", false
	}

	rendered := fmt.Sprintf(
		"drawtext=fontfile='%s':text='%s':fontcolor=%s:fontsize=%d:x=(w*%s/100)-text_w/2:y=(h*%s/100)-text_h/2",
		EscapePath(fontPath),
		EscapeText(o.Text),
		strings.TrimPrefix(o.Color, "#"),
		o.SizePx,
		formatNumber(o.Position.X),
		formatNumber(o.Position.Y),
	)
	return rendered, true
}

// drawtext expands % sequences in its text, so a literal % is escaped too.
var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`:`, `\:`,
	`%`, `\%`,
)

// EscapeText escapes user text for use inside a quoted filter graph value.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

var pathEscaper = strings.NewReplacer(
	`'`, `\'`,
	`:`, `\:`,
)

// EscapePath escapes a filesystem path for the filter graph. Backslash
// separators are turned into forward slashes first so Windows paths survive.
func EscapePath(p string) string {
	return pathEscaper.Replace(strings.ReplaceAll(p, `\`, "/"))
}

// FormatSeconds renders a duration in seconds rounded to milliseconds.
func FormatSeconds(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
