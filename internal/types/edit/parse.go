package edit

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ArnabMallick12/Video-Editor/internal/apperr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their wire name rather than the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// Position presets understood in place of a JSON object.
var namedPositions = map[string]Position{
	"top":    {X: 50, Y: 10},
	"center": {X: 50, Y: 50},
	"bottom": {X: 50, Y: 90},
}

// Parse normalizes raw request fields into EditOptions. Only a missing or
// unusable source URL is an error; every other field falls back to its
// default when absent or malformed.
func Parse(fields Fields) (EditOptions, error) {
	opts := EditOptions{
		SourceURL: strings.TrimSpace(fields.Get(FieldSourceURL, FieldVideoURLAlias)),
		TrimStart: parseSeconds(fields.Get(FieldTrimStart)),
		TrimEnd:   parseSeconds(fields.Get(FieldTrimEnd)),
		Muted:     parseBool(fields.Get(FieldMuted, FieldMutedAlias)),
		Overlay: Overlay{
			Text:     strings.TrimSpace(fields.Get(FieldOverlayText)),
			Position: parsePosition(fields.Get(FieldOverlayPosition)),
			Color:    parseColor(fields.Get(FieldOverlayColor)),
			SizePx:   parseSize(fields.Get(FieldOverlaySize)),
		},
	}

	if err := validate.Struct(opts); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return EditOptions{}, &apperr.ValidationError{
				Field:  ve[0].Field(),
				Reason: describeTag(ve[0].Tag()),
			}
		}
		return EditOptions{}, &apperr.ValidationError{Field: FieldSourceURL, Reason: err.Error()}
	}

	return opts, nil
}

func describeTag(tag string) string {
	switch tag {
	case "required":
		return "field is required"
	case "http_url":
		return "must be an absolute http or https URL"
	default:
		return "failed " + tag + " check"
	}
}

func parseSeconds(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func parseBool(raw string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return v
}

func parsePosition(raw string) Position {
	def := Position{X: DefaultPositionX, Y: DefaultPositionY}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	if p, ok := namedPositions[strings.ToLower(raw)]; ok {
		return p
	}

	var payload struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return def
	}

	pos := def
	if payload.X != nil {
		pos.X = clampPercent(*payload.X)
	}
	if payload.Y != nil {
		pos.Y = clampPercent(*payload.Y)
	}
	return pos
}

func clampPercent(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 50
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

func parseColor(raw string) string {
	color := strings.TrimSpace(raw)
	if color == "" {
		return DefaultOverlayColor
	}
	if !strings.HasPrefix(color, "#") {
		color = "#" + color
	}
	if err := validate.Var(color, "hexcolor"); err != nil {
		return DefaultOverlayColor
	}
	return expandShortHex(color)
}

// expandShortHex turns #rgb and #rgba into #rrggbb and #rrggbbaa. The encoder
// only parses the long forms.
func expandShortHex(color string) string {
	digits := color[1:]
	if len(digits) != 3 && len(digits) != 4 {
		return color
	}
	var b strings.Builder
	b.WriteByte('#')
	for i := 0; i < len(digits); i++ {
		b.WriteByte(digits[i])
		b.WriteByte(digits[i])
	}
	return b.String()
}

func parseSize(raw string) uint {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 1 || v > math.MaxUint32 {
		return DefaultOverlaySize
	}
	return uint(v)
}
