package edit

// Field names accepted from the request body.
const (
	FieldSourceURL       = "sourceUrl"
	FieldTrimStart       = "trimStart"
	FieldTrimEnd         = "trimEnd"
	FieldMuted           = "muted"
	FieldOverlayText     = "overlayText"
	FieldOverlayPosition = "overlayPosition"
	FieldOverlayColor    = "overlayColor"
	FieldOverlaySize     = "overlaySize"

	// Names sent by the web client.
	FieldVideoURLAlias = "videoUrl"
	FieldMutedAlias    = "isMuted"
)

// Defaults applied when a field is absent or unusable.
const (
	DefaultPositionX    = 50.0
	DefaultPositionY    = 50.0
	DefaultOverlayColor = "#FFFFFF"
	DefaultOverlaySize  = uint(24)
)

// Fields is the raw, already decoded request body.
type Fields map[string]string

// Get returns the first non-empty value among the given names.
func (f Fields) Get(names ...string) string {
	for _, name := range names {
		if v, ok := f[name]; ok && v != "" {
			return v
		}
	}
	return ""
}

// Position is a point on the frame in percent, 0 to 100 on each axis.
type Position struct {
	X float64 `json:"x" validate:"min=0,max=100"`
	Y float64 `json:"y" validate:"min=0,max=100"`
}

// Overlay describes a text overlay. It is only rendered when Text is set.
type Overlay struct {
	Text     string   `json:"text"`
	Position Position `json:"position"`
	Color    string   `json:"color" validate:"hexcolor"`
	SizePx   uint     `json:"sizePx" validate:"min=1"`
}

// Enabled reports whether the overlay produces a filter stage.
func (o Overlay) Enabled() bool {
	return o.Text != ""
}

// EditOptions is the normalized form of an edit request.
type EditOptions struct {
	SourceURL string  `json:"sourceUrl" validate:"required,http_url"`
	TrimStart float64 `json:"trimStart" validate:"min=0"`
	TrimEnd   float64 `json:"trimEnd" validate:"min=0"`
	// Muted is accepted and carried through the pipeline but the encoder
	// invocation does not act on it; audio is always copied.
	Muted   bool    `json:"muted"`
	Overlay Overlay `json:"overlay"`
}

// ClipDuration is the length of the requested trim window, never negative.
func (o EditOptions) ClipDuration() float64 {
	if d := o.TrimEnd - o.TrimStart; d > 0 {
		return d
	}
	return 0
}

// DefaultOverlay returns an overlay with every default applied and no text.
func DefaultOverlay() Overlay {
	return Overlay{
		Position: Position{X: DefaultPositionX, Y: DefaultPositionY},
		Color:    DefaultOverlayColor,
		SizePx:   DefaultOverlaySize,
	}
}
