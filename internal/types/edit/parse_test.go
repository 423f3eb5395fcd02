package edit_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArnabMallick12/Video-Editor/internal/apperr"
	"github.com/ArnabMallick12/Video-Editor/internal/types/edit"
)

const source = "https://cdn.example.com/videos/clip.mp4"

func TestParse_MissingSourceURL(t *testing.T) {
	_, err := edit.Parse(edit.Fields{edit.FieldTrimStart: "1"})
	require.Error(t, err)

	var ve *apperr.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "sourceUrl", ve.Field)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestParse_RejectsNonHTTPURL(t *testing.T) {
	for _, raw := range []string{"not a url", "ftp://example.com/a.mp4", "/local/file.mp4"} {
		_, err := edit.Parse(edit.Fields{edit.FieldSourceURL: raw})
		assert.Error(t, err, raw)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), raw)
	}
}

func TestParse_Defaults(t *testing.T) {
	opts, err := edit.Parse(edit.Fields{edit.FieldSourceURL: source})
	require.NoError(t, err)

	assert.Equal(t, source, opts.SourceURL)
	assert.Zero(t, opts.TrimStart)
	assert.Zero(t, opts.TrimEnd)
	assert.False(t, opts.Muted)
	assert.Equal(t, edit.DefaultOverlay(), opts.Overlay)
	assert.False(t, opts.Overlay.Enabled())
}

func TestParse_AllFields(t *testing.T) {
	opts, err := edit.Parse(edit.Fields{
		edit.FieldSourceURL:       source,
		edit.FieldTrimStart:       "1.5",
		edit.FieldTrimEnd:         "4",
		edit.FieldMuted:           "true",
		edit.FieldOverlayText:     "hello",
		edit.FieldOverlayPosition: `{"x":10,"y":90}`,
		edit.FieldOverlayColor:    "#ff0000",
		edit.FieldOverlaySize:     "36",
	})
	require.NoError(t, err)

	assert.Equal(t, 1.5, opts.TrimStart)
	assert.Equal(t, 4.0, opts.TrimEnd)
	assert.Equal(t, 2.5, opts.ClipDuration())
	assert.True(t, opts.Muted)
	assert.Equal(t, edit.Overlay{
		Text:     "hello",
		Position: edit.Position{X: 10, Y: 90},
		Color:    "#ff0000",
		SizePx:   36,
	}, opts.Overlay)
}

func TestParse_FieldAliases(t *testing.T) {
	opts, err := edit.Parse(edit.Fields{
		edit.FieldVideoURLAlias: source,
		edit.FieldMutedAlias:    "true",
	})
	require.NoError(t, err)
	assert.Equal(t, source, opts.SourceURL)
	assert.True(t, opts.Muted)
}

func TestParse_GarbageNumbersFallBackToZero(t *testing.T) {
	tests := map[string]string{
		"empty":    "",
		"word":     "abc",
		"negative": "-3",
		"nan":      "NaN",
		"inf":      "+Inf",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			opts, err := edit.Parse(edit.Fields{
				edit.FieldSourceURL: source,
				edit.FieldTrimStart: raw,
				edit.FieldTrimEnd:   raw,
			})
			require.NoError(t, err)
			assert.Zero(t, opts.TrimStart)
			assert.Zero(t, opts.TrimEnd)
		})
	}
}

func TestParse_MalformedPositionIsTolerated(t *testing.T) {
	tests := map[string]struct {
		raw  string
		want edit.Position
	}{
		"broken json":   {`{"x":`, edit.Position{X: 50, Y: 50}},
		"wrong types":   {`{"x":"left"}`, edit.Position{X: 50, Y: 50}},
		"missing axis":  {`{"x":20}`, edit.Position{X: 20, Y: 50}},
		"out of range":  {`{"x":-5,"y":250}`, edit.Position{X: 0, Y: 100}},
		"corner":        {`{"x":0,"y":0}`, edit.Position{X: 0, Y: 0}},
		"named preset":  {"bottom", edit.Position{X: 50, Y: 90}},
		"unknown word":  {"sideways", edit.Position{X: 50, Y: 50}},
		"empty payload": {"", edit.Position{X: 50, Y: 50}},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			opts, err := edit.Parse(edit.Fields{
				edit.FieldSourceURL:       source,
				edit.FieldOverlayPosition: tc.raw,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, opts.Overlay.Position)
		})
	}
}

func TestParse_Color(t *testing.T) {
	tests := map[string]string{
		"":              "#FFFFFF",
		"#00ff00":       "#00ff00",
		"00ff00":        "#00ff00",
		"#abc":          "#aabbcc",
		"abcd":          "#aabbccdd",
		"#11223344":     "#11223344",
		"red":           "#FFFFFF",
		"#fff:text='x'": "#FFFFFF",
		"  #123456  ":   "#123456",
	}
	for raw, want := range tests {
		opts, err := edit.Parse(edit.Fields{
			edit.FieldSourceURL:    source,
			edit.FieldOverlayColor: raw,
		})
		require.NoError(t, err)
		assert.Equal(t, want, opts.Overlay.Color, "input %q", raw)
	}
}

func TestParse_Size(t *testing.T) {
	tests := map[string]uint{
		"":     24,
		"abc":  24,
		"0":    24,
		"-10":  24,
		"48":   48,
		"30.7": 30,
	}
	for raw, want := range tests {
		opts, err := edit.Parse(edit.Fields{
			edit.FieldSourceURL:   source,
			edit.FieldOverlaySize: raw,
		})
		require.NoError(t, err)
		assert.Equal(t, want, opts.Overlay.SizePx, "input %q", raw)
	}
}

func TestClipDuration_NeverNegative(t *testing.T) {
	assert.Zero(t, edit.EditOptions{TrimStart: 5, TrimEnd: 2}.ClipDuration())
	assert.Zero(t, edit.EditOptions{}.ClipDuration())
	assert.Equal(t, 3.0, edit.EditOptions{TrimStart: 2, TrimEnd: 5}.ClipDuration())
}
