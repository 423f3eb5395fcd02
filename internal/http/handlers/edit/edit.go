package edit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/ArnabMallick12/Video-Editor/internal/apperr"
	"github.com/ArnabMallick12/Video-Editor/internal/http/middleware"
	"github.com/ArnabMallick12/Video-Editor/internal/services/editor"
	"github.com/ArnabMallick12/Video-Editor/internal/types"
	editTypes "github.com/ArnabMallick12/Video-Editor/internal/types/edit"
	"github.com/ArnabMallick12/Video-Editor/internal/utils/response"
)

// thumbnailField is the multipart file field carrying the thumbnail image.
const thumbnailField = "thumbnail"

// maxFieldBytes bounds the non file part of a request body.
const maxFieldBytes = 1 << 20

type Editor interface {
	Edit(ctx context.Context, req editor.Request) (*types.EditResult, error)
}

type EditHandlers struct {
	editor           Editor
	maxThumbnailSize int64
	maxFormMemory    int64
	logger           *slog.Logger
}

// NewEditHandlers creates a new edit handlers instance
func NewEditHandlers(e Editor, maxThumbnailSize, maxFormMemory int64, logger *slog.Logger) *EditHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &EditHandlers{
		editor:           e,
		maxThumbnailSize: maxThumbnailSize,
		maxFormMemory:    maxFormMemory,
		logger:           logger,
	}
}

// Edit trims, mutes and overlays text on a remote video
// @Summary Edit a video
// @Description Download the video at sourceUrl, apply the requested trim window and text overlay, and store the result. The muted flag is accepted but audio is always copied unchanged.
// @Tags edit
// @Accept multipart/form-data,application/x-www-form-urlencoded,json
// @Produce json
// @Param sourceUrl formData string true "URL of the source video (alias: videoUrl)"
// @Param trimStart formData number false "Start of the trim window in seconds"
// @Param trimEnd formData number false "End of the trim window in seconds"
// @Param muted formData boolean false "Mute flag (alias: isMuted)"
// @Param overlayText formData string false "Text to draw on the video"
// @Param overlayPosition formData string false "JSON {x,y} in percent, or top, center, bottom"
// @Param overlayColor formData string false "Hex text color, default #FFFFFF"
// @Param overlaySize formData integer false "Font size in pixels, default 24"
// @Param thumbnail formData file false "Thumbnail image, at most 5 MiB"
// @Success 200 {object} response.EditResponse "Video processed successfully"
// @Failure 400 {object} response.Failure "Invalid request"
// @Failure 429 {object} response.Failure "Rate limit exceeded"
// @Failure 500 {object} response.Failure "Processing failed"
// @Failure 502 {object} response.Failure "Source download or upload failed"
// @Router /api/edit [post]
func (h *EditHandlers) Edit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := h.logger
		if id, ok := middleware.GetRequestIDFromContext(r.Context()); ok {
			logger = logger.With(slog.String("request_id", id))
		}

		req, cleanup, err := h.decode(w, r)
		defer cleanup()
		if err != nil {
			status, failure := h.decodeFailure(err)
			logger.Warn("rejected edit request", slog.String("error", err.Error()))
			response.WriteJSON(w, status, failure)
			return
		}

		result, err := h.editor.Edit(r.Context(), req)
		if err != nil {
			status, failure := response.PipelineError(err)
			logger.Error("edit request failed",
				slog.String("kind", string(failure.Error.Kind)),
				slog.String("error", err.Error()))
			response.WriteJSON(w, status, failure)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.EditOK(result))
	}
}

// Health reports that the service is up
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} response.Health
// @Router /health [get]
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, response.Health{Status: "ok"})
	}
}

var errBodyTooLarge = errors.New("request body too large")

// decode reads the request fields from any supported body encoding. The
// returned cleanup must always be called.
func (h *EditHandlers) decode(w http.ResponseWriter, r *http.Request) (editor.Request, func(), error) {
	noop := func() {}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	switch mediaType {
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, h.maxThumbnailSize+maxFieldBytes)
		if err := r.ParseMultipartForm(h.maxFormMemory); err != nil {
			return editor.Request{}, noop, bodyError(err)
		}
		form := r.MultipartForm

		thumb, file, err := h.thumbnail(form)
		cleanup := func() {
			if file != nil {
				_ = file.Close()
			}
			_ = form.RemoveAll()
		}
		if err != nil {
			return editor.Request{}, cleanup, err
		}

		return editor.Request{Fields: firstValues(form.Value), Thumbnail: thumb}, cleanup, nil

	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(w, r.Body, maxFieldBytes)
		if err := r.ParseForm(); err != nil {
			return editor.Request{}, noop, bodyError(err)
		}
		return editor.Request{Fields: firstValues(r.PostForm)}, noop, nil

	case "application/json":
		r.Body = http.MaxBytesReader(w, r.Body, maxFieldBytes)
		fields, err := decodeJSON(r)
		if err != nil {
			return editor.Request{}, noop, bodyError(err)
		}
		return editor.Request{Fields: fields}, noop, nil

	default:
		// Nothing to read; validation reports the missing source URL.
		return editor.Request{Fields: editTypes.Fields{}}, noop, nil
	}
}

func (h *EditHandlers) thumbnail(form *multipart.Form) (*editor.Thumbnail, multipart.File, error) {
	files := form.File[thumbnailField]
	if len(files) == 0 {
		return nil, nil, nil
	}

	header := files[0]
	if header.Size > h.maxThumbnailSize {
		return nil, nil, &apperr.ValidationError{
			Field:  thumbnailField,
			Reason: fmt.Sprintf("must be at most %d bytes", h.maxThumbnailSize),
		}
	}

	file, err := header.Open()
	if err != nil {
		return nil, nil, bodyError(err)
	}

	return &editor.Thumbnail{Body: file, Size: header.Size}, file, nil
}

func (h *EditHandlers) decodeFailure(err error) (int, response.Failure) {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		return response.PipelineError(err)
	}
	if errors.Is(err, errBodyTooLarge) {
		return http.StatusRequestEntityTooLarge, response.GeneralError(response.KindBadRequest, "Request body too large")
	}
	return http.StatusBadRequest, response.GeneralError(response.KindBadRequest, "Malformed request body")
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return errBodyTooLarge
	}
	return fmt.Errorf("malformed body: %w", err)
}

func firstValues(values map[string][]string) editTypes.Fields {
	fields := make(editTypes.Fields, len(values))
	for name, v := range values {
		if len(v) > 0 {
			fields[name] = v[0]
		}
	}
	return fields
}

// decodeJSON flattens a JSON object into string fields, the form the rest of
// the pipeline expects. Nested objects such as overlayPosition are kept as
// their JSON text.
func decodeJSON(r *http.Request) (editTypes.Fields, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, err
	}

	fields := make(editTypes.Fields, len(raw))
	for name, value := range raw {
		var v interface{}
		if err := json.Unmarshal(value, &v); err != nil {
			return nil, err
		}
		switch v := v.(type) {
		case nil:
		case string:
			fields[name] = v
		case float64:
			fields[name] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			fields[name] = strconv.FormatBool(v)
		default:
			fields[name] = string(value)
		}
	}
	return fields, nil
}
