package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ArnabMallick12/Video-Editor/internal/apperr"
	"github.com/ArnabMallick12/Video-Editor/internal/types"
)

// Kinds produced by the HTTP layer itself rather than the pipeline.
const (
	KindRateLimited apperr.Kind = "rate_limited"
	KindBadRequest  apperr.Kind = "bad_request"
)

const MessageSuccess = "Video processed successfully"

type EditResponse struct {
	Success      bool    `json:"success"`
	Message      string  `json:"message"`
	VideoURL     string  `json:"videoUrl"`
	ThumbnailURL *string `json:"thumbnailUrl"`
}

type ErrorDetail struct {
	Kind     apperr.Kind `json:"kind"`
	Field    string      `json:"field,omitempty"`
	ExitCode *int        `json:"exitCode,omitempty"`
	TimedOut bool        `json:"timedOut,omitempty"`
}

type Failure struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Error   ErrorDetail `json:"error"`
}

type Health struct {
	Status string `json:"status"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

func EditOK(result *types.EditResult) EditResponse {
	resp := EditResponse{
		Success:  true,
		Message:  MessageSuccess,
		VideoURL: result.Video.URL,
	}
	if result.Thumbnail != nil {
		url := result.Thumbnail.URL
		resp.ThumbnailURL = &url
	}
	return resp
}

// GeneralError builds a failure that did not come from the pipeline.
func GeneralError(kind apperr.Kind, message string) Failure {
	return Failure{
		Message: message,
		Error:   ErrorDetail{Kind: kind},
	}
}

// PipelineError maps a pipeline error to a status code and a failure body.
// Messages are generic; the underlying error is only logged.
func PipelineError(err error) (int, Failure) {
	kind := apperr.KindOf(err)
	failure := Failure{
		Message: messages[kind],
		Error:   ErrorDetail{Kind: kind},
	}

	switch kind {
	case apperr.KindValidation:
		if ve, ok := asValidation(err); ok {
			failure.Error.Field = ve.Field
			failure.Message = "Invalid " + ve.Field + ": " + ve.Reason
		}
	case apperr.KindProcessing:
		if pe, ok := asProcessing(err); ok {
			code := pe.ExitCode
			failure.Error.ExitCode = &code
			failure.Error.TimedOut = pe.TimedOut
		}
	}

	return StatusFor(kind), failure
}

// StatusFor returns the HTTP status of an error kind.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case apperr.KindFetch, apperr.KindStorage:
		return http.StatusBadGateway
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

var messages = map[apperr.Kind]string{
	apperr.KindValidation:       "Invalid request",
	apperr.KindFetch:            "Failed to download the source video",
	apperr.KindResourceNotFound: "A required server resource is missing",
	apperr.KindPermission:       "The server cannot write its working files",
	apperr.KindProcessing:       "Video processing failed",
	apperr.KindStorage:          "Failed to store the processed video",
	apperr.KindCleanup:          "Video processing failed",
	apperr.KindInternal:         "Video processing failed",
}

func asValidation(err error) (*apperr.ValidationError, bool) {
	var ve *apperr.ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

func asProcessing(err error) (*apperr.ProcessingError, bool) {
	var pe *apperr.ProcessingError
	ok := errors.As(err, &pe)
	return pe, ok
}
