// Package apperr holds the error taxonomy of the edit pipeline. Every stage
// returns one of these types so the HTTP layer can pick a status code and a
// message with errors.As instead of matching strings.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine readable name of an error class. It is sent to
// clients in the "error.kind" field of a failure response.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindFetch            Kind = "fetch"
	KindResourceNotFound Kind = "resource_not_found"
	KindPermission       Kind = "permission"
	KindProcessing       Kind = "processing"
	KindStorage          Kind = "storage"
	KindCleanup          Kind = "cleanup"
	KindInternal         Kind = "internal"
)

// ValidationError reports a missing or unusable request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// FetchError reports a failed download of the source media. StatusCode is zero
// when no response was received.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ResourceNotFoundError reports a required local resource (font, workspace
// directory, encoder binary) that does not exist.
type ResourceNotFoundError struct {
	Resource string
	Path     string
	Err      error
}

func (e *ResourceNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s not found at %s: %v", e.Resource, e.Path, e.Err)
	}
	return fmt.Sprintf("%s not found at %s", e.Resource, e.Path)
}

func (e *ResourceNotFoundError) Unwrap() error { return e.Err }

// PermissionError reports a local path the service cannot write to.
type PermissionError struct {
	Path string
	Err  error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s is not writable: %v", e.Path, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// ProcessingError reports an encoder run that did not succeed. ExitCode is -1
// when the process was terminated by a signal, including a timeout kill.
type ProcessingError struct {
	ExitCode int
	TimedOut bool
	Err      error
}

func (e *ProcessingError) Error() string {
	switch {
	case e.TimedOut:
		return "encoder timed out and was terminated"
	case e.Err != nil:
		return fmt.Sprintf("encoder exited with code %d: %v", e.ExitCode, e.Err)
	default:
		return fmt.Sprintf("encoder exited with code %d", e.ExitCode)
	}
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// StorageError reports a failed upload to the artifact store.
type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// CleanupError reports a file that could not be removed. It is only ever
// logged; it never becomes the outcome of a request.
type CleanupError struct {
	Path string
	Err  error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup %s: %v", e.Path, e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }

// KindOf classifies err. Errors outside the taxonomy are KindInternal.
func KindOf(err error) Kind {
	var (
		validationErr *ValidationError
		fetchErr      *FetchError
		notFoundErr   *ResourceNotFoundError
		permErr       *PermissionError
		processingErr *ProcessingError
		storageErr    *StorageError
		cleanupErr    *CleanupError
	)

	switch {
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.As(err, &fetchErr):
		return KindFetch
	case errors.As(err, &notFoundErr):
		return KindResourceNotFound
	case errors.As(err, &permErr):
		return KindPermission
	case errors.As(err, &processingErr):
		return KindProcessing
	case errors.As(err, &storageErr):
		return KindStorage
	case errors.As(err, &cleanupErr):
		return KindCleanup
	default:
		return KindInternal
	}
}
