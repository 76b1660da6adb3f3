package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrNotInitialized = errors.New("catalog not initialized")
	ErrCorruptVersion = errors.New("catalog schema version is corrupt")
	ErrUnsupported    = errors.New("unsupported operation")
	ErrInvalidID      = errors.New("invalid ID")
	ErrFolderNotFound = errors.New("folder not found")
	ErrFileNotFound   = errors.New("file not found")
	ErrLabelNotFound  = errors.New("label not found")
	ErrAlbumNotFound  = errors.New("album not found")
	ErrValidation     = errors.New("validation failed")
	ErrXmpWrite       = errors.New("xmp sidecar write failed")
	ErrQueueRead      = errors.New("reading xmp update queue failed")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// XmpWriteError reports a sidecar that could not be written.
type XmpWriteError struct {
	FileID ID
	Path   string
	Err    error
}

func (e *XmpWriteError) Error() string {
	return fmt.Sprintf("writing sidecar %s for file %d: %v", e.Path, e.FileID, e.Err)
}

func (e *XmpWriteError) Is(target error) bool {
	return target == ErrXmpWrite
}

func (e *XmpWriteError) Unwrap() error { return e.Err }
