package anthropic

import (
	"errors"
	"fmt"
)

// ProviderErrorKind categorizes provider failures.
type ProviderErrorKind string

const (
	// ProviderErrTransport indicates the HTTP request itself failed
	ProviderErrTransport ProviderErrorKind = "transport"

	// ProviderErrStatus indicates a non-2xx response
	ProviderErrStatus ProviderErrorKind = "http_status"

	// ProviderErrDecode indicates a structurally invalid response body
	ProviderErrDecode ProviderErrorKind = "decode"

	// ProviderErrProtocol indicates a response that violated the wire contract
	ProviderErrProtocol ProviderErrorKind = "protocol"
)

// ProviderError is a transport- or protocol-level failure talking to the
// messages API. Unlike tool failures it terminates the query stream.
// It never carries request headers, so the API key cannot leak through it.
type ProviderError struct {
	Kind    ProviderErrorKind
	Status  int
	Message string
	Body    string
	Cause   error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("provider error (%s, status %d): %s", e.Kind, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("provider error (%s, status %d)", e.Kind, e.Status)
	case e.Message != "":
		return fmt.Sprintf("provider error (%s): %s", e.Kind, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("provider error (%s): %v", e.Kind, e.Cause)
	default:
		return fmt.Sprintf("provider error (%s)", e.Kind)
	}
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error { return e.Cause }

// IsProviderError reports whether err is or wraps a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// AttachmentErrorKind categorizes attachment resolution failures.
type AttachmentErrorKind string

const (
	// AttachmentMissing indicates a block with neither local path nor file id
	AttachmentMissing AttachmentErrorKind = "missing_attachment"

	// AttachmentNotFound indicates the local file doesn't exist
	AttachmentNotFound AttachmentErrorKind = "not_found"

	// AttachmentTooLarge indicates the file exceeds the upload size gate
	AttachmentTooLarge AttachmentErrorKind = "too_large"
)

// AttachmentError is a file attachment that cannot be resolved for upload.
type AttachmentError struct {
	Kind   AttachmentErrorKind
	Path   string
	Max    int64
	Actual int64
	Cause  error
}

// Error implements the error interface.
func (e *AttachmentError) Error() string {
	switch e.Kind {
	case AttachmentTooLarge:
		return fmt.Sprintf("attachment %s too large: %d bytes (max %d)", e.Path, e.Actual, e.Max)
	case AttachmentNotFound:
		return fmt.Sprintf("attachment %s not found", e.Path)
	case AttachmentMissing:
		return "attachment block has neither local_path nor file_id"
	default:
		return fmt.Sprintf("attachment error (%s): %s", e.Kind, e.Path)
	}
}

// Unwrap returns the underlying error.
func (e *AttachmentError) Unwrap() error { return e.Cause }

// IsAttachmentError reports whether err is or wraps an AttachmentError.
func IsAttachmentError(err error) bool {
	var ae *AttachmentError
	return errors.As(err, &ae)
}
