package tools

import (
	"errors"
	"fmt"
)

// Sentinel errors for tool dispatch.
var (
	// ErrToolNotFound indicates a requested tool doesn't exist
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolTimeout indicates a tool execution timed out
	ErrToolTimeout = errors.New("tool execution timed out")

	// ErrNotPermitted indicates the tool is outside the allowed set or
	// was denied by the permission policy
	ErrNotPermitted = errors.New("tool not permitted")
)

// ToolErrorKind categorizes tool execution failures.
type ToolErrorKind string

const (
	// ToolErrorNotFound indicates the tool or a referenced path doesn't exist
	ToolErrorNotFound ToolErrorKind = "not_found"

	// ToolErrorInvalidInput indicates the input failed schema validation
	ToolErrorInvalidInput ToolErrorKind = "invalid_input"

	// ToolErrorTimeout indicates the tool exceeded its budget
	ToolErrorTimeout ToolErrorKind = "timeout"

	// ToolErrorExecution indicates a runtime failure inside the handler
	ToolErrorExecution ToolErrorKind = "execution_failed"

	// ToolErrorPermission indicates the permission policy denied the call
	ToolErrorPermission ToolErrorKind = "permission_denied"
)

// ToolError is a structured tool execution failure. The runtime captures
// it into a ToolResult with IsError set; it never escapes Execute.
type ToolError struct {
	Kind      ToolErrorKind
	ToolName  string
	ToolUseID string
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.ToolName != "" {
		return fmt.Sprintf("[tool:%s] %s: %s", e.Kind, e.ToolName, msg)
	}
	return fmt.Sprintf("[tool:%s] %s", e.Kind, msg)
}

// Unwrap returns the underlying error.
func (e *ToolError) Unwrap() error { return e.Cause }

// GetToolError extracts a ToolError from an error chain.
func GetToolError(err error) (*ToolError, bool) {
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr, true
	}
	return nil, false
}

// TrackerErrorKind categorizes file tracker violations.
type TrackerErrorKind string

const (
	// TrackerFileNotRead indicates a mutation on a file never read this session
	TrackerFileNotRead TrackerErrorKind = "file_not_read"

	// TrackerFileModified indicates the file changed on disk since the last read
	TrackerFileModified TrackerErrorKind = "file_modified_externally"

	// TrackerFileNotFound indicates an update target that doesn't exist
	TrackerFileNotFound TrackerErrorKind = "file_not_found"
)

// TrackerError reports a read-before-write violation for a path.
type TrackerError struct {
	Kind TrackerErrorKind
	Path string
}

// Error implements the error interface.
func (e *TrackerError) Error() string {
	switch e.Kind {
	case TrackerFileNotRead:
		return fmt.Sprintf("%s must be read before modification", e.Path)
	case TrackerFileModified:
		return fmt.Sprintf("%s was modified externally since it was last read; read it again before modification", e.Path)
	case TrackerFileNotFound:
		return fmt.Sprintf("%s does not exist", e.Path)
	default:
		return fmt.Sprintf("file tracker violation on %s", e.Path)
	}
}

// GetTrackerError extracts a TrackerError from an error chain.
func GetTrackerError(err error) (*TrackerError, bool) {
	var trackerErr *TrackerError
	if errors.As(err, &trackerErr) {
		return trackerErr, true
	}
	return nil, false
}
