// Package errors defines the coded errors the trimmer reports through its
// API envelope. Every failure a handler returns is an AppError: the numeric
// code tells the frontend what went wrong, the message is safe to show to
// the user, and the wrapped cause stays in the logs.
package errors

import (
	"errors"
	"fmt"
	"syscall"
)

// Codes are grouped by the operation that raises them. The frontend matches
// on these values, so existing codes must not be renumbered.
const (
	// General request handling (1000-1099)
	CodeSuccess         = 0
	CodeUnknown         = 1000
	CodeInvalidParams   = 1001
	CodeNotFound        = 1002
	CodeRequestTooLarge = 1003

	// Upload errors (1100-1199)
	CodeNoFileProvided  = 1100
	CodeNoFileSelected  = 1101
	CodeInvalidFileType = 1102
	CodeUploadFailed    = 1103

	// Trim errors (1200-1299)
	CodeVideoNotFound    = 1200
	CodeSourceMissing    = 1201
	CodeInvalidTimestamp = 1202
	CodeInvalidTimeRange = 1203
	CodeTrimFailed       = 1204
	CodeNotTrimmed       = 1205
	CodeQueueFull        = 1206
	CodeTrimInProgress   = 1207

	// Preview/probe errors (1300-1399)
	CodePreviewFailed = 1300
	CodeProbeFailed   = 1301

	// Job errors (1400-1499)
	CodeJobNotFound = 1400

	// Storage and filesystem errors (1500-1599)
	CodeDBError          = 1500
	CodeFileNotFound     = 1501
	CodeFileWriteError   = 1502
	CodeDiskFull         = 1503
	CodePermissionDenied = 1504
	CodeBrokenPipe       = 1505

	// Dependency errors (1600-1699)
	CodeDependencyMissing = 1600
	CodeInstallFailed     = 1601
)

// AppError pairs a stable numeric code with a user-facing message. Cause
// holds the underlying error for logging only and never reaches the API
// response.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Cause   error  `json:"-"`
}

// Error renders the code, message, and cause for log output.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New builds an AppError with no underlying cause.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap attaches a code and user-facing message to an underlying error.
func Wrap(code int, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithDetail is Wrap with an extra detail string that does get sent in
// the response body.
func WrapWithDetail(code int, message string, detail string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Detail:  detail,
		Cause:   cause,
	}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode returns the code carried by err, or CodeUnknown for plain errors.
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetMessage returns the user-facing message for err. Plain errors fall back
// to their Error() text.
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// FromOS maps well-known OS-level failures (disk full, permission denied,
// broken pipe) to storage errors with user-facing messages. Returns nil
// when err is not one of the recognized conditions; the caller should then
// wrap with its own code.
func FromOS(err error, path string) *AppError {
	switch {
	case errors.Is(err, syscall.ENOSPC):
		return Wrap(CodeDiskFull, "No space left on device. Please free up disk space.", err)
	case errors.Is(err, syscall.EACCES):
		return WrapWithDetail(CodePermissionDenied, "Permission denied.",
			fmt.Sprintf("cannot write to: %s", path), err)
	case errors.Is(err, syscall.EPIPE):
		return WrapWithDetail(CodeBrokenPipe, "Video encoding was interrupted.",
			"check disk space and output folder permissions", err)
	default:
		return nil
	}
}

// Sentinel errors shared across handlers and services.
var (
	ErrInvalidParams = New(CodeInvalidParams, "Invalid parameters")
	ErrNotFound      = New(CodeNotFound, "Resource not found")

	// Upload
	ErrNoFileProvided  = New(CodeNoFileProvided, "No file provided")
	ErrNoFileSelected  = New(CodeNoFileSelected, "No file selected")
	ErrInvalidFileType = New(CodeInvalidFileType, "Invalid file type")

	// Trim
	ErrVideoNotFound    = New(CodeVideoNotFound, "Video not found")
	ErrInvalidTimeRange = New(CodeInvalidTimeRange, "Start time must be before end time")
	ErrNotTrimmed       = New(CodeNotTrimmed, "Video not yet trimmed")
	ErrQueueFull        = New(CodeQueueFull, "Too many trims in progress, try again later")

	// Jobs
	ErrJobNotFound = New(CodeJobNotFound, "Job not found")

	// Storage
	ErrDBError      = New(CodeDBError, "Database error")
	ErrFileNotFound = New(CodeFileNotFound, "File not found")
)
