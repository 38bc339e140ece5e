package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/syssam/eventguard"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failed
	ExitCommandError = 2 // Invalid flags, configuration or input
	ExitAccessDenied = 3 // The acting user may not perform the operation
)

// Error codes reported in JSON output.
const (
	CodeAccess     = "access_denied"
	CodeNotFound   = "not_found"
	CodeInvalid    = "invalid"
	CodeIntegrity  = "integrity"
	CodeConstraint = "constraint"
	CodeInternal   = "internal"
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// classify maps an operation error to its JSON code and exit code.
func classify(err error) (string, int) {
	switch {
	case eventguard.IsAccessError(err):
		return CodeAccess, ExitAccessDenied
	case eventguard.IsNotFound(err):
		return CodeNotFound, ExitFailure
	case eventguard.IsValidationError(err):
		return CodeInvalid, ExitCommandError
	case eventguard.IsIntegrityError(err):
		return CodeIntegrity, ExitFailure
	case eventguard.IsConstraintError(err):
		return CodeConstraint, ExitFailure
	}
	return CodeInternal, ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Response is the JSON envelope of every command.
type Response struct {
	Status string         `json:"status"`         // "ok" or "error"
	Data   any            `json:"data,omitempty"` // success payload
	Error  *ResponseError `json:"error,omitempty"`
}

// ResponseError is the error structure of JSON responses.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success outputs data. In text mode text is called instead, when set.
func (f *OutputFormatter) Success(data any, text func(w io.Writer)) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
	}
	if text != nil {
		text(f.Writer)
		return nil
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs err and returns it wrapped with its exit code.
func (f *OutputFormatter) Error(err error) error {
	code, exit := classify(err)
	if f.Format == "json" {
		if encErr := json.NewEncoder(f.Writer).Encode(Response{
			Status: "error",
			Error:  &ResponseError{Code: code, Message: err.Error()},
		}); encErr != nil {
			return encErr
		}
	} else {
		fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, err)
	}
	return WrapExitError(exit, code, err)
}
