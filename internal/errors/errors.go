package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// MissingArtifact indicates the tool's output file is absent
	MissingArtifact ErrorCode = "MISSING_ARTIFACT"
	// MalformedRecord indicates a single row, line or element could not be used
	MalformedRecord ErrorCode = "MALFORMED_RECORD"
	// UnsupportedLevel indicates the tool cannot report at the requested granularity
	UnsupportedLevel ErrorCode = "UNSUPPORTED_LEVEL"
	// StructuralParseFailure indicates the artifact is not in the expected format at all
	StructuralParseFailure ErrorCode = "STRUCTURAL_PARSE_FAILURE"
	// UnknownTool indicates a tool name that is not registered
	UnknownTool ErrorCode = "UNKNOWN_TOOL"
	// ConfigInvalid indicates an invalid configuration value
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// Fatal reports whether the code aborts a tool's extraction.
// Only a structural parse failure (or an internal error) does.
func (c ErrorCode) Fatal() bool {
	return c == StructuralParseFailure || c == InternalError
}

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// CheckInput suggests inspecting an input file
	CheckInput FixActionType = "check-input"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Description string        `json:"description,omitempty"`
}

// RelError represents an error with code, message, and suggestions
type RelError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Tool           string      `json:"tool,omitempty"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a RelError with the default suggested fixes for its code
func New(code ErrorCode, tool, message string, cause error) *RelError {
	return &RelError{
		Code:           code,
		Message:        message,
		Tool:           tool,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf is New with a formatted message and no cause
func Newf(code ErrorCode, tool, format string, args ...interface{}) *RelError {
	return New(code, tool, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *RelError) Error() string {
	prefix := fmt.Sprintf("[%s]", e.Code)
	if e.Tool != "" {
		prefix = fmt.Sprintf("[%s] %s:", e.Code, e.Tool)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s %s: %v", prefix, e.Message, e.cause)
	}
	return fmt.Sprintf("%s %s", prefix, e.Message)
}

// Unwrap returns the underlying error
func (e *RelError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *RelError) WithDetails(details interface{}) *RelError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first RelError in err's chain,
// or InternalError when there is none.
func CodeOf(err error) ErrorCode {
	var re *RelError
	if errors.As(err, &re) {
		return re.Code
	}
	return InternalError
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	MissingArtifact: {
		{
			Type:        CheckInput,
			Description: "Place the tool output under <data-dir>/<project>/ or declare its file name in TOOLS.toml",
		},
	},
	UnsupportedLevel: {
		{
			Type:        RunCommand,
			Command:     "relbench tools",
			Description: "List the evaluation levels each tool supports",
		},
	},
	StructuralParseFailure: {
		{
			Type:        CheckInput,
			Description: "Regenerate the tool output; the file does not match the tool's format",
		},
	},
	UnknownTool: {
		{
			Type:        RunCommand,
			Command:     "relbench tools",
			Description: "List registered tool names",
		},
	},
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "relbench config show",
			Description: "Inspect the effective configuration",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
