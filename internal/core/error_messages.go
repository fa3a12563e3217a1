package core

// # Error Codes Reference
//
// This file defines user-facing messages with codes for support reference.
// Typed errors are matched first; anything else falls back to case-insensitive
// pattern matching on the error text.
//
// # Schema Errors (SCH001-SCH099)
//
//	SCH001 - Unknown doc type: the input names a doc_type no family defines
//	         Action: Check doc_type against `reqtrace doctypes`
//	         Match: *schema.UnknownDocTypeError, "unknown doc type"
//
//	SCH002 - Missing columns: required columns are absent from the input
//	         Action: Re-export the document with the listed columns
//	         Match: *SchemaValidationError, "missing required column"
//
//	SCH003 - Invalid schema: a schema definition or override is unusable
//	         Action: Fix the schema document and run again
//	         Match: *schema.InvalidSpecError, *schema.DuplicateDocTypeError
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Not found: the input file does not exist
//	         Action: Check the path in the run file
//	         Match: ErrInputNotFound, "no such file"
//
//	SRC002 - Unsupported format: the input is not a readable export
//	         Action: Export the sheet as CSV
//	         Match: ErrUnsupportedFormat
//
//	SRC003 - Unreadable: the input could not be parsed
//	         Action: Check the file encoding and delimiter
//	         Match: ErrUnreadableInput
//
// # Identifier Warnings (ID001-ID099)
//
//	ID001 - Blank identifier: a row has no usable Req_ID
//	ID002 - Incomplete composite identifier: part of a composite Req_ID is blank
//	        Match: *reqid.IDResolutionWarning
//
// # Trace Notices (TRC001-TRC099)
//
//	TRC001 - Dangling reference: a trace token named no record in the run
//	         Match: trace.DanglingReference
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Export failed: an output could not be written
//	         Match: *ExportError
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the logs for the original error.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/reqtrace/internal/reqid"
	"github.com/JonMunkholm/reqtrace/internal/schema"
	"github.com/JonMunkholm/reqtrace/internal/trace"
)

// UserMessage provides user-facing error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgUnknownDocType = UserMessage{
		Message: "Unknown document type",
		Action:  "Check doc_type against `reqtrace doctypes`",
		Code:    "SCH001",
	}
	msgMissingColumns = UserMessage{
		Message: "Required columns are missing from the input",
		Action:  "Re-export the document with the listed columns",
		Code:    "SCH002",
	}
	msgInvalidSchema = UserMessage{
		Message: "Schema definition is invalid",
		Action:  "Fix the schema document and run again",
		Code:    "SCH003",
	}
	msgNotFound = UserMessage{
		Message: "Input file not found",
		Action:  "Check the path in the run file",
		Code:    "SRC001",
	}
	msgUnsupported = UserMessage{
		Message: "Input format is not supported",
		Action:  "Export the sheet as CSV",
		Code:    "SRC002",
	}
	msgUnreadable = UserMessage{
		Message: "Input could not be read",
		Action:  "Check the file encoding and delimiter",
		Code:    "SRC003",
	}
	msgBlankID = UserMessage{
		Message: "Row has no requirement ID",
		Action:  "Fill the ID column or accept the skipped row",
		Code:    reqid.CodeBlank,
	}
	msgIncompleteID = UserMessage{
		Message: "Composite requirement ID is incomplete",
		Action:  "Fill every ID column or set missing_id_policy: partial",
		Code:    reqid.CodeIncomplete,
	}
	msgDangling = UserMessage{
		Message: "Trace reference did not resolve",
		Action:  "Add the referenced document to the run if the link should resolve",
		Code:    trace.CodeDangling,
	}
	msgExport = UserMessage{
		Message: "Output could not be written",
		Action:  "Check the output location and credentials",
		Code:    "EXP001",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catches errors that lost their type on the way, such as
// wrapped driver or OS errors. The first matching pattern wins.
var errorPatterns = []errorPattern{
	{pattern: "unknown doc type", msg: msgUnknownDocType},
	{pattern: "missing required column", msg: msgMissingColumns},
	{pattern: "invalid doc spec", msg: msgInvalidSchema},
	{pattern: "no such file", msg: msgNotFound},
	{pattern: "cannot find the file", msg: msgNotFound},
	{pattern: "unsupported input format", msg: msgUnsupported},
	{pattern: "wrong number of fields", msg: msgUnreadable},
	{pattern: "bare \" in non-quoted-field", msg: msgUnreadable},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the log output for details",
	Code:    "ERR000",
}

// MapError converts an error to a user-facing message. Typed errors are
// matched through errors.As/errors.Is; the text patterns are the fallback.
//
// Example:
//
//	_, err := registry.Resolve("XYZ")
//	msg := MapError(err)
//	// msg.Code == "SCH001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		unknown  *schema.UnknownDocTypeError
		invalid  *schema.InvalidSpecError
		dup      *schema.DuplicateDocTypeError
		missing  *SchemaValidationError
		idWarn   *reqid.IDResolutionWarning
		dangling trace.DanglingReference
		export   *ExportError
	)
	switch {
	case errors.As(err, &unknown):
		return msgUnknownDocType
	case errors.As(err, &missing):
		return msgMissingColumns
	case errors.As(err, &invalid), errors.As(err, &dup):
		return msgInvalidSchema
	case errors.Is(err, ErrInputNotFound):
		return msgNotFound
	case errors.Is(err, ErrUnsupportedFormat):
		return msgUnsupported
	case errors.Is(err, ErrUnreadableInput):
		return msgUnreadable
	case errors.As(err, &idWarn):
		if idWarn.Code == reqid.CodeIncomplete {
			return msgIncompleteID
		}
		return msgBlankID
	case errors.As(err, &dangling):
		return msgDangling
	case errors.As(err, &export):
		return msgExport
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether an error maps to a specific catalogue entry
// rather than the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original error for logging
	User      UserMessage // Message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}

// ExportError reports a failed export target.
type ExportError struct {
	Target string // "csv", "sqlite", "postgres"
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Target, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
