// # Error Codes Reference
//
// User-facing messages with codes for support reference. Codes are grouped
// by category:
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	          Patterns: "file too large"
//	FILE002 - Unsupported type: Only CSV, TSV, TXT and XLSX are accepted
//	          Patterns: "unsupported file type"
//	FILE003 - Encoding error: File contains invalid characters
//	          Patterns: "encoding error"
//	FILE004 - No file: No file was provided
//	          Patterns: "no file provided"
//	FILE005 - Empty file: The file has no rows
//	          Patterns: "empty file"
//
// # Parse Errors (PARSE001-PARSE099)
//
//	PARSE001 - Invalid CSV: File is not valid delimited text
//	           Patterns: "decode csv"
//	PARSE002 - Invalid workbook: Spreadsheet could not be read
//	           Patterns: "decode xlsx"
//
// # Cleaning Errors (CLN001-CLN099)
//
//	CLN001 - No data: Nothing has been loaded to clean
//	         Patterns: "no data loaded"
//	CLN002 - Unknown preset: The preset name is not registered
//	         Patterns: "unknown preset"
//	CLN003 - Invalid settings: Settings could not be read
//	         Patterns: "invalid settings"
//	CLN004 - Processing failed: An unexpected failure during cleaning
//	         Patterns: "processing"
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Unsupported format: Export format is not csv, xlsx or json
//	         Patterns: "unsupported export format"
//	EXP002 - Export failed: Output could not be written
//	         Patterns: "export"
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session not found
//	         Patterns: "session not found"
//	SES002 - Nothing to undo
//	         Patterns: "nothing to undo"
//	SES003 - Nothing to redo
//	         Patterns: "nothing to redo"
//	SES004 - System busy: Too many cleaning jobs in progress
//	         Patterns: "too many jobs"
//	SES005 - Request cancelled
//	         Patterns: "context canceled"
//	SES006 - Request timeout
//	         Patterns: "context deadline exceeded"
//
// # Storage Errors (STO001-STO099)
//
//	STO001 - Connection refused: Settings store unavailable
//	         Patterns: "connection refused"
//	STO002 - Timeout: Settings store timed out
//	         Patterns: "timeout"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Rate limited: Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//
// Patterns are matched case-insensitively using strings.Contains. The first
// matching pattern wins, so specific patterns come before general ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error fragments (lowercase) to user messages.
// Order matters: the first match wins.
var errorPatterns = []errorPattern{
	// File errors
	{"file too large", UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}},
	{"unsupported file type", UserMessage{
		Message: "This file type is not supported",
		Action:  "Upload a CSV, TSV, TXT or XLSX file",
		Code:    "FILE002",
	}},
	{"encoding error", UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save the file as UTF-8",
		Code:    "FILE003",
	}},
	{"no file provided", UserMessage{
		Message: "No file was provided",
		Action:  "Select a file to clean",
		Code:    "FILE004",
	}},
	{"empty file", UserMessage{
		Message: "The file has no rows",
		Action:  "Upload a file that contains data",
		Code:    "FILE005",
	}},

	// Parse errors
	{"decode csv", UserMessage{
		Message: "File is not valid delimited text",
		Action:  "Check quoting and delimiters, then try again",
		Code:    "PARSE001",
	}},
	{"decode xlsx", UserMessage{
		Message: "Spreadsheet could not be read",
		Action:  "Re-save the workbook as .xlsx and try again",
		Code:    "PARSE002",
	}},

	// Session and job errors. These precede the generic cleaning and export
	// patterns because wrapped messages often contain both.
	{"session not found", UserMessage{
		Message: "Cleaning session not found",
		Action:  "The session may have expired. Upload the file again",
		Code:    "SES001",
	}},
	{"nothing to undo", UserMessage{
		Message: "There is nothing to undo",
		Action:  "No earlier version of this data exists",
		Code:    "SES002",
	}},
	{"nothing to redo", UserMessage{
		Message: "There is nothing to redo",
		Action:  "You are already at the latest version",
		Code:    "SES003",
	}},
	{"too many jobs", UserMessage{
		Message: "System is busy cleaning other files",
		Action:  "Please wait a moment and try again",
		Code:    "SES004",
	}},
	{"context canceled", UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "SES005",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "SES006",
	}},

	// Cleaning errors
	{"no data loaded", UserMessage{
		Message: "No data has been loaded",
		Action:  "Upload a file before cleaning",
		Code:    "CLN001",
	}},
	{"unknown preset", UserMessage{
		Message: "Unknown cleaning preset",
		Action:  "Choose one of the listed presets",
		Code:    "CLN002",
	}},
	{"invalid settings", UserMessage{
		Message: "Cleaning settings could not be read",
		Action:  "Send settings as a JSON object of toggles",
		Code:    "CLN003",
	}},

	// Export errors
	{"unsupported export format", UserMessage{
		Message: "Export format is not supported",
		Action:  "Choose csv, xlsx or json",
		Code:    "EXP001",
	}},
	{"export", UserMessage{
		Message: "The cleaned file could not be written",
		Action:  "Please try again or choose another format",
		Code:    "EXP002",
	}},

	{"processing", UserMessage{
		Message: "An unexpected failure occurred while cleaning",
		Action:  "Try again, or report the file to support",
		Code:    "CLN004",
	}},

	// Storage errors
	{"connection refused", UserMessage{
		Message: "Settings store is unavailable",
		Action:  "Please try again in a few moments",
		Code:    "STO001",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Please try again later",
		Code:    "STO002",
	}},

	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. If no
// pattern matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a specific pattern rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error
	User      UserMessage
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
