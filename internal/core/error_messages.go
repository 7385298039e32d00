package core

// # Error Codes Reference
//
// User-facing errors carry a code that can be quoted when reporting a
// problem. Codes are grouped by category:
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Empty source: the catalog file has no content
//	IMP002 - Header only: the catalog file has no rows after the header
//	IMP003 - No products: no row had a product name
//	IMP004 - Malformed: the catalog file could not be read as delimited text
//
// # Storage Errors (STO001-STO099)
//
//	STO001 - Save failed: the change was kept in memory but not persisted
//	STO002 - Load failed: stored data could not be read
//
// # Access Errors (AUTH001-AUTH099)
//
//	AUTH001 - Forbidden: the identity lacks the required capability
//
// # User Registry Errors (USR001-USR099)
//
//	USR001 - User limit reached
//	USR002 - Duplicate user name
//	USR003 - Reserved user name
//	USR004 - Unknown user
//	USR005 - Missing user name
//
// # Product and Export Errors (PRD001, EXP001-EXP099)
//
//	PRD001 - Product name or aisle missing
//	EXP001 - No product is selected
//	EXP002 - Unknown export format
//
// # Request Errors (REQ001-REQ099, FILE001-FILE099, RATE001-RATE002)
//
//	REQ001 - Request cancelled
//	REQ002 - Request timed out
//	REQ003 - Malformed request body
//	FILE001 - Upload too large
//	FILE002 - No file in upload
//	RATE001 - Too many requests
//	RATE002 - Too many imports running at once
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Check the server log for the
// technical error.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns precede general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Catalog import (IMP001-IMP004)
	// =========================================================================
	{
		pattern: ReasonEmptySource,
		msg: UserMessage{
			Message: "The catalog file is empty",
			Action:  "Choose a file with a header row and one product per line",
			Code:    "IMP001",
		},
	},
	{
		pattern: ReasonNoDataRows,
		msg: UserMessage{
			Message: "The catalog file only has a header row",
			Action:  "Add one line per product below the header",
			Code:    "IMP002",
		},
	},
	{
		pattern: ReasonNoProducts,
		msg: UserMessage{
			Message: "No products were found in the catalog file",
			Action:  "Check that the second column holds product names",
			Code:    "IMP003",
		},
	},
	{
		pattern: ReasonMalformed,
		msg: UserMessage{
			Message: "The catalog file could not be read",
			Action:  "Save it as semicolon-separated text and try again",
			Code:    "IMP004",
		},
	},

	// =========================================================================
	// Storage (STO001-STO002)
	// =========================================================================
	{
		pattern: "persist snapshot",
		msg: UserMessage{
			Message: "Your change was applied but could not be saved",
			Action:  "Keep this page open and try again shortly",
			Code:    "STO001",
		},
	},
	{
		pattern: "load snapshot",
		msg: UserMessage{
			Message: "Your saved list could not be loaded",
			Action:  "Please try again in a few moments",
			Code:    "STO002",
		},
	},
	{
		pattern: "load users",
		msg: UserMessage{
			Message: "The user list could not be loaded",
			Action:  "Please try again in a few moments",
			Code:    "STO002",
		},
	},

	// =========================================================================
	// Access and users (AUTH001, USR001-USR005)
	// =========================================================================
	{
		pattern: "forbidden",
		msg: UserMessage{
			Message: "You are not allowed to do that",
			Action:  "Log in as an administrator",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "user limit reached",
		msg: UserMessage{
			Message: "No more users can be added",
			Action:  "Delete a user before adding another",
			Code:    "USR001",
		},
	},
	{
		pattern: "user already exists",
		msg: UserMessage{
			Message: "That user name is already taken",
			Action:  "Choose a different name",
			Code:    "USR002",
		},
	},
	{
		pattern: "user name is reserved",
		msg: UserMessage{
			Message: "That user name is reserved",
			Action:  "Choose a different name",
			Code:    "USR003",
		},
	},
	{
		pattern: "unknown user",
		msg: UserMessage{
			Message: "User not registered",
			Action:  "Ask the administrator to register you",
			Code:    "USR004",
		},
	},
	{
		pattern: "user name is required",
		msg: UserMessage{
			Message: "A user name is required",
			Action:  "Enter your user name",
			Code:    "USR005",
		},
	},

	// =========================================================================
	// Products and exports (PRD001, EXP001-EXP002)
	// =========================================================================
	{
		pattern: "invalid product",
		msg: UserMessage{
			Message: "Product name and aisle are required",
			Action:  "Fill in both fields",
			Code:    "PRD001",
		},
	},
	{
		pattern: "nothing selected",
		msg: UserMessage{
			Message: "No products are selected",
			Action:  "Check at least one product before exporting",
			Code:    "EXP001",
		},
	},
	{
		pattern: "unknown export format",
		msg: UserMessage{
			Message: "Unknown export format",
			Action:  "Use pdf, txt or snapshot",
			Code:    "EXP002",
		},
	},

	// =========================================================================
	// Request handling (REQ001-REQ003, FILE001-FILE002, RATE001-RATE002)
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again",
			Code:    "REQ002",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Check the submitted data and try again",
			Code:    "REQ003",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "The uploaded file is too large",
			Action:  "Upload a smaller file",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose a file to upload",
			Code:    "FILE002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "The server is busy with other imports",
			Action:  "Please try again in a few seconds",
			Code:    "RATE002",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. The first
// matching pattern wins; unmatched errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, strings.ToLower(ep.pattern)) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logging, with the message
// shown to users.
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
