// Package middleware provides HTTP middleware for the chat API.
package middleware

import (
	"strings"
	"unicode/utf8"
)

// MaxMessageChars is the hard cap on inbound message length; longer
// messages are rejected before any store or generator access.
const MaxMessageChars = 2000

// ValidationError is an input rejection with both a diagnostic and a
// user-facing reply string.
type ValidationError struct {
	Reason string
	Reply  string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ValidateChatMessage checks an inbound message body. It returns nil when
// the message is acceptable.
func ValidateChatMessage(message string) *ValidationError {
	if strings.TrimSpace(message) == "" {
		return &ValidationError{
			Reason: "Valid message is required",
			Reply:  "Please provide a message to send.",
		}
	}
	if utf8.RuneCountInString(message) > MaxMessageChars {
		return &ValidationError{
			Reason: "Message too long",
			Reply:  "Please keep your message under 2000 characters.",
		}
	}
	if !utf8.ValidString(message) {
		return &ValidationError{
			Reason: "Message must be valid UTF-8",
			Reply:  "Invalid message format.",
		}
	}
	return nil
}

// ValidateSessionID checks an inbound session identifier. Session ids are
// opaque; only presence is checked where required.
func ValidateSessionID(id string) *ValidationError {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{
			Reason: "Session ID is required",
			Reply:  "A session identifier is required to look up history.",
		}
	}
	return nil
}
