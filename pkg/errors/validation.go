package errors

import (
	"regexp"
	"unicode"
)

// ValidateNodeID validates a node or pin identifier from an untrusted document.
//
// The rules are conservative:
//   - No empty IDs
//   - No control characters
//   - Maximum length of 256 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidGraph, "node ID cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidGraph, "node ID too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidGraph, "node ID contains invalid control characters")
		}
	}

	return nil
}

// graphTypeRegex matches graph type names such as "blueprint" or
// "behavior_tree".
var graphTypeRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateGraphType validates a graph type name. The empty type is allowed
// and selects the default formatter.
func ValidateGraphType(name string) error {
	if name == "" {
		return nil
	}
	if len(name) > 64 || !graphTypeRegex.MatchString(name) {
		return New(ErrCodeInvalidGraph, "invalid graph type: %q", name)
	}
	return nil
}
