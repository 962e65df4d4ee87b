// Package domain contains core concepts of the chat relay.
// This file defines Participant naming rules.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"strings"
	"unicode"
)

// ServerName is the pseudo-sender used for join and departure announcements.
const ServerName = "Server"

// IsAcceptableName reports whether a name can be registered when unique names are enforced.
// Names are addressed with @<name>, so they must be non-blank and free of whitespace.
func IsAcceptableName(name string) bool {
	if name == "" {
		return false
	}
	return strings.IndexFunc(name, unicode.IsSpace) == -1
}
