package utils

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidID accepts Mongo ObjectID hex strings, UUIDs and other compact
// identifiers made of letters, digits, '-' and '_'.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

func NewID() string {
	return uuid.NewString()
}

// NewGuestID returns an opaque shopper id for visitors without a token.
func NewGuestID() string {
	return "guest-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
