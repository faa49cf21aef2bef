// Package idgen provides short, URL-safe unique ID generation backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// EdgePrefix is prepended to generated edge IDs (auto-assigned connection IDs
// and synthetic containment edges).
var EdgePrefix = "edge-"

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 12

// NewEdgeID returns a new unique edge ID.
func NewEdgeID() (string, error) {
	return NewWithPrefix(EdgePrefix)
}

// NewWithPrefix returns a new unique ID with the given prefix.
func NewWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
