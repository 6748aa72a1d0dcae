package utils

import "github.com/google/uuid"

// GenerateID returns a new random report identifier.
func GenerateID() string {
	return uuid.NewString()
}
