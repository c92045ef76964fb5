package utils

import (
	"fmt"
	"math/rand"
	"strings"
)

// GenerateUniqueID generates a unique handle in format #WORD-123
func GenerateUniqueID(name string) string {
	// Take first word of name and capitalize
	words := strings.Fields(name)
	prefix := "USER"
	if len(words) > 0 {
		prefix = strings.ToUpper(words[0])
	}
	if len(prefix) > 6 {
		prefix = prefix[:6]
	}

	// Generate random 3-digit number
	number := rand.Intn(900) + 100 // 100-999

	return fmt.Sprintf("#%s-%d", prefix, number)
}

// ValidateUniqueID validates the format of a unique handle
func ValidateUniqueID(uniqueID string) bool {
	// Should start with # and contain a dash
	if len(uniqueID) < 5 || uniqueID[0] != '#' {
		return false
	}

	parts := strings.Split(uniqueID[1:], "-")
	return len(parts) == 2
}
