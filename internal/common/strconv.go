package common

import "strconv"

// AtoiDefault converts the string to an integer, falling back to def on empty
// or malformed input.
func AtoiDefault(value string, def int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
