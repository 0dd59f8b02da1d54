package utils

import (
	"unicode"
)

// IsValidQuestionID checks that id looks like a questionnaire key such as
// "memory_1": lowercase letters, digits and underscores, at most 64 bytes.
func IsValidQuestionID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, char := range id {
		switch {
		case char == '_':
		case unicode.IsDigit(char):
		case unicode.IsLower(char) && char < unicode.MaxASCII:
		default:
			return false
		}
	}
	return true
}
