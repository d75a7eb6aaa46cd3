package utils

import (
	"unicode"
)

// IsOnlyNumbers checks if a string consists entirely of numeric digits
func IsOnlyNumbers(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// IsRepetitive checks if a string consists of repetitive characters
// Simple version that checks for repeated characters (e.g., "aaa", "bbb")
func IsRepetitive(s string) bool {
	if len(s) <= 2 {
		return false
	}
	firstChar := s[0]
	for i := 1; i < len(s); i++ {
		if s[i] != firstChar {
			return false
		}
	}
	return true
}

// IsIndexable reports whether a scanned token is worth storing as a
// completion candidate: long enough, not a bare number, not "aaaa".
func IsIndexable(token string, minLength int) bool {
	if len([]rune(token)) < minLength {
		return false
	}
	if IsOnlyNumbers(token) {
		return false
	}
	return !IsRepetitive(token)
}

// IsValidInput checks if input should be processed for completions.
// Used by the CLI to skip inputs that can never produce anything useful.
func IsValidInput(s string) bool {
	if len(s) == 0 {
		return false
	}
	if IsOnlyNumbers(s) {
		return false
	}
	return !IsRepetitive(s)
}
