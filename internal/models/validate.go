package models

import (
	"regexp"
	"strings"
	"unicode"

	"clinic-pos/internal/apperror"
)

var phonePattern = regexp.MustCompile(`^[0-9]{8,11}$`)

// NormalizePhone strips whitespace and checks the result is 8-11 digits.
func NormalizePhone(raw string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if digits == "" {
		return "", apperror.Validation("phone is required")
	}
	if !phonePattern.MatchString(digits) {
		return "", apperror.Validation("phone must be 8-11 digits")
	}
	return digits, nil
}

// requireText trims s and fails when nothing is left.
func requireText(s, field string) (string, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return "", apperror.Validation("%s is required", field)
	}
	return v, nil
}
