// Package validate holds the client-side field validators. These are shape
// heuristics mirrored from the login and verification forms, not guarantees;
// the server remains the authority on every value it receives.
package validate

import (
	"regexp"
	"strings"
)

// Result reports the outcome of a single validator.
type Result struct {
	OK      bool
	Message string
}

// Validator checks one shape rule against an input string.
type Validator func(input string) Result

var (
	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	// Nigerian mobile numbers: optional +234/234 or leading 0, then a
	// 7x/8x/9x prefix and eight more digits. Heuristic only.
	phonePattern = regexp.MustCompile(`^(\+?234|0)[7-9][0-1]\d{8}$`)
	digitsOnly   = regexp.MustCompile(`^\d+$`)
)

// Email validates a standard email shape.
func Email(input string) Result {
	if !emailPattern.MatchString(input) {
		return Result{Message: "Email address is invalid"}
	}
	return Result{OK: true}
}

// NigerianPhone validates the Nigerian mobile number shape after stripping
// spaces.
func NigerianPhone(input string) Result {
	cleaned := strings.ReplaceAll(input, " ", "")
	if !phonePattern.MatchString(cleaned) {
		return Result{Message: "Please enter a valid Nigerian phone number"}
	}
	return Result{OK: true}
}

// Any composes validators into an "either" check: the first success wins,
// otherwise the supplied message is reported.
func Any(message string, validators ...Validator) Validator {
	return func(input string) Result {
		for _, v := range validators {
			if v(input).OK {
				return Result{OK: true}
			}
		}
		return Result{Message: message}
	}
}

// Identifier validates the login identifier: an email or a Nigerian phone
// number. A purely numeric string that fails the phone shape falls through
// to the email check and fails there too, which keeps the original combined
// error message.
func Identifier(input string) Result {
	if input == "" {
		return Result{Message: "Email or phone number is required"}
	}
	if strings.Contains(input, "@") {
		return Email(input)
	}
	combined := Any("Please enter a valid email or Nigerian phone number", NigerianPhone, Email)
	return combined(input)
}

// PIN requires exactly four digits.
func PIN(input string) Result {
	if len(input) != 4 || !digitsOnly.MatchString(input) {
		return Result{Message: "Please enter a 4-digit PIN"}
	}
	return Result{OK: true}
}

// OTP requires exactly six digits.
func OTP(input string) Result {
	if len(input) != 6 || !digitsOnly.MatchString(input) {
		return Result{Message: "Please enter the 6-digit OTP"}
	}
	return Result{OK: true}
}

// BVN requires exactly eleven digits.
func BVN(input string) Result {
	if input == "" {
		return Result{Message: "BVN is required"}
	}
	if len(input) != 11 || !digitsOnly.MatchString(input) {
		return Result{Message: "BVN must be exactly 11 digits"}
	}
	return Result{OK: true}
}

// Required reports a missing value with the supplied message.
func Required(message string) Validator {
	return func(input string) Result {
		if strings.TrimSpace(input) == "" {
			return Result{Message: message}
		}
		return Result{OK: true}
	}
}
