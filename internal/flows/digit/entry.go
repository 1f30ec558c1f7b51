// Package digit provides the fixed-size numeric input buffer behind the PIN
// and OTP prompts.
package digit

import "strings"

// Entry accumulates digits up to a fixed size. Non-digit input and input
// beyond the size are ignored.
type Entry struct {
	size   int
	digits []byte
}

// NewEntry builds an empty buffer that holds exactly size digits.
func NewEntry(size int) *Entry {
	return &Entry{size: size, digits: make([]byte, 0, size)}
}

// Append adds one digit. It reports whether the input was accepted.
func (e *Entry) Append(r rune) bool {
	if r < '0' || r > '9' || len(e.digits) >= e.size {
		return false
	}
	e.digits = append(e.digits, byte(r))
	return true
}

// Backspace removes the last digit, if any.
func (e *Entry) Backspace() {
	if len(e.digits) > 0 {
		e.digits = e.digits[:len(e.digits)-1]
	}
}

// Paste replaces the buffer with s, but only when s is exactly size digits.
// Anything else is ignored entirely and Paste reports false.
func (e *Entry) Paste(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != e.size {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	e.digits = append(e.digits[:0], s...)
	return true
}

// Complete reports whether all positions are filled.
func (e *Entry) Complete() bool {
	return len(e.digits) == e.size
}

// Len returns how many digits are entered.
func (e *Entry) Len() int {
	return len(e.digits)
}

// Size returns the buffer capacity.
func (e *Entry) Size() int {
	return e.size
}

// Value returns the digits entered so far.
func (e *Entry) Value() string {
	return string(e.digits)
}

// Clear empties the buffer.
func (e *Entry) Clear() {
	e.digits = e.digits[:0]
}
