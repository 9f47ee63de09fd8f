package otp

import (
	"strings"

	"github.com/ayurlekha/ayurlekha/internal/common"
)

// CodeLength is the number of digits in a verification code.
const CodeLength = 6

// CodeEntry models the six digit fields of the verification screen: one
// focused field at a time, focus auto-advancing as digits are typed, and the
// code auto-submitting the moment all six digits are present.
type CodeEntry struct {
	digits [CodeLength]byte
	focus  int
}

// NewCodeEntry returns an empty entry focused on the first field.
func NewCodeEntry() *CodeEntry {
	return &CodeEntry{}
}

// Focus returns the index of the currently focused field.
func (e *CodeEntry) Focus() int {
	return e.focus
}

// Input types one digit into the focused field and advances focus.
// The returned complete flag is true exactly when every field holds a digit,
// at which point Code() is ready to submit. Non-digit input is ignored.
func (e *CodeEntry) Input(ch byte) (complete bool) {
	if ch < '0' || ch > '9' {
		return false
	}
	e.digits[e.focus] = ch
	if e.focus < CodeLength-1 {
		e.focus++
	}
	return e.filled()
}

// Backspace clears the focused field, or moves focus back one field when the
// focused field is already empty.
func (e *CodeEntry) Backspace() {
	if e.digits[e.focus] == 0 && e.focus > 0 {
		e.focus--
	}
	e.digits[e.focus] = 0
}

// Clear wipes every digit and refocuses the first field. Called after a
// failed verification.
func (e *CodeEntry) Clear() {
	*e = CodeEntry{}
}

func (e *CodeEntry) filled() bool {
	for _, d := range e.digits {
		if d == 0 {
			return false
		}
	}
	return true
}

// Code returns the concatenated six digits, or common.ErrIncompleteCode when
// any field is still empty.
func (e *CodeEntry) Code() (string, error) {
	if !e.filled() {
		return "", common.ErrIncompleteCode
	}
	var b strings.Builder
	for _, d := range e.digits {
		b.WriteByte(d)
	}
	return b.String(), nil
}

// SetCode fills the entry from a typed-out string, keeping only digits.
// It lets the CLI accept the whole code on one line while reusing the same
// completion rule.
func (e *CodeEntry) SetCode(s string) (complete bool) {
	e.Clear()
	for i := 0; i < len(s); i++ {
		if e.filled() {
			break
		}
		complete = e.Input(s[i])
	}
	return complete
}
