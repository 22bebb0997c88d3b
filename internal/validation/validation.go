// Package validation checks user-supplied paths and text before they reach
// the importers and the verse store.
package validation

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/FocuswithJustin/sermonrefs/core/errors"
)

// MaxPathLength is the longest path accepted.
const MaxPathLength = 4096

// sniffLen is how much of the input ValidateText inspects.
const sniffLen = 8192

// binaryMagic lists signatures of formats that are never text input.
var binaryMagic = []struct {
	name  string
	magic []byte
}{
	{"xz", []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}},
	{"gzip", []byte{0x1f, 0x8b}},
	{"zip", []byte{'P', 'K', 0x03, 0x04}},
	{"sqlite", []byte("SQLite format 3\x00")},
	{"pdf", []byte("%PDF-")},
}

// ValidatePath rejects empty or overlong paths and paths holding control
// characters.
func ValidatePath(path string) error {
	if path == "" {
		return errors.NewValidation("path", "path cannot be empty")
	}
	if len(path) > MaxPathLength {
		return &errors.ValidationError{Field: "path", Value: path[:64] + "...", Message: "path too long"}
	}
	if strings.ContainsFunc(path, unicode.IsControl) {
		return &errors.ValidationError{Field: "path", Value: path, Message: "control character not allowed"}
	}
	return nil
}

// ValidateText reports an error when data looks like a binary file rather
// than UTF-8 text. field names the input in the error.
func ValidateText(field string, data []byte) error {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}

	for _, sig := range binaryMagic {
		if bytes.HasPrefix(head, sig.magic) {
			return errors.NewValidation(field, "expected text, got "+sig.name+" data")
		}
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return errors.NewValidation(field, "expected text, got binary data")
	}

	// A multi-byte rune may be cut at the sniff boundary.
	if len(data) > sniffLen {
		for i := 0; i < utf8.UTFMax && len(head) > 0 && !utf8.Valid(head); i++ {
			head = head[:len(head)-1]
		}
	}
	if !utf8.Valid(head) {
		return errors.NewValidation(field, "text is not valid UTF-8")
	}
	return nil
}
