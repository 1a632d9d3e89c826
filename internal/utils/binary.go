package utils

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// sniffLength defines the maximum number of bytes inspected when detecting binary content.
const sniffLength = 8000

// IsBinary reports whether the provided byte slice appears to contain binary data.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if !utf8.Valid(data) {
		return true
	}
	return ContainsNullByte(data)
}

// ContainsNullByte reports whether a NUL byte occurs within the sniffed prefix of data.
func ContainsNullByte(data []byte) bool {
	window := data
	if len(window) > sniffLength {
		window = window[:sniffLength]
	}
	return bytes.IndexByte(window, 0) >= 0
}

// DecodeText converts file content into text. Valid UTF-8 is returned unchanged; other content
// without NUL bytes is decoded as ISO-8859-1. The boolean result is false for binary content.
func DecodeText(data []byte) (string, bool) {
	if ContainsNullByte(data) {
		return EmptyString, false
	}
	if utf8.Valid(data) {
		return string(data), true
	}
	decoded, decodeError := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if decodeError != nil {
		return EmptyString, false
	}
	return string(decoded), true
}
