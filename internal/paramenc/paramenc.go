// Package paramenc percent-encodes HTTP query parameter values for the
// upstream adapters, using the safe-character allowlist the upstream
// paleontology services expect rather than Go's default URL escaping rules.
package paramenc

import (
	"fmt"
	"strings"
)

// safe reports whether b may appear unescaped in an encoded value.
func safe(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	}
	switch b {
	case '-', '.', '_', '~', ',', '*', '(', ')', '!':
		return true
	}
	return false
}

// Encode percent-encodes value and returns "name=encoded(value)". Bytes
// outside the allowlist are percent-encoded as their UTF-8 representation.
// An empty value produces "name=".
func Encode(name, value string) string {
	var b strings.Builder
	b.Grow(len(name) + len(value) + 1)
	b.WriteString(name)
	b.WriteByte('=')
	EncodeValue(&b, value)
	return b.String()
}

// EncodeValue appends the percent-encoded form of value to b.
func EncodeValue(b *strings.Builder, value string) {
	for i := 0; i < len(value); i++ {
		c := value[i]
		if safe(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(b, "%%%02X", c)
	}
}

// EncodedValue returns the percent-encoded form of value on its own.
func EncodedValue(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	EncodeValue(&b, value)
	return b.String()
}
