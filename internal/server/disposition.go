package server

import (
	"fmt"
	"strings"
)

// contentDisposition builds an attachment header whose quoted filename can
// never break out of the header: control characters are dropped, quote and
// backslash are escaped, and non-ASCII runes are replaced by '_' in the
// quoted form. Names that are not plain ASCII also carry an RFC 5987
// filename* parameter with the exact UTF-8 name. fallback is used when
// nothing printable is left.
func contentDisposition(name, fallback string) string {
	var quoted strings.Builder
	var clean strings.Builder
	ascii := true

	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0):
			continue
		case r == '"' || r == '\\':
			quoted.WriteByte('\\')
			quoted.WriteRune(r)
		case r > 0x7e:
			ascii = false
			quoted.WriteByte('_')
		default:
			quoted.WriteRune(r)
		}
		clean.WriteRune(r)
	}

	if clean.Len() == 0 {
		return contentDisposition(fallback, "file")
	}

	h := `attachment; filename="` + quoted.String() + `"`
	if !ascii {
		h += "; filename*=UTF-8''" + encodeExtValue(clean.String())
	}
	return h
}

// encodeExtValue percent-encodes s per the RFC 5987 attr-char set.
func encodeExtValue(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", c) >= 0
}
