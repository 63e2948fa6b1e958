// Package fileid mints and parses the opaque identifiers that name uploaded
// files. An identifier is a random (version 4) UUID; its only textual form
// is the canonical lowercase 8-4-4-4-12 grouping.
package fileid

import (
	"errors"

	"github.com/google/uuid"
)

// TextLen is the length of the canonical textual form.
const TextLen = 36

// ErrInvalid is returned by Parse for anything that is not a canonical
// identifier.
var ErrInvalid = errors.New("invalid file identifier")

// ID is a file identifier.
type ID uuid.UUID

// Nil is the zero identifier. It is never minted.
var Nil ID

// New returns a fresh random identifier.
func New() ID {
	return ID(uuid.New())
}

// Parse validates untrusted text and returns the identifier it names.
//
// Only ASCII letters, digits and '-' are accepted; everything else is
// rejected before any structural parsing takes place.
func Parse(s string) (ID, error) {
	if !validChars(s) {
		return Nil, ErrInvalid
	}
	// uuid.Parse also accepts the braced, urn and 32-digit forms.
	if len(s) != TextLen || s[8] != '-' || s[13] != '-' || s[18] != '-' || s[23] != '-' {
		return Nil, ErrInvalid
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return Nil, ErrInvalid
	}
	return ID(u), nil
}

// MustParse is like Parse but panics on error. Intended for tests.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

func validChars(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c == '-':
		default:
			return false
		}
	}
	return true
}

// String renders the canonical lowercase hyphenated form.
func (id ID) String() string {
	return uuid.UUID(id).String()
}

// UUID exposes the underlying value, e.g. for database parameters.
func (id ID) UUID() uuid.UUID {
	return uuid.UUID(id)
}
