package transfer

import (
	"errors"
	"net/http"
	"strings"

	"file-drop/internal/fileid"
)

// Error taxonomy. Every error returned by Service wraps exactly one of these;
// the HTTP layer maps them to status codes with errors.Is.
var (
	// ErrInvalidIdentifier: the path segment is not a canonical identifier.
	ErrInvalidIdentifier = fileid.ErrInvalid
	// ErrNotFound: no such identifier, or its record is unreadable.
	ErrNotFound = errors.New("file not found")
	// ErrInvalidForm: wrong content type or shape for the upload route.
	ErrInvalidForm = errors.New("invalid upload form")
	// ErrTooLarge: the upload exceeded the configured size cap.
	ErrTooLarge = errors.New("upload too large")
	// ErrStorage: the metadata index failed.
	ErrStorage = errors.New("index storage fault")
	// ErrIO: the blob store failed.
	ErrIO = errors.New("blob i/o fault")
)

// IsTooLarge reports whether err came from an http.MaxBytesReader cap.
// Some readers in between (multipart) flatten the error, hence the string
// fallback.
func IsTooLarge(err error) bool {
	if err == nil {
		return false
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(err.Error(), "http: request body too large")
}
