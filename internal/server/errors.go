package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"file-drop/internal/transfer"
)

// Response bodies, errno style.
const (
	bodyInvalidID    = "EINVAL: invalid argument\n"
	bodyInvalidForm  = "EINVAL: Invalid argument\n"
	bodyTooLarge     = "ENOSPC: No space left on device\n"
	bodyStorageFault = "EROFS: Read-only file system\n"
	bodyIOFault      = "EIO: I/O error\n"
	bodyRateLimited  = "EAGAIN: Resource temporarily unavailable\n"
	bodyInternal     = "Internal Server Error\n"
)

// statusFor maps a service error onto a status code and response body.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, transfer.ErrInvalidIdentifier):
		return http.StatusBadRequest, bodyInvalidID
	case errors.Is(err, transfer.ErrNotFound):
		return http.StatusNotFound, ""
	case errors.Is(err, transfer.ErrInvalidForm):
		return http.StatusUnprocessableEntity, bodyInvalidForm
	case errors.Is(err, transfer.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, bodyTooLarge
	case errors.Is(err, transfer.ErrStorage):
		return http.StatusInternalServerError, bodyStorageFault
	case errors.Is(err, transfer.ErrIO):
		return http.StatusInternalServerError, bodyIOFault
	default:
		return http.StatusInternalServerError, bodyInternal
	}
}

// fail writes the response for err. Server faults are logged with the
// request id; client errors only at debug.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	if status == http.StatusNotFound {
		body = fileNotFoundBody(chi.URLParam(r, "id"))
	}

	level := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.log.Log(r.Context(), level, "request failed",
		"rid", RequestIDFromContext(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"err", err,
	)

	writeText(w, status, body)
}

func fileNotFoundBody(id string) string {
	return `ENOENT: No such file or directory: "` + id + `"` + "\n"
}

func routeNotFoundBody(path string) string {
	return `ENOENT: No such file or directory "` + path + `"` + "\n"
}

// handleNotFound answers every unmatched route.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusNotFound, routeNotFoundBody(r.URL.EscapedPath()))
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

