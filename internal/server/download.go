package server

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"file-drop/internal/fileid"
	"file-drop/internal/transfer"
)

// handleDownload serves GET /fd/{id} and GET /fd/{id}/{name}.
//
// The identifier is parsed before anything touches storage. chi matches on
// the escaped path when one exists, so a segment carrying %-escapes reaches
// fileid.Parse verbatim and is rejected there.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := fileid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	name := chi.URLParam(r, "name")
	if name != "" && r.URL.RawPath != "" {
		if name, err = url.PathUnescape(name); err != nil {
			s.fail(w, r, transfer.ErrInvalidIdentifier)
			return
		}
	}

	d, err := s.svc.Download(r.Context(), id, name)
	if err != nil {
		s.metrics.RecordDownload(resultLabel(err), 0)
		s.fail(w, r, err)
		return
	}
	defer d.Body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", contentDisposition(d.Filename, id.String()))
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, d.Body)
	if err != nil {
		// Headers are gone; all we can do is log and drop the connection.
		s.log.Warn("download interrupted",
			"rid", RequestIDFromContext(r.Context()),
			"id", id.String(),
			"bytes", n,
			"err", err,
		)
		s.metrics.RecordDownload("interrupted", n)
		return
	}
	s.metrics.RecordDownload("ok", n)
}

// handleBadDownloadPath catches every other /fd/... shape: a bad first
// segment is a 400, anything deeper under a valid identifier is a 404.
func (s *Server) handleBadDownloadPath(w http.ResponseWriter, r *http.Request) {
	rest := chi.URLParam(r, "*")
	first, _, _ := strings.Cut(rest, "/")
	if first == "" {
		s.handleNotFound(w, r)
		return
	}
	if _, err := fileid.Parse(first); err != nil {
		s.fail(w, r, err)
		return
	}
	s.handleNotFound(w, r)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, transfer.ErrNotFound):
		return "not_found"
	case errors.Is(err, transfer.ErrTooLarge):
		return "too_large"
	case errors.Is(err, transfer.ErrInvalidForm):
		return "invalid"
	default:
		return "error"
	}
}
