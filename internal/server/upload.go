package server

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"file-drop/internal/ipaddr"
	"file-drop/internal/transfer"
)

// multipartMemory is how much of a multipart form is held in memory before
// the rest spools to temporary files.
const multipartMemory = 8 << 20

// handleRawUpload serves POST /raw: the request body is the file.
func (s *Server) handleRawUpload(w http.ResponseWriter, r *http.Request) {
	if !rawContentTypeAllowed(r.Header.Get("Content-Type")) {
		s.uploadFailed(w, r, transfer.ErrInvalidForm)
		return
	}
	s.upload(w, r, r.Body, "")
}

// rawContentTypeAllowed accepts no content type, form-urlencoded, or
// octet-stream. Multipart bodies belong on POST /.
func rawContentTypeAllowed(ct string) bool {
	if ct == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	switch mt {
	case "application/x-www-form-urlencoded", "application/octet-stream":
		return true
	default:
		return false
	}
}

// handleFormUpload serves POST /: a multipart form with a "file" part and an
// optional "name" field.
func (s *Server) handleFormUpload(w http.ResponseWriter, r *http.Request) {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mt != "multipart/form-data" {
		s.uploadFailed(w, r, transfer.ErrInvalidForm)
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if transfer.IsTooLarge(err) {
			s.uploadFailed(w, r, fmt.Errorf("%w: %w", transfer.ErrTooLarge, err))
			return
		}
		s.uploadFailed(w, r, fmt.Errorf("%w: %w", transfer.ErrInvalidForm, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, _, err := r.FormFile("file")
	if err != nil {
		s.uploadFailed(w, r, fmt.Errorf("%w: %w", transfer.ErrInvalidForm, err))
		return
	}
	defer f.Close()

	var name string
	if v := r.MultipartForm.Value["name"]; len(v) > 0 {
		name = v[0]
	}
	s.upload(w, r, f, name)
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request, body io.Reader, name string) {
	start := time.Now()

	addr, err := ipaddr.FromRemoteAddr(r.RemoteAddr)
	if err != nil {
		s.uploadFailed(w, r, err)
		return
	}

	res, err := s.svc.Upload(r.Context(), transfer.UploadRequest{
		Body: body,
		Name: name,
		Addr: addr,
	})
	if err != nil {
		s.uploadFailed(w, r, err)
		return
	}

	s.log.Info("file stored",
		"rid", RequestIDFromContext(r.Context()),
		"id", res.ID.String(),
		"bytes", res.Size,
		"ms", time.Since(start).Milliseconds(),
	)
	s.metrics.RecordUpload("ok", res.Size)

	writeText(w, http.StatusOK, res.URL+"\n")
}

func (s *Server) uploadFailed(w http.ResponseWriter, r *http.Request, err error) {
	s.metrics.RecordUpload(resultLabel(err), 0)
	s.fail(w, r, err)
}

// maxBodyMiddleware caps request bodies at limit bytes; 0 disables.
// A declared Content-Length over the cap is refused without reading.
func maxBodyMiddleware(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				writeText(w, http.StatusRequestEntityTooLarge, bodyTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
