// Package transfer implements the upload and download protocols on top of
// the blob store and the file index.
//
// Upload: mint identifier, write blob, insert index record, build URL. The
// blob is always complete before its record becomes visible; a failed
// insert leaves an orphaned blob, which is tolerated and never served.
//
// Download: look up record, apply the optional display-name override, open
// the blob.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"net/url"
	"strings"

	"file-drop/internal/fileid"
	"file-drop/internal/index"
)

// BlobStore holds file contents keyed by identifier.
type BlobStore interface {
	Write(ctx context.Context, id fileid.ID, r io.Reader) (int64, error)
	Open(ctx context.Context, id fileid.ID) (io.ReadCloser, error)
}

// Index holds the metadata record for every stored file.
type Index interface {
	Insert(ctx context.Context, rec index.Record) error
	Lookup(ctx context.Context, id fileid.ID) (index.Record, error)
}

// Service orchestrates uploads and downloads.
type Service struct {
	blobs   BlobStore
	index   Index
	baseURL *url.URL
}

// NewService returns a Service that builds download links under baseURL,
// which must be an absolute http(s) URL.
func NewService(blobs BlobStore, idx Index, baseURL string) (*Service, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base url must be an absolute http(s) URL: %q", baseURL)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return &Service{blobs: blobs, index: idx, baseURL: u}, nil
}

// UploadRequest is one inbound file.
type UploadRequest struct {
	Body io.Reader
	// Name is the optional display name; empty means none.
	Name string
	Addr netip.Addr
}

// UploadResult describes a stored file.
type UploadResult struct {
	ID   fileid.ID
	URL  string
	Size int64
}

// Upload stores req.Body under a fresh identifier and records its metadata.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (UploadResult, error) {
	id := fileid.New()

	n, err := s.blobs.Write(ctx, id, req.Body)
	if err != nil {
		if IsTooLarge(err) {
			return UploadResult{}, fmt.Errorf("%w: %w", ErrTooLarge, err)
		}
		return UploadResult{}, fmt.Errorf("%w: %w", ErrIO, err)
	}

	rec := index.Record{ID: id, Name: req.Name, UploadAddr: req.Addr}
	if err := s.index.Insert(ctx, rec); err != nil {
		return UploadResult{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return UploadResult{ID: id, URL: s.URLFor(id), Size: n}, nil
}

// URLFor returns the absolute download link for id.
func (s *Service) URLFor(id fileid.ID) string {
	u := *s.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/fd/" + id.String()
	u.RawPath = ""
	return u.String()
}

// Download is an open file ready to be streamed. The caller must close Body.
type Download struct {
	ID       fileid.ID
	Filename string
	Body     io.ReadCloser
}

// Download opens the file for id. A non-empty nameOverride replaces the
// stored display name for this response only.
func (s *Service) Download(ctx context.Context, id fileid.ID, nameOverride string) (*Download, error) {
	rec, err := s.index.Lookup(ctx, id)
	if err != nil {
		if errors.Is(err, index.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	// A record whose address no longer decodes is treated as absent.
	if !rec.UploadAddr.IsValid() {
		return nil, fmt.Errorf("%w: %s has an unreadable record", ErrNotFound, id)
	}

	name := rec.Name
	if nameOverride != "" {
		name = nameOverride
	}
	if name == "" {
		name = id.String()
	}

	body, err := s.blobs.Open(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	return &Download{ID: id, Filename: name, Body: body}, nil
}
