// Package blob stores the raw bytes of uploaded files, one object per file
// identifier. FSStore keeps them under a content root on local disk;
// MinioStore keeps them in an S3-compatible bucket.
package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"file-drop/internal/fileid"
)

// FSStore stores each file as <root>/<identifier>.
type FSStore struct {
	root string
}

// NewFSStore creates the content root if needed.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("content root is empty")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create content root: %w", err)
	}
	return &FSStore{root: root}, nil
}

// Root returns the content root directory.
func (s *FSStore) Root() string { return s.root }

func (s *FSStore) path(id fileid.ID) string {
	return filepath.Join(s.root, id.String())
}

// Write streams r into the file for id. Bytes go to a temporary file in the
// content root first and are renamed into place once fully written, so a
// failed upload never leaves data under the final name.
func (s *FSStore) Write(ctx context.Context, id fileid.ID, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	n, err := io.Copy(tmp, contextReader{ctx: ctx, r: r})
	if err != nil {
		return n, fmt.Errorf("write %s: %w", id, err)
	}
	if err := tmp.Sync(); err != nil {
		return n, fmt.Errorf("sync %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("close %s: %w", id, err)
	}
	if err := os.Rename(tmpName, s.path(id)); err != nil {
		_ = os.Remove(tmpName)
		committed = true
		return n, fmt.Errorf("rename %s: %w", id, err)
	}
	committed = true
	return n, nil
}

// Open opens the file for id for sequential reading. A missing file is
// reported as an error wrapping os.ErrNotExist.
func (s *FSStore) Open(ctx context.Context, id fileid.ID) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", id, err)
	}
	return f, nil
}

// Ping checks that the content root is still a reachable directory.
func (s *FSStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fi, err := os.Stat(s.root)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("content root %s is not a directory", s.root)
	}
	return nil
}

// contextReader stops a copy once ctx is done, e.g. when the client goes away.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
