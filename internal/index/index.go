// Package index is the durable table of uploaded files. It is the single
// source of truth for whether an identifier exists.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/netip"

	"file-drop/internal/db"
	"file-drop/internal/fileid"
	"file-drop/internal/ipaddr"
)

// ErrNotFound is returned by Lookup when no record exists for an identifier.
var ErrNotFound = errors.New("file not found")

// Record is one row of file_index. Records are written once and never
// updated or deleted.
type Record struct {
	ID fileid.ID
	// Name is the display name given at upload; empty means none.
	Name string
	// UploadAddr is the uploader's address. It is the zero Addr when the
	// stored bytes could not be decoded.
	UploadAddr netip.Addr
}

// SQLIndex implements the file index on a database/sql handle.
type SQLIndex struct {
	db      *sql.DB
	insertQ string
	lookupQ string
}

// New returns an index over an already-migrated database.
func New(conn *sql.DB, dialect db.Dialect) *SQLIndex {
	p := dialect.Placeholder
	return &SQLIndex{
		db:      conn,
		insertQ: fmt.Sprintf(
			`INSERT INTO file_index (identifier, name, upload_address) VALUES (%s, %s, %s)`,
			p(1), p(2), p(3)),
		lookupQ: fmt.Sprintf(
			`SELECT name, upload_address FROM file_index WHERE identifier = %s`, p(1)),
	}
}

// Insert adds rec. A duplicate identifier is a storage fault like any other;
// identifiers are random and never re-inserted.
func (x *SQLIndex) Insert(ctx context.Context, rec Record) error {
	var name sql.NullString
	if rec.Name != "" {
		name = sql.NullString{String: rec.Name, Valid: true}
	}
	if _, err := x.db.ExecContext(ctx, x.insertQ, rec.ID.String(), name, ipaddr.Encode(rec.UploadAddr)); err != nil {
		return fmt.Errorf("insert %s: %w", rec.ID, err)
	}
	return nil
}

// Lookup returns the record for id, or ErrNotFound.
func (x *SQLIndex) Lookup(ctx context.Context, id fileid.ID) (Record, error) {
	var (
		name sql.NullString
		raw  []byte
	)
	err := x.db.QueryRowContext(ctx, x.lookupQ, id.String()).Scan(&name, &raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("lookup %s: %w", id, err)
	}

	rec := Record{ID: id, Name: name.String}
	if addr, ok := ipaddr.Decode(raw); ok {
		rec.UploadAddr = addr
	}
	return rec, nil
}

// Ping checks that the underlying database answers.
func (x *SQLIndex) Ping(ctx context.Context) error {
	return x.db.PingContext(ctx)
}
