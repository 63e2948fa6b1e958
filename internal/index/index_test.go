package index

import (
	"context"
	"database/sql"
	"errors"
	"net/netip"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"file-drop/internal/db"
	"file-drop/internal/fileid"
)

func newSQLiteIndex(t *testing.T) (*SQLIndex, *sql.DB) {
	t.Helper()
	url := "sqlite://" + filepath.Join(t.TempDir(), "index.db")
	require.NoError(t, db.RunMigrations(url))

	conn, dialect, err := db.OpenDB(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return New(conn, dialect), conn
}

func TestSQLIndex_InsertLookup(t *testing.T) {
	x, _ := newSQLiteIndex(t)
	ctx := context.Background()

	tests := []struct {
		name string
		rec  Record
	}{
		{"ipv4 with name", Record{ID: fileid.New(), Name: "a.txt", UploadAddr: netip.MustParseAddr("203.0.113.5")}},
		{"ipv6 without name", Record{ID: fileid.New(), UploadAddr: netip.MustParseAddr("2001:db8::7")}},
		{"unicode name", Record{ID: fileid.New(), Name: "résumé \"final\".pdf", UploadAddr: netip.MustParseAddr("198.51.100.1")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, x.Insert(ctx, tt.rec))

			got, err := x.Lookup(ctx, tt.rec.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.rec, got)
		})
	}
}

func TestSQLIndex_LookupUnknown(t *testing.T) {
	x, _ := newSQLiteIndex(t)

	_, err := x.Lookup(context.Background(), fileid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLIndex_EmptyNameStoredAsNull(t *testing.T) {
	x, conn := newSQLiteIndex(t)
	id := fileid.New()
	require.NoError(t, x.Insert(context.Background(), Record{ID: id, UploadAddr: netip.MustParseAddr("127.0.0.1")}))

	var name sql.NullString
	require.NoError(t, conn.QueryRow(`SELECT name FROM file_index WHERE identifier = ?`, id.String()).Scan(&name))
	assert.False(t, name.Valid)
}

func TestSQLIndex_CorruptAddress(t *testing.T) {
	x, conn := newSQLiteIndex(t)
	id := fileid.New()
	_, err := conn.Exec(`INSERT INTO file_index (identifier, name, upload_address) VALUES (?, ?, ?)`,
		id.String(), "x.bin", []byte{1, 2, 3, 4, 5})
	require.NoError(t, err)

	rec, err := x.Lookup(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, rec.UploadAddr.IsValid())
	assert.Equal(t, "x.bin", rec.Name)
}

func TestSQLIndex_DuplicateInsertFails(t *testing.T) {
	x, _ := newSQLiteIndex(t)
	rec := Record{ID: fileid.New(), UploadAddr: netip.MustParseAddr("127.0.0.1")}

	require.NoError(t, x.Insert(context.Background(), rec))
	assert.Error(t, x.Insert(context.Background(), rec))
}

func newMockIndex(t *testing.T, dialect db.Dialect) (*SQLIndex, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return New(conn, dialect), mock
}

func TestSQLIndex_PostgresQueries(t *testing.T) {
	x, mock := newMockIndex(t, db.Postgres)
	id := fileid.New()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO file_index (identifier, name, upload_address) VALUES ($1, $2, $3)`)).
		WithArgs(id.String(), "a.txt", []byte{203, 0, 113, 5}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT name, upload_address FROM file_index WHERE identifier = $1`)).
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows([]string{"name", "upload_address"}).AddRow("a.txt", []byte{203, 0, 113, 5}))

	ctx := context.Background()
	require.NoError(t, x.Insert(ctx, Record{ID: id, Name: "a.txt", UploadAddr: netip.MustParseAddr("203.0.113.5")}))

	rec, err := x.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, netip.MustParseAddr("203.0.113.5"), rec.UploadAddr)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLIndex_InsertFault(t *testing.T) {
	x, mock := newMockIndex(t, db.Postgres)
	boom := errors.New("disk full")

	mock.ExpectExec(`INSERT INTO file_index`).WillReturnError(boom)

	err := x.Insert(context.Background(), Record{ID: fileid.New(), UploadAddr: netip.MustParseAddr("127.0.0.1")})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLIndex_LookupFaultIsNotNotFound(t *testing.T) {
	x, mock := newMockIndex(t, db.SQLite)
	boom := errors.New("database is locked")

	mock.ExpectQuery(`SELECT name, upload_address FROM file_index`).WillReturnError(boom)

	_, err := x.Lookup(context.Background(), fileid.New())
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
