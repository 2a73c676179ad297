package sqlite

import (
	"database/sql"
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/aristath/satellite/internal/domain"
)

// classifySQLite maps driver result codes to repository error kinds
func classifySQLite(err error) (domain.RepositoryErrorKind, bool) {
	if errors.Is(err, sql.ErrConnDone) {
		return domain.RepositoryErrorConnection, true
	}

	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return "", false
	}

	// extended codes carry the primary code in the low byte
	switch sqliteErr.Code() & 0xff {
	case sqlite3.SQLITE_CONSTRAINT:
		return domain.RepositoryErrorConstraint, true
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return domain.RepositoryErrorTimeout, true
	case sqlite3.SQLITE_AUTH, sqlite3.SQLITE_PERM, sqlite3.SQLITE_READONLY:
		return domain.RepositoryErrorAuthentication, true
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
		return domain.RepositoryErrorConnection, true
	case sqlite3.SQLITE_ERROR, sqlite3.SQLITE_MISMATCH, sqlite3.SQLITE_RANGE:
		return domain.RepositoryErrorQuery, true
	}
	return domain.RepositoryErrorUnknown, true
}
