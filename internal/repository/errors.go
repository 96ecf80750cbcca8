package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when a write violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
)

const (
	mysqlDuplicateEntry     = 1062
	postgresUniqueViolation = "23505"
)

// DuplicateKeyError is a unique-index violation. Index is empty when the
// driver did not name the index.
type DuplicateKeyError struct {
	Index string
	Err   error
}

func (e *DuplicateKeyError) Error() string {
	if e.Index == "" {
		return "duplicate key: " + e.Err.Error()
	}
	return "duplicate key on " + e.Index + ": " + e.Err.Error()
}

func (e *DuplicateKeyError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDuplicateKey) hold for every DuplicateKeyError.
func (e *DuplicateKeyError) Is(target error) bool { return target == ErrDuplicateKey }

// DuplicateIndex reports whether err is a unique-index violation from any
// supported driver and, when known, which index was violated.
func DuplicateIndex(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var dupErr *DuplicateKeyError
	if errors.As(err, &dupErr) {
		return dupErr.Index, true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return mysqlIndexName(myErr.Message), true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == postgresUniqueViolation {
		return pgErr.ConstraintName, true
	}
	if errors.Is(err, ErrDuplicateKey) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	return "", false
}

// IsDuplicateKey reports whether err is a unique-index violation.
func IsDuplicateKey(err error) bool {
	_, ok := DuplicateIndex(err)
	return ok
}

// mysqlIndexName extracts the key from "Duplicate entry 'x' for key
// 'table.idx'" (MySQL 8) or "... for key 'idx'" (older servers).
func mysqlIndexName(msg string) string {
	const marker = "for key '"
	i := strings.LastIndex(msg, marker)
	if i < 0 {
		return ""
	}
	name := strings.TrimSuffix(msg[i+len(marker):], "'")
	if dot := strings.LastIndex(name, "."); dot >= 0 {
		name = name[dot+1:]
	}
	return name
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if index, ok := DuplicateIndex(err); ok {
		var dupErr *DuplicateKeyError
		if errors.As(err, &dupErr) {
			return err
		}
		return &DuplicateKeyError{Index: index, Err: err}
	}
	return err
}
