/**
 * @description
 * Error taxonomy of the persistence layer.
 * Every store failure is an *Error that unwraps to exactly one sentinel below.
 *
 * @dependencies
 * - gorm.io/gorm: translated driver errors
 * - github.com/jackc/pgx/v5/pgconn: PostgreSQL SQLSTATE codes
 * - github.com/mattn/go-sqlite3: SQLite extended result codes
 *
 * @notes
 * - Callers branch with errors.Is(err, store.ErrUniqueViolation) etc.
 * - Nothing here retries; transient failures surface as ErrStorage.
 */

package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	// ErrValidation is returned when a record is missing a required field or holds an
	// out-of-range value. Raised before the record reaches storage where possible.
	ErrValidation = errors.New("validation failed")

	// ErrUniqueViolation is returned on a duplicate ticker or a second analysis for a call.
	ErrUniqueViolation = errors.New("unique constraint violation")

	// ErrForeignKeyViolation is returned when a record references a missing parent, or when
	// deleting a parent that still has dependent rows.
	ErrForeignKeyViolation = errors.New("foreign key violation")

	// ErrNotFound is returned when a read matches no row.
	ErrNotFound = errors.New("record not found")

	// ErrStorage covers connectivity loss, timeouts and unexpected engine failures.
	ErrStorage = errors.New("storage error")
)

// PostgreSQL SQLSTATE codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
)

// Message SQLite reports when a foreign key action aborts a statement
const sqliteForeignKeyMessage = "FOREIGN KEY constraint failed"

// Error carries the failing operation and entity along with the classified kind
type Error struct {
	Op     string // e.g. "create", "get", "delete"
	Entity string // table name
	Kind   error  // one of the sentinels above
	Err    error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Entity, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// wrap classifies err and attaches context. Already-classified errors pass through.
func wrap(op, entity string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Entity: entity, Kind: classify(err), Err: err}
}

func classify(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrUniqueViolation
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrForeignKeyViolation
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return ErrValidation
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrUniqueViolation
		case pgForeignKeyViolation:
			return ErrForeignKeyViolation
		case pgNotNullViolation, pgCheckViolation:
			return ErrValidation
		}
		return ErrStorage
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return ErrUniqueViolation
		case sqlite3.ErrConstraintForeignKey:
			return ErrForeignKeyViolation
		case sqlite3.ErrConstraintTrigger:
			// ON DELETE RESTRICT is enforced by a generated trigger
			if strings.Contains(liteErr.Error(), sqliteForeignKeyMessage) {
				return ErrForeignKeyViolation
			}
		case sqlite3.ErrConstraintNotNull, sqlite3.ErrConstraintCheck:
			return ErrValidation
		}
		return ErrStorage
	}

	return ErrStorage
}

// IsClientError returns true if the error is due to invalid collaborator input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrUniqueViolation) ||
		errors.Is(err, ErrForeignKeyViolation)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
