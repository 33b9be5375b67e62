package core

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorKind classifies a failure for callers and maps to an HTTP status class.
type ErrorKind string

const (
	KindValidation      ErrorKind = "VALIDATION"
	KindStateTransition ErrorKind = "STATE_TRANSITION"
	KindAuthorization   ErrorKind = "AUTHORIZATION"
	KindNotFound        ErrorKind = "NOT_FOUND"
	KindCapacity        ErrorKind = "CAPACITY"
	KindStock           ErrorKind = "STOCK"
	KindConflict        ErrorKind = "CONFLICT"
	KindUnexpected      ErrorKind = "UNEXPECTED"
)

// Error is the structured error returned by every core operation. Err, when
// set, is the underlying cause and is reachable through errors.Unwrap.
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, so errors.Is(err, ErrInsufficientStock) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// WithDetail returns e with one more detail entry.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Sentinels for errors.Is checks. They carry a kind and a fixed message.
var (
	ErrInsufficientStock          = &Error{Kind: KindStock, Message: "insufficient stock"}
	ErrCapacityExceeded           = &Error{Kind: KindCapacity, Message: "bin capacity exceeded"}
	ErrNotFoundOrAlreadyCompleted = &Error{Kind: KindStateTransition, Message: "putaway task not found or already completed"}
)

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func ValidationError(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

func StateTransitionError(format string, args ...any) *Error {
	return newError(KindStateTransition, format, args...)
}

func AuthorizationError(format string, args ...any) *Error {
	return newError(KindAuthorization, format, args...)
}

func NotFoundError(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func CapacityError(format string, args ...any) *Error {
	return newError(KindCapacity, format, args...)
}

func StockError(format string, args ...any) *Error {
	return newError(KindStock, format, args...)
}

func ConflictError(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

// UnexpectedError wraps an infrastructure failure (driver, network) that the
// caller cannot correct.
func UnexpectedError(err error, format string, args ...any) *Error {
	e := newError(KindUnexpected, format, args...)
	e.Err = err
	return e
}

// KindOf returns the kind of the first *Error in err's chain. Errors outside
// the taxonomy are UNEXPECTED.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// HTTPStatus maps a kind to its HTTP status class.
func HTTPStatus(kind ErrorKind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindStateTransition, KindConflict:
		return http.StatusConflict
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindCapacity, KindStock:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Postgres SQLSTATE codes translated by dbError.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// dbError converts a driver error into the taxonomy. Constraint violations
// become CONFLICT or VALIDATION; everything else is UNEXPECTED with op as
// context.
func dbError(err error, op string) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			e := ConflictError("%s: duplicate value violates %s", op, pgErr.ConstraintName)
			e.Err = err
			return e
		case pgForeignKeyViolation:
			e := ValidationError("%s: referenced row does not exist (%s)", op, pgErr.ConstraintName)
			e.Err = err
			return e
		case pgCheckViolation:
			e := ValidationError("%s: value violates %s", op, pgErr.ConstraintName)
			e.Err = err
			return e
		}
	}
	return UnexpectedError(err, "%s", op)
}
