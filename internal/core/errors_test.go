package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(nil))
	assert.Equal(t, KindUnexpected, KindOf(errors.New("boom")))
	assert.Equal(t, KindCapacity, KindOf(CapacityError("bin %d full", 3)))

	wrapped := fmt.Errorf("complete putaway: %w", StateTransitionError("task 9 is COMPLETED"))
	assert.Equal(t, KindStateTransition, KindOf(wrapped))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[ErrorKind]int{
		KindValidation:      http.StatusBadRequest,
		KindStateTransition: http.StatusConflict,
		KindAuthorization:   http.StatusForbidden,
		KindNotFound:        http.StatusNotFound,
		KindCapacity:        http.StatusUnprocessableEntity,
		KindStock:           http.StatusUnprocessableEntity,
		KindConflict:        http.StatusConflict,
		KindUnexpected:      http.StatusInternalServerError,
		ErrorKind("other"):  http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), kind)
	}
}

func TestErrorIs_SentinelMatchesByKindAndMessage(t *testing.T) {
	err := insufficientStock("SKU-1", 6, 4)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.ErrorIs(t, fmt.Errorf("pick: %w", err), ErrInsufficientStock)
	assert.NotErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, int64(4), err.Details["available"])

	// Building a detailed error must not mutate the shared sentinel.
	assert.Nil(t, ErrInsufficientStock.Details)
}

func TestError_UnwrapAndMessage(t *testing.T) {
	cause := errors.New("connection reset")
	err := UnexpectedError(cause, "lock bin %d", 4)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "lock bin 4: connection reset", err.Error())
	assert.Equal(t, "bin 4 is inactive", CapacityError("bin %d is inactive", 4).Error())
}

func TestDBError(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "bins_warehouse_id_code_key"}
	check := &pgconn.PgError{Code: "23514", ConstraintName: "bins_check"}
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "requisition_items_item_id_fkey"}

	assert.Equal(t, KindConflict, KindOf(dbError(unique, "insert bin")))
	assert.Equal(t, KindValidation, KindOf(dbError(check, "update bin")))
	assert.Equal(t, KindValidation, KindOf(dbError(fk, "insert line")))
	assert.Equal(t, KindUnexpected, KindOf(dbError(errors.New("eof"), "insert bin")))
	assert.NoError(t, dbError(nil, "noop"))

	// Already classified errors pass through untouched.
	orig := CapacityError("bin full")
	assert.Same(t, orig, dbError(orig, "ignored"))
}
