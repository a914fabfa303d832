package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInvalidMessage, status: http.StatusUnprocessableEntity, publicMsg: "message rejected", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "amount must be positive")
	require.Equal(t, CodeValidation, base.Code())
	require.Equal(t, "amount must be positive", base.Message())
	require.Nil(t, base.Details())

	base.WithDetails(map[string]any{"field": "amount"})
	require.NotNil(t, base.Details())

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "insert order")
	require.ErrorIs(t, wrapped, cause)
	require.Equal(t, CodeConflict, wrapped.Code())
	require.Contains(t, wrapped.Error(), "boom")
}

func TestAsFindsTypedErrorInChain(t *testing.T) {
	err := fmt.Errorf("handler: %w", New(CodeNotFound, "Order not found"))
	got := As(err)
	require.NotNil(t, got)
	require.Equal(t, CodeNotFound, got.Code())
	require.True(t, IsCode(err, CodeNotFound))
	require.False(t, IsCode(err, CodeConflict))
	require.Nil(t, As(nil))
}

func TestRetryable(t *testing.T) {
	require.False(t, Retryable(nil))
	require.True(t, Retryable(stdErrors.New("network blip")))
	require.False(t, Retryable(New(CodeInvalidMessage, "bad json")))
	require.True(t, Retryable(Wrap(CodeDependency, stdErrors.New("down"), "broker")))
}

func TestDumpCapturesPostgresDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "payment_inbox_pkey", TableName: "payment_inbox", Message: "duplicate key"}
	err := Wrap(CodeConflict, pgErr, "claim inbox")

	d := Dump(err)
	require.Equal(t, CodeConflict, d.Code)
	require.False(t, d.Retryable)
	require.NotNil(t, d.Postgres)
	require.Equal(t, "23505", d.Postgres.SQLState)
	require.Equal(t, "23", d.Postgres.Class())
	require.Equal(t, "payment_inbox_pkey", d.Postgres.Constraint)
	require.Equal(t, "payment_inbox", d.Postgres.Table)
	require.Len(t, d.Chain, 2)

	fields := d.LogFields()
	require.Equal(t, "23505", fields["pg_sqlstate"])
	require.Equal(t, "payment_inbox_pkey", fields["pg_constraint"])
	require.NotContains(t, fields, "pg_column")
}

func TestDumpReadsLibPQErrors(t *testing.T) {
	err := fmt.Errorf("insert dead letter: %w", &pq.Error{Code: "22021", Table: "order_dead_letters", Message: "invalid byte sequence"})

	d := Dump(err)
	require.True(t, d.Retryable)
	require.NotNil(t, d.Postgres)
	require.Equal(t, "22", d.Postgres.Class())
	require.Equal(t, "order_dead_letters", d.Postgres.Table)
	require.NotContains(t, d.LogFields(), "error_code")
}

func TestDumpWithoutPostgres(t *testing.T) {
	d := Dump(New(CodeNotFound, "order not found"))
	require.Nil(t, d.Postgres)
	require.Equal(t, CodeNotFound, d.LogFields()["error_code"])
	require.NotContains(t, d.LogFields(), "error_chain")
}

func TestDumpNil(t *testing.T) {
	require.Equal(t, ErrorDump{}, Dump(nil))
}
