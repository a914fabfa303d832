package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// PGDiagnostics carries the server-side fields of a Postgres error, whichever
// driver produced it.
type PGDiagnostics struct {
	SQLState   string `json:"sqlstate"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Class is the two-character SQLSTATE class, e.g. "23" for integrity
// violations or "22" for rejected data.
func (d PGDiagnostics) Class() string {
	if len(d.SQLState) < 2 {
		return ""
	}
	return d.SQLState[:2]
}

// ErrorDump flattens an error chain for structured logs.
type ErrorDump struct {
	Message   string         `json:"message"`
	Code      Code           `json:"code,omitempty"`
	Retryable bool           `json:"retryable"`
	Chain     []string       `json:"chain,omitempty"`
	Postgres  *PGDiagnostics `json:"postgres,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{Message: err.Error(), Retryable: Retryable(err)}
	if typed := As(err); typed != nil {
		d.Code = typed.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	d.Postgres = postgresDiagnostics(err)
	return d
}

// LogFields returns the dump as logger fields. Postgres fields appear only
// when the chain holds a Postgres error.
func (d ErrorDump) LogFields() map[string]any {
	fields := map[string]any{
		"error_retryable": d.Retryable,
	}
	if d.Code != "" {
		fields["error_code"] = d.Code
	}
	if len(d.Chain) > 1 {
		fields["error_chain"] = d.Chain
	}
	if pg := d.Postgres; pg != nil {
		fields["pg_sqlstate"] = pg.SQLState
		if pg.Constraint != "" {
			fields["pg_constraint"] = pg.Constraint
		}
		if pg.Table != "" {
			fields["pg_table"] = pg.Table
		}
		if pg.Column != "" {
			fields["pg_column"] = pg.Column
		}
	}
	return fields
}

func postgresDiagnostics(err error) *PGDiagnostics {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &PGDiagnostics{
			SQLState:   pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &PGDiagnostics{
			SQLState:   string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}
	return nil
}
