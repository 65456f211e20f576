// Package store persists service requests and activation results in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
)

var (
	ErrRequestNotFound         = errors.New("REQUEST_NOT_FOUND")
	ErrStaleStatus             = errors.New("STALE_REQUEST_STATUS")
	ErrRequestNotApproved      = errors.New("REQUEST_NOT_APPROVED")
	ErrDuplicateBusinessNumber = errors.New("DUPLICATE_BUSINESS_NUMBER")
	ErrDuplicateSlug           = errors.New("DUPLICATE_BUSINESS_SLUG")
	ErrAlreadyResubmitted      = errors.New("REQUEST_ALREADY_RESUBMITTED")
	ErrDatabaseWriteFailed     = errors.New("DATABASE_WRITE_FAILED")
	ErrQueryExecutionFailed    = errors.New("QUERY_EXECUTION_FAILED")
)

const uniqueViolation = "23505"

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// classifyUniqueViolation maps a unique-index violation to the matching
// sentinel, or returns nil when err is something else.
func classifyUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != uniqueViolation {
		return nil
	}
	switch {
	case strings.Contains(pqErr.Constraint, "business_number"):
		return ErrDuplicateBusinessNumber
	case strings.Contains(pqErr.Constraint, "slug"):
		return ErrDuplicateSlug
	case strings.Contains(pqErr.Constraint, "previous_request"):
		return ErrAlreadyResubmitted
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func timeArg(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
