package postgres

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgUniqueViolation     = "23505"
)

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

// validID reports whether id can be compared against a uuid column.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// limitParam maps the "unbounded" zero limit to NULL, which Postgres treats
// as LIMIT ALL.
func limitParam(limit int) interface{} {
	if limit <= 0 {
		return nil
	}
	return limit
}

func optionalString[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
