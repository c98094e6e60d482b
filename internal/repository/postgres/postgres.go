// Package postgres implements the repositories on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Volatile-Viv/Try-Karo/pkg/database"
	apperrors "github.com/Volatile-Viv/Try-Karo/pkg/errors"
)

// SQLSTATE codes the repositories translate.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func trace(ctx context.Context, operation, query string) (context.Context, func(error)) {
	return database.TraceQuery(ctx, database.SystemPostgres, operation, query)
}

// validID reports whether id can be a primary key. Anything else cannot match
// a row and is treated as not found without a round trip.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func validIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			valid = append(valid, id)
		}
	}
	return valid
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// translate maps driver errors onto the shared sentinels.
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.ErrNotFound
	case pgCode(err) == uniqueViolation:
		return fmt.Errorf("%s: %w", op, apperrors.ErrAlreadyExists)
	case pgCode(err) == foreignKeyViolation:
		return fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
