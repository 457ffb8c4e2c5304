package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/lexis-api/internal/store"
)

// PostgreSQL error codes
const (
	// connectionExceptionClass prefixes every connection exception (08xxx).
	connectionExceptionClass = "08"

	// tooManyConnectionsCode is raised when the server refuses new connections.
	tooManyConnectionsCode = "53300"

	// adminShutdownCode and friends are raised while the server shuts down or restarts.
	adminShutdownCode     = "57P01"
	crashShutdownCode     = "57P02"
	cannotConnectNowCode  = "57P03"
	queryCanceledCode     = "57014"
	invalidTextRepresCode = "22P02"
	undefinedTableCode    = "42P01"
)

// MapError maps a database error to an appropriate store error.
// It wraps the original error to preserve context. Errors that are already
// classified are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrStoreUnavailable) || errors.Is(err, store.ErrNotFound) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	}

	if isUnavailable(err) {
		return fmt.Errorf("%w: %w", store.ErrStoreUnavailable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTableCode {
		return fmt.Errorf("%w: schema is missing, run migrations: %w", store.ErrStoreUnavailable, err)
	}

	switch {
	case IsQueryCanceled(err):
		return fmt.Errorf("%w: %w", context.Canceled, err)
	case IsInvalidTextRepresentation(err):
		return fmt.Errorf("%w: %w", store.ErrInvalidPlan, err)
	}

	return err
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, connectionExceptionClass):
			return true
		case pgErr.Code == tooManyConnectionsCode,
			pgErr.Code == adminShutdownCode,
			pgErr.Code == crashShutdownCode,
			pgErr.Code == cannotConnectNowCode:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsQueryCanceled reports whether the server canceled the statement,
// usually because the request context ended.
func IsQueryCanceled(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == queryCanceledCode
}

// IsInvalidTextRepresentation reports a value the server could not parse,
// such as a malformed uuid.
func IsInvalidTextRepresentation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresCode
}
