package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrAuthRequired is returned when a mutation is attempted without a signed-in viewer.
var ErrAuthRequired = errors.New("sign in required")

// ErrNotFound is returned for unknown sessions, comments or videos.
var ErrNotFound = errors.New("not found")

// ErrInactive is returned by session mutations when no video is active.
var ErrInactive = errors.New("no active video")

// ErrForbidden is returned when a viewer edits or deletes someone else's comment.
var ErrForbidden = errors.New("only the author can change this comment")

// NetworkError wraps a transport or server failure of a remote call.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ConflictError reports a write rejected because the row already exists.
type ConflictError struct {
	Resource string
	Err      error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists", e.Resource)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// ValidationError rejects input before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

const pgUniqueViolation = "23505"

// classify turns an error from a remote call into one of the engine error
// kinds. Errors that are already classified pass through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		netErr *NetworkError
		confl  *ConflictError
		valErr *ValidationError
	)
	switch {
	case errors.Is(err, ErrAuthRequired), errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden),
		errors.Is(err, ErrInactive),
		errors.As(err, &netErr), errors.As(err, &confl), errors.As(err, &valErr):
		return err
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &ConflictError{Resource: pgErr.TableName, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &NetworkError{Op: op, Err: fmt.Errorf("timed out: %w", err)}
	}
	return &NetworkError{Op: op, Err: err}
}
