// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Sentinels shared by the repository, service and server layers.
// Callers wrap them with fmt.Errorf("...: %w", err) to add context and
// match with errors.Is at the boundary.
var (
	// ErrNotFound indicates the requested puzzle or user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID indicates a puzzle with the same puzzle_id already exists.
	ErrDuplicateID = errors.New("duplicate puzzle id")

	// ErrAlreadyExists indicates a unique constraint violation on user identity
	// (address or username taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrAlreadySolved indicates the puzzle reached its terminal solved state.
	// The submission path treats this as idempotent success.
	ErrAlreadySolved = errors.New("already solved")

	// ErrWrongAnswer indicates the claimed answer does not match the commitment.
	ErrWrongAnswer = errors.New("wrong answer")

	// ErrEncoding indicates an answer that cannot be encoded into the field
	// (empty, or longer than the field's byte capacity).
	ErrEncoding = errors.New("answer not encodable")

	// ErrInvalidPuzzleFormat indicates malformed output from the AI generator.
	ErrInvalidPuzzleFormat = errors.New("invalid puzzle format")

	// ErrUpstreamTimeout indicates the AI or chain call exceeded its deadline.
	// Retryable; nothing was persisted.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrStoreConflict indicates a concurrent write lost a race; the caller
	// should re-read the winning record.
	ErrStoreConflict = errors.New("store conflict")
)
