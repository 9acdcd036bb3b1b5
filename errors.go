package requeue

import "errors"

var (
	// Store errors.
	ErrNoStore         = errors.New("requeue: no store configured")
	ErrStoreClosed     = errors.New("requeue: store closed")
	ErrMigrationFailed = errors.New("requeue: migration failed")

	// Not found errors.
	ErrMessageNotFound = errors.New("requeue: message not found")

	// Conflict errors.
	ErrMessageExists = errors.New("requeue: message already exists")
)
